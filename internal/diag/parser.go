package diag

import (
	"encoding/json"
	"strings"
)

// Diagnostic is one actionable compiler diagnostic: an error code anchored to
// the file and line of its primary span.
type Diagnostic struct {
	Code    string `json:"code"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// cargo check --message-format=json emits one self-contained JSON object per
// stdout line. Only the fields below are consumed.
type rawRecord struct {
	Reason  string      `json:"reason"`
	Message *rawMessage `json:"message"`
}

type rawMessage struct {
	Code    *rawCode  `json:"code"`
	Message string    `json:"message"`
	Spans   []rawSpan `json:"spans"`
}

type rawCode struct {
	Code string `json:"code"`
}

type rawSpan struct {
	FileName  string `json:"file_name"`
	LineStart int    `json:"line_start"`
	IsPrimary bool   `json:"is_primary"`
}

// Parse decodes a structured diagnostic stream into Diagnostics.
//
// Each line is parsed independently. Lines that are not JSON records are
// noise mixed into the stream (build progress, artifact messages) and are
// skipped without error. A record is kept only if it is a compiler message
// carrying a non-empty error code and at least one primary span; the first
// primary span provides the file and line.
func Parse(stdout string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Reason != "compiler-message" || rec.Message == nil {
			continue
		}
		if rec.Message.Code == nil || rec.Message.Code.Code == "" {
			continue
		}
		primary := primarySpan(rec.Message.Spans)
		if primary == nil {
			continue
		}
		diags = append(diags, Diagnostic{
			Code:    rec.Message.Code.Code,
			File:    primary.FileName,
			Line:    primary.LineStart,
			Message: rec.Message.Message,
		})
	}
	return diags
}

// primarySpan returns the first span flagged primary, or nil.
func primarySpan(spans []rawSpan) *rawSpan {
	for i := range spans {
		if spans[i].IsPrimary {
			return &spans[i]
		}
	}
	return nil
}
