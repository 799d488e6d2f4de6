// Package record parses uploaded Q&A documents into ingest records.
//
// The source format is newline-delimited JSON, one record per non-empty
// line:
//
//	{"id": "...", "question": "...", "answer": "...", "context": "..."}
//
// id and context are optional. Parsing preserves input order; downstream
// batch membership depends on it.
package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// maxLineBytes caps a single record line. Uploaded Q&A records are small;
// 4 MiB leaves generous headroom.
const maxLineBytes = 4 * 1024 * 1024

// Metadata holds the structured fields preserved alongside the vector for
// retrieval-time display. Context is nil when the source record lacks it,
// so it is omitted from serialized payloads rather than stored empty.
type Metadata struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Context  *string `json:"context,omitempty"`
}

// IngestRecord is one normalized Q&A record ready for embedding and
// indexing. Re-ingesting the same ID overwrites the prior index entry.
type IngestRecord struct {
	ID   string
	Text string
	Meta Metadata
}

// ParseError reports a malformed input line. Line is the zero-based index
// of the offending line in the source object.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawRecord is the wire shape of one source line. Missing question/answer
// decode to empty strings; a missing context stays nil.
type rawRecord struct {
	ID       string  `json:"id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Context  *string `json:"context"`
}

// ParseLines parses JSONL content into ordered ingest records. Blank lines
// are skipped. The first malformed line aborts parsing with a *ParseError;
// the whole event is re-driven after the upload is fixed rather than
// indexing a partial knowledge base.
//
// Records without an id get "record-<i>" where i is the zero-based input
// line index. Text is question, answer and context joined by newlines with
// trailing whitespace trimmed; missing fields degrade to empty strings.
func ParseLines(content string) ([]IngestRecord, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []IngestRecord
	lineNo := -1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw rawRecord
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
		records = append(records, normalize(raw, lineNo))
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: lineNo + 1, Err: err}
	}

	return records, nil
}

// normalize converts a decoded line into an IngestRecord, applying the id
// and text defaulting rules.
func normalize(raw rawRecord, line int) IngestRecord {
	id := raw.ID
	if id == "" {
		id = fmt.Sprintf("record-%d", line)
	}

	ctx := ""
	if raw.Context != nil {
		ctx = *raw.Context
	}
	text := strings.TrimRight(raw.Question+"\n"+raw.Answer+"\n"+ctx, " \t\r\n")

	return IngestRecord{
		ID:   id,
		Text: text,
		Meta: Metadata{
			Question: raw.Question,
			Answer:   raw.Answer,
			Context:  raw.Context,
		},
	}
}
