package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jonathan/signal-agent/internal/schemas"
	"github.com/jonathan/signal-agent/internal/types"
	rootschemas "github.com/jonathan/signal-agent/schemas"
)

// maxRecordLine bounds a single JSONL line when checking records
const maxRecordLine = 4 << 20

// RecordWriter writes records as JSON lines
type RecordWriter struct {
	enc *json.Encoder
}

// NewRecordWriter creates a writer over w
func NewRecordWriter(w io.Writer) *RecordWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &RecordWriter{enc: enc}
}

// Write appends one record line
func (w *RecordWriter) Write(rec types.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record for %s: %w", rec.Domain, err)
	}
	return nil
}

// LineError reports a record line that failed the schema
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// CheckRecords validates every non-blank line of r against schema, or against
// the record schema when schema is nil. It returns the failing lines and the
// number of records checked; the error is set only when r cannot be read.
func CheckRecords(r io.Reader, schema *schemas.Validator) ([]*LineError, int, error) {
	if schema == nil {
		var err error
		if schema, err = schemas.Embedded(rootschemas.Record); err != nil {
			return nil, 0, err
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLine)

	var failures []*LineError
	checked, line := 0, 0
	for scanner.Scan() {
		line++
		doc := bytes.TrimSpace(scanner.Bytes())
		if len(doc) == 0 {
			continue
		}
		checked++
		if !json.Valid(doc) {
			failures = append(failures, &LineError{Line: line, Err: errors.New("invalid JSON")})
			continue
		}
		if err := schema.Validate(doc); err != nil {
			failures = append(failures, &LineError{Line: line, Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return failures, checked, fmt.Errorf("failed to read records: %w", err)
	}
	return failures, checked, nil
}
