package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

const (
	// StatusTimeoutPositive marks a signal that timed out in profit
	StatusTimeoutPositive = "TIMEOUT_POSITIVE"
	// StatusWin is what a positive timeout is rewritten to
	StatusWin = "WIN"
	// ClosedByTP1 is the closure reason recorded for rewritten signals
	ClosedByTP1 = "TP1"
)

// ErrNotArray is returned when a log file does not hold a JSON array
var ErrNotArray = errors.New("top-level value is not a JSON array")

// Signal is one logged event. Its performance is optional.
type Signal struct {
	Object
}

// Performance returns the nested performance object. It reports false when
// the field is absent, null, or not an object.
func (s *Signal) Performance() (*Performance, bool) {
	raw, ok := s.Get("performance")
	if !ok || firstByte(raw) != '{' {
		return nil, false
	}
	var p Performance
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// SetPerformance replaces the performance object of the signal
func (s *Signal) SetPerformance(p *Performance) error {
	raw, err := p.MarshalJSON()
	if err != nil {
		return err
	}
	return s.Set("performance", raw)
}

// Performance describes the outcome of a signal
type Performance struct {
	Object
}

// Status returns the status if present and a string
func (p *Performance) Status() (string, bool) {
	return p.GetString("status")
}

// CloseAsWin rewrites a positive timeout into a win closed at TP1
func (p *Performance) CloseAsWin() error {
	if err := p.SetString("status", StatusWin); err != nil {
		return err
	}
	return p.SetString("closed_by", ClosedByTP1)
}

// PatchSignal applies the timeout rewrite to one raw record. It reports
// whether the record changed; unchanged records are returned as given.
func PatchSignal(raw json.RawMessage) (json.RawMessage, bool, error) {
	if firstByte(raw) != '{' {
		return raw, false, nil
	}

	var s Signal
	if err := json.Unmarshal(raw, &s); err != nil {
		return raw, false, err
	}
	perf, ok := s.Performance()
	if !ok {
		return raw, false, nil
	}
	if status, ok := perf.Status(); !ok || status != StatusTimeoutPositive {
		return raw, false, nil
	}

	if err := perf.CloseAsWin(); err != nil {
		return raw, false, err
	}
	if err := s.SetPerformance(perf); err != nil {
		return raw, false, err
	}
	// json.Marshal would HTML-escape the untouched raw values
	out, err := s.MarshalJSON()
	if err != nil {
		return raw, false, err
	}
	return out, true, nil
}

// Document is the decoded content of one signal log file
type Document []json.RawMessage

// LoadDocument reads and parses a signal log file
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: invalid UTF-8", path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, err
	}
	if doc == nil {
		// a literal null
		return nil, ErrNotArray
	}
	return doc, nil
}

// Patch rewrites every positive timeout in place and returns how many
// records changed
func (d Document) Patch() (int, error) {
	patched := 0
	for i, raw := range d {
		out, changed, err := PatchSignal(raw)
		if err != nil {
			return patched, fmt.Errorf("record %d: %w", i, err)
		}
		if changed {
			d[i] = out
			patched++
		}
	}
	return patched, nil
}

// WriteFile writes the document with 2-space indentation, creating or
// truncating path
func (d Document) WriteFile(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	return d.Encode(file)
}

// Encode writes the document as indented JSON
func (d Document) Encode(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(d)
}
