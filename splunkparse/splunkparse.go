// Package splunkparse splits the bodies posted by log-shipping drivers into
// their individual JSON events.
//
// Drivers batch events by writing JSON objects back to back with no separator,
// so the end of each object is the only delimiter. Split walks the body with a
// two-state machine: it accumulates characters while tracking brace depth and
// string literals, and flushes the accumulated text as one segment whenever a
// closing brace returns the depth to zero. Text after the last flush is never
// emitted.
//
// An object that never closes would hold the depth above zero for the rest of
// the body. When that happens the leftover text is split again: a closing
// brace still ends a segment when it returns to the depth the segment started
// at, and when no later brace can do that the next closing brace ends the
// broken object instead.
package splunkparse

import (
	"bytes"
	"encoding/json"

	"github.com/valyala/fastjson"
)

// Segment is one entry of a split body. Value is nil when Raw is not a valid
// JSON document.
type Segment struct {
	Value *fastjson.Value
	Raw   string
}

func (s Segment) Parsed() bool {
	return s.Value != nil
}

// MarshalJSON renders parsed segments as the JSON they hold and fallbacks as
// a JSON string of their raw text.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.Value != nil {
		return []byte(s.Raw), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.Raw); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type state int

const (
	stateAccumulating state = iota
	stateFlushOnClose
)

// lexer tracks whether the scan is inside a string literal.
type lexer struct {
	inString bool
	escaped  bool
}

// structural reports whether c is outside any string literal and updates the
// string state.
func (l *lexer) structural(c byte) bool {
	if l.inString {
		switch {
		case l.escaped:
			l.escaped = false
		case c == '\\':
			l.escaped = true
		case c == '"':
			l.inString = false
		}
		return false
	}
	if c == '"' {
		l.inString = true
		return false
	}
	return true
}

type machine struct {
	body  string
	state state
	start int
	depth int
	lex   lexer

	out []Segment
}

// Split returns the segments of body in the order they appear.
func Split(body string) []Segment {
	m := machine{body: body}
	for i := 0; i < len(body); i++ {
		m.step(i)
		if m.state == stateFlushOnClose {
			m.flush(i)
		}
	}
	if m.depth > 0 {
		m.recover()
	}
	return m.out
}

// step consumes body[i]. Structural characters are ASCII, so bytes suffice.
func (m *machine) step(i int) {
	c := m.body[i]
	if !m.lex.structural(c) {
		return
	}

	switch c {
	case '{':
		m.depth++
	case '}':
		m.depth--
		if m.depth <= 0 {
			m.state = stateFlushOnClose
		}
	}
}

func (m *machine) flush(i int) {
	raw := m.body[m.start : i+1]
	m.out = append(m.out, parseSegment(raw))

	m.start = i + 1
	m.depth = 0
	m.state = stateAccumulating
}

type closeBrace struct {
	pos   int
	depth int
}

// recover splits the text left after an unclosed object. depth is counted
// from m.start, and base is the depth at which the current segment began.
func (m *machine) recover() {
	var closes []closeBrace
	var lex lexer
	depth := 0
	for i := m.start; i < len(m.body); i++ {
		c := m.body[i]
		if !lex.structural(c) {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			closes = append(closes, closeBrace{pos: i, depth: depth})
		}
	}
	if len(closes) == 0 {
		return
	}

	// lowest[i] is the smallest depth any brace in closes[i:] returns to.
	lowest := make([]int, len(closes))
	lowest[len(closes)-1] = closes[len(closes)-1].depth
	for i := len(closes) - 2; i >= 0; i-- {
		lowest[i] = min(closes[i].depth, lowest[i+1])
	}

	base := 0
	for i, c := range closes {
		if c.depth <= base || lowest[i] > base {
			m.flush(c.pos)
			base = c.depth
		}
	}
}

// parseSegment keeps only segments that are strict JSON. fastjson alone
// accepts number forms such as 01 and NaN.
func parseSegment(raw string) Segment {
	if !json.Valid([]byte(raw)) {
		return Segment{Raw: raw}
	}
	v, err := fastjson.Parse(raw)
	if err != nil {
		return Segment{Raw: raw}
	}
	return Segment{Value: v, Raw: raw}
}

// Counts reports how many segments parsed and how many fell back to raw text.
func Counts(segments []Segment) (parsed, raw int) {
	for _, s := range segments {
		if s.Parsed() {
			parsed++
		} else {
			raw++
		}
	}
	return parsed, raw
}
