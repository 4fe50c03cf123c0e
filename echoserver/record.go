package echoserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestRecord is what gets logged about a single request.
type RequestRecord struct {
	ID      string
	Method  string
	Path    string
	Query   map[string]any
	Headers map[string]any
	Body    string
}

func newRecord(r *http.Request) RequestRecord {
	headers := flatten(r.Header, strings.ToLower)
	if r.Host != "" {
		headers["host"] = r.Host
	}

	return RequestRecord{
		ID:      uuid.New().String(),
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   flatten(r.URL.Query(), nil),
		Headers: headers,
	}
}

// flatten turns single-valued keys into plain strings and keeps the rest as
// lists, optionally rewriting the keys.
func flatten(values map[string][]string, key func(string) string) map[string]any {
	m := make(map[string]any, len(values))
	for k, vs := range values {
		if key != nil {
			k = key(k)
		}
		if len(vs) == 1 {
			m[k] = vs[0]
		} else {
			m[k] = vs
		}
	}
	return m
}

// Line is "METHOD path query headers".
func (rec RequestRecord) Line() string {
	return fmt.Sprintf("%s %s %s %s", rec.Method, rec.Path, toJSON(rec.Query), toJSON(rec.Headers))
}

// QueryLine is "METHOD path query".
func (rec RequestRecord) QueryLine() string {
	return fmt.Sprintf("%s %s %s", rec.Method, rec.Path, toJSON(rec.Query))
}

func toJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%q", err.Error())
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
