package echoserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/p?a=1&b=2&b=3", nil)
	req.Header.Add("Accept-Encoding", "gzip")
	req.Header.Add("X-Multi", "one")
	req.Header.Add("X-Multi", "two")

	rec := newRecord(req)

	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "GET", rec.Method)
	assert.Equal(t, "/p", rec.Path)
	assert.Equal(t, map[string]any{"a": "1", "b": []string{"2", "3"}}, rec.Query)
	assert.Equal(t, "gzip", rec.Headers["accept-encoding"])
	assert.Equal(t, []string{"one", "two"}, rec.Headers["x-multi"])
	assert.Equal(t, "example.com", rec.Headers["host"])
}

func TestRecordLines(t *testing.T) {
	rec := RequestRecord{
		Method:  "GET",
		Path:    "/a",
		Query:   map[string]any{"q": "<x&y>"},
		Headers: map[string]any{},
	}

	assert.Equal(t, `GET /a {"q":"<x&y>"} {}`, rec.Line())
	assert.Equal(t, `GET /a {"q":"<x&y>"}`, rec.QueryLine())
}

func TestIsTextual(t *testing.T) {
	tests := map[string]bool{
		"":                                 true,
		"text/plain":                       true,
		"text/plain; charset=utf-8":        true,
		"application/json":                 true,
		"application/x-ndjson":             true,
		"application/vnd.api+json":         true,
		"application/octet-stream":         false,
		"image/png":                        false,
		"multipart/form-data; boundary=xx": false,
		"not a media type;;":               false,
	}

	for ct, want := range tests {
		assert.Equal(t, want, isTextual(ct), ct)
	}
}
