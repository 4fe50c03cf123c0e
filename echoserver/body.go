package echoserver

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

func newEncodedReader(enc string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "identity":
		return io.NopCloser(r), nil
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "deflate":
		return zlib.NewReader(r)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

// readLimited reads at most limit bytes of r and reports whether more remained.
func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	bs, err := io.ReadAll(io.LimitReader(r, limit+1))
	if int64(len(bs)) > limit {
		return bs[:limit], true, err
	}
	return bs, false, err
}

// captureBody returns the request body as text. The second result is false
// when the body was not captured because typed capture skipped its content
// type. Read and decode problems are logged and never fail the request.
func (s *Server) captureBody(r *http.Request, id string) (string, bool) {
	if r.Body == nil {
		return "", true
	}

	ct := r.Header.Get("Content-Type")
	if !s.opts.RawBodies && !isTextual(ct) {
		n, _ := io.Copy(io.Discard, r.Body)
		return fmt.Sprintf("<%d bytes of %s>", n, ct), false
	}

	limit := s.opts.MaxBodyBytes
	raw, truncated, err := readLimited(r.Body, limit)
	if err != nil {
		s.log.Warn("could not read body", "req", id, "err", err)
	}
	if truncated {
		s.log.Warn("body exceeds limit, captured a prefix", "req", id, "limit", limit)
	}

	enc := r.Header.Get("Content-Encoding")
	if enc == "" || truncated {
		return string(raw), true
	}

	decoded, err := decode(enc, raw, limit)
	if err != nil {
		s.log.Warn("could not decode body, capturing as sent", "req", id, "encoding", enc, "err", err)
		return string(raw), true
	}
	return string(decoded), true
}

func decode(enc string, raw []byte, limit int64) ([]byte, error) {
	d, err := newEncodedReader(enc, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer d.Close()

	bs, truncated, err := readLimited(d, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("decoded body exceeds %d bytes", limit)
	}
	return bs, nil
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/json", mt == "application/x-ndjson":
		return true
	case strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"):
		return true
	}
	return false
}
