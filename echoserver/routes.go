package echoserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/siegeai/logharness/hec"
	"github.com/siegeai/logharness/infer"
	"github.com/siegeai/logharness/splunkparse"
	"github.com/urfave/negroni"
)

func (s *Server) setupRoutes() {
	s.router.PathPrefix("/").Methods(http.MethodGet).HandlerFunc(s.handleGet())
	s.router.PathPrefix("/").Methods(http.MethodPost).HandlerFunc(s.handlePost())
	s.router.PathPrefix("/").Methods(http.MethodPut).HandlerFunc(s.handlePut())
	s.router.PathPrefix("/").Methods(http.MethodDelete).HandlerFunc(s.handleDelete())
	s.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(s.handleOptions())
}

func (s *Server) logMiddleware(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	ww, ok := w.(negroni.ResponseWriter)
	if !ok {
		ww = negroni.NewResponseWriter(w)
	}
	next(ww, r)
	s.log.Debug("access", "method", r.Method, "uri", r.RequestURI, "proto", r.Proto,
		"status", ww.Status(), "size", ww.Size())
}

func respond(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, responseBody)
}

func (s *Server) handleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newRecord(r)
		s.log.Info(rec.Line(), "req", rec.ID)
		respond(w)
	}
}

func (s *Server) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newRecord(r)
		s.log.Info(rec.Line(), "req", rec.ID)
		respond(w)
	}
}

func (s *Server) handleOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newRecord(r)
		s.log.Info(rec.Line(), "req", rec.ID)
		respond(w)
	}
}

func (s *Server) handlePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newRecord(r)
		rec.Body, _ = s.captureBody(r, rec.ID)

		s.log.Info(rec.Body, "req", rec.ID)
		s.log.Info(rec.Line(), "req", rec.ID)
		respond(w)
	}
}

func (s *Server) handlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newRecord(r)
		body, captured := s.captureBody(r, rec.ID)
		rec.Body = body

		var segments []splunkparse.Segment
		if captured {
			segments = splunkparse.Split(body)
		}

		s.log.Info(rec.QueryLine(), "req", rec.ID)
		s.log.Info("HEADERS: "+toJSON(rec.Headers), "req", rec.ID)
		s.log.Info("BODY: "+segmentsJSON(segments), "req", rec.ID)

		s.logSegmentDetails(r.Context(), rec.ID, segments)
		respond(w)
	}
}

// logSegmentDetails logs decoded collector events and the inferred schema of
// the batch. Both are debug output and skipped entirely at higher levels.
func (s *Server) logSegmentDetails(ctx context.Context, id string, segments []splunkparse.Segment) {
	if !s.log.Enabled(ctx, slog.LevelDebug) || len(segments) == 0 {
		return
	}

	parsed, raw := splunkparse.Counts(segments)
	events, skipped := hec.DecodeAll(segments)
	s.log.Debug("segments", "req", id, "parsed", parsed, "raw", raw, "events", len(events), "skipped", skipped)
	for _, e := range events {
		s.log.Debug(e.String(), "req", id)
	}

	if schema := infer.BatchSchema(segments); schema != nil {
		bs, err := json.Marshal(schema)
		if err != nil {
			s.log.Warn("could not encode schema", "req", id, "err", err)
			return
		}
		s.log.Debug("SCHEMA: "+string(bs), "req", id)
	}
}

func segmentsJSON(segments []splunkparse.Segment) string {
	if segments == nil {
		segments = []splunkparse.Segment{}
	}
	return toJSON(segments)
}
