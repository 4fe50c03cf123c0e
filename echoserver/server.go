// Package echoserver is a permissive stand-in for a log collector. It accepts
// any path, logs what it was sent, and always answers 200 "Hello World!".
package echoserver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
)

const responseBody = "Hello World!"

type Options struct {
	// RawBodies captures every body as text regardless of its Content-Type.
	// When false only text-like bodies are captured and segmented.
	RawBodies    bool
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	opts    Options
	log     *slog.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}

	s := &Server{
		router: mux.NewRouter().SkipClean(true),
		opts:   opts,
		log:    opts.Logger,
	}
	s.setupRoutes()

	n := negroni.New(negroni.HandlerFunc(s.logMiddleware))
	n.UseHandler(s.router)
	s.handler = n

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
