package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"pngme/models"
	"pngme/pngmeta"
	"pngme/stash"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// images are accepted up to this size plus the configured payload limit
const maxImageSize = 32 << 20

type ServeCmd struct {
	Addr string `help:"Listen address, the configured ServerAddr when empty."`
}

func (c *ServeCmd) Run(d *deps) error {
	addr := c.Addr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	srv := &Server{stash: d.stash, logger: logger, maxBody: maxImageSize + int64(cfg.MaxPayloadBytes)}
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  time.Second * 15,
		WriteTimeout: time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// Server exposes the stash operations. Every request carries its own PNG
// in the body, nothing is shared between requests.
type Server struct {
	stash   *stash.Stash
	logger  *slog.Logger
	maxBody int64
}

func (srv *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/ping", srv.pingHandler)
	r.Route("/api", func(r chi.Router) {
		r.Post("/encode", srv.encodeHandler)
		r.Post("/decode", srv.decodeHandler)
		r.Post("/remove", srv.removeHandler)
		r.Post("/print", srv.printHandler)
		r.Get("/history", srv.historyHandler)
	})
	return r
}

func (srv *Server) pingHandler(w http.ResponseWriter, req *http.Request) {
	if _, err := w.Write([]byte("pong")); err != nil {
		srv.logger.Error("server ping", "error", err)
	}
}

func (srv *Server) encodeHandler(w http.ResponseWriter, req *http.Request) {
	body, ok := srv.readBody(w, req)
	if !ok {
		return
	}
	q := req.URL.Query()
	out, chunk, err := srv.stash.EncodeBytes(body, stash.EncodeReq{
		ChunkType: q.Get("type"),
		Message:   q.Get("message"),
		Keyword:   q.Get("keyword"),
		BeforeEnd: q.Get("before_end") == "true",
	})
	if err != nil {
		srv.writeError(w, req, err)
		return
	}
	srv.logger.Info("encode request", "type", chunk.Type().String(), "size", chunk.Length())
	srv.stash.RecordUpload(uploadName(req), models.OpEncode, chunk)
	srv.writePNG(w, out)
}

func (srv *Server) decodeHandler(w http.ResponseWriter, req *http.Request) {
	body, ok := srv.readBody(w, req)
	if !ok {
		return
	}
	q := req.URL.Query()
	msg, err := srv.stash.DecodeBytes(body, stash.DecodeReq{ChunkType: q.Get("type"), Keyword: q.Get("keyword")})
	if err != nil {
		srv.writeError(w, req, err)
		return
	}
	if q.Get("render") == "html" {
		html, err := renderMarkdown(msg)
		if err != nil {
			srv.writeError(w, req, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, html)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, msg)
}

func (srv *Server) removeHandler(w http.ResponseWriter, req *http.Request) {
	body, ok := srv.readBody(w, req)
	if !ok {
		return
	}
	q := req.URL.Query()
	out, chunk, err := srv.stash.RemoveBytes(body, stash.RemoveReq{
		ChunkType: q.Get("type"),
		Force:     q.Get("force") == "true",
	})
	if err != nil {
		srv.writeError(w, req, err)
		return
	}
	srv.logger.Info("remove request", "type", chunk.Type().String())
	srv.stash.RecordUpload(uploadName(req), models.OpRemove, chunk)
	srv.writePNG(w, out)
}

func (srv *Server) printHandler(w http.ResponseWriter, req *http.Request) {
	body, ok := srv.readBody(w, req)
	if !ok {
		return
	}
	entries, err := srv.stash.PrintBytes(body, stash.PrintOpts{TextOnly: req.URL.Query().Get("text_only") == "true"})
	if err != nil {
		srv.writeError(w, req, err)
		return
	}
	srv.writeJSON(w, entries)
}

func (srv *Server) historyHandler(w http.ResponseWriter, req *http.Request) {
	records, err := srv.stash.History(req.URL.Query().Get("file"))
	if err != nil {
		srv.writeError(w, req, err)
		return
	}
	srv.writeJSON(w, records)
}

// uploadName labels ledger records of an upload: the name query parameter,
// or the request id when the client sent none.
func uploadName(req *http.Request) string {
	if name := req.URL.Query().Get("name"); name != "" {
		return name
	}
	return middleware.GetReqID(req.Context())
}

func (srv *Server) readBody(w http.ResponseWriter, req *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, srv.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (srv *Server) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		srv.logger.Warn("failed to write png", "error", err)
	}
}

func (srv *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.logger.Warn("failed to write json", "error", err)
	}
}

func (srv *Server) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		srv.logger.Error("request failed", "path", req.URL.Path, "request_id", middleware.GetReqID(req.Context()), "error", err)
	} else {
		srv.logger.Debug("request rejected", "path", req.URL.Path, "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, pngmeta.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pngmeta.ErrInvalidUTF8):
		return http.StatusUnprocessableEntity
	case errors.Is(err, stash.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, stash.ErrCriticalChunk):
		return http.StatusForbidden
	case errors.Is(err, stash.ErrNoLedger):
		return http.StatusServiceUnavailable
	case errors.Is(err, pngmeta.ErrSignatureMismatch),
		errors.Is(err, pngmeta.ErrTruncated),
		errors.Is(err, pngmeta.ErrCRCMismatch),
		errors.Is(err, pngmeta.ErrInvalidTypeBytes),
		errors.Is(err, pngmeta.ErrBadTextChunk):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
