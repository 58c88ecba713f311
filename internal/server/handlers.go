package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/adjpack/pkg/buildinfo"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
	"github.com/matzehuels/adjpack/pkg/observability"
	"github.com/matzehuels/adjpack/pkg/pipeline"
)

// Response headers.
const (
	HeaderRunID = "X-Adjpack-Run"
	HeaderCache = "X-Adjpack-Cache"
	HeaderKeys  = "X-Adjpack-Keys"
	HeaderEdges = "X-Adjpack-Edges"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type runIDKey struct{}

// RunIDFromContext returns the run id assigned to the request.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// runID assigns every request a UUID and echoes it in the response.
func (s *Server) runID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(HeaderRunID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), runIDKey{}, id)))
	})
}

// observe reports request and response events to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.requestCount.Add(1)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
	})
}

type healthBody struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthBody{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Format:  q.Get("format"),
		Policy:  q.Get("policy"),
		Refresh: q.Get("refresh") == "true",
		RunID:   RunIDFromContext(r.Context()),
	}

	var out bytes.Buffer
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	res, err := s.runner.Compress(r.Context(), body, &out, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set(HeaderKeys, strconv.Itoa(res.Stats.Keys))
	h.Set(HeaderEdges, strconv.Itoa(res.Stats.Edges))
	s.writeResult(w, res, "application/octet-stream", out.Bytes())
}

func (s *Server) handleDecompress(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.Options{
		Format:  r.URL.Query().Get("format"),
		Refresh: r.URL.Query().Get("refresh") == "true",
		RunID:   RunIDFromContext(r.Context()),
	}

	var out bytes.Buffer
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	res, err := s.runner.Decompress(r.Context(), body, &out, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res, "text/tab-separated-values; charset=utf-8", out.Bytes())
}

func (s *Server) writeResult(w http.ResponseWriter, res *pipeline.Result, contentType string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	if res.CacheHit {
		h.Set(HeaderCache, "hit")
	} else {
		h.Set(HeaderCache, "miss")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response", "run", res.RunID, "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a JSON body. Bad input gives
// 400, an oversized body 413, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorCount.Add(1)
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)

	status := http.StatusInternalServerError
	body := errorBody{Code: string(apperr.GetCode(err)), Message: apperr.UserMessage(err)}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		body = errorBody{
			Code:    string(apperr.ErrCodeInvalidInput),
			Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
		}
	case apperr.IsUserError(err):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		status = 499
	}
	if body.Code == "" {
		body.Code = string(apperr.ErrCodeInternal)
	}
	s.writeJSON(w, status, body)
}
