package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matzehuels/jsonflow/pkg/controller"
	"github.com/matzehuels/jsonflow/pkg/document"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/pipeline"
	"github.com/matzehuels/jsonflow/pkg/store"
)

// DocumentResponse is returned by the document endpoints.
type DocumentResponse struct {
	Key   string `json:"key"`
	Text  string `json:"text,omitempty"`
	Valid bool   `json:"valid"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) getFrame(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Controller.Snapshot())
}

// postLayout re-runs the layout synchronously and returns the new frame.
func (s *Server) postLayout(w http.ResponseWriter, r *http.Request) {
	st, err := s.cfg.Controller.Dispatch(r.Context(), controller.Relayout())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !st.Valid() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no valid document to lay out", Code: st.String()})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Controller.Snapshot())
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	text, err := s.cfg.Store.Get(r.Context(), s.cfg.Key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Key: s.cfg.Key, Text: text, Valid: document.Valid([]byte(text))})
}

// putDocument stores the request body verbatim. Malformed text is stored
// too; the diagram simply goes blank until it is fixed.
func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, errs.New(errs.ErrCodeTooLarge, "document exceeds %d bytes", tooBig.Limit))
			return
		}
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if err := s.cfg.Store.Set(r.Context(), s.cfg.Key, string(body)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Key: s.cfg.Key, Valid: document.Valid(body)})
}

// getSVG renders the stored document (or the default one) server-side.
func (s *Server) getSVG(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Runner == nil {
		s.writeError(w, errs.New(errs.ErrCodeUnsupported, "server-side rendering is disabled"))
		return
	}
	text, err := s.cfg.Store.Get(r.Context(), s.cfg.Key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		text = document.DefaultDocument
	case err != nil:
		s.writeError(w, err)
		return
	}

	opts := s.cfg.Options
	opts.Format = pipeline.FormatSVG
	if d := r.URL.Query().Get("direction"); d != "" {
		opts.Direction = d
	}
	svg, err := s.cfg.Runner.Render(r.Context(), []byte(text), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errs.UserMessage(err), Code: string(errs.GetCode(err))})
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidDocument:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidDirection, errs.ErrCodeInvalidEngine,
		errs.ErrCodeInvalidKey, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errs.ErrCodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var _ controller.Surface = (*Hub)(nil)
