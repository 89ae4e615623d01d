package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/apperr"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type errorDetails struct {
	Kind string `json:"kind"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondErr renders an application error. Internal errors are logged with
// the request logger and reported with an opaque message.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var details interface{}
	if kind := apperr.ErrorKind(err); kind != "" {
		details = errorDetails{Kind: kind}
	}

	switch apperr.ErrorCode(err) {
	case apperr.EINVALID:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", apperr.ErrorMessage(err), details)
	case apperr.ENOTFOUND:
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", apperr.ErrorMessage(err), details)
	case apperr.EUNAUTHORIZED:
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", apperr.ErrorMessage(err), nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", apperr.ErrorMessage(err), nil)
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload", nil)
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field), nil)
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large", nil)
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body cannot be empty", nil)
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body", nil)
	}
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if s.verifyBearer(r.Header.Get("Authorization")) {
		return true
	}
	s.respondErr(w, r, apperr.Errorf(apperr.EUNAUTHORIZED, "Missing or invalid authentication information"))
	return false
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AuthToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}

func parseMovieID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "movieId"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("movieId must be a positive integer")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid("%s must be an integer", name)
	}
	return v, nil
}
