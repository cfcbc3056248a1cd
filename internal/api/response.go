package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/pagination"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("encoding response failed")
		}
	}
}

// writeError maps err onto the error envelope. Errors without a code are
// internal and their message is never shown.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	typed := apperr.As(err)
	if typed == nil {
		typed = apperr.Wrap(apperr.CodeInternal, err, "unexpected error")
	}
	meta := apperr.MetadataFor(typed.Code())

	payload := errorEnvelope{Error: apiError{Code: string(typed.Code()), Message: meta.PublicMessage}}
	if typed.Code() != apperr.CodeInternal && typed.Message() != "" {
		payload.Error.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	logger := zerolog.Ctx(r.Context())
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("code", string(typed.Code())).Msg("request rejected")
	}
	jsonResponse(w, meta.HTTPStatus, payload)
}

// jsonError writes an error envelope with a fixed message.
func jsonError(w http.ResponseWriter, r *http.Request, code apperr.Code, message string) {
	writeError(w, r, apperr.New(code, message))
}

func message(text string) map[string]string {
	return map[string]string{"message": text}
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.Field("id", "must be a positive integer"))
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.Field(key, "must be a positive integer"))
	}
	return id, nil
}

// pageParams reads page and limit from the query string.
func pageParams(r *http.Request) (pagination.Params, error) {
	q := r.URL.Query()
	p, err := pagination.Parse(q.Get("page"), q.Get("limit"))
	if err != nil {
		return p, apperr.Validation(apperr.Field("page", err.Error()))
	}
	return p, nil
}
