package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pix-service/internal/dtos"
	internalErrors "pix-service/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

// writeError renders err with the status its kind maps to.
func (s *HttpServer) writeError(w http.ResponseWriter, err error) {
	kind := internalErrors.KindOf(err)

	response := dtos.ErrorResponse{
		Success: false,
		Kind:    string(kind),
		Error:   err.Error(),
	}

	var ce *internalErrors.ChargeError
	if errors.As(err, &ce) {
		response.Error = ce.Message
		response.Details = ce.Detail
	}

	if err := writeJSON(w, kind.HTTPStatus(), response); err != nil {
		s.logger.Error("failed to write error response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// firstString returns the first non-empty value among keys. Numbers are
// accepted as well, since CRMs often send lead numbers and phones unquoted.
func firstString(body map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := body[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
