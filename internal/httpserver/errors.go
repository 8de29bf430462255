package httpserver

import (
	"encoding/json"
	"log"
	"net/http"

	"ping-backend/internal/domain"
)

// errorBody is the wire shape of every failure: a message plus the
// machine-readable code from the domain taxonomy.
type errorBody struct {
	Error struct {
		Message string      `json:"message"`
		Code    domain.Code `json:"code"`
	} `json:"error"`
}

func statusForCode(code domain.Code) int {
	switch code {
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeBadRequest:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the HTTP response. Unclassified
// errors surface as INTERNAL_SERVER_ERROR without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	var body errorBody
	body.Error.Code = code
	if code == domain.CodeInternal {
		log.Printf("internal error: %v", err)
		body.Error.Message = "internal server error"
	} else {
		body.Error.Message = err.Error()
	}
	writeJSON(w, statusForCode(code), body)
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
