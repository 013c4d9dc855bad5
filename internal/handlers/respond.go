package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/creasty/defaults"
	"github.com/gorilla/schema"

	"github.com/mamelilea/agrowtify-web/internal/services"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// respondError maps service errors to status codes. Anything unrecognised is
// logged with op and reported as a 500.
func respondError(w http.ResponseWriter, op string, err error) {
	var vErr *utils.ValidationError
	var upErr *services.UploadError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: vErr.Message, Field: vErr.Field})
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, conflictMessage(err))
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.As(err, &upErr):
		log.Printf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to upload %s", upErr.Filename))
	default:
		log.Printf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

func conflictMessage(err error) string {
	msg := err.Error()
	if msg == services.ErrConflict.Error() {
		return "Already exists"
	}
	return msg
}

// decodeJSON reads one JSON object into dst, rejecting unknown fields.
const maxJSONBody = 1 << 20

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return utils.NewValidationError("body", "Invalid request body: "+err.Error())
	}
	return nil
}

// decodeQuery fills dst from its default tags, then from the query string.
func decodeQuery(r *http.Request, dst interface{}) error {
	if err := defaults.Set(dst); err != nil {
		return err
	}
	if err := formDecoder.Decode(dst, r.URL.Query()); err != nil {
		return queryError(err)
	}
	return nil
}

func queryError(err error) error {
	var multi schema.MultiError
	if errors.As(err, &multi) {
		for field, fieldErr := range multi {
			return utils.NewValidationError(field, fmt.Sprintf("%s is invalid: %v", field, unwrapConversion(fieldErr)))
		}
	}
	return utils.NewValidationError("query", err.Error())
}

func unwrapConversion(err error) error {
	var conv schema.ConversionError
	if errors.As(err, &conv) && conv.Err != nil {
		return conv.Err
	}
	return err
}
