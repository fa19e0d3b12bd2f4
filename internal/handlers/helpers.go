package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"aiindex-backend/internal/models"
	"aiindex-backend/internal/services"
)

const notConfiguredMessage = "OpenRouter not configured. Set OPENROUTER_API_KEY in .env"

// maxBodyBytes bounds inbound JSON bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestError is a rejected inbound payload.
type requestError struct {
	message string
	details string
}

func (e *requestError) Error() string {
	return e.message
}

// decodeAndValidate reads a JSON body into dst and checks its struct tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &requestError{message: "Invalid request body", details: err.Error()}
	}
	return validateRequest(dst)
}

func validateRequest(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &requestError{message: "Invalid request body", details: err.Error()}
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "notblank", "required":
		return &requestError{message: fmt.Sprintf("Missing '%s' in request body", fe.Field())}
	default:
		return &requestError{
			message: fmt.Sprintf("Invalid '%s' in request body", fe.Field()),
			details: fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param()),
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message, details string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: r.Header.Get("X-Request-ID"),
	}
}

func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusBadRequest, errorResp(reqErr.message, reqErr.details, r))
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body", err.Error(), r))
}

// handleClientError maps a model client failure onto a 500 reply.
func handleClientError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		upstreamErr  *services.UpstreamHTTPError
		transportErr *services.TransportError
		malformedErr *services.MalformedResponseError
	)

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, errorResp(notConfiguredMessage, "", r))
	case errors.As(err, &upstreamErr):
		resp := errorResp("OpenRouter API error", upstreamErr.Error(), r)
		resp.StatusCode = upstreamErr.StatusCode
		writeJSON(w, http.StatusInternalServerError, resp)
	case errors.As(err, &transportErr):
		writeJSON(w, http.StatusInternalServerError, errorResp("OpenRouter request failed", transportErr.Error(), r))
	case errors.As(err, &malformedErr):
		writeJSON(w, http.StatusInternalServerError, errorResp("Malformed OpenRouter response", malformedErr.Error(), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("Unexpected error", err.Error(), r))
	}
}
