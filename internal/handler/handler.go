package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/service"
)

type Handler struct {
	auth service.AuthService
	cfg  *config.Config
}

func New(auth service.AuthService, cfg *config.Config) *Handler {
	return &Handler{auth: auth, cfg: cfg}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func decodeValidate(r *http.Request, body any) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		logger.Log.Debug("request body is not valid json", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request body failed validation", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("encode response", "error", err)
	}
}

// writeError maps an error to its HTTP answer. An ErrorWithStatusCode with
// an empty message produces a bare status line (the login endpoints answer
// 401 with no body on purpose).
func writeError(w http.ResponseWriter, err error) {
	var e *internal_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		if e.Message == "" {
			w.WriteHeader(e.StatusCode)
			return
		}
		http.Error(w, e.Message, e.StatusCode)
		return
	}
	logger.Log.Error("unhandled error in handler", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
