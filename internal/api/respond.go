package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/deployer"
	"github.com/yanizio/pagesmith/internal/design"
	"github.com/yanizio/pagesmith/internal/resolve"
)

// maxBody caps request bodies; prompts are text, not uploads.
const maxBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, design.ErrValidation), errors.Is(err, deployer.ErrMissingVersion):
		return http.StatusBadRequest
	case errors.Is(err, design.ErrNotFound), errors.Is(err, resolve.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, design.ErrUnsupported):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// failOp writes err with the matching status.  Server-side failures are
// prefixed with action ("Failed to deploy") and keep the upstream message.
func (h *Handler) failOp(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Errorw("api operation failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "Failed to "+action+": "+err.Error())
		return
	}
	writeError(w, status, callerMessage(err))
}

// callerMessage drops the sentinel prefix ("not found: ...") so the body
// reads as a sentence.
func callerMessage(err error) string {
	if errors.Is(err, deployer.ErrMissingVersion) {
		return "versionId is required by this deployment gateway"
	}
	msg := err.Error()
	for _, s := range []error{design.ErrValidation, design.ErrNotFound, resolve.ErrNotFound} {
		if errors.Is(err, s) {
			if rest, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
				return rest
			}
		}
	}
	return msg
}

// decode reads a JSON body into dst and runs struct validation.  The
// returned message is suitable for a 400 response.
func decode(w http.ResponseWriter, r *http.Request, dst any, invalidMsg string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "invalid request body", false
	}
	if err := validate.Struct(dst); err != nil {
		return invalidMsg, false
	}
	return "", true
}
