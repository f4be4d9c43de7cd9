package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gymdash/internal/adapters/storage"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/outbox"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/sale"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
	"gymdash/internal/domain/validation"
)

// maxBodyBytes bounds every JSON and form body.
const maxBodyBytes = 1 << 20

// errImmutable is returned for PUT on kinds that only change through actions.
var errImmutable = errors.New("records of this kind cannot be edited")

// errBadBody wraps malformed request bodies.
var errBadBody = errors.New("malformed request body")

// conflicts are domain rule violations reported as 409.
var conflicts = []error{
	storage.ErrConflict,
	member.ErrAlreadyInactive, member.ErrAlreadyActive, member.ErrAlreadyExpired, member.ErrNotActive,
	trainer.ErrAlreadyInactive, trainer.ErrAlreadyActive,
	checkin.ErrAlreadyCheckedIn, checkin.ErrNotCheckedIn, checkin.ErrAlreadyCompleted,
	payment.ErrInvalidTransition,
	product.ErrInsufficientStock, product.ErrDiscontinued, product.ErrAlreadyDiscontinued,
	sale.ErrEmptySale,
	schedule.ErrAtCapacity, schedule.ErrNoEnrollment, schedule.ErrCancelled,
	schedule.ErrAlreadyCancelled, schedule.ErrNotEnrollable, schedule.ErrRoomBooked,
	franchise.ErrAlreadyActive, franchise.ErrAlreadyInactive,
	outbox.ErrInvalidStatus,
	orchestrators.ErrEmailAlreadyExists,
}

// errorStatus maps an error to the HTTP status the API reports for it.
func errorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case validation.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, orchestrators.ErrNotDeletable), errors.Is(err, errImmutable):
		return http.StatusMethodNotAllowed
	}
	for _, c := range conflicts {
		if errors.Is(err, c) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// writeError reports err as JSON. Server errors are logged and their detail
// is withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	body := errorBody{Error: err.Error()}
	if fields, ok := validation.As(err); ok {
		body.Error = "validation failed"
		body.Fields = fields
	}
	if status == http.StatusInternalServerError {
		s.internalError(r, err)
		body.Error = "internal server error"
	}
	writeJSON(w, status, body)
}

func (s *Server) internalError(r *http.Request, err error) {
	s.logger.Error("internal_error",
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if isHTMLRequest(r) {
		s.render(w, r, "error", pageData{Title: "Not found", Status: http.StatusNotFound, Body: "The page you asked for does not exist."})
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readBody reads a bounded request body.
func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	if len(raw) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadBody, maxBodyBytes)
	}
	return raw, nil
}

// strictDecode decodes JSON, rejecting unknown fields.
func strictDecode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}
