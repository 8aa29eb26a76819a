package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/domain/validation"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var errMalformedBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON decodes a single JSON object from the request body, rejecting
// unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errMalformedBody, err.Error())
	}
	return nil
}

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, errorResponse) {
	var (
		verr       *validation.Error
		quantity   *order.InvalidQuantityError
		missing    *order.ProductNotFoundError
		stock      *product.InsufficientStockError
		transition *order.InvalidTransitionError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Code: "validation_failed", Message: "validation failed", Fields: verr.Fields}
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, errorResponse{Code: "bad_request", Message: err.Error()}
	case errors.Is(err, order.ErrEmptyItems):
		return http.StatusBadRequest, errorResponse{Code: "empty_items", Message: err.Error()}
	case errors.Is(err, order.ErrUnknownStatus):
		return http.StatusBadRequest, errorResponse{Code: "unknown_status", Message: err.Error()}
	case errors.As(err, &quantity):
		return http.StatusUnprocessableEntity, errorResponse{Code: "invalid_quantity", Message: quantity.Error()}
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, errorResponse{Code: "product_unavailable", Message: missing.Error()}
	case errors.As(err, &stock):
		return http.StatusConflict, errorResponse{Code: "insufficient_stock", Message: stock.Error()}
	case errors.As(err, &transition):
		return http.StatusConflict, errorResponse{Code: "invalid_transition", Message: transition.Error()}
	case errors.Is(err, order.ErrNumberConflict):
		return http.StatusConflict, errorResponse{Code: "conflict", Message: "order number already taken, retry"}
	case errors.Is(err, customer.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Code: "email_taken", Message: err.Error()}
	case errors.Is(err, feedback.ErrAlreadyReviewed):
		return http.StatusConflict, errorResponse{Code: "already_reviewed", Message: err.Error()}
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound):
		return http.StatusNotFound, errorResponse{Code: "not_found", Message: rootMessage(err)}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Code: "invalid_credentials", Message: err.Error()}
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: err.Error()}
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, errorResponse{Code: "forbidden", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal", Message: "internal server error"}
	}
}

// rootMessage strips wrapping context so clients see "product not found"
// rather than internal call paths.
func rootMessage(err error) string {
	for _, target := range []error{product.ErrNotFound, order.ErrNotFound, customer.ErrNotFound} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="teashop"`)
	}
	writeJSON(w, status, body)
}
