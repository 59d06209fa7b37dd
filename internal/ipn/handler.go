package ipn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	"github.com/frahmantamala/paypal-enrolment/internal/transport"
)

// maxBodySize bounds what the handler will read from a single delivery.
const maxBodySize = 1 << 20

// ServiceAPI is what the webhook handler needs from the decision engine.
type ServiceAPI interface {
	ProcessNotification(ctx context.Context, n *Notification) error
}

// WebhookHandler is the inbound IPN endpoint. Two disjoint error channels:
// admission failures answer a generic 400 to the caller; everything after
// admission answers an empty 200, because the gateway retries on anything
// else and must never see error detail.
type WebhookHandler struct {
	*transport.BaseHandler
	service ServiceAPI
	logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		logger:      logger,
	}
}

func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("notification rejected: method not allowed", "method", r.Method)
		h.WriteText(w, http.StatusBadRequest, internal.ErrInvalidRequest.Message)
		return
	}

	// Deliveries carry everything in the body; a query string means someone
	// is probing the endpoint by hand.
	if r.URL.RawQuery != "" {
		h.logger.Warn("notification rejected: query parameters present")
		h.WriteText(w, http.StatusBadRequest, internal.ErrInvalidRequest.Message)
		return
	}

	// The gateway always posts form-encoded bodies, possibly with a charset
	// parameter appended.
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		h.logger.Warn("notification rejected: unexpected content type", "content_type", ct)
		h.WriteText(w, http.StatusBadRequest, internal.ErrInvalidRequest.Message)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.logger.Error("failed to read notification body", "error", err)
		h.WriteText(w, http.StatusBadRequest, internal.ErrInvalidRequest.Message)
		return
	}

	notification, err := ParseNotification(string(body), time.Now().UTC())
	if err != nil {
		h.logger.Warn("notification rejected at admission", "error", err)
		h.WriteText(w, http.StatusBadRequest, internal.ErrInvalidRequest.Message)
		return
	}

	h.logger.Info("received payment notification",
		"txn_id", notification.TxnID(),
		"payment_status", notification.PaymentStatus(),
		"user_id", notification.UserID,
		"course_id", notification.CourseID,
		"instance_id", notification.InstanceID)

	if err := h.service.ProcessNotification(r.Context(), notification); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeGatewayUnreachable {
			// The one downstream failure the original caller hears about.
			h.WriteText(w, http.StatusOK, appErr.Message)
			return
		}

		h.logger.Warn("notification processing terminated",
			"error", err,
			"txn_id", notification.TxnID())
	}

	w.WriteHeader(http.StatusOK)
}
