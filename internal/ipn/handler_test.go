package ipn_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	"github.com/frahmantamala/paypal-enrolment/internal/transport"

	ipnpkg "github.com/frahmantamala/paypal-enrolment/internal/ipn"
)

type mockProcessor struct {
	err      error
	received *ipnpkg.Notification
	calls    int
}

func (m *mockProcessor) ProcessNotification(ctx context.Context, n *ipnpkg.Notification) error {
	m.calls++
	m.received = n
	return m.err
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler   *ipnpkg.WebhookHandler
		processor *mockProcessor
		recorder  *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		processor = &mockProcessor{}
		handler = ipnpkg.NewWebhookHandler(transport.NewBaseHandler(logger), processor, logger)
		recorder = httptest.NewRecorder()
	})

	post := func(target, body string) {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		handler.HandleNotification(recorder, req)
	}

	Context("admission failures", func() {
		It("should answer a generic 400 to a GET request", func() {
			req := httptest.NewRequest(http.MethodGet, "/enrolment/ipn", nil)
			handler.HandleNotification(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(Equal("Invalid request"))
			Expect(processor.calls).To(BeZero())
		})

		It("should answer a generic 400 when a query string is present", func() {
			post("/enrolment/ipn?debug=1", "txn_id=T&custom=1-2-3")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(Equal("Invalid request"))
			Expect(processor.calls).To(BeZero())
		})

		It("should answer a generic 400 to an empty body", func() {
			post("/enrolment/ipn", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(Equal("Invalid request"))
			Expect(processor.calls).To(BeZero())
		})

		It("should answer a generic 400 to an invalid field name", func() {
			post("/enrolment/ipn", "txn_id=T&bad%5B%5D=x")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(Equal("Invalid request"))
			Expect(processor.calls).To(BeZero())
		})

		It("should answer a generic 400 to a non-form content type", func() {
			req := httptest.NewRequest(http.MethodPost, "/enrolment/ipn", strings.NewReader(`{"txn_id":"T"}`))
			req.Header.Set("Content-Type", "application/json")
			handler.HandleNotification(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(Equal("Invalid request"))
			Expect(processor.calls).To(BeZero())
		})

		It("should answer a generic 400 when the content type is missing", func() {
			req := httptest.NewRequest(http.MethodPost, "/enrolment/ipn", strings.NewReader("txn_id=T&custom=1-2-3"))
			handler.HandleNotification(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(Equal("Invalid request"))
			Expect(processor.calls).To(BeZero())
		})
	})

	Context("accepted deliveries", func() {
		It("should answer an empty 200 and hand the parsed notification to the service", func() {
			post("/enrolment/ipn", "custom=12-34-56&txn_id=TXN-1&payment_status=Completed")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.Len()).To(BeZero())
			Expect(processor.calls).To(Equal(1))
			Expect(processor.received.TxnID()).To(Equal("TXN-1"))
			Expect(processor.received.UserID).To(Equal(int64(12)))
		})

		It("should accept a form content type carrying a charset parameter", func() {
			req := httptest.NewRequest(http.MethodPost, "/enrolment/ipn", strings.NewReader("custom=12-34-56&txn_id=TXN-1"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
			handler.HandleNotification(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(processor.calls).To(Equal(1))
		})

		It("should answer an empty 200 even when processing terminates on a guard", func() {
			processor.err = internal.NewValidationError("currency does not match the enrolment instance", internal.ErrCodeCurrencyMismatch)

			post("/enrolment/ipn", "custom=12-34-56&txn_id=TXN-1&payment_status=Completed")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.Len()).To(BeZero())
		})

		It("should echo a short diagnostic with 200 when the gateway is unreachable", func() {
			processor.err = internal.NewExternalError("could not validate the payment notification with the gateway",
				internal.ErrCodeGatewayUnreachable, nil)

			post("/enrolment/ipn", "custom=12-34-56&txn_id=TXN-1&payment_status=Completed")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(Equal("could not validate the payment notification with the gateway"))
		})
	})
})
