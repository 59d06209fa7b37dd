package ipn_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/paypal-enrolment/internal"
	ipnpkg "github.com/frahmantamala/paypal-enrolment/internal/ipn"
)

var _ = Describe("ParseNotification", func() {
	var receivedAt time.Time

	BeforeEach(func() {
		receivedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	Context("with a well-formed payload", func() {
		It("should store scalar fields and decode the custom field", func() {
			body := "custom=12-34-56&txn_id=TXN-1&payment_status=Completed&mc_gross=19.99&mc_currency=USD&business=seller%40example.com"

			n, err := ipnpkg.ParseNotification(body, receivedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.UserID).To(Equal(int64(12)))
			Expect(n.CourseID).To(Equal(int64(34)))
			Expect(n.InstanceID).To(Equal(int64(56)))
			Expect(n.TxnID()).To(Equal("TXN-1"))
			Expect(n.Business()).To(Equal("seller@example.com"))
			Expect(n.Amount()).To(Equal(19.99))
			Expect(n.Currency()).To(Equal("USD"))
			Expect(n.ReceivedAt).To(Equal(receivedAt))
		})

		It("should build the echo body with the verification command and preserved field order", func() {
			body := "txn_id=TXN-1&custom=1-2-3&memo=hello+world"

			n, err := ipnpkg.ParseNotification(body, receivedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.EchoBody).To(HavePrefix(ipnpkg.VerifyCommand))
			Expect(n.EchoBody).To(Equal("cmd=_notify-validate&txn_id=TXN-1&custom=1-2-3&memo=hello+world"))
		})

		It("should fall back to the legacy amount and currency aliases", func() {
			body := "custom=1-2-3&payment_gross=10.50&payment_currency=EUR"

			n, err := ipnpkg.ParseNotification(body, receivedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.Amount()).To(Equal(10.50))
			Expect(n.Currency()).To(Equal("EUR"))
		})
	})

	Context("with malformed payloads", func() {
		It("should reject an empty body", func() {
			_, err := ipnpkg.ParseNotification("", receivedAt)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeEmptyBody))
		})

		It("should reject a field name outside the identifier charset", func() {
			body := "txn_id=TXN-1&bad%20key=value"

			_, err := ipnpkg.ParseNotification(body, receivedAt)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidFieldName))
		})

		It("should reject PHP-style array fields", func() {
			body := "txn_id=TXN-1&option%5B%5D=a"

			_, err := ipnpkg.ParseNotification(body, receivedAt)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidFieldName))
		})

		It("should reject a repeated field", func() {
			body := "txn_id=TXN-1&memo=a&memo=b"

			_, err := ipnpkg.ParseNotification(body, receivedAt)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeArrayField))
		})
	})

	Context("custom field coercion", func() {
		It("should default missing components to zero", func() {
			n, err := ipnpkg.ParseNotification("custom=42&txn_id=T", receivedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.UserID).To(Equal(int64(42)))
			Expect(n.CourseID).To(BeZero())
			Expect(n.InstanceID).To(BeZero())
		})

		It("should default non-numeric components to zero", func() {
			n, err := ipnpkg.ParseNotification("custom=abc-2-xyz&txn_id=T", receivedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.UserID).To(BeZero())
			Expect(n.CourseID).To(Equal(int64(2)))
			Expect(n.InstanceID).To(BeZero())
		})

		It("should default an absent custom field to all zeros", func() {
			n, err := ipnpkg.ParseNotification("txn_id=T", receivedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.UserID).To(BeZero())
			Expect(n.CourseID).To(BeZero())
			Expect(n.InstanceID).To(BeZero())
		})
	})

	Describe("Completed", func() {
		It("should be true for Completed status", func() {
			n, err := ipnpkg.ParseNotification("payment_status=Completed", time.Now())
			Expect(err).ToNot(HaveOccurred())
			Expect(n.Completed()).To(BeTrue())
		})

		It("should be true for Pending with echeck reason", func() {
			n, err := ipnpkg.ParseNotification("payment_status=Pending&pending_reason=echeck", time.Now())
			Expect(err).ToNot(HaveOccurred())
			Expect(n.Completed()).To(BeTrue())
		})

		It("should be false for Pending with any other reason", func() {
			n, err := ipnpkg.ParseNotification("payment_status=Pending&pending_reason=multi_currency", time.Now())
			Expect(err).ToNot(HaveOccurred())
			Expect(n.Completed()).To(BeFalse())
		})

		It("should be case sensitive on the status value", func() {
			n, err := ipnpkg.ParseNotification("payment_status=completed", time.Now())
			Expect(err).ToNot(HaveOccurred())
			Expect(n.Completed()).To(BeFalse())
		})
	})

	It("should url-encode values in the echo body", func() {
		body := "item_name=Introduction+to+Go&custom=1-2-3"

		n, err := ipnpkg.ParseNotification(body, time.Now())

		Expect(err).ToNot(HaveOccurred())
		Expect(strings.Contains(n.EchoBody, "item_name=Introduction+to+Go")).To(BeTrue())
		Expect(n.Get("item_name")).To(Equal("Introduction to Go"))
	})
})
