package ipn

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/paypal-enrolment/internal"
)

// VerifyCommand prefixes the echo body sent back to the gateway.
const VerifyCommand = "cmd=_notify-validate"

// Recognized payment status values and the one pending reason that is not an
// anomaly.
const (
	StatusCompleted     = "Completed"
	StatusPending       = "Pending"
	PendingReasonEcheck = "echeck"
)

// fieldNamePattern is the restricted identifier charset for incoming field
// names. PHP-style array keys ("option[]") and anything else outside it
// invalidate the whole request.
var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Notification is one received IPN payload: the scalar field map, the echo
// body reconstructed from it, and the composite identifiers decoded from the
// custom field. Immutable after parse except the received-at annotation.
type Notification struct {
	Fields     map[string]string
	EchoBody   string
	UserID     int64
	CourseID   int64
	InstanceID int64
	ReceivedAt time.Time
}

// ParseNotification validates and reconstructs an incoming form-encoded body.
// Field order is preserved in the echo body, which is why the raw body is
// walked pair by pair instead of going through url.ParseQuery.
func ParseNotification(rawBody string, receivedAt time.Time) (*Notification, error) {
	if rawBody == "" {
		return nil, errors.NewValidationError("empty notification body", errors.ErrCodeEmptyBody)
	}

	fields := make(map[string]string)
	var echo strings.Builder
	echo.WriteString(VerifyCommand)

	for _, pair := range strings.Split(rawBody, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil || !fieldNamePattern.MatchString(key) {
			return nil, errors.NewValidationError("invalid field name in notification", errors.ErrCodeInvalidFieldName)
		}

		// A repeated key is a form-encoded array; a scalar-only payload is
		// required.
		if _, seen := fields[key]; seen {
			return nil, errors.NewValidationError("array-valued field in notification", errors.ErrCodeArrayField)
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, errors.NewValidationError("malformed field value in notification", errors.ErrCodeInvalidRequest)
		}

		echo.WriteString("&")
		echo.WriteString(key)
		echo.WriteString("=")
		echo.WriteString(url.QueryEscape(value))

		fields[key] = value
	}

	if len(fields) == 0 {
		return nil, errors.NewValidationError("empty notification body", errors.ErrCodeEmptyBody)
	}

	n := &Notification{
		Fields:     fields,
		EchoBody:   echo.String(),
		ReceivedAt: receivedAt,
	}
	n.UserID, n.CourseID, n.InstanceID = decodeCustom(fields["custom"])

	return n, nil
}

// decodeCustom splits the dash-delimited composite key into its three ids.
// Missing or non-numeric components coerce to zero; the zero ids then fail
// entity resolution with an admin diagnostic rather than a parse error.
func decodeCustom(custom string) (userID, courseID, instanceID int64) {
	parts := strings.SplitN(custom, "-", 3)

	atoi := func(i int) int64 {
		if i >= len(parts) {
			return 0
		}
		v, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 64)
		if err != nil {
			return 0
		}
		return v
	}

	return atoi(0), atoi(1), atoi(2)
}

// Get returns a field value, empty when absent.
func (n *Notification) Get(key string) string {
	return n.Fields[key]
}

func (n *Notification) TxnID() string {
	return n.Fields["txn_id"]
}

func (n *Notification) PaymentStatus() string {
	return n.Fields["payment_status"]
}

func (n *Notification) PendingReason() string {
	return n.Fields["pending_reason"]
}

// Business is the payer-facing payee identity on the notification.
func (n *Notification) Business() string {
	return n.Fields["business"]
}

// Currency prefers mc_currency with the legacy payment_currency alias.
func (n *Notification) Currency() string {
	if v := n.Fields["mc_currency"]; v != "" {
		return v
	}
	return n.Fields["payment_currency"]
}

// Amount prefers mc_gross with the legacy payment_gross alias. Unparsable
// amounts coerce to zero and fail the amount check downstream.
func (n *Notification) Amount() float64 {
	raw := n.Fields["mc_gross"]
	if raw == "" {
		raw = n.Fields["payment_gross"]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// Completed reports whether the payment cleared: Completed outright, or
// Pending on a clearing echeck.
func (n *Notification) Completed() bool {
	status := n.PaymentStatus()
	return status == StatusCompleted ||
		(status == StatusPending && n.PendingReason() == PendingReasonEcheck)
}
