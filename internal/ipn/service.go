package ipn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	coursedm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/course"
	enroldm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/enrolment"
	ipndm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/ipn"
	userdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/user"
	"github.com/frahmantamala/paypal-enrolment/internal/core/events"
	"github.com/frahmantamala/paypal-enrolment/internal/gateway"
)

// UserService resolves learners against the host store.
type UserService interface {
	GetByID(ctx context.Context, id int64) (*userdm.User, error)
}

// CourseService resolves courses against the host store.
type CourseService interface {
	GetByID(ctx context.Context, id int64) (*coursedm.Course, error)
}

// EnrolmentService is the host enrolment collaborator: instance lookup,
// membership side effects, and the cost/period policy.
type EnrolmentService interface {
	GetActiveInstance(ctx context.Context, id int64) (*enroldm.Instance, error)
	Enrol(ctx context.Context, instance *enroldm.Instance, userID, roleID int64, start time.Time, end *time.Time) error
	Unenrol(ctx context.Context, instance *enroldm.Instance, userID int64) error
	RequiredCost(instance *enroldm.Instance) float64
	Window(instance *enroldm.Instance, now time.Time) (time.Time, *time.Time)
}

// TransactionRepository persists notification records. GetSuccessfulByTxnID
// returns (nil, nil) when no successful record with that id exists.
type TransactionRepository interface {
	GetSuccessfulByTxnID(txnID string) (*ipndm.Transaction, error)
	Create(txn *ipndm.Transaction) error
}

// Verifier echoes the notification back to the gateway for authenticity.
type Verifier interface {
	Validate(ctx context.Context, echoBody string) (gateway.Outcome, string, error)
}

// Notifier is the admin/user diagnostic channel. Delivery failures are logged
// and swallowed; they never terminate notification processing.
type Notifier interface {
	AdminAlert(ctx context.Context, subject, detail string, payload map[string]string) error
	PendingNotice(ctx context.Context, userID int64, courseName string) error
}

// Service is the notification verifier and enrolment decision engine: one
// sequential pass of guard checks over a parsed notification, terminating on
// the first failure.
type Service struct {
	cfg          internal.EnrolmentConfig
	verifier     Verifier
	users        UserService
	courses      CourseService
	enrolments   EnrolmentService
	transactions TransactionRepository
	notifier     Notifier
	eventBus     *events.EventBus
	logger       *slog.Logger
}

func NewService(
	cfg internal.EnrolmentConfig,
	verifier Verifier,
	users UserService,
	courses CourseService,
	enrolments EnrolmentService,
	transactions TransactionRepository,
	notifier Notifier,
	eventBus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		cfg:          cfg,
		verifier:     verifier,
		users:        users,
		courses:      courses,
		enrolments:   enrolments,
		transactions: transactions,
		notifier:     notifier,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// ProcessNotification runs the full verification and decision pass for one
// parsed notification. Every failure is terminal for the request; the only
// error surfaced to the caller is the gateway-unreachable case, which the
// handler echoes as a short diagnostic.
func (s *Service) ProcessNotification(ctx context.Context, n *Notification) error {
	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		s.alert(ctx, "User not found", fmt.Sprintf("user id %d from the custom field does not exist", n.UserID), n)
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound).WithCause(err)
	}

	course, err := s.courses.GetByID(ctx, n.CourseID)
	if err != nil {
		s.alert(ctx, "Course not found", fmt.Sprintf("course id %d from the custom field does not exist", n.CourseID), n)
		return internal.NewNotFoundError("course not found", internal.ErrCodeCourseNotFound).WithCause(err)
	}

	instance, err := s.enrolments.GetActiveInstance(ctx, n.InstanceID)
	if err != nil {
		s.alert(ctx, "Enrolment instance not found", fmt.Sprintf("instance id %d does not exist or is disabled", n.InstanceID), n)
		return internal.NewNotFoundError("enrolment instance not found or disabled", internal.ErrCodeInstanceNotFound).WithCause(err)
	}

	outcome, reply, err := s.verifier.Validate(ctx, n.EchoBody)
	if err != nil || outcome == gateway.OutcomeUnreachable || outcome == gateway.OutcomeEmpty {
		s.alert(ctx, "Gateway unreachable", "the validation call to the payment gateway failed; manual reconciliation required", n)
		return internal.NewExternalError("could not validate the payment notification with the gateway",
			internal.ErrCodeGatewayUnreachable, err)
	}

	switch outcome {
	case gateway.OutcomeVerified:
		return s.processVerified(ctx, n, user, course, instance)
	case gateway.OutcomeInvalid:
		return s.processInvalid(ctx, n, course)
	default:
		// Anything other than the two recognized tokens is dropped without
		// action or diagnostic.
		s.logger.Warn("unrecognized gateway reply ignored",
			"txn_id", n.TxnID(),
			"reply_length", len(reply))
		return nil
	}
}

// processVerified applies the business-rule guard sequence for an authentic
// notification, in order.
func (s *Service) processVerified(ctx context.Context, n *Notification, user *userdm.User, course *coursedm.Course, instance *enroldm.Instance) error {
	status := n.PaymentStatus()

	if status != StatusCompleted && status != StatusPending {
		if err := s.enrolments.Unenrol(ctx, instance, user.ID); err != nil {
			s.logger.Error("failed to reverse enrolment", "error", err, "user_id", user.ID, "instance_id", instance.ID)
		} else {
			s.eventBus.Publish(ctx, events.NewEnrolmentReversedEvent(user.ID, instance.ID, n.TxnID(), status))
		}
		s.alert(ctx, "Unexpected payment status",
			fmt.Sprintf("payment status %q; any existing enrolment has been withdrawn", status), n)
		return internal.NewValidationError("unexpected payment status", internal.ErrCodePaymentStatus)
	}

	if n.Currency() != instance.Currency {
		s.alert(ctx, "Currency mismatch",
			fmt.Sprintf("payment in %q but the enrolment instance charges %q; possible fraud", n.Currency(), instance.Currency), n)
		return internal.NewValidationError("currency does not match the enrolment instance", internal.ErrCodeCurrencyMismatch)
	}

	if status == StatusPending && n.PendingReason() != PendingReasonEcheck {
		if err := s.notifier.PendingNotice(ctx, user.ID, course.FullName); err != nil {
			s.logger.Error("failed to notify user of pending payment", "error", err, "user_id", user.ID)
		}
		s.alert(ctx, "Payment on hold",
			fmt.Sprintf("payment pending with reason %q; no enrolment action taken", n.PendingReason()), n)
		return internal.NewValidationError("payment on hold", internal.ErrCodePaymentPending)
	}

	// Belt-and-braces recheck of the two clauses above; a notification that
	// slips through terminates without a diagnostic.
	if !n.Completed() {
		s.logger.Warn("notification neither completed nor clearing echeck, dropped",
			"txn_id", n.TxnID(), "payment_status", status, "pending_reason", n.PendingReason())
		return nil
	}

	prior, err := s.transactions.GetSuccessfulByTxnID(n.TxnID())
	if err != nil {
		s.logger.Error("duplicate-transaction lookup failed", "error", err, "txn_id", n.TxnID())
		return internal.NewInternalError("transaction lookup failed", err)
	}
	if prior != nil {
		s.alert(ctx, "Transaction replayed",
			fmt.Sprintf("transaction %s was already processed successfully; this delivery has been dropped", n.TxnID()), n)
		return internal.ErrDuplicateTxn
	}

	if !strings.EqualFold(n.Business(), s.cfg.PayeeBusiness) {
		s.alert(ctx, "Wrong payee account",
			fmt.Sprintf("payment addressed to %q but this installation expects %q", n.Business(), s.cfg.PayeeBusiness), n)
		return internal.NewValidationError("payee account mismatch", internal.ErrCodeWrongBusiness)
	}

	// Defensive re-resolution: the first lookups happened before the gateway
	// round trip and either record may have vanished since.
	if user, err = s.users.GetByID(ctx, n.UserID); err != nil {
		s.alert(ctx, "User vanished", fmt.Sprintf("user id %d disappeared during validation", n.UserID), n)
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound).WithCause(err)
	}
	if course, err = s.courses.GetByID(ctx, n.CourseID); err != nil {
		s.alert(ctx, "Course vanished", fmt.Sprintf("course id %d disappeared during validation", n.CourseID), n)
		return internal.NewNotFoundError("course not found", internal.ErrCodeCourseNotFound).WithCause(err)
	}

	requiredCost := s.enrolments.RequiredCost(instance)
	if n.Amount() < requiredCost {
		s.alert(ctx, "Insufficient amount",
			fmt.Sprintf("paid %.2f %s but the enrolment costs %.2f %s", n.Amount(), n.Currency(), requiredCost, instance.Currency), n)
		return internal.NewValidationError("paid amount below the enrolment cost", internal.ErrCodeInsufficientAmount)
	}

	txn := s.buildTransaction(n, course, true)
	if err := s.transactions.Create(txn); err != nil {
		s.logger.Error("failed to persist transaction record", "error", err, "txn_id", n.TxnID())
		s.alert(ctx, "Record persistence failed",
			fmt.Sprintf("transaction %s was verified but its record could not be stored; no enrolment happened, manual reconciliation required", n.TxnID()), n)
		return internal.NewInternalError("failed to persist transaction record", err)
	}

	start, end := s.enrolments.Window(instance, n.ReceivedAt)
	roleID := instance.RoleID
	if roleID <= 0 {
		roleID = s.cfg.DefaultRoleID
	}
	if err := s.enrolments.Enrol(ctx, instance, user.ID, roleID, start, end); err != nil {
		s.alert(ctx, "Enrolment failed",
			fmt.Sprintf("payment accepted but enrolling user %d into instance %d failed", user.ID, instance.ID), n)
		return internal.NewInternalError("enrolment side effect failed", err)
	}

	s.logger.Info("payment verified and user enrolled",
		"txn_id", n.TxnID(),
		"user_id", user.ID,
		"course_id", course.ID,
		"instance_id", instance.ID,
		"amount", n.Amount(),
		"currency", n.Currency())

	event := events.NewEnrolmentCompletedEvent(user.ID, course.ID, instance.ID, n.TxnID(), n.Amount(), n.Currency())
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		// Fan-out failures never undo an accepted enrolment.
		s.logger.Error("notification fan-out failed", "error", err, "event_id", event.EventID())
	}

	return nil
}

// processInvalid records a notification the gateway disowned so admins can
// investigate the suspected fake payment. No enrolment happens.
func (s *Service) processInvalid(ctx context.Context, n *Notification, course *coursedm.Course) error {
	txn := s.buildTransaction(n, course, false)
	if err := s.transactions.Create(txn); err != nil {
		s.logger.Error("failed to persist invalid transaction record", "error", err, "txn_id", n.TxnID())
	}

	s.alert(ctx, "Invalid notification",
		"the gateway flagged this notification INVALID; suspected fake payment", n)

	return internal.NewValidationError("gateway flagged notification invalid", internal.ErrCodePaymentStatus)
}

func (s *Service) buildTransaction(n *Notification, course *coursedm.Course, successful bool) *ipndm.Transaction {
	raw, err := json.Marshal(n.Fields)
	if err != nil {
		s.logger.Error("failed to marshal notification payload", "error", err, "txn_id", n.TxnID())
	}

	courseName := ""
	if course != nil {
		courseName = course.FullName
	}

	return &ipndm.Transaction{
		TxnID:         n.TxnID(),
		ParentTxnID:   n.Get("parent_txn_id"),
		UserID:        n.UserID,
		CourseID:      n.CourseID,
		InstanceID:    n.InstanceID,
		CourseName:    courseName,
		Business:      n.Business(),
		ReceiverEmail: n.Get("receiver_email"),
		PaymentStatus: n.PaymentStatus(),
		PendingReason: n.PendingReason(),
		ReasonCode:    n.Get("reason_code"),
		PaymentType:   n.Get("payment_type"),
		Amount:        n.Amount(),
		Currency:      n.Currency(),
		Memo:          n.Get("memo"),
		RawPayload:    raw,
		Successful:    successful,
		ReceivedAt:    n.ReceivedAt,
	}
}

func (s *Service) alert(ctx context.Context, subject, detail string, n *Notification) {
	if err := s.notifier.AdminAlert(ctx, subject, detail, n.Fields); err != nil {
		s.logger.Error("failed to deliver admin alert", "error", err, "subject", subject)
	}
}
