package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	"github.com/frahmantamala/paypal-enrolment/internal/core/common/validation"
	coursedm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/course"
	messagingdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/messaging"
	userdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/user"
)

// Repository persists outbound messages before delivery.
type Repository interface {
	Create(m *messagingdm.Message) error
}

// UserDirectory resolves message recipients.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*userdm.User, error)
	GetAdmins(ctx context.Context) ([]*userdm.User, error)
	GetCourseTeacher(ctx context.Context, courseID int64) (*userdm.User, error)
}

// CourseDirectory resolves course display names for message bodies.
type CourseDirectory interface {
	GetByID(ctx context.Context, id int64) (*coursedm.Course, error)
}

// Service is the messaging sink: every notification and diagnostic alert the
// decision engine emits goes through here.
type Service struct {
	repo    Repository
	users   UserDirectory
	courses CourseDirectory
	cfg     internal.EnrolmentConfig
	logger  *slog.Logger
}

func NewService(repo Repository, users UserDirectory, courses CourseDirectory, cfg internal.EnrolmentConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		courses: courses,
		cfg:     cfg,
		logger:  logger,
	}
}

// Send validates and persists one message.
func (s *Service) Send(ctx context.Context, toUserID int64, subject, body, format string) error {
	m := &messagingdm.Message{
		FromUserID: s.cfg.MailFromUserID,
		ToUserID:   toUserID,
		Subject:    subject,
		Body:       body,
		Format:     format,
	}

	if appErr := validateMessage(m); appErr != nil {
		return appErr
	}

	if err := s.repo.Create(m); err != nil {
		s.logger.Error("failed to persist message", "error", err, "to_user_id", toUserID, "subject", subject)
		return internal.NewInternalError("failed to persist message", err).WithDetails(internal.ErrCodeMessageSendFailed)
	}

	s.logger.Info("message queued",
		"message_id", m.ID,
		"to_user_id", toUserID,
		"subject", subject)

	return nil
}

// AdminAlert delivers a diagnostic to every site administrator, carrying the
// full notification payload for manual reconciliation. Alerts never reach the
// gateway or the end user.
func (s *Service) AdminAlert(ctx context.Context, subject, detail string, payload map[string]string) error {
	admins, err := s.users.GetAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve admin recipients: %w", err)
	}

	fullSubject := fmt.Sprintf(T(s.cfg.Language, "alert_subject"), subject)
	body := detail + "\n\n" + formatPayload(payload)

	for _, admin := range admins {
		if err := s.Send(ctx, admin.ID, fullSubject, body, messagingdm.FormatPlain); err != nil {
			s.logger.Error("failed to deliver admin alert", "error", err, "admin_id", admin.ID)
		}
	}

	return nil
}

// PendingNotice tells a user their payment is on hold and no enrolment has
// happened yet.
func (s *Service) PendingNotice(ctx context.Context, userID int64, courseName string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve pending-notice recipient: %w", err)
	}

	subject := T(user.Lang, "pending_subject")
	body := fmt.Sprintf(T(user.Lang, "pending_body"), courseName)

	return s.Send(ctx, user.ID, subject, body, messagingdm.FormatPlain)
}

func validateMessage(m *messagingdm.Message) *internal.AppError {
	validator := validation.NewValidator()

	validator.Field("to_user_id", m.ToUserID).Required()
	validator.Field("subject", m.Subject).Required().MaxLen(255, internal.ErrCodeValidationFailed)
	validator.Field("body", m.Body).Required()

	return validator.Validate()
}

// formatPayload renders the notification fields as sorted key: value lines so
// alerts are diffable across deliveries.
func formatPayload(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(payload[k])
		b.WriteString("\n")
	}
	return b.String()
}
