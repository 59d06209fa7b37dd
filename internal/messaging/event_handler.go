package messaging

import (
	"context"
	"fmt"
	"log/slog"

	messagingdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/messaging"
	"github.com/frahmantamala/paypal-enrolment/internal/core/events"
)

// EventHandler fans enrolment events out to the configured audiences.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

// HandleEnrolmentCompleted sends the localized enrolment confirmations: to
// the student, to the course's notification teacher, and to every site
// administrator, each gated by its own config toggle. Individual delivery
// failures are logged and do not stop the remaining sends.
func (h *EventHandler) HandleEnrolmentCompleted(ctx context.Context, event events.Event) error {
	enrolEvent, ok := event.(*events.EnrolmentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for enrolment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected EnrolmentCompletedEvent, got %T", event)
	}

	student, err := h.service.users.GetByID(ctx, enrolEvent.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve enrolled user %d: %w", enrolEvent.UserID, err)
	}

	course, err := h.service.courses.GetByID(ctx, enrolEvent.CourseID)
	if err != nil {
		return fmt.Errorf("failed to resolve course %d: %w", enrolEvent.CourseID, err)
	}

	cfg := h.service.cfg

	if cfg.NotifyStudents {
		subject := fmt.Sprintf(T(student.Lang, "enrolment_student_subject"), course.FullName)
		body := fmt.Sprintf(T(student.Lang, "enrolment_student_body"), student.FullName(), course.FullName)
		if err := h.service.Send(ctx, student.ID, subject, body, messagingdm.FormatPlain); err != nil {
			h.logger.Error("failed to notify student", "error", err, "user_id", student.ID)
		}
	}

	if cfg.NotifyTeachers {
		teacher, err := h.service.users.GetCourseTeacher(ctx, enrolEvent.CourseID)
		if err != nil {
			h.logger.Error("failed to resolve course teacher", "error", err, "course_id", enrolEvent.CourseID)
		} else if teacher != nil {
			subject := fmt.Sprintf(T(teacher.Lang, "enrolment_teacher_subject"), course.ShortName)
			body := fmt.Sprintf(T(teacher.Lang, "enrolment_teacher_body"), student.FullName(), course.FullName)
			if err := h.service.Send(ctx, teacher.ID, subject, body, messagingdm.FormatPlain); err != nil {
				h.logger.Error("failed to notify teacher", "error", err, "user_id", teacher.ID)
			}
		}
	}

	if cfg.NotifyAdmins {
		admins, err := h.service.users.GetAdmins(ctx)
		if err != nil {
			h.logger.Error("failed to resolve admins", "error", err)
			return nil
		}
		for _, admin := range admins {
			subject := fmt.Sprintf(T(admin.Lang, "enrolment_admin_subject"), course.ShortName)
			body := fmt.Sprintf(T(admin.Lang, "enrolment_admin_body"), student.FullName(), course.FullName, enrolEvent.TxnID)
			if err := h.service.Send(ctx, admin.ID, subject, body, messagingdm.FormatPlain); err != nil {
				h.logger.Error("failed to notify admin", "error", err, "user_id", admin.ID)
			}
		}
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeEnrolmentCompleted, h.HandleEnrolmentCompleted)

	h.logger.Info("messaging event handlers registered",
		"handlers", []string{events.EventTypeEnrolmentCompleted})
}
