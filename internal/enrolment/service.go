package enrolment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	enroldm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/enrolment"
)

// Repository is the enrolment store contract.
type Repository interface {
	GetInstanceByID(id int64) (*enroldm.Instance, error)
	UpsertEnrolment(e *enroldm.Enrolment) error
	DeleteEnrolment(instanceID, userID int64) error
}

// Service wraps the host enrolment side effects and the cost/period policy.
type Service struct {
	repo   Repository
	cfg    internal.EnrolmentConfig
	logger *slog.Logger
}

func NewService(repo Repository, cfg internal.EnrolmentConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// GetActiveInstance resolves a paypal enrolment instance that may accept new
// enrolments. Disabled instances and instances of other methods resolve as
// not found.
func (s *Service) GetActiveInstance(ctx context.Context, id int64) (*enroldm.Instance, error) {
	if id <= 0 {
		return nil, internal.ErrInstanceNotFound
	}

	instance, err := s.repo.GetInstanceByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrolment instance: %w", err)
	}

	if instance.Method != enroldm.MethodPayPal || !instance.Active() {
		return nil, internal.ErrInstanceNotFound
	}

	return instance, nil
}

// Enrol grants course membership through the instance. Re-enrolling an
// already enrolled user refreshes the role and time window instead of
// failing.
func (s *Service) Enrol(ctx context.Context, instance *enroldm.Instance, userID, roleID int64, start time.Time, end *time.Time) error {
	enrolment := &enroldm.Enrolment{
		InstanceID: instance.ID,
		UserID:     userID,
		RoleID:     roleID,
		TimeStart:  start,
		TimeEnd:    end,
	}

	if err := s.repo.UpsertEnrolment(enrolment); err != nil {
		s.logger.Error("failed to enrol user", "error", err, "user_id", userID, "instance_id", instance.ID)
		return fmt.Errorf("failed to enrol user: %w", err)
	}

	s.logger.Info("user enrolled",
		"user_id", userID,
		"instance_id", instance.ID,
		"role_id", roleID,
		"time_start", start,
		"open_ended", end == nil)

	return nil
}

// Unenrol withdraws a user's membership through the instance. Removing a
// membership that does not exist is not an error.
func (s *Service) Unenrol(ctx context.Context, instance *enroldm.Instance, userID int64) error {
	if err := s.repo.DeleteEnrolment(instance.ID, userID); err != nil {
		s.logger.Error("failed to unenrol user", "error", err, "user_id", userID, "instance_id", instance.ID)
		return fmt.Errorf("failed to unenrol user: %w", err)
	}

	s.logger.Info("user unenrolled", "user_id", userID, "instance_id", instance.ID)
	return nil
}

// RequiredCost is the effective price of the instance: its own cost when
// positive, the installation-wide default otherwise, rounded to the same two
// decimals the enrolment UI displays.
func (s *Service) RequiredCost(instance *enroldm.Instance) float64 {
	cost := instance.Cost
	if cost <= 0 {
		cost = s.cfg.DefaultCost
	}
	return RoundCost(cost)
}

// Window computes the enrolment period: open-ended when the instance defines
// no fixed duration, otherwise now through now+period.
func (s *Service) Window(instance *enroldm.Instance, now time.Time) (time.Time, *time.Time) {
	period := instance.EnrolPeriod()
	if period <= 0 {
		return now, nil
	}
	end := now.Add(period)
	return now, &end
}

// RoundCost rounds half away from zero to two decimals, matching the display
// rounding of the enrolment UI.
func RoundCost(cost float64) float64 {
	return math.Round(cost*100) / 100
}
