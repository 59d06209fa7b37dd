package user

import (
	"context"
	"fmt"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	userdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/user"
)

type Repository interface {
	GetByID(id int64) (*userdm.User, error)
	GetAdmins() ([]*userdm.User, error)
	GetCourseTeachers(courseID int64) ([]*userdm.User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetByID resolves a live user; deleted accounts resolve as not found.
func (s *Service) GetByID(ctx context.Context, id int64) (*userdm.User, error) {
	if id <= 0 {
		return nil, internal.ErrUserNotFound
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u.Deleted {
		return nil, internal.ErrUserNotFound
	}

	return u, nil
}

// GetAdmins returns every site administrator, the recipients of diagnostic
// alerts and enrolment confirmations.
func (s *Service) GetAdmins(ctx context.Context) ([]*userdm.User, error) {
	admins, err := s.repo.GetAdmins()
	if err != nil {
		return nil, fmt.Errorf("failed to get admins: %w", err)
	}
	return admins, nil
}

// GetCourseTeacher picks the notification teacher for a course: the first
// user holding a course-management role there, highest authority first.
// Returns (nil, nil) when the course has no such user.
func (s *Service) GetCourseTeacher(ctx context.Context, courseID int64) (*userdm.User, error) {
	teachers, err := s.repo.GetCourseTeachers(courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course teachers: %w", err)
	}
	if len(teachers) == 0 {
		return nil, nil
	}
	return teachers[0], nil
}
