package course

import (
	"context"
	"fmt"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	coursedm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/course"
)

type Repository interface {
	GetByID(id int64) (*coursedm.Course, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*coursedm.Course, error) {
	if id <= 0 {
		return nil, internal.ErrCourseNotFound
	}

	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return c, nil
}
