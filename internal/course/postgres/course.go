package postgres

import (
	coursedm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/course"
	coursepkg "github.com/frahmantamala/paypal-enrolment/internal/course"
	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) coursepkg.Repository {
	return &CourseRepository{
		db: db,
	}
}

func (r *CourseRepository) GetByID(id int64) (*coursedm.Course, error) {
	var c coursedm.Course
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
