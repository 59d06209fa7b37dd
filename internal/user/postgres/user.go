package postgres

import (
	userdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/user"
	userpkg "github.com/frahmantamala/paypal-enrolment/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) userpkg.Repository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(id int64) (*userdm.User, error) {
	var u userdm.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetAdmins() ([]*userdm.User, error) {
	var admins []*userdm.User
	err := r.db.Where("is_admin = ? AND deleted = ?", true, false).
		Order("id ASC").
		Find(&admins).Error
	return admins, err
}

// GetCourseTeachers returns the users holding a course-management role in any
// enrolment instance of the course, most authoritative role first.
func (r *UserRepository) GetCourseTeachers(courseID int64) ([]*userdm.User, error) {
	var teachers []*userdm.User
	err := r.db.
		Table("users").
		Select("DISTINCT users.*, roles.sort_order").
		Joins("JOIN enrolments ON enrolments.user_id = users.id").
		Joins("JOIN enrol_instances ON enrol_instances.id = enrolments.instance_id").
		Joins("JOIN roles ON roles.id = enrolments.role_id").
		Where("enrol_instances.course_id = ? AND roles.can_manage_course = ? AND users.deleted = ?", courseID, true, false).
		Order("roles.sort_order ASC, users.id ASC").
		Find(&teachers).Error
	return teachers, err
}
