package postgres

import (
	"time"

	enroldm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/enrolment"
	enrolpkg "github.com/frahmantamala/paypal-enrolment/internal/enrolment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrolmentRepository struct {
	db *gorm.DB
}

func NewEnrolmentRepository(db *gorm.DB) enrolpkg.Repository {
	return &EnrolmentRepository{
		db: db,
	}
}

func (r *EnrolmentRepository) GetInstanceByID(id int64) (*enroldm.Instance, error) {
	var instance enroldm.Instance
	err := r.db.First(&instance, id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// UpsertEnrolment inserts a membership or, for an existing instance+user
// pair, refreshes its role and time window.
func (r *EnrolmentRepository) UpsertEnrolment(e *enroldm.Enrolment) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "instance_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"role_id":    e.RoleID,
			"time_start": e.TimeStart,
			"time_end":   e.TimeEnd,
			"updated_at": time.Now(),
		}),
	}).Create(e).Error
}

func (r *EnrolmentRepository) DeleteEnrolment(instanceID, userID int64) error {
	return r.db.Where("instance_id = ? AND user_id = ?", instanceID, userID).
		Delete(&enroldm.Enrolment{}).Error
}
