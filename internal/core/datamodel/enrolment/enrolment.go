package enrolment

import "time"

// Instance status values.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// MethodPayPal is the only enrolment method this service processes
// notifications for.
const MethodPayPal = "paypal"

// Instance is a configured offering through which a learner can register for
// a course, carrying its own price, currency, role and duration.
type Instance struct {
	ID              int64     `gorm:"primaryKey"`
	CourseID        int64     `gorm:"column:course_id;not null;index"`
	Method          string    `gorm:"column:method;not null;default:paypal"`
	Name            string    `gorm:"column:name"`
	Status          string    `gorm:"column:status;default:active"`
	Cost            float64   `gorm:"column:cost;default:0"`
	Currency        string    `gorm:"column:currency;not null"`
	RoleID          int64     `gorm:"column:role_id;not null"`
	EnrolPeriodSecs int64     `gorm:"column:enrol_period_secs;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time `gorm:"column:updated_at;default:now()"`
}

func (Instance) TableName() string {
	return "enrol_instances"
}

// Active reports whether the instance may accept new enrolments.
func (i *Instance) Active() bool {
	return i.Status == StatusActive
}

// EnrolPeriod returns the configured enrolment duration, zero meaning
// open-ended membership.
func (i *Instance) EnrolPeriod() time.Duration {
	return time.Duration(i.EnrolPeriodSecs) * time.Second
}

// Enrolment is a user's membership in a course through one instance.
// One row per user+instance pair.
type Enrolment struct {
	ID         int64      `gorm:"primaryKey"`
	InstanceID int64      `gorm:"column:instance_id;not null;uniqueIndex:idx_enrolments_instance_user"`
	UserID     int64      `gorm:"column:user_id;not null;uniqueIndex:idx_enrolments_instance_user"`
	RoleID     int64      `gorm:"column:role_id;not null"`
	TimeStart  time.Time  `gorm:"column:time_start"`
	TimeEnd    *time.Time `gorm:"column:time_end"`
	CreatedAt  time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Enrolment) TableName() string {
	return "enrolments"
}

// Role carries the authority a membership grants. SortOrder ranks roles, the
// lowest value being the most authoritative; CanManageCourse marks roles with
// course-management capability (the teacher-notification recipients).
type Role struct {
	ID              int64  `gorm:"primaryKey"`
	ShortName       string `gorm:"column:short_name;not null;uniqueIndex"`
	Name            string `gorm:"column:name;not null"`
	SortOrder       int    `gorm:"column:sort_order;not null"`
	CanManageCourse bool   `gorm:"column:can_manage_course;default:false"`
}

func (Role) TableName() string {
	return "roles"
}
