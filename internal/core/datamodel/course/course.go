package course

import "time"

type Course struct {
	ID        int64     `gorm:"primaryKey"`
	FullName  string    `gorm:"column:full_name;not null"`
	ShortName string    `gorm:"column:short_name;not null;uniqueIndex"`
	Visible   bool      `gorm:"column:visible;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Course) TableName() string {
	return "courses"
}
