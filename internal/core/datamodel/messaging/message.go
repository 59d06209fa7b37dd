package messaging

import "time"

// Message formats.
const (
	FormatPlain = "plain"
	FormatHTML  = "html"
)

// Message is one outbound notification, persisted before delivery so admins
// can reconcile what was sent and to whom.
type Message struct {
	ID         int64     `gorm:"primaryKey"`
	FromUserID int64     `gorm:"column:from_user_id;not null"`
	ToUserID   int64     `gorm:"column:to_user_id;not null;index"`
	Subject    string    `gorm:"column:subject;not null"`
	Body       string    `gorm:"column:body;not null"`
	Format     string    `gorm:"column:format;default:plain"`
	CreatedAt  time.Time `gorm:"column:created_at;default:now()"`
}

func (Message) TableName() string {
	return "messages"
}
