package ipn

import (
	"encoding/json"
	"time"
)

// Transaction is the durable record of one received notification, written on
// acceptance or on rejection-as-fraud. A partial unique index on txn_id
// (successful records only, created in the migration) is the store-level
// guard against duplicate deliveries of an accepted transaction; failure
// records never block a later legitimate delivery of the same transaction.
type Transaction struct {
	ID            int64           `gorm:"primaryKey"`
	TxnID         string          `gorm:"column:txn_id;not null;index"`
	ParentTxnID   string          `gorm:"column:parent_txn_id"`
	UserID        int64           `gorm:"column:user_id;not null"`
	CourseID      int64           `gorm:"column:course_id;not null"`
	InstanceID    int64           `gorm:"column:instance_id;not null"`
	CourseName    string          `gorm:"column:course_name"`
	Business      string          `gorm:"column:business"`
	ReceiverEmail string          `gorm:"column:receiver_email"`
	PaymentStatus string          `gorm:"column:payment_status"`
	PendingReason string          `gorm:"column:pending_reason"`
	ReasonCode    string          `gorm:"column:reason_code"`
	PaymentType   string          `gorm:"column:payment_type"`
	Amount        float64         `gorm:"column:amount"`
	Currency      string          `gorm:"column:currency"`
	Memo          string          `gorm:"column:memo"`
	RawPayload    json.RawMessage `gorm:"column:raw_payload;type:jsonb"`
	Successful    bool            `gorm:"column:successful;default:false"`
	ReceivedAt    time.Time       `gorm:"column:received_at;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Transaction) TableName() string {
	return "ipn_transactions"
}
