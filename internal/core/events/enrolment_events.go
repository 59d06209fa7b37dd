package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEnrolmentCompleted = "enrolment.completed"
	EventTypeEnrolmentReversed  = "enrolment.reversed"
)

// EnrolmentCompletedEvent is published after a verified payment has been
// persisted and the learner enrolled; the messaging subscriber fans it out to
// student, teacher and admins.
type EnrolmentCompletedEvent struct {
	BaseEvent
	UserID     int64   `json:"user_id"`
	CourseID   int64   `json:"course_id"`
	InstanceID int64   `json:"instance_id"`
	TxnID      string  `json:"txn_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

func NewEnrolmentCompletedEvent(userID, courseID, instanceID int64, txnID string, amount float64, currency string) *EnrolmentCompletedEvent {
	return &EnrolmentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEnrolmentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":     userID,
				"course_id":   courseID,
				"instance_id": instanceID,
				"txn_id":      txnID,
				"amount":      amount,
				"currency":    currency,
			},
		},
		UserID:     userID,
		CourseID:   courseID,
		InstanceID: instanceID,
		TxnID:      txnID,
		Amount:     amount,
		Currency:   currency,
	}
}

// EnrolmentReversedEvent is published when a notification with a terminal
// non-payment status forces an existing enrolment to be withdrawn.
type EnrolmentReversedEvent struct {
	BaseEvent
	UserID        int64  `json:"user_id"`
	InstanceID    int64  `json:"instance_id"`
	TxnID         string `json:"txn_id"`
	PaymentStatus string `json:"payment_status"`
}

func NewEnrolmentReversedEvent(userID, instanceID int64, txnID, paymentStatus string) *EnrolmentReversedEvent {
	return &EnrolmentReversedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEnrolmentReversed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":        userID,
				"instance_id":    instanceID,
				"txn_id":         txnID,
				"payment_status": paymentStatus,
			},
		},
		UserID:        userID,
		InstanceID:    instanceID,
		TxnID:         txnID,
		PaymentStatus: paymentStatus,
	}
}
