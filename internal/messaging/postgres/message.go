package postgres

import (
	messagingdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/messaging"
	messagingpkg "github.com/frahmantamala/paypal-enrolment/internal/messaging"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) messagingpkg.Repository {
	return &MessageRepository{
		db: db,
	}
}

func (r *MessageRepository) Create(m *messagingdm.Message) error {
	return r.db.Create(m).Error
}
