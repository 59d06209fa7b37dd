package postgres

import (
	"errors"

	ipndm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/ipn"
	ipnpkg "github.com/frahmantamala/paypal-enrolment/internal/ipn"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) ipnpkg.TransactionRepository {
	return &TransactionRepository{
		db: db,
	}
}

// Create inserts a transaction record. The partial unique index on txn_id
// makes a concurrent duplicate of an accepted delivery fail here instead of
// enrolling twice; failure records are not covered by it.
func (r *TransactionRepository) Create(txn *ipndm.Transaction) error {
	return r.db.Create(txn).Error
}

// GetSuccessfulByTxnID returns the prior accepted record for a transaction
// id, or (nil, nil) when none exists.
func (r *TransactionRepository) GetSuccessfulByTxnID(txnID string) (*ipndm.Transaction, error) {
	var txn ipndm.Transaction
	err := r.db.Where("txn_id = ? AND successful = ?", txnID, true).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
