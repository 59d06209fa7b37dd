package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	ipndm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/ipn"
)

func TestTransactionRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Transaction Repository Suite")
}

// TransactionSQLite is a test-specific version with text instead of jsonb for SQLite compatibility
type TransactionSQLite struct {
	ID            int64     `gorm:"primaryKey"`
	TxnID         string    `gorm:"column:txn_id;not null;index:idx_ipn_transactions_txn_id_lookup"`
	ParentTxnID   string    `gorm:"column:parent_txn_id"`
	UserID        int64     `gorm:"column:user_id;not null"`
	CourseID      int64     `gorm:"column:course_id;not null"`
	InstanceID    int64     `gorm:"column:instance_id;not null"`
	CourseName    string    `gorm:"column:course_name"`
	Business      string    `gorm:"column:business"`
	ReceiverEmail string    `gorm:"column:receiver_email"`
	PaymentStatus string    `gorm:"column:payment_status"`
	PendingReason string    `gorm:"column:pending_reason"`
	ReasonCode    string    `gorm:"column:reason_code"`
	PaymentType   string    `gorm:"column:payment_type"`
	Amount        float64   `gorm:"column:amount"`
	Currency      string    `gorm:"column:currency"`
	Memo          string    `gorm:"column:memo"`
	RawPayload    string    `gorm:"column:raw_payload;type:text"` // Use text for SQLite
	Successful    bool      `gorm:"column:successful;default:false"`
	ReceivedAt    time.Time `gorm:"column:received_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (TransactionSQLite) TableName() string {
	return "ipn_transactions"
}

var _ = ginkgo.Describe("TransactionRepository", func() {
	var (
		db   *gorm.DB
		repo *TransactionRepository
	)

	newTxn := func(txnID string, successful bool) *ipndm.Transaction {
		return &ipndm.Transaction{
			TxnID:         txnID,
			UserID:        12,
			CourseID:      34,
			InstanceID:    56,
			CourseName:    "Introduction to Go",
			Business:      "seller@example.com",
			PaymentStatus: "Completed",
			Amount:        19.99,
			Currency:      "USD",
			RawPayload:    json.RawMessage(`{"txn_id":"` + txnID + `"}`),
			Successful:    successful,
			ReceivedAt:    time.Now().UTC(),
		}
	}

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&TransactionSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		// Same partial unique index the migration creates: only accepted
		// records claim their txn_id.
		err = db.Exec("CREATE UNIQUE INDEX idx_ipn_transactions_txn_id ON ipn_transactions(txn_id) WHERE successful").Error
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = &TransactionRepository{db: db}
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should insert a record and set its id", func() {
			txn := newTxn("TXN-1", true)

			err := repo.Create(txn)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(txn.ID).To(gomega.BeNumerically(">", 0))
		})

		ginkgo.It("should reject a second successful record with the same txn_id", func() {
			first := newTxn("TXN-1", true)
			second := newTxn("TXN-1", true)

			err1 := repo.Create(first)
			err2 := repo.Create(second)

			gomega.Expect(err1).ToNot(gomega.HaveOccurred())
			gomega.Expect(err2).To(gomega.HaveOccurred()) // partial unique index on txn_id
		})

		ginkgo.It("should accept a successful record after a failure record for the same txn_id", func() {
			failed := newTxn("TXN-1", false)
			accepted := newTxn("TXN-1", true)

			gomega.Expect(repo.Create(failed)).To(gomega.Succeed())
			gomega.Expect(repo.Create(accepted)).To(gomega.Succeed())

			result, err := repo.GetSuccessfulByTxnID("TXN-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result).ToNot(gomega.BeNil())
			gomega.Expect(result.Successful).To(gomega.BeTrue())
		})

		ginkgo.It("should accept repeated failure records for the same txn_id", func() {
			gomega.Expect(repo.Create(newTxn("TXN-1", false))).To(gomega.Succeed())
			gomega.Expect(repo.Create(newTxn("TXN-1", false))).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("GetSuccessfulByTxnID", func() {
		ginkgo.Context("when a successful record exists", func() {
			ginkgo.BeforeEach(func() {
				gomega.Expect(repo.Create(newTxn("TXN-1", true))).To(gomega.Succeed())
			})

			ginkgo.It("should return it", func() {
				result, err := repo.GetSuccessfulByTxnID("TXN-1")

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).ToNot(gomega.BeNil())
				gomega.Expect(result.TxnID).To(gomega.Equal("TXN-1"))
				gomega.Expect(result.Successful).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("when only a failed record exists", func() {
			ginkgo.BeforeEach(func() {
				gomega.Expect(repo.Create(newTxn("TXN-1", false))).To(gomega.Succeed())
			})

			ginkgo.It("should return nil without error", func() {
				result, err := repo.GetSuccessfulByTxnID("TXN-1")

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).To(gomega.BeNil())
			})
		})

		ginkgo.Context("when no record exists", func() {
			ginkgo.It("should return nil without error", func() {
				result, err := repo.GetSuccessfulByTxnID("missing")

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).To(gomega.BeNil())
			})
		})
	})
})
