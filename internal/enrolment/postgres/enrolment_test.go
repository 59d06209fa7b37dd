package postgres

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	enroldm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/enrolment"
)

func TestEnrolmentRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Enrolment Repository Suite")
}

var _ = ginkgo.Describe("EnrolmentRepository", func() {
	var (
		db   *gorm.DB
		repo *EnrolmentRepository
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&enroldm.Instance{}, &enroldm.Enrolment{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = &EnrolmentRepository{db: db}
	})

	ginkgo.Describe("GetInstanceByID", func() {
		ginkgo.It("should return the instance", func() {
			instance := &enroldm.Instance{
				CourseID: 34,
				Method:   enroldm.MethodPayPal,
				Status:   enroldm.StatusActive,
				Cost:     19.99,
				Currency: "USD",
				RoleID:   5,
			}
			gomega.Expect(db.Create(instance).Error).ToNot(gomega.HaveOccurred())

			result, err := repo.GetInstanceByID(instance.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Cost).To(gomega.Equal(19.99))
			gomega.Expect(result.Currency).To(gomega.Equal("USD"))
		})

		ginkgo.It("should return an error when the instance does not exist", func() {
			_, err := repo.GetInstanceByID(999)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("UpsertEnrolment", func() {
		ginkgo.It("should insert a new membership", func() {
			e := &enroldm.Enrolment{InstanceID: 56, UserID: 12, RoleID: 5, TimeStart: time.Now().UTC()}

			err := repo.UpsertEnrolment(e)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.ID).To(gomega.BeNumerically(">", 0))
		})

		ginkgo.It("should refresh role and window for an existing pair instead of failing", func() {
			start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, 0)

			first := &enroldm.Enrolment{InstanceID: 56, UserID: 12, RoleID: 5, TimeStart: start}
			gomega.Expect(repo.UpsertEnrolment(first)).To(gomega.Succeed())

			second := &enroldm.Enrolment{InstanceID: 56, UserID: 12, RoleID: 7, TimeStart: start.AddDate(0, 0, 1), TimeEnd: &end}
			gomega.Expect(repo.UpsertEnrolment(second)).To(gomega.Succeed())

			var memberships []enroldm.Enrolment
			gomega.Expect(db.Where("instance_id = ? AND user_id = ?", 56, 12).Find(&memberships).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(memberships).To(gomega.HaveLen(1))
			gomega.Expect(memberships[0].RoleID).To(gomega.Equal(int64(7)))
			gomega.Expect(memberships[0].TimeEnd).ToNot(gomega.BeNil())
		})

		ginkgo.It("should keep memberships of other users untouched", func() {
			gomega.Expect(repo.UpsertEnrolment(&enroldm.Enrolment{InstanceID: 56, UserID: 12, RoleID: 5, TimeStart: time.Now().UTC()})).To(gomega.Succeed())
			gomega.Expect(repo.UpsertEnrolment(&enroldm.Enrolment{InstanceID: 56, UserID: 13, RoleID: 5, TimeStart: time.Now().UTC()})).To(gomega.Succeed())

			var count int64
			gomega.Expect(db.Model(&enroldm.Enrolment{}).Count(&count).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(int64(2)))
		})
	})

	ginkgo.Describe("DeleteEnrolment", func() {
		ginkgo.It("should remove the membership for the instance and user", func() {
			gomega.Expect(repo.UpsertEnrolment(&enroldm.Enrolment{InstanceID: 56, UserID: 12, RoleID: 5, TimeStart: time.Now().UTC()})).To(gomega.Succeed())

			err := repo.DeleteEnrolment(56, 12)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			var count int64
			gomega.Expect(db.Model(&enroldm.Enrolment{}).Count(&count).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.BeZero())
		})

		ginkgo.It("should not fail when the membership does not exist", func() {
			err := repo.DeleteEnrolment(56, 999)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})
})
