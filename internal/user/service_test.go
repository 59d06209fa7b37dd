package user_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
	userdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/user"
	"github.com/frahmantamala/paypal-enrolment/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type mockRepository struct {
	users    map[int64]*userdm.User
	admins   []*userdm.User
	teachers []*userdm.User
}

func (m *mockRepository) GetByID(id int64) (*userdm.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockRepository) GetAdmins() ([]*userdm.User, error) {
	return m.admins, nil
}

func (m *mockRepository) GetCourseTeachers(courseID int64) ([]*userdm.User, error) {
	return m.teachers, nil
}

var _ = Describe("Service", func() {
	var (
		repo    *mockRepository
		service *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = &mockRepository{users: map[int64]*userdm.User{}}
		service = user.NewService(repo)
	})

	Describe("GetByID", func() {
		It("should resolve a live user", func() {
			repo.users[12] = &userdm.User{ID: 12, Username: "student"}

			u, err := service.GetByID(ctx, 12)

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Username).To(Equal("student"))
		})

		It("should treat a non-positive id as not found", func() {
			_, err := service.GetByID(ctx, 0)

			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("should treat a deleted account as not found", func() {
			repo.users[12] = &userdm.User{ID: 12, Username: "gone", Deleted: true}

			_, err := service.GetByID(ctx, 12)

			Expect(err).To(Equal(internal.ErrUserNotFound))
		})
	})

	Describe("GetCourseTeacher", func() {
		It("should pick the most authoritative course manager", func() {
			repo.teachers = []*userdm.User{
				{ID: 8, Username: "lead"},
				{ID: 9, Username: "assistant"},
			}

			teacher, err := service.GetCourseTeacher(ctx, 34)

			Expect(err).ToNot(HaveOccurred())
			Expect(teacher.ID).To(Equal(int64(8)))
		})

		It("should return nil without error when the course has no manager", func() {
			teacher, err := service.GetCourseTeacher(ctx, 34)

			Expect(err).ToNot(HaveOccurred())
			Expect(teacher).To(BeNil())
		})
	})

	Describe("FullName", func() {
		It("should join first and last name", func() {
			u := &userdm.User{FirstName: "Ada", LastName: "Lovelace"}

			Expect(u.FullName()).To(Equal("Ada Lovelace"))
		})

		It("should trim when a part is missing", func() {
			u := &userdm.User{FirstName: "Ada"}

			Expect(u.FullName()).To(Equal("Ada"))
		})
	})
})
