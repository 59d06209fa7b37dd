package cmd

import (
	"fmt"
	"os"

	coursedm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/course"
	enroldm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/enrolment"
	userdm "github.com/frahmantamala/paypal-enrolment/internal/core/datamodel/user"
	"github.com/frahmantamala/paypal-enrolment/pkg/logger"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed development data",
	Long:  `Insert demo users, courses and paypal enrolment instances for local development`,
	Run: func(cmd *cobra.Command, args []string) {
		runSeeder()
	},
}

func runSeeder() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.LoggerWrapper()

	db, err := gorm.Open(gormpostgres.Open(cfg.Database.Source), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	if clearData {
		log.Info("clearing existing seed data")
		for _, table := range []string{"enrolments", "enrol_instances", "courses", "users", "roles"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				log.Error("failed to clear table", "table", table, "error", err)
			}
		}
	}

	roles := []enroldm.Role{
		{ShortName: "manager", Name: "Manager", SortOrder: 1, CanManageCourse: true},
		{ShortName: "editingteacher", Name: "Teacher", SortOrder: 2, CanManageCourse: true},
		{ShortName: "student", Name: "Student", SortOrder: 5},
	}
	for i := range roles {
		if err := db.FirstOrCreate(&roles[i], enroldm.Role{ShortName: roles[i].ShortName}).Error; err != nil {
			log.Error("failed to seed role", "role", roles[i].ShortName, "error", err)
		}
	}

	users := []userdm.User{
		{Username: "admin", Email: "admin@example.com", FirstName: "Site", LastName: "Admin", IsAdmin: true},
		{Username: "teacher", Email: "teacher@example.com", FirstName: "Tina", LastName: "Teacher"},
		{Username: "student", Email: "student@example.com", FirstName: "Sam", LastName: "Student"},
	}
	for i := range users {
		if err := db.FirstOrCreate(&users[i], userdm.User{Username: users[i].Username}).Error; err != nil {
			log.Error("failed to seed user", "username", users[i].Username, "error", err)
		}
	}

	course := coursedm.Course{FullName: "Introduction to Go", ShortName: "go101", Visible: true}
	if err := db.FirstOrCreate(&course, coursedm.Course{ShortName: course.ShortName}).Error; err != nil {
		log.Error("failed to seed course", "error", err)
	}

	instance := enroldm.Instance{
		CourseID: course.ID,
		Method:   enroldm.MethodPayPal,
		Name:     "PayPal enrolment",
		Status:   enroldm.StatusActive,
		Cost:     19.99,
		Currency: "USD",
		RoleID:   roles[2].ID,
	}
	if err := db.FirstOrCreate(&instance, enroldm.Instance{CourseID: course.ID, Method: enroldm.MethodPayPal}).Error; err != nil {
		log.Error("failed to seed enrolment instance", "error", err)
	}

	teacherEnrolment := enroldm.Enrolment{
		InstanceID: instance.ID,
		UserID:     users[1].ID,
		RoleID:     roles[1].ID,
	}
	if err := db.FirstOrCreate(&teacherEnrolment, enroldm.Enrolment{InstanceID: instance.ID, UserID: users[1].ID}).Error; err != nil {
		log.Error("failed to seed teacher enrolment", "error", err)
	}

	log.Info("seed data ready",
		"course_id", course.ID,
		"instance_id", instance.ID,
		"custom_field", fmt.Sprintf("%d-%d-%d", users[2].ID, course.ID, instance.ID))
}
