package database

import (
	"time"

	"github.com/claro-app/claro-server/internal/models"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
)

// SeedFixtures loads a small deterministic demo dataset for development.
// It is a no-op when any user already exists, so restarts do not duplicate
// data. Production never calls this; the fixture path is selected
// explicitly by configuration.
func SeedFixtures(db *Database) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password, err := pkgauth.HashPassword("password123")
	if err != nil {
		return err
	}

	alice := &models.User{Email: "alice@example.com", Name: "Alice Demo", Password: password, Role: models.UserRoleUser}
	bob := &models.User{Email: "bob@example.com", Name: "Bob Demo", Password: password, Role: models.UserRoleUser}
	carol := &models.User{Email: "carol@example.com", Name: "Carol Demo", Password: password, Role: models.UserRoleUser}
	for _, u := range []*models.User{alice, bob, carol} {
		if err := db.CreateUser(u); err != nil {
			return err
		}
	}

	website := &models.Project{
		Name:        "Website Redesign",
		Description: "Refresh the marketing site",
		Color:       "#3B82F6",
		Status:      models.ProjectStatusActive,
		OwnerID:     alice.ID,
	}
	mobile := &models.Project{
		Name:        "Mobile App",
		Description: "Companion app for iOS and Android",
		Color:       "#10B981",
		Status:      models.ProjectStatusActive,
		OwnerID:     bob.ID,
	}
	for _, p := range []*models.Project{website, mobile} {
		if err := db.CreateProject(p); err != nil {
			return err
		}
	}

	// Bob joins Alice's project as a plain member; Carol stays outside both.
	if err := db.AddMember(&models.ProjectMember{
		UserID:    bob.ID,
		ProjectID: website.ID,
		Role:      models.MemberRoleUser,
	}); err != nil {
		return err
	}

	now := time.Now()
	soon := now.Add(3 * 24 * time.Hour)
	past := now.Add(-2 * 24 * time.Hour)
	done := now.Add(-24 * time.Hour)

	tasks := []*models.Task{
		{
			Title:      "Draft new landing page",
			Status:     models.TaskStatusInProgress,
			Priority:   models.TaskPriorityHigh,
			DueDate:    &soon,
			ProjectID:  website.ID,
			AssigneeID: &bob.ID,
			CreatorID:  alice.ID,
			Tags:       models.TagList{"design", "frontend"},
		},
		{
			Title:       "Fix contact form validation",
			Description: "Errors are swallowed on submit",
			Status:      models.TaskStatusTodo,
			Priority:    models.TaskPriorityUrgent,
			DueDate:     &past,
			ProjectID:   website.ID,
			CreatorID:   alice.ID,
		},
		{
			Title:       "Set up CI pipeline",
			Status:      models.TaskStatusCompleted,
			Priority:    models.TaskPriorityMedium,
			ProjectID:   website.ID,
			CreatorID:   alice.ID,
			CompletedAt: &done,
		},
		{
			Title:     "Push notification spike",
			Status:    models.TaskStatusTodo,
			Priority:  models.TaskPriorityLow,
			ProjectID: mobile.ID,
			CreatorID: bob.ID,
		},
	}
	for _, t := range tasks {
		if err := db.CreateTask(t); err != nil {
			return err
		}
	}

	return nil
}
