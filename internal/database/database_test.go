package database

import (
	"testing"
	"time"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *Database, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test User", Password: "hashed"}
	require.NoError(t, db.CreateUser(user))
	return user
}

func createTestProject(t *testing.T, db *Database, ownerID uint, name string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, OwnerID: ownerID, Status: models.ProjectStatusActive}
	require.NoError(t, db.CreateProject(project))
	return project
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	t.Run("normalizes email", func(t *testing.T) {
		user := &models.User{Email: "  Alice@Example.COM ", Name: "Alice", Password: "x"}
		require.NoError(t, db.CreateUser(user))
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("duplicate email conflicts regardless of case", func(t *testing.T) {
		dup := &models.User{Email: "ALICE@example.com", Name: "Alice Again", Password: "x"}
		err := db.CreateUser(dup)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestCreateProjectInsertsOwnerMembership(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID, "Alpha")

	member, err := db.FindMembership(owner.ID, project.ID)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, models.MemberRoleAdmin, member.Role)
}

func TestAddMember(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	project := createTestProject(t, db, owner.ID, "Alpha")

	t.Run("adds a new member", func(t *testing.T) {
		err := db.AddMember(&models.ProjectMember{
			UserID:    other.ID,
			ProjectID: project.ID,
			Role:      models.MemberRoleUser,
		})
		require.NoError(t, err)
	})

	t.Run("duplicate pair conflicts", func(t *testing.T) {
		err := db.AddMember(&models.ProjectMember{
			UserID:    other.ID,
			ProjectID: project.ID,
			Role:      models.MemberRoleAdmin,
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestListProjectsForUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	carol := createTestUser(t, db, "carol@example.com")

	owned := createTestProject(t, db, alice.ID, "Owned")
	joined := createTestProject(t, db, bob.ID, "Joined")
	createTestProject(t, db, carol.ID, "Hidden")

	require.NoError(t, db.AddMember(&models.ProjectMember{
		UserID: alice.ID, ProjectID: joined.ID, Role: models.MemberRoleUser,
	}))

	projects, err := db.ListProjectsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	ids := []uint{projects[0].ID, projects[1].ID}
	assert.Contains(t, ids, owned.ID)
	assert.Contains(t, ids, joined.ID)
}

func TestListTasks(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	visible := createTestProject(t, db, alice.ID, "Visible")
	hidden := createTestProject(t, db, bob.ID, "Hidden")

	todo := models.TaskStatusTodo
	urgent := models.TaskPriorityUrgent

	require.NoError(t, db.CreateTask(&models.Task{
		Title: "Mine", ProjectID: visible.ID, CreatorID: alice.ID,
		Status: todo, Priority: urgent,
	}))
	require.NoError(t, db.CreateTask(&models.Task{
		Title: "Mine too", ProjectID: visible.ID, CreatorID: alice.ID,
		Status: models.TaskStatusCompleted, Priority: models.TaskPriorityLow,
	}))
	require.NoError(t, db.CreateTask(&models.Task{
		Title: "Not mine", ProjectID: hidden.ID, CreatorID: bob.ID,
		Status: todo, Priority: urgent,
	}))

	t.Run("scopes to visible projects", func(t *testing.T) {
		tasks, err := db.ListTasks(alice.ID, TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("filters combine with scoping", func(t *testing.T) {
		tasks, err := db.ListTasks(alice.ID, TaskFilter{Status: &todo, Priority: &urgent})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Mine", tasks[0].Title)
	})

	t.Run("inaccessible project filter yields nothing", func(t *testing.T) {
		tasks, err := db.ListTasks(alice.ID, TaskFilter{ProjectID: &hidden.ID})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestUpdateTaskPersistsClearedColumns(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	project := createTestProject(t, db, alice.ID, "Alpha")

	due := time.Now().Add(24 * time.Hour)
	task := &models.Task{
		Title: "T", ProjectID: project.ID, CreatorID: alice.ID,
		Status: models.TaskStatusTodo, Priority: models.TaskPriorityMedium,
		DueDate: &due,
	}
	require.NoError(t, db.CreateTask(task))

	task.DueDate = nil
	require.NoError(t, db.UpdateTask(task))

	reloaded, err := db.GetTask(task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DueDate)
}

func TestDeleteProjectCascades(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	project := createTestProject(t, db, alice.ID, "Doomed")

	require.NoError(t, db.AddMember(&models.ProjectMember{
		UserID: bob.ID, ProjectID: project.ID, Role: models.MemberRoleUser,
	}))

	task := &models.Task{
		Title: "T", ProjectID: project.ID, CreatorID: alice.ID,
		Status: models.TaskStatusTodo, Priority: models.TaskPriorityMedium,
	}
	require.NoError(t, db.CreateTask(task))
	require.NoError(t, db.AddComment(&models.Comment{
		Content: "hi", TaskID: task.ID, UserID: bob.ID,
	}))
	require.NoError(t, db.CreateNotification(&models.Notification{
		UserID: bob.ID, Type: models.NotificationMemberAdded,
		Message: "added", ProjectID: &project.ID,
	}))

	require.NoError(t, db.DeleteProject(project.ID))

	_, err := db.GetProject(project.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = db.GetTask(task.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	comments, err := db.ListComments(task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	notifications, err := db.ListNotifications(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	member, err := db.FindMembership(bob.ID, project.ID)
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	n := &models.Notification{
		UserID: alice.ID, Type: models.NotificationTaskAssigned, Message: "assigned",
	}
	require.NoError(t, db.CreateNotification(n))

	t.Run("mark read only touches own rows", func(t *testing.T) {
		err := db.MarkNotificationRead(bob.ID, n.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		require.NoError(t, db.MarkNotificationRead(alice.ID, n.ID))

		list, err := db.ListNotifications(alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].Read)
	})
}
