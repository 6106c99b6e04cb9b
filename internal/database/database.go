package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
}

func NewDatabase(dataDir string) (*Database, error) {
	dbPath := filepath.Join(dataDir, "db", "claro.db")

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Comment{},
		&models.Notification{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// User management

func (db *Database) CreateUser(user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.ErrConflict
	}
	return db.Create(user).Error
}

func (db *Database) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (db *Database) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (db *Database) UpdateUser(user *models.User) error {
	return db.Save(user).Error
}

// TouchLastActive records a successful login without touching other fields.
func (db *Database) TouchLastActive(userID uint) error {
	return db.Model(&models.User{}).Where("id = ?", userID).
		Update("last_active_at", time.Now()).Error
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Project management

// CreateProject inserts the project and the owner's ADMIN membership row in
// one transaction, so a project is never visible without its owner-member.
func (db *Database) CreateProject(project *models.Project) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		member := &models.ProjectMember{
			UserID:    project.OwnerID,
			ProjectID: project.ID,
			Role:      models.MemberRoleAdmin,
			JoinedAt:  time.Now(),
		}
		return tx.Create(member).Error
	})
}

func (db *Database) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	err := db.Preload("Owner").Preload("Members.User").First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// visibleProjects returns the subquery of project IDs the user may see:
// projects they own plus projects where a membership row exists.
func (db *Database) visibleProjects(userID uint) *gorm.DB {
	return db.Model(&models.Project{}).
		Select("projects.id").
		Where("projects.owner_id = ? OR projects.id IN (?)", userID,
			db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID))
}

func (db *Database) ListProjectsForUser(userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := db.Where("id IN (?)", db.visibleProjects(userID)).
		Preload("Owner").
		Preload("Members.User").
		Order("updated_at DESC").
		Find(&projects).Error
	return projects, err
}

func (db *Database) UpdateProject(project *models.Project) error {
	return db.Save(project).Error
}

// DeleteProject removes the project and every dependent row in one
// transaction: comments on its tasks, its tasks, its memberships, and its
// notifications.
func (db *Database) DeleteProject(id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id IN (?)",
			tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}

// Membership management

// FindMembership returns nil without error when no row exists; callers
// distinguish "not a member" from store failure.
func (db *Database) FindMembership(userID, projectID uint) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := db.Where("user_id = ? AND project_id = ?", userID, projectID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (db *Database) AddMember(member *models.ProjectMember) error {
	existing, err := db.FindMembership(member.UserID, member.ProjectID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.ErrConflict
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return db.Create(member).Error
}

func (db *Database) RemoveMember(projectID, userID uint) error {
	return db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// Task management

// TaskFilter fields are AND-combined; every listing is additionally scoped
// to the caller's visible project set.
type TaskFilter struct {
	ProjectID  *uint
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssigneeID *uint
}

func (db *Database) CreateTask(task *models.Task) error {
	return db.Create(task).Error
}

func (db *Database) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Project").
		Preload("Assignee").
		Preload("Creator").
		Preload("Comments.User").
		First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (db *Database) ListTasks(userID uint, filter TaskFilter) ([]models.Task, error) {
	query := db.Where("project_id IN (?)", db.visibleProjects(userID))

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}

	var tasks []models.Task
	err := query.Preload("Project").
		Preload("Assignee").
		Preload("Creator").
		Order("due_date ASC").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (db *Database) UpdateTask(task *models.Task) error {
	// Save skips nil pointer columns, which would leave a cleared due date
	// or completion timestamp stale; select the full column set instead.
	return db.Model(task).Select("*").Omit("created_at").Updates(task).Error
}

func (db *Database) DeleteTask(id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

// Comment management

func (db *Database) AddComment(comment *models.Comment) error {
	if err := db.Create(comment).Error; err != nil {
		return err
	}
	return db.Preload("User").First(comment, comment.ID).Error
}

func (db *Database) ListComments(taskID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Where("task_id = ?", taskID).
		Preload("User").
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// Notification management

func (db *Database) CreateNotification(n *models.Notification) error {
	return db.Create(n).Error
}

func (db *Database) ListNotifications(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	return notifications, err
}

func (db *Database) MarkNotificationRead(userID, id uint) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (db *Database) MarkAllNotificationsRead(userID uint) error {
	return db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}
