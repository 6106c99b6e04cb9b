package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusArchived   TaskStatus = "ARCHIVED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// UserRole is the account-wide role, distinct from MemberRole which is
// scoped to a single project.
type UserRole string

const (
	UserRoleUser      UserRole = "USER"
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleModerator UserRole = "MODERATOR"
)

type MemberRole string

const (
	MemberRoleUser      MemberRole = "USER"
	MemberRoleAdmin     MemberRole = "ADMIN"
	MemberRoleModerator MemberRole = "MODERATOR"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleUser, MemberRoleAdmin, MemberRoleModerator:
		return true
	}
	return false
}

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierPro        SubscriptionTier = "PRO"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
)

type User struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	Email            string           `json:"email" gorm:"unique;not null"`
	Name             string           `json:"name" gorm:"not null"`
	Password         string           `json:"-"`
	Role             UserRole         `json:"role" gorm:"default:'USER'"`
	EmailVerified    bool             `json:"email_verified" gorm:"default:false"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier" gorm:"default:'FREE'"`
	LastActiveAt     *time.Time       `json:"last_active_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	OwnedProjects    []Project        `json:"owned_projects,omitempty" gorm:"foreignKey:OwnerID"`
}

type Project struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Color       string          `json:"color" gorm:"default:'#3B82F6'"`
	IsPublic    bool            `json:"is_public" gorm:"default:false"`
	Status      ProjectStatus   `json:"status" gorm:"default:'ACTIVE'"`
	OwnerID     uint            `json:"owner_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Owner       *User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Members     []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
	Tasks       []Task          `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

// ProjectMember grants project-scoped rights. The (UserID, ProjectID) pair
// is unique; the owner is additionally inserted as an ADMIN member at
// project creation, but ownership itself is tracked on Project.OwnerID.
type ProjectMember struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_member_pair"`
	ProjectID uint       `json:"project_id" gorm:"not null;uniqueIndex:idx_member_pair"`
	Role      MemberRole `json:"role" gorm:"default:'USER'"`
	JoinedAt  time.Time  `json:"joined_at"`
	User      *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Project   *Project   `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// TagList is stored as a JSON array in a single text column.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	}
	return fmt.Errorf("cannot scan %T into TagList", value)
}

type Task struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	Title          string       `json:"title" gorm:"not null"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status" gorm:"default:'TODO'"`
	Priority       TaskPriority `json:"priority" gorm:"default:'MEDIUM'"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ActualHours    *float64     `json:"actual_hours,omitempty"`
	Tags           TagList      `json:"tags" gorm:"type:text"`
	ProjectID      uint         `json:"project_id" gorm:"not null;index"`
	AssigneeID     *uint        `json:"assignee_id,omitempty"`
	CreatorID      uint         `json:"creator_id" gorm:"not null"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Project        *Project     `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Assignee       *User        `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Creator        *User        `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Comments       []Comment    `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
}

// Comment is immutable after creation; there is no edit operation.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"not null"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Task      *Task     `json:"task,omitempty" gorm:"foreignKey:TaskID"`
}

type NotificationType string

const (
	NotificationTaskAssigned NotificationType = "TASK_ASSIGNED"
	NotificationMemberAdded  NotificationType = "MEMBER_ADDED"
	NotificationCommentAdded NotificationType = "COMMENT_ADDED"
)

type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	Read      bool             `json:"read" gorm:"default:false"`
	ProjectID *uint            `json:"project_id,omitempty"`
	TaskID    *uint            `json:"task_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
