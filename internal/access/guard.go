// Package access centralizes the visibility and mutation rules for projects
// and tasks. Every handler consults the Guard instead of repeating the
// owner-or-member clause inline, so the rules cannot drift between
// endpoints.
package access

import (
	"time"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/models"
)

// Store is the slice of the persistence layer the guard needs.
type Store interface {
	GetProject(id uint) (*models.Project, error)
	FindMembership(userID, projectID uint) (*models.ProjectMember, error)
	GetUserByEmail(email string) (*models.User, error)
	AddMember(member *models.ProjectMember) error
	RemoveMember(projectID, userID uint) error
}

// Membership answers "who is this user to this project". Role is nil when
// no ProjectMember row exists; IsOwner is independent of the row.
type Membership struct {
	IsOwner bool
	Role    *models.MemberRole
}

func (m Membership) IsMember() bool {
	return m.IsOwner || m.Role != nil
}

type Guard struct {
	store Store
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Membership resolves the caller's standing on a project. Returns
// apperr.ErrNotFound when the project does not exist.
func (g *Guard) Membership(userID, projectID uint) (Membership, error) {
	project, err := g.store.GetProject(projectID)
	if err != nil {
		return Membership{}, err
	}

	m := Membership{IsOwner: project.OwnerID == userID}

	member, err := g.store.FindMembership(userID, projectID)
	if err != nil {
		return Membership{}, err
	}
	if member != nil {
		role := member.Role
		m.Role = &role
	}
	return m, nil
}

// CanView is true for the owner and for any member, regardless of the
// member's project-scoped role.
func (g *Guard) CanView(userID, projectID uint) (bool, error) {
	m, err := g.Membership(userID, projectID)
	if err != nil {
		return false, err
	}
	return m.IsMember(), nil
}

// CanEdit, CanDelete, and CanManageMembers are owner-exclusive. A member
// with project-scoped role ADMIN still may not rename or delete the project
// or manage its members.
func (g *Guard) CanEdit(userID, projectID uint) (bool, error) {
	m, err := g.Membership(userID, projectID)
	if err != nil {
		return false, err
	}
	return m.IsOwner, nil
}

func (g *Guard) CanDelete(userID, projectID uint) (bool, error) {
	return g.CanEdit(userID, projectID)
}

func (g *Guard) CanManageMembers(userID, projectID uint) (bool, error) {
	return g.CanEdit(userID, projectID)
}

// Task rights are member-wide: anyone who can view the project may create,
// edit, delete, and comment on its tasks.
func (g *Guard) CanCreateTaskIn(userID, projectID uint) (bool, error) {
	return g.CanView(userID, projectID)
}

func (g *Guard) CanEditTask(userID uint, task *models.Task) (bool, error) {
	return g.CanView(userID, task.ProjectID)
}

func (g *Guard) CanDeleteTask(userID uint, task *models.Task) (bool, error) {
	return g.CanView(userID, task.ProjectID)
}

func (g *Guard) CanCommentOn(userID uint, task *models.Task) (bool, error) {
	return g.CanView(userID, task.ProjectID)
}

// RequireView fails with apperr.ErrNotFound both when the project does not
// exist and when the caller may not see it, so existence is never leaked.
func (g *Guard) RequireView(userID, projectID uint) error {
	ok, err := g.CanView(userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

// RequireOwner fails identically for "not the owner" and "no such project".
func (g *Guard) RequireOwner(userID, projectID uint) error {
	ok, err := g.CanEdit(userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

// AddMember invites a user (looked up by email) to a project. Caller must
// be the owner; a duplicate (user, project) pair fails with ErrConflict.
func (g *Guard) AddMember(ownerID, projectID uint, email string, role models.MemberRole) (*models.ProjectMember, error) {
	if err := g.RequireOwner(ownerID, projectID); err != nil {
		return nil, err
	}

	user, err := g.store.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	member := &models.ProjectMember{
		UserID:    user.ID,
		ProjectID: projectID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	if err := g.store.AddMember(member); err != nil {
		return nil, err
	}
	member.User = user
	return member, nil
}

// RemoveMember deletes a membership row. Owner-only; removing the owner's
// own implicit rights is not possible this way since ownership lives on the
// project.
func (g *Guard) RemoveMember(ownerID, projectID, userID uint) error {
	if err := g.RequireOwner(ownerID, projectID); err != nil {
		return err
	}
	return g.store.RemoveMember(projectID, userID)
}
