package authz

import (
	"context"
	"errors"
	"time"
)

// Repository signals. Stores return these; the registry and the workflow
// translate them into *Error values.
var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSlugTaken          = errors.New("role slug already taken")
	ErrNameTaken          = errors.New("role name already taken")
	ErrPendingExists      = errors.New("pending assignment already exists")
	ErrActiveExists       = errors.New("active assignment already exists")
	ErrNotPending         = errors.New("assignment is no longer pending")
	ErrUserNotFound       = errors.New("user not found")
)

// Status is the lifecycle state of a role assignment
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusRejected Status = "REJECTED"
)

// Role is a named set of permission strings
type Role struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Permissions []string // Ordered; duplicates are kept as given
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleUsage is a role together with the number of users holding it
type RoleUsage struct {
	*Role
	ActiveUsers int
}

// UserSummary is the display projection of a user owned by the identity subsystem
type UserSummary struct {
	ID    string
	Email string
	Name  string
}

// Assignment links a user to a role through the request/approval lifecycle
type Assignment struct {
	ID              string
	UserID          string
	RoleID          string
	Status          Status
	RequestedAt     time.Time
	ApprovedAt      *time.Time
	ApprovedBy      string
	RejectedAt      *time.Time
	RejectedBy      string
	RejectionReason string

	// Populated by list and get queries
	Role     *Role
	User     *UserSummary
	Approver *UserSummary
	Rejecter *UserSummary
}

// Transition describes a move out of PENDING
type Transition struct {
	To     Status // StatusActive or StatusRejected
	Actor  string
	At     time.Time
	Reason string
}

// UserDirectory reads user summaries owned by the identity subsystem
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*UserSummary, error)
	GetByEmail(ctx context.Context, email string) (*UserSummary, error)
}

// RoleRepository defines the interface for role persistence
type RoleRepository interface {
	// Create stores a new role; ErrSlugTaken or ErrNameTaken on collision
	Create(ctx context.Context, role *Role) error

	// GetByID retrieves a role by ID
	GetByID(ctx context.Context, id string) (*Role, error)

	// GetBySlug retrieves a role by slug
	GetBySlug(ctx context.Context, slug string) (*Role, error)

	// GetByName retrieves a role by display name
	GetByName(ctx context.Context, name string) (*Role, error)

	// Update overwrites name, slug, description, permissions and updated_at
	Update(ctx context.Context, role *Role) error

	// Delete removes a role and cascades to its assignments
	Delete(ctx context.Context, id string) error

	// List returns all roles, newest first, with their active user counts
	List(ctx context.Context) ([]*RoleUsage, error)
}

// AssignmentRepository defines the interface for user-role assignments
type AssignmentRepository interface {
	// Create stores a new assignment; ErrPendingExists or ErrActiveExists on collision
	Create(ctx context.Context, a *Assignment) error

	// GetByID retrieves an assignment with its role and user summaries
	GetByID(ctx context.Context, id string) (*Assignment, error)

	// Find returns the assignment for (userID, roleID) in the given status
	Find(ctx context.Context, userID, roleID string, status Status) (*Assignment, error)

	// ListByStatus returns assignments in a status, newest request first
	ListByStatus(ctx context.Context, status Status) ([]*Assignment, error)

	// ListForUser returns a user's full history, newest request first
	ListForUser(ctx context.Context, userID string) ([]*Assignment, error)

	// ListActiveForUser returns a user's active grants, most recent approval first
	ListActiveForUser(ctx context.Context, userID string) ([]*Assignment, error)

	// Transition moves a PENDING assignment; ErrNotPending if it already left PENDING
	Transition(ctx context.Context, id string, t Transition) (*Assignment, error)

	// DeleteActive removes the active grant of roleID from userID
	DeleteActive(ctx context.Context, userID, roleID string) error

	// CountByRole counts assignments of a role in a status
	CountByRole(ctx context.Context, roleID string, status Status) (int, error)
}
