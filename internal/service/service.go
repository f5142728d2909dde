// Package service defines the backend-agnostic interface for board operations.
package service

import "context"

// Service defines the interface for task-tracking backend operations.
// All remote service calls go through this interface.
// Commands and the board controller never talk HTTP directly.
type Service interface {
	// Register creates an account and returns its access token.
	Register(ctx context.Context, creds Credentials) (string, error)

	// Login authenticates an existing account and returns its access token.
	Login(ctx context.Context, creds Credentials) (string, error)

	// ListUsers returns all registered users.
	ListUsers(ctx context.Context) ([]User, error)

	// GetUser returns the user with the given id.
	GetUser(ctx context.Context, id int) (User, error)

	// DecodeToken asks the remote service which user id token belongs to.
	DecodeToken(ctx context.Context, token string) (int, error)

	// ListProjects returns all projects with task statuses normalized
	// to the partition that holds them.
	ListProjects(ctx context.Context) ([]Project, error)

	// CreateProject submits a draft and returns the created project.
	// The returned project always has an id.
	CreateProject(ctx context.Context, draft Project) (Project, error)

	// DeleteProject deletes a project by id. No ownership check is made here.
	DeleteProject(ctx context.Context, id int) error

	// CreateTask creates task directly in the status partition of a project.
	CreateTask(ctx context.Context, projectID int, task Task, status Status) (Task, error)

	// MoveTask moves a task between partitions. from is trusted to match
	// the task's last known status; the remote service validates it.
	MoveTask(ctx context.Context, projectID int, taskID string, from, to Status) error
}
