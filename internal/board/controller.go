// Package board keeps the client-side view of projects and their task boards
// in sync with the remote service.
//
// Every mutation is applied locally only after the remote service has
// confirmed it; a failed operation leaves the local state as it was.
// Removing a project is owner-gated: the current identity must match the
// project's owner before the delete request is sent.
package board

import (
	"context"
	"log/slog"
	"strings"

	"taskboard/internal/service"
)

// State is the controller's view mode.
type State int

const (
	// Listed shows the project collection.
	Listed State = iota
	// Open shows the task board of one project.
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "listed"
}

// IdentityResolver returns the identity behind the current session.
type IdentityResolver interface {
	Resolve(ctx context.Context) (service.Identity, error)
}

// Controller orchestrates board operations against a service.Service.
// It is not safe for concurrent use; callers serialize operations.
type Controller struct {
	svc      service.Service
	identity IdentityResolver
	logger   *slog.Logger

	projects []service.Project
	state    State
	openID   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// NewController creates a Controller with an empty collection.
func NewController(svc service.Service, identity IdentityResolver, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		identity: identity,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current view mode.
func (c *Controller) State() State {
	return c.state
}

// Projects returns a copy of the local project collection.
func (c *Controller) Projects() []service.Project {
	out := make([]service.Project, len(c.projects))
	for i, p := range c.projects {
		out[i] = p.Clone()
	}
	return out
}

// Project returns a copy of the local project with the given id.
func (c *Controller) Project(id int) (service.Project, bool) {
	if i := c.index(id); i >= 0 {
		return c.projects[i].Clone(), true
	}
	return service.Project{}, false
}

// LoadProjects replaces the local collection with the remote one.
// On failure the previous collection is kept.
func (c *Controller) LoadProjects(ctx context.Context) error {
	projects, err := c.svc.ListProjects(ctx)
	if err != nil {
		c.logger.Debug("load projects failed", "error", err)
		return err
	}

	loaded := make([]service.Project, len(projects))
	for i, p := range projects {
		loaded[i] = p.Clone()
		loaded[i].Normalize()
	}
	c.projects = loaded
	if c.state == Open && c.index(c.openID) < 0 {
		c.state = Listed
		c.openID = 0
	}
	c.logger.Debug("projects loaded", "count", len(loaded))
	return nil
}

// AddProject creates a project and appends the server's copy to the
// collection. Nothing is added before the server acknowledges it.
func (c *Controller) AddProject(ctx context.Context, draft service.Project) (service.Project, error) {
	draft = service.Project{
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		Owner:       strings.TrimSpace(draft.Owner),
	}
	switch {
	case draft.Name == "":
		return service.Project{}, service.Fail(service.ValidationFailed, "project name is required")
	case draft.Description == "":
		return service.Project{}, service.Fail(service.ValidationFailed, "project description is required")
	case draft.Owner == "":
		return service.Project{}, service.Fail(service.ValidationFailed, "project owner is required")
	}
	draft.Normalize()

	created, err := c.svc.CreateProject(ctx, draft)
	if err != nil {
		return service.Project{}, err
	}
	if created.ID == nil {
		return service.Project{}, service.Fail(service.RemoteRejected, "created project has no id")
	}
	created.Normalize()
	c.projects = append(c.projects, created.Clone())
	c.logger.Debug("project added", "id", created.ProjectID())
	return created, nil
}

// CanRemove reports whether the current identity owns the project.
// Any failure to resolve the identity counts as not owning it.
func (c *Controller) CanRemove(ctx context.Context, project service.Project) bool {
	id, err := c.identity.Resolve(ctx)
	if err != nil {
		return false
	}
	return id.Name == project.Owner
}

// RemoveProject deletes a project owned by the current identity.
// The delete request is never sent for an unknown project, without a
// session, or when the identity is not the owner.
func (c *Controller) RemoveProject(ctx context.Context, id int) error {
	i := c.index(id)
	if i < 0 {
		return service.Fail(service.NotFound, "project not found: %d", id)
	}
	owner := c.projects[i].Owner

	who, err := c.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	if who.Name != owner {
		return service.Fail(service.Forbidden, "only the project owner (%s) can remove project %d", owner, id)
	}

	if err := c.svc.DeleteProject(ctx, id); err != nil {
		return err
	}

	c.projects = append(c.projects[:i:i], c.projects[i+1:]...)
	if c.state == Open && c.openID == id {
		c.state = Listed
		c.openID = 0
	}
	c.logger.Debug("project removed", "id", id)
	return nil
}

// OpenProject selects a project for its task board.
func (c *Controller) OpenProject(id int) (service.Project, error) {
	i := c.index(id)
	if i < 0 {
		return service.Project{}, service.Fail(service.NotFound, "project not found: %d", id)
	}
	c.state = Open
	c.openID = id
	return c.projects[i].Clone(), nil
}

// Board returns the open project and its tasks in board order.
// ok is false when no project is open.
func (c *Controller) Board() (project service.Project, tasks []service.Task, ok bool) {
	if c.state != Open {
		return service.Project{}, nil, false
	}
	i := c.index(c.openID)
	if i < 0 {
		return service.Project{}, nil, false
	}
	p := c.projects[i].Clone()
	return p, p.Tasks(), true
}

// CloseProject returns to the project list and reloads it from the server.
func (c *Controller) CloseProject(ctx context.Context) error {
	c.state = Listed
	c.openID = 0
	return c.LoadProjects(ctx)
}

// CreateTask validates task and creates it under its status (todoList when
// empty). Validation happens before any remote call.
func (c *Controller) CreateTask(ctx context.Context, projectID int, task service.Task) (service.Task, error) {
	task, err := validateTask(task)
	if err != nil {
		return service.Task{}, err
	}
	if c.index(projectID) < 0 {
		return service.Task{}, service.Fail(service.NotFound, "project not found: %d", projectID)
	}

	created, err := c.svc.CreateTask(ctx, projectID, task, task.Status)
	if err != nil {
		return service.Task{}, err
	}
	if created.ID == "" {
		return service.Task{}, service.Fail(service.RemoteRejected, "created task has no id")
	}

	task.ID = created.ID
	if i := c.index(projectID); i >= 0 {
		c.projects[i].AddTask(task)
	}
	c.logger.Debug("task created", "project", projectID, "task", task.ID, "status", task.Status)
	return task, nil
}

// MoveTask moves a task between partitions. The local task changes only
// after the server confirms the move. from is passed through unchecked.
func (c *Controller) MoveTask(ctx context.Context, projectID int, taskID string, from, to service.Status) error {
	if !from.Valid() {
		return service.Fail(service.ValidationFailed, "invalid status: %s", from)
	}
	if !to.Valid() {
		return service.Fail(service.ValidationFailed, "invalid status: %s", to)
	}
	if strings.TrimSpace(taskID) == "" {
		return service.Fail(service.ValidationFailed, "task id is required")
	}
	if c.index(projectID) < 0 {
		return service.Fail(service.NotFound, "project not found: %d", projectID)
	}

	if err := c.svc.MoveTask(ctx, projectID, taskID, from, to); err != nil {
		return err
	}

	if i := c.index(projectID); i >= 0 {
		if !c.projects[i].MoveTask(taskID, to) {
			c.logger.Debug("moved task not in local state", "project", projectID, "task", taskID)
		}
	}
	return nil
}

func (c *Controller) index(id int) int {
	for i, p := range c.projects {
		if p.ProjectID() == id {
			return i
		}
	}
	return -1
}

func validateTask(task service.Task) (service.Task, error) {
	task.ID = ""
	task.Name = strings.TrimSpace(task.Name)
	task.Description = strings.TrimSpace(task.Description)
	if task.Name == "" {
		return task, service.Fail(service.ValidationFailed, "task name is required")
	}

	// assignedTo is a set
	var assignees []string
	seen := make(map[string]bool)
	for _, a := range task.AssignedTo {
		if a = strings.TrimSpace(a); a != "" && !seen[a] {
			seen[a] = true
			assignees = append(assignees, a)
		}
	}
	if len(assignees) == 0 {
		return task, service.Fail(service.ValidationFailed, "task must be assigned to at least one user")
	}
	task.AssignedTo = assignees

	if task.Description == "" {
		return task, service.Fail(service.ValidationFailed, "task description is required")
	}

	if task.Status == "" {
		task.Status = service.StatusTodo
	}
	if !task.Status.Valid() {
		return task, service.Fail(service.ValidationFailed, "invalid status: %s", task.Status)
	}
	return task, nil
}
