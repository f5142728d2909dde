// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"taskboard/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// Tokens are "token-<user id>".
type FakeService struct {
	mu        sync.Mutex
	users     []service.User
	passwords map[string]string
	projects  []service.Project
	nextUser  int
	nextProj  int
	nextTask  int
	calls     map[string]int

	// Error injection for testing
	RegisterErr      error
	LoginErr         error
	ListUsersErr     error
	GetUserErr       error
	DecodeTokenErr   error
	ListProjectsErr  error
	CreateProjectErr error
	DeleteProjectErr error
	CreateTaskErr    error
	MoveTaskErr      error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		passwords: make(map[string]string),
		calls:     make(map[string]int),
		nextUser:  1,
		nextProj:  1,
		nextTask:  1,
	}
}

// AddUser registers a user and returns its token.
func (f *FakeService) AddUser(name, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(name, password)
}

func (f *FakeService) addUserLocked(name, password string) string {
	id := f.nextUser
	f.nextUser++
	f.users = append(f.users, service.User{ID: id, Name: name})
	f.passwords[name] = password
	return TokenFor(id)
}

// TokenFor returns the token FakeService issues for a user id.
func TokenFor(id int) string {
	return "token-" + strconv.Itoa(id)
}

// AddProject stores a project as if it had been created remotely and
// returns its id.
func (f *FakeService) AddProject(name, description, owner string, tasks ...service.Task) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextProj
	f.nextProj++
	p := service.Project{ID: &id, Name: name, Description: description, Owner: owner}
	p.Normalize()
	for _, t := range tasks {
		if t.Status == "" {
			t.Status = service.StatusTodo
		}
		if t.ID == "" {
			t.ID = f.newTaskIDLocked()
		}
		p.AddTask(t)
	}
	f.projects = append(f.projects, p)
	return id
}

// SetNextProjectID makes the next created project receive id.
func (f *FakeService) SetNextProjectID(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextProj = id
}

// Project returns the stored copy of a project.
func (f *FakeService) Project(id int) (service.Project, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexLocked(id); i >= 0 {
		return f.projects[i].Clone(), true
	}
	return service.Project{}, false
}

// Calls returns how many times the named method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *FakeService) newTaskIDLocked() string {
	id := "t" + strconv.Itoa(f.nextTask)
	f.nextTask++
	return id
}

func (f *FakeService) indexLocked(id int) int {
	for i, p := range f.projects {
		if p.ProjectID() == id {
			return i
		}
	}
	return -1
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, creds service.Credentials) (string, error) {
	f.record("Register")
	if f.RegisterErr != nil {
		return "", f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[creds.Name]; exists {
		return "", service.Fail(service.RemoteRejected, "User already exists")
	}
	return f.addUserLocked(creds.Name, creds.Password), nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (string, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[creds.Name]; !ok || pw != creds.Password {
		return "", service.Fail(service.RemoteRejected, "Invalid credentials")
	}
	for _, u := range f.users {
		if u.Name == creds.Name {
			return TokenFor(u.ID), nil
		}
	}
	return "", service.Fail(service.RemoteRejected, "Invalid credentials")
}

// ListUsers implements service.Service.
func (f *FakeService) ListUsers(ctx context.Context) ([]service.User, error) {
	f.record("ListUsers")
	if f.ListUsersErr != nil {
		return nil, f.ListUsersErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.User(nil), f.users...), nil
}

// GetUser implements service.Service.
func (f *FakeService) GetUser(ctx context.Context, id int) (service.User, error) {
	f.record("GetUser")
	if f.GetUserErr != nil {
		return service.User{}, f.GetUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return service.User{}, service.Fail(service.RemoteRejected, "User not found")
}

// DecodeToken implements service.Service.
func (f *FakeService) DecodeToken(ctx context.Context, token string) (int, error) {
	f.record("DecodeToken")
	if f.DecodeTokenErr != nil {
		return 0, f.DecodeTokenErr
	}
	rest, ok := strings.CutPrefix(token, "token-")
	id, err := strconv.Atoi(rest)
	if !ok || err != nil {
		return 0, service.Fail(service.Unauthorized, "Invalid token")
	}
	return id, nil
}

// ListProjects implements service.Service.
func (f *FakeService) ListProjects(ctx context.Context) ([]service.Project, error) {
	f.record("ListProjects")
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]service.Project, len(f.projects))
	for i, p := range f.projects {
		result[i] = p.Clone()
	}
	return result, nil
}

// CreateProject implements service.Service.
func (f *FakeService) CreateProject(ctx context.Context, draft service.Project) (service.Project, error) {
	f.record("CreateProject")
	if f.CreateProjectErr != nil {
		return service.Project{}, f.CreateProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p := draft.Clone()
	id := f.nextProj
	f.nextProj++
	p.ID = &id
	p.Normalize()
	f.projects = append(f.projects, p)
	return p.Clone(), nil
}

// DeleteProject implements service.Service.
func (f *FakeService) DeleteProject(ctx context.Context, id int) error {
	f.record("DeleteProject")
	if f.DeleteProjectErr != nil {
		return f.DeleteProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(id)
	if i < 0 {
		return service.Fail(service.RemoteRejected, "Project not found")
	}
	f.projects = append(f.projects[:i], f.projects[i+1:]...)
	return nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, projectID int, task service.Task, status service.Status) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(projectID)
	if i < 0 {
		return service.Task{}, service.Fail(service.RemoteRejected, "Project not found")
	}
	task.ID = f.newTaskIDLocked()
	task.Status = status
	task.AssignedTo = append([]string(nil), task.AssignedTo...)
	f.projects[i].AddTask(task)
	return task, nil
}

// MoveTask implements service.Service.
func (f *FakeService) MoveTask(ctx context.Context, projectID int, taskID string, from, to service.Status) error {
	f.record("MoveTask")
	if f.MoveTaskErr != nil {
		return f.MoveTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(projectID)
	if i < 0 {
		return service.Fail(service.RemoteRejected, "Project not found")
	}
	t, ok := f.projects[i].FindTask(taskID)
	if !ok {
		return service.Fail(service.RemoteRejected, "Task not found")
	}
	if t.Status != from {
		return service.Fail(service.RemoteRejected, "Task is not in %s", from)
	}
	f.projects[i].MoveTask(taskID, to)
	return nil
}
