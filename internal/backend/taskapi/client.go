// Package taskapi implements the service.Service interface against the
// task-tracking REST API.
package taskapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taskboard/internal/service"
	"taskboard/internal/transport"
)

var _ service.Service = (*Client)(nil)

// Client implements service.Service over a transport.Client.
type Client struct {
	t *transport.Client
}

// New creates a new REST client.
func New(t *transport.Client) *Client {
	return &Client{t: t}
}

type tokenReply struct {
	AccessToken string `json:"access_token"`
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, creds service.Credentials) (string, error) {
	return c.authenticate(ctx, "/users/register", creds)
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (string, error) {
	return c.authenticate(ctx, "/users/login", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds service.Credentials) (string, error) {
	var reply tokenReply
	err := c.t.Do(ctx, transport.Request{
		Method:    http.MethodPost,
		Path:      path,
		Body:      creds,
		Anonymous: true,
	}, &reply)
	if err != nil {
		return "", err
	}
	if reply.AccessToken == "" {
		return "", service.Fail(service.RemoteRejected, "no access token in response")
	}
	return reply.AccessToken, nil
}

// ListUsers implements service.Service.
func (c *Client) ListUsers(ctx context.Context) ([]service.User, error) {
	var users []service.User
	err := c.t.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		Path:     "/users",
		Envelope: "users",
	}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser implements service.Service.
func (c *Client) GetUser(ctx context.Context, id int) (service.User, error) {
	var user service.User
	err := c.t.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		Path:     "/users/" + strconv.Itoa(id),
		Envelope: "user",
	}, &user)
	if err != nil {
		return service.User{}, err
	}
	return user, nil
}

// DecodeToken implements service.Service.
func (c *Client) DecodeToken(ctx context.Context, token string) (int, error) {
	var raw json.RawMessage
	err := c.t.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/users/decode-token/" + url.PathEscape(token),
		LogPath: "/users/decode-token/<redacted>",
	}, &raw)
	if err != nil {
		return 0, err
	}
	id, err := parseUserID(raw)
	if err != nil {
		return 0, service.Fail(service.RemoteRejected, "invalid decode-token response: %v", err)
	}
	return id, nil
}

// parseUserID accepts 7, "7" or {"id": 7}.
func parseUserID(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && len(obj.ID) > 0 {
		return parseUserID(obj.ID)
	}
	return 0, fmt.Errorf("unexpected payload %s", string(raw))
}

// ListProjects implements service.Service.
func (c *Client) ListProjects(ctx context.Context) ([]service.Project, error) {
	var projects []service.Project
	err := c.t.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		Path:     "/projects",
		Envelope: "projects",
	}, &projects)
	if err != nil {
		return nil, err
	}

	for i := range projects {
		if projects[i].ID == nil {
			return nil, service.Fail(service.RemoteRejected, "project %q has no id", projects[i].Name)
		}
		projects[i].Normalize()
	}
	return projects, nil
}

// CreateProject implements service.Service.
func (c *Client) CreateProject(ctx context.Context, draft service.Project) (service.Project, error) {
	draft.ID = nil
	draft.Normalize()

	var created service.Project
	err := c.t.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/projects",
		Body:   draft,
	}, &created)
	if err != nil {
		return service.Project{}, err
	}
	if created.ID == nil {
		return service.Project{}, service.Fail(service.RemoteRejected, "created project has no id")
	}
	created.Normalize()
	return created, nil
}

// DeleteProject implements service.Service.
func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.t.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   "/projects/" + strconv.Itoa(id),
	}, nil)
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, projectID int, task service.Task, status service.Status) (service.Task, error) {
	task.ID = ""
	task.Status = status

	var created service.Task
	err := c.t.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/projects/%d/tasks/%s", projectID, url.PathEscape(string(status))),
		Body:   task,
	}, &created)
	if err != nil {
		return service.Task{}, err
	}
	if created.ID == "" {
		return service.Task{}, service.Fail(service.RemoteRejected, "created task has no id")
	}
	created.Status = status
	return created, nil
}

// MoveTask implements service.Service.
func (c *Client) MoveTask(ctx context.Context, projectID int, taskID string, from, to service.Status) error {
	return c.t.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path: fmt.Sprintf("/projects/%d/tasks/move/%s/%s/%s",
			projectID, url.PathEscape(taskID), url.PathEscape(string(from)), url.PathEscape(string(to))),
	}, nil)
}
