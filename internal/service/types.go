// Package service defines the backend-agnostic interface for board operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the partition a task belongs to, in its wire form.
type Status string

const (
	StatusTodo       Status = "todoList"
	StatusInProgress Status = "inProgressList"
	StatusDone       Status = "doneList"
)

// Statuses lists the three partitions in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the three partitions.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the display name of the partition.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// ParseStatus accepts the wire names as well as the short forms
// todo, in-progress and done (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do", "todolist":
		return StatusTodo, nil
	case "in-progress", "inprogress", "progress", "inprogresslist":
		return StatusInProgress, nil
	case "done", "donelist":
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// Task is a single unit of work inside a project.
// ID is empty until the remote service has acknowledged the task.
type Task struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	AssignedTo  []string `json:"assignedTo"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
}

// UnmarshalJSON accepts the task id as either a JSON string or a number.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := parseTaskID(raw.ID)
	if err != nil {
		return err
	}
	*t = Task(raw.plain)
	t.ID = id
	return nil
}

func parseTaskID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid task id %s", string(raw))
	}
	return n.String(), nil
}

// Project groups tasks into the three status partitions.
// ID is nil only for a draft that has not been created yet.
type Project struct {
	ID             *int   `json:"id,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Owner          string `json:"owner"`
	TodoList       []Task `json:"todoList"`
	InProgressList []Task `json:"inProgressList"`
	DoneList       []Task `json:"doneList"`
}

// ProjectID returns the project id, or 0 for a draft.
func (p Project) ProjectID() int {
	if p.ID == nil {
		return 0
	}
	return *p.ID
}

// Partition returns the tasks stored under status.
func (p Project) Partition(status Status) []Task {
	switch status {
	case StatusTodo:
		return p.TodoList
	case StatusInProgress:
		return p.InProgressList
	case StatusDone:
		return p.DoneList
	}
	return nil
}

// Tasks flattens the partitions in board order. Each returned task carries
// the status of the partition it was found in.
func (p Project) Tasks() []Task {
	var all []Task
	for _, status := range Statuses {
		for _, t := range p.Partition(status) {
			t.Status = status
			all = append(all, t)
		}
	}
	return all
}

// FindTask looks a task up by id across all partitions.
func (p Project) FindTask(id string) (Task, bool) {
	for _, t := range p.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Normalize makes every task's status agree with its partition and replaces
// nil partitions with empty ones.
func (p *Project) Normalize() {
	for _, status := range Statuses {
		list := p.partitionRef(status)
		if *list == nil {
			*list = []Task{}
		}
		for i := range *list {
			(*list)[i].Status = status
		}
	}
}

// AddTask appends t to the partition named by t.Status.
func (p *Project) AddTask(t Task) {
	list := p.partitionRef(t.Status)
	if list == nil {
		return
	}
	*list = append(*list, t)
}

// MoveTask moves the task with the given id into the to partition.
// Returns false if no such task exists.
func (p *Project) MoveTask(id string, to Status) bool {
	dst := p.partitionRef(to)
	if dst == nil {
		return false
	}
	for _, status := range Statuses {
		src := p.partitionRef(status)
		for i, t := range *src {
			if t.ID != id {
				continue
			}
			*src = append((*src)[:i:i], (*src)[i+1:]...)
			t.Status = to
			*dst = append(*dst, t)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	c := p
	if p.ID != nil {
		id := *p.ID
		c.ID = &id
	}
	c.TodoList = cloneTasks(p.TodoList)
	c.InProgressList = cloneTasks(p.InProgressList)
	c.DoneList = cloneTasks(p.DoneList)
	return c
}

func (p *Project) partitionRef(status Status) *[]Task {
	switch status {
	case StatusTodo:
		return &p.TodoList
	case StatusInProgress:
		return &p.InProgressList
	case StatusDone:
		return &p.DoneList
	}
	return nil
}

func cloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		t.AssignedTo = append([]string(nil), t.AssignedTo...)
		out[i] = t
	}
	return out
}

// User is a registered account on the remote service.
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	RegisteredAt string `json:"registeredAt,omitempty"`
}

// Identity is the user the current session token belongs to.
type Identity struct {
	ID   int
	Name string
}

// Credentials are the name/password pair sent on login and registration.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}
