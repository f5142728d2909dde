package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&BoardCmd{})
	Register(&AddTaskCmd{})
	Register(&MoveCmd{})
}

// BoardCmd implements the board command.
type BoardCmd struct{}

func (c *BoardCmd) Name() string      { return "board" }
func (c *BoardCmd) Aliases() []string { return []string{"open"} }
func (c *BoardCmd) Synopsis() string  { return "Show a project's task board" }
func (c *BoardCmd) Usage() string     { return "taskboard board [common flags] <project-id>" }
func (c *BoardCmd) NeedsAuth() bool   { return true }

func (c *BoardCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: project id required")
		return exitcode.UserError
	}
	id, err := parseProjectID(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl := env.Board()
	if err := ctrl.LoadProjects(ctx); err != nil {
		return fail(errOut, err)
	}
	if _, err := ctrl.OpenProject(id); err != nil {
		return fail(errOut, err)
	}
	project, _, _ := ctrl.Board()
	output.FormatBoard(out, project)
	return exitcode.Success
}

// AddTaskCmd implements the addtask command.
type AddTaskCmd struct {
	assign      []string
	description string
	status      string
}

func (c *AddTaskCmd) Name() string      { return "addtask" }
func (c *AddTaskCmd) Aliases() []string { return []string{"add"} }
func (c *AddTaskCmd) Synopsis() string  { return "Add a task to a project" }
func (c *AddTaskCmd) Usage() string {
	return "taskboard addtask [common flags] --assign <user>... --description <text> [--status <status>] <project-id> <name...>"
}
func (c *AddTaskCmd) NeedsAuth() bool { return true }

func (c *AddTaskCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&c.assign, "assign", "a", nil, "assignee (repeatable or comma-separated)")
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringVarP(&c.status, "status", "s", "todo", "initial status: todo, in-progress or done")
}

// SetAssign sets the --assign values (for testing).
func (c *AddTaskCmd) SetAssign(assign ...string) {
	c.assign = assign
}

// SetDescription sets the --description value (for testing).
func (c *AddTaskCmd) SetDescription(description string) {
	c.description = description
}

// SetStatus sets the --status value (for testing).
func (c *AddTaskCmd) SetStatus(status string) {
	c.status = status
}

func (c *AddTaskCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: project id and task name required")
		return exitcode.UserError
	}
	id, err := parseProjectID(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	status := service.StatusTodo
	if strings.TrimSpace(c.status) != "" {
		if status, err = service.ParseStatus(c.status); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	ctrl := env.Board()
	if err := ctrl.LoadProjects(ctx); err != nil {
		return fail(errOut, err)
	}
	task, err := ctrl.CreateTask(ctx, id, service.Task{
		Name:        strings.Join(args[1:], " "),
		AssignedTo:  c.assign,
		Description: c.description,
		Status:      status,
	})
	if err != nil {
		return fail(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintf(out, "created task %s\n", task.ID)
	}
	return exitcode.Success
}

// MoveCmd implements the move command.
type MoveCmd struct {
	from string
}

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string  { return "Move a task to another status" }
func (c *MoveCmd) Usage() string {
	return "taskboard move [common flags] [--from <status>] <project-id> <task-id> <status>"
}
func (c *MoveCmd) NeedsAuth() bool { return true }

func (c *MoveCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.from, "from", "", "current status, always checked by the server (default: as shown on the board)")
}

// SetFrom sets the --from value (for testing).
func (c *MoveCmd) SetFrom(from string) {
	c.from = from
}

func (c *MoveCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 3 {
		fmt.Fprintln(errOut, "error: project id, task id and status required")
		return exitcode.UserError
	}
	id, err := parseProjectID(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	taskID := args[1]
	to, err := service.ParseStatus(args[2])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl := env.Board()
	if err := ctrl.LoadProjects(ctx); err != nil {
		return fail(errOut, err)
	}

	var from service.Status
	explicit := c.from != ""
	if explicit {
		if from, err = service.ParseStatus(c.from); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	} else {
		project, found := ctrl.Project(id)
		if !found {
			return fail(errOut, service.Fail(service.NotFound, "project not found: %d", id))
		}
		task, found := project.FindTask(taskID)
		if !found {
			return fail(errOut, service.Fail(service.NotFound, "task not found: %s", taskID))
		}
		from = task.Status
	}

	if !explicit && from == to {
		if !env.Config.Quiet {
			fmt.Fprintf(out, "already %s\n", to.Label())
		}
		return exitcode.Success
	}

	if err := ctrl.MoveTask(ctx, id, taskID, from, to); err != nil {
		return fail(errOut, err)
	}
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
