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
	Register(&ProjectsCmd{})
	Register(&AddProjectCmd{})
	Register(&RmProjectCmd{})
}

// ProjectsCmd implements the projects command.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return []string{"ls"} }
func (c *ProjectsCmd) Synopsis() string  { return "List projects" }
func (c *ProjectsCmd) Usage() string     { return "taskboard projects [common flags]" }
func (c *ProjectsCmd) NeedsAuth() bool   { return true }

func (c *ProjectsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ProjectsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ctrl := env.Board()
	if err := ctrl.LoadProjects(ctx); err != nil {
		return fail(errOut, err)
	}

	// The owner marker is best effort: without an identity nothing is marked.
	var owner string
	if who, err := env.Resolver().Resolve(ctx); err == nil {
		owner = who.Name
	} else {
		env.logger().Debug("identity unavailable, no projects marked", "error", err)
	}

	output.FormatProjects(out, ctrl.Projects(), func(p service.Project) bool {
		return owner != "" && p.Owner == owner
	})
	return exitcode.Success
}

// AddProjectCmd implements the addproject command.
type AddProjectCmd struct {
	description string
	owner       string
}

func (c *AddProjectCmd) Name() string      { return "addproject" }
func (c *AddProjectCmd) Aliases() []string { return []string{"createproject"} }
func (c *AddProjectCmd) Synopsis() string  { return "Create a project" }
func (c *AddProjectCmd) Usage() string {
	return "taskboard addproject [common flags] --description <text> [--owner <name>] <name...>"
}
func (c *AddProjectCmd) NeedsAuth() bool { return true }

func (c *AddProjectCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "project description")
	fs.StringVar(&c.owner, "owner", "", "project owner (default: the logged-in user)")
}

// SetDescription sets the --description value (for testing).
func (c *AddProjectCmd) SetDescription(description string) {
	c.description = description
}

// SetOwner sets the --owner value (for testing).
func (c *AddProjectCmd) SetOwner(owner string) {
	c.owner = owner
}

func (c *AddProjectCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: project name required")
		return exitcode.UserError
	}

	owner := c.owner
	if strings.TrimSpace(owner) == "" {
		who, err := env.Resolver().Resolve(ctx)
		if err != nil {
			return fail(errOut, err)
		}
		owner = who.Name
	}

	created, err := env.Board().AddProject(ctx, service.Project{
		Name:        name,
		Description: c.description,
		Owner:       owner,
	})
	if err != nil {
		return fail(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintf(out, "created project %d\n", created.ProjectID())
	}
	return exitcode.Success
}

// RmProjectCmd implements the rmproject command.
type RmProjectCmd struct{}

func (c *RmProjectCmd) Name() string      { return "rmproject" }
func (c *RmProjectCmd) Aliases() []string { return nil }
func (c *RmProjectCmd) Synopsis() string  { return "Delete a project you own" }
func (c *RmProjectCmd) Usage() string     { return "taskboard rmproject [common flags] <project-id>" }
func (c *RmProjectCmd) NeedsAuth() bool   { return true }

func (c *RmProjectCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmProjectCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
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
	if err := ctrl.RemoveProject(ctx, id); err != nil {
		return fail(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
