package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"taskboard/internal/exitcode"
	"taskboard/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
	Register(&UsersCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "taskboard whoami [common flags]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	who, err := env.Resolver().Resolve(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	output.FormatIdentity(out, who)
	return exitcode.Success
}

// UsersCmd implements the users command.
type UsersCmd struct{}

func (c *UsersCmd) Name() string      { return "users" }
func (c *UsersCmd) Aliases() []string { return nil }
func (c *UsersCmd) Synopsis() string  { return "List registered users" }
func (c *UsersCmd) Usage() string     { return "taskboard users [common flags]" }
func (c *UsersCmd) NeedsAuth() bool   { return true }

func (c *UsersCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UsersCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	users, err := env.Service.ListUsers(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	output.FormatUsers(out, users)
	return exitcode.Success
}
