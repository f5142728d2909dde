package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskboard/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskboard help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }
func (c *HelpCmd) Offline() bool     { return true }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskboard                                          List projects
  taskboard login [common flags] [--password <pw>] <username>
  taskboard register [common flags] [--password <pw>] <username>
  taskboard logout [common flags]
  taskboard whoami [common flags]
  taskboard users [common flags]
  taskboard projects [common flags]                  List projects ([owner] marks yours)
  taskboard addproject [common flags] --description <text> [--owner <name>] <name...>
  taskboard rmproject [common flags] <project-id>
  taskboard board [common flags] <project-id>
  taskboard addtask [common flags] --assign <user>... --description <text>
                    [--status <status>] <project-id> <name...>
  taskboard move [common flags] [--from <status>] <project-id> <task-id> <status>
  taskboard help
  taskboard version

Statuses:
  todo, in-progress, done

Common flags:
  --config <dir>    Override config directory
  --api-url <url>   Override the service base URL (env: TASKBOARD_API_URL)
  --quiet           Suppress informational output
  --debug           Print debug logs to stderr
`
