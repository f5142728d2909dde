package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"taskboard/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session token" }
func (c *LoginCmd) Usage() string {
	return "taskboard login [common flags] [--password <password>] <username>"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.password, "password", "p", "", "password (prompted when omitted)")
}

// SetPassword sets the --password value (for testing).
func (c *LoginCmd) SetPassword(password string) {
	c.password = password
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return authenticate(ctx, env, args, c.password, false, out, errOut)
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	password string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "taskboard register [common flags] [--password <password>] <username>"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.password, "password", "p", "", "password (prompted when omitted)")
}

// SetPassword sets the --password value (for testing).
func (c *RegisterCmd) SetPassword(password string) {
	c.password = password
}

func (c *RegisterCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return authenticate(ctx, env, args, c.password, true, out, errOut)
}

func authenticate(ctx context.Context, env *Env, args []string, password string, register bool, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: expected exactly one username")
		return exitcode.UserError
	}

	if password == "" {
		var err error
		password, err = readPassword(env.Stdin, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
			return exitcode.UserError
		}
	}

	if err := env.Config.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	auth := env.Authenticator()
	var err error
	if register {
		err = auth.Register(ctx, args[0], password)
	} else {
		err = auth.Login(ctx, args[0], password)
	}
	if err != nil {
		return fail(errOut, err)
	}

	env.logger().Debug("session stored", "user", strings.TrimSpace(args[0]), "path", env.Session.Path())
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// readPassword prompts without echo when in is a terminal, and otherwise
// reads a single line.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if in == nil {
		return "", fmt.Errorf("no input available (use --password)")
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
