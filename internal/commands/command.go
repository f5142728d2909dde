// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/identity"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a stored session.
	// Commands like help, version, login, register, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Env carries what a command runs against.
type Env struct {
	// Config is always provided (config dir, paths, settings).
	Config *config.Config

	// Session holds the access token.
	Session *session.Store

	// Service is nil for help and version.
	Service service.Service

	// Logger writes debug output; never nil once dispatched.
	Logger *slog.Logger

	// Stdin is read for passwords when --password is absent.
	Stdin io.Reader
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// Resolver returns an identity resolver bound to the session.
func (e *Env) Resolver() *identity.Resolver {
	return identity.NewResolver(e.Session, e.Service)
}

// Authenticator returns an authenticator bound to the session.
func (e *Env) Authenticator() *identity.Authenticator {
	return identity.NewAuthenticator(e.Session, e.Service)
}

// Board returns a board controller with an empty collection.
func (e *Env) Board() *board.Controller {
	return board.NewController(e.Service, e.Resolver(), board.WithLogger(e.logger()))
}

// Offline is implemented by commands that never contact the service.
type Offline interface {
	Offline() bool
}

// IsOffline reports whether cmd runs without a service.
func IsOffline(cmd Command) bool {
	o, ok := cmd.(Offline)
	return ok && o.Offline()
}
