// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

// DefaultCommand runs when no arguments are given.
const DefaultCommand = "projects"

// ServiceFactory creates a Service from config and the session it should
// authenticate with. Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, sess *session.Store, logger *slog.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	stdin    io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// SetStdin sets the reader commands use for password input.
func (d *Dispatcher) SetStdin(r io.Reader) {
	d.stdin = r
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	// Common flags
	var configDir, apiURL string
	var quiet, debug bool

	fs.StringVar(&configDir, "config", "", "override config directory")
	fs.StringVar(&apiURL, "api-url", "", "override the service base URL")
	fs.BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
	fs.BoolVar(&debug, "debug", false, "print debug logs to stderr")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n%s", commands.UsageLine(cmd), cmd.Synopsis(), fs.FlagUsages())
			return exitcode.Success
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	positionalArgs := fs.Args()

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger := newLogger(errOut, debug).With("command", cmd.Name())
	logger.Debug("config loaded", "dir", cfg.Dir, "api_url", cfg.APIURL, "timeout", cfg.Timeout)

	sess, err := session.Open(cfg.TokenPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}

	if cmd.NeedsAuth() {
		if _, ok := sess.Token(); !ok {
			fmt.Fprintln(errOut, "error: not logged in (run: taskboard login)")
			return exitcode.AuthError
		}
	}

	env := &commands.Env{
		Config:  cfg,
		Session: sess,
		Logger:  logger,
		Stdin:   d.stdin,
	}

	if !commands.IsOffline(cmd) {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no service configured")
			return exitcode.BackendError
		}
		svc, err := d.factory(ctx, cfg, sess, logger)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.FromError(err)
		}
		env.Service = svc
	}

	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// newLogger returns a text logger on w when debug is set, and a discarding
// logger otherwise.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
