package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/commands"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/testutil"
)

func TestLoginCommand_PasswordFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice", "secret")
	env := newEnv(t, svc, "", false)

	cmd := &commands.LoginCmd{}
	cmd.SetPassword("secret")
	stdout, stderr, code := runWithEnv(t, cmd, env, []string{"alice"})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	if tok, ok := env.Session.Token(); !ok || tok != testutil.TokenFor(1) {
		t.Errorf("expected stored token, got %q", tok)
	}
}

func TestLoginCommand_PasswordFromStdin(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice", "secret")
	env := newEnv(t, svc, "", true)
	env.Stdin = strings.NewReader("secret\nignored\n")

	stdout, stderr, code := runWithEnv(t, &commands.LoginCmd{}, env, []string{"alice"})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "" {
		t.Errorf("expected no stdout with --quiet, got %q", stdout)
	}
	if _, ok := env.Session.Token(); !ok {
		t.Error("expected token stored")
	}
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice", "secret")
	env := newEnv(t, svc, "previous", false)

	cmd := &commands.LoginCmd{}
	cmd.SetPassword("wrong")
	stdout, stderr, code := runWithEnv(t, cmd, env, []string{"alice"})

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: Invalid credentials\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if tok, _ := env.Session.Token(); tok != "previous" {
		t.Errorf("expected previous token kept, got %q", tok)
	}
}

func TestLoginCommand_EmptyPassword(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc, "", false)

	_, stderr, code := runWithEnv(t, &commands.LoginCmd{}, env, []string{"alice"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: password is required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("Login") != 0 {
		t.Error("expected no login call")
	}
}

func TestLoginCommand_RequiresUsername(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc, "", false)

	_, stderr, code := runWithEnv(t, &commands.LoginCmd{}, env, nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: expected exactly one username\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestLoginCommand_PersistsToken(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice", "secret")
	env := newEnv(t, svc, "", false)
	path := filepath.Join(env.Config.Dir, "token.json")
	sess, err := session.Open(path)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	env.Session = sess

	cmd := &commands.LoginCmd{}
	cmd.SetPassword("secret")
	if _, stderr, code := runWithEnv(t, cmd, env, []string{"alice"}); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	reopened, err := session.Open(path)
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	if tok, _ := reopened.Token(); tok != testutil.TokenFor(1) {
		t.Errorf("expected persisted token, got %q", tok)
	}
}

func TestRegisterCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc, "", false)

	cmd := &commands.RegisterCmd{}
	cmd.SetPassword("secret")
	stdout, stderr, code := runWithEnv(t, cmd, env, []string{"  alice  "})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	users, _ := svc.ListUsers(t.Context())
	if len(users) != 1 || users[0].Name != "alice" {
		t.Errorf("expected trimmed user alice, got %+v", users)
	}
}

func TestRegisterCommand_Duplicate(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice", "x")
	env := newEnv(t, svc, "", false)

	cmd := &commands.RegisterCmd{}
	cmd.SetPassword("secret")
	_, stderr, code := runWithEnv(t, cmd, env, []string{"alice"})

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: User already exists\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, ok := env.Session.Token(); ok {
		t.Error("expected no token stored")
	}
}

func TestLogoutCommand(t *testing.T) {
	env := newEnv(t, nil, "token-1", false)

	stdout, stderr, code := runWithEnv(t, &commands.LogoutCmd{}, env, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if _, ok := env.Session.Token(); ok {
		t.Error("expected session cleared")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	env := newEnv(t, nil, "", false)

	stdout, _, code := runWithEnv(t, &commands.LogoutCmd{}, env, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "not logged in\n" {
		t.Errorf("expected 'not logged in', got %q", stdout)
	}
}

func TestLogoutCommand_Quiet(t *testing.T) {
	env := newEnv(t, nil, "token-1", true)

	stdout, _, code := runWithEnv(t, &commands.LogoutCmd{}, env, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output with --quiet, got %q", stdout)
	}
}

func TestCommandsRequireAuth(t *testing.T) {
	public := map[string]bool{"help": true, "version": true, "login": true, "register": true, "logout": true}
	for _, cmd := range commands.DefaultRegistry.All() {
		if got, want := cmd.NeedsAuth(), !public[cmd.Name()]; got != want {
			t.Errorf("%s: NeedsAuth() = %v, want %v", cmd.Name(), got, want)
		}
	}
}

func TestFakeServiceSatisfiesService(t *testing.T) {
	var _ service.Service = testutil.NewFakeService()
}
