package identity

import (
	"context"
	"strings"

	"taskboard/internal/service"
	"taskboard/internal/session"
)

// Accounts is the subset of service.Service that issues tokens.
type Accounts interface {
	Register(ctx context.Context, creds service.Credentials) (string, error)
	Login(ctx context.Context, creds service.Credentials) (string, error)
}

// Authenticator acquires and discards session tokens.
type Authenticator struct {
	session  *session.Store
	accounts Accounts
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(sess *session.Store, accounts Accounts) *Authenticator {
	return &Authenticator{session: sess, accounts: accounts}
}

// Login authenticates and stores the returned token.
func (a *Authenticator) Login(ctx context.Context, name, password string) error {
	creds, err := credentials(name, password)
	if err != nil {
		return err
	}
	token, err := a.accounts.Login(ctx, creds)
	if err != nil {
		return err
	}
	return a.store(token)
}

// Register creates an account and stores the returned token.
func (a *Authenticator) Register(ctx context.Context, name, password string) error {
	creds, err := credentials(name, password)
	if err != nil {
		return err
	}
	token, err := a.accounts.Register(ctx, creds)
	if err != nil {
		return err
	}
	return a.store(token)
}

// Logout clears the session. Reports whether a session existed.
func (a *Authenticator) Logout() (bool, error) {
	_, had := a.session.Token()
	if err := a.session.Clear(); err != nil {
		return had, err
	}
	return had, nil
}

func (a *Authenticator) store(token string) error {
	if token == "" {
		return service.Fail(service.RemoteRejected, "no access token in response")
	}
	if err := a.session.Set(token); err != nil {
		return &service.Failure{Kind: service.KindUnknown, Message: "failed to save token: " + err.Error(), Err: err}
	}
	return nil
}

func credentials(name, password string) (service.Credentials, error) {
	creds := service.Credentials{
		Name:     strings.TrimSpace(name),
		Password: strings.TrimSpace(password),
	}
	if creds.Name == "" {
		return creds, service.Fail(service.ValidationFailed, "username is required")
	}
	if creds.Password == "" {
		return creds, service.Fail(service.ValidationFailed, "password is required")
	}
	return creds, nil
}
