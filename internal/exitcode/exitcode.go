// Package exitcode defines exit codes for the CLI.
package exitcode

import "taskboard/internal/service"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found, not owner).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an error to an exit code by its failure kind.
// Errors that are not a *service.Failure count as backend errors.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	switch service.KindOf(err) {
	case service.ValidationFailed, service.Forbidden, service.NotFound:
		return UserError
	case service.Unauthorized, service.NoSession:
		return AuthError
	default:
		return BackendError
	}
}
