package directory

import (
	"errors"
	"fmt"

	"github.com/sstewart199/ring/internal/ring"
)

var (
	// ErrTwoFactorRequired is the fatal build error for an account with
	// two-factor authentication and no refresh token. It needs user action;
	// retrying the build cannot succeed.
	//
	// errors.Is matches both this error and ring.ErrTwoFactorRequired.
	ErrTwoFactorRequired = fmt.Errorf("directory: refresh token required: %w", ring.ErrTwoFactorRequired)

	// ErrNotBuilt is returned when the directory is used before Build succeeds.
	ErrNotBuilt = errors.New("directory: not built")

	// ErrClosed is returned by Build after Close.
	ErrClosed = errors.New("directory: builder closed")
)
