package cashsession

import "errors"

// Error taxonomy for the reconciliation core. All three are caller/business
// rule violations detected before any mutation; nothing is retried
// internally. Callers wrap them with fmt.Errorf("%w: …") and handlers map
// them to HTTP statuses with errors.Is.
var (
	// ErrNotFound means the referenced session, collection or deposit does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount means a monetary input is out of domain (negative
	// opening float or actual cash, non-positive collection amount).
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidSessionState means the operation is not permitted in the
	// session's current status.
	ErrInvalidSessionState = errors.New("invalid session state")
)
