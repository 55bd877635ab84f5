package oplock

import "github.com/google/uuid"

// NewOperationID returns a fresh operation id satisfying the required
// pattern: a UUID is 36 characters of hex digits and hyphens, well inside
// the [A-Za-z0-9._:-]{8,128} contract.
func NewOperationID() string {
	return uuid.NewString()
}
