package ids

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds collision retries so a systemic id-space
// exhaustion surfaces as a fatal error instead of an infinite loop.
const DefaultMaxAttempts = 5

var (
	// ErrExhausted indicates the generator could not produce an unused id
	// within the attempt budget.
	ErrExhausted = errors.New("ids: attempts exhausted")
	// ErrInvalidAttempts indicates a non-positive attempt budget.
	ErrInvalidAttempts = errors.New("ids: max attempts must be positive")
)

// NewToken returns a fresh opaque identifier (uuid4 without dashes).
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Generate produces an identifier for which the exists predicate reports
// false, retrying up to maxAttempts times. The predicate is advisory; the
// store's unique constraint remains the authority under concurrent writers.
func Generate(exists func(string) (bool, error), maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		return "", ErrInvalidAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := NewToken()
		if exists == nil {
			return candidate, nil
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("ids: existence check failed: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, maxAttempts)
}
