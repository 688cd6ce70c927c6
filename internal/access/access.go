// Package access classifies what a user may do with a link: the owner holds
// every right, a share grant confers read or read-write visibility, and
// everyone else has no access. Every link and share mutation consults this
// classification before touching storage.
package access

import (
	"context"
	"errors"
)

// Level is the outcome of classifying a (user, link) pair.
type Level int

const (
	// NoAccess means the user neither owns the link nor holds a grant on it.
	NoAccess Level = iota
	// ReadonlyShare means the user holds a non-writable grant.
	ReadonlyShare
	// WritableShare means the user holds a writable grant.
	WritableShare
	// Owner means the user created the link and holds all rights.
	Owner
)

// String names the level for logging.
func (l Level) String() string {
	switch l {
	case Owner:
		return "owner"
	case WritableShare:
		return "writable-share"
	case ReadonlyShare:
		return "readonly-share"
	default:
		return "no-access"
	}
}

// CanRead reports whether the level permits viewing the link.
func (l Level) CanRead() bool {
	return l != NoAccess
}

// CanWrite reports whether the level permits mutating the link's fields.
// Sharing never confers delete or share-management rights; those require Owner.
func (l Level) CanWrite() bool {
	return l == Owner || l == WritableShare
}

// Grant is the share record shape the evaluator needs: the writability flag
// of an existing (link, user) grant.
type Grant struct {
	ShareID  string
	Writable bool
}

// GrantSource looks up the grant for a (link, user) pair, returning nil when
// no grant exists.
type GrantSource interface {
	FindGrant(ctx context.Context, linkID, userID string) (*Grant, error)
}

// ErrMissingGrantSource indicates the evaluator was built without a grant lookup.
var ErrMissingGrantSource = errors.New("access: grant source is required")

// Classify applies the access rule in order: ownership first, then the grant.
func Classify(userID, ownerID string, grant *Grant) Level {
	if userID != "" && userID == ownerID {
		return Owner
	}
	if grant == nil {
		return NoAccess
	}
	if grant.Writable {
		return WritableShare
	}
	return ReadonlyShare
}

// Evaluator resolves access levels by consulting a GrantSource.
type Evaluator struct {
	grants GrantSource
}

// NewEvaluator constructs an Evaluator over the provided grant source.
func NewEvaluator(grants GrantSource) (*Evaluator, error) {
	if grants == nil {
		return nil, ErrMissingGrantSource
	}
	return &Evaluator{grants: grants}, nil
}

// Resolve classifies the (user, link) pair, looking up the grant only when
// the user is not the owner.
func (e *Evaluator) Resolve(ctx context.Context, userID, linkID, ownerID string) (Level, error) {
	if userID != "" && userID == ownerID {
		return Owner, nil
	}
	grant, err := e.grants.FindGrant(ctx, linkID, userID)
	if err != nil {
		return NoAccess, err
	}
	return Classify(userID, ownerID, grant), nil
}
