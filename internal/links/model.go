package links

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/identity"
)

// Link is a bookmark owned by exactly one user and tagged with exactly one
// category. OwnerEmail and CategoryName are point-in-time snapshots:
// OwnerEmail is fixed at creation, CategoryName is re-taken only when the
// link's category changes.
type Link struct {
	ID           string `gorm:"column:id;primaryKey;size:190;not null"`
	OwnerUserID  string `gorm:"column:owner_user_id;size:190;not null;index"`
	OwnerEmail   string `gorm:"column:owner_email;size:320;not null"`
	CategoryID   string `gorm:"column:category_id;size:190;not null;index"`
	CategoryName string `gorm:"column:category_name;size:255;not null"`
	Name         string `gorm:"column:name;size:255;not null"`
	URL          string `gorm:"column:url;size:2048;not null"`

	Owner    identity.User     `gorm:"foreignKey:OwnerUserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Category category.Category `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (Link) TableName() string {
	return "links"
}

// Scope selects which class of links a listing returns.
type Scope string

const (
	// ScopeOwn selects links owned by the requester.
	ScopeOwn Scope = "own"
	// ScopeSharedReadonly selects links shared to the requester without write rights.
	ScopeSharedReadonly Scope = "shared-readonly"
	// ScopeSharedWritable selects links shared to the requester with write rights.
	ScopeSharedWritable Scope = "shared-writable"
)

// ErrInvalidScope indicates an unrecognized listing scope.
var ErrInvalidScope = errors.New("links: invalid scope")

// ParseScope validates a raw mode value. "shared-unwritable" is accepted as
// a wire alias for the readonly scope.
func ParseScope(raw string) (Scope, error) {
	switch strings.TrimSpace(raw) {
	case string(ScopeOwn):
		return ScopeOwn, nil
	case string(ScopeSharedReadonly), "shared-unwritable":
		return ScopeSharedReadonly, nil
	case string(ScopeSharedWritable):
		return ScopeSharedWritable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, raw)
	}
}

// ListFilter narrows a listing. CategoryID "all" or empty means no category
// filter; NameContains matches case-insensitively on the link name.
type ListFilter struct {
	CategoryID   string
	NameContains string
}
