package shares

import (
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/links"
)

// Share grants one user read (and optionally write) access to one link they
// do not own. GranteeEmail is a snapshot taken at grant time. The unique
// index on (link_id, grantee_user_id) is the authority against duplicate
// grants, including under concurrent writers.
type Share struct {
	ID            string `gorm:"column:id;primaryKey;size:190;not null"`
	LinkID        string `gorm:"column:link_id;size:190;not null;uniqueIndex:idx_shares_link_grantee,priority:1"`
	GranteeUserID string `gorm:"column:grantee_user_id;size:190;not null;uniqueIndex:idx_shares_link_grantee,priority:2;index"`
	GranteeEmail  string `gorm:"column:grantee_email;size:320;not null"`
	IsWritable    bool   `gorm:"column:is_writable;not null;default:false"`

	Link    links.Link    `gorm:"foreignKey:LinkID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Grantee identity.User `gorm:"foreignKey:GranteeUserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (Share) TableName() string {
	return "shares"
}
