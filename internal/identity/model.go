package identity

// User is an account keyed by an opaque id with a unique email.
// The password hash never leaves this package's callers unredacted.
type User struct {
	ID           string `gorm:"column:id;primaryKey;size:190;not null"`
	Email        string `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password;size:255;not null"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}
