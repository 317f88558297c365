package types

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// It contains identity, role, subscription preferences, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address, stored lowercased. It is unique
	// across the system and doubles as the login identifier.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system,
	// either "user" or "admin". Registration always assigns "user".
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// SubscribedCategories is the list of subscription keys the user wants
	// email alerts for. Each key is either a bare category ("electronics")
	// or a category:subcategory pair ("electronics:laptop"), lowercased.
	SubscribedCategories []string `json:"subscribed_categories" db:"subscribed_categories"`

	// EmailNotifications indicates whether the user wants to receive
	// subscription emails at all. Defaults to true at registration.
	EmailNotifications bool `json:"email_notifications" db:"email_notifications"`

	// ReportedItems and ClaimedItems are the items the user reported and
	// successfully claimed. They are derived from the items table on read
	// and never stored on the user record.
	ReportedItems []Item `json:"reported_items,omitempty" db:"-"`
	ClaimedItems  []Item `json:"claimed_items,omitempty" db:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
