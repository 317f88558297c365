package types

import "time"

// Item lifecycle statuses. An item starts as "pending" and only moves
// through the request workflow: pending -> approved -> claimed, with
// pending -> rejected terminal. "lost" is a legacy status value still
// accepted by the public listing filters.
const (
	ItemStatusPending  = "pending"
	ItemStatusApproved = "approved"
	ItemStatusRejected = "rejected"
	ItemStatusClaimed  = "claimed"
	ItemStatusLost     = "lost"
)

// Item represents a found object reported into the system. Its status
// gates visibility (approved items show up in public listings) and
// claimability (claimed items are assigned to exactly one user).
//
// Invariant: ClaimedBy is non-nil if and only if Status is "claimed".
type Item struct {
	// ID is the unique identifier of the item.
	ID int `json:"id" db:"id"`

	// Title is the short human-readable name of the item.
	Title string `json:"title" db:"title"`

	// Description contains free-form details about the item.
	Description string `json:"description" db:"description"`

	// Category is one of the fixed category enumeration, lowercased.
	Category string `json:"category" db:"category"`

	// Subcategory optionally narrows the category, lowercased.
	Subcategory string `json:"subcategory,omitempty" db:"subcategory"`

	// Location is where the item was found.
	Location string `json:"location" db:"location"`

	// DateFound is the date the item was found. DateLost is a legacy alias
	// kept equal to DateFound for backward compatibility with old clients.
	DateFound time.Time `json:"date_found" db:"date_found"`
	DateLost  time.Time `json:"date_lost" db:"date_lost"`

	// ImageKey is the object storage key of the uploaded photo, if any.
	// Clients fetch it under /uploads/{key}.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// ImageURL is the public path of the uploaded photo, derived from
	// ImageKey. Never stored.
	ImageURL string `json:"image_url,omitempty" db:"-"`

	// Status is the lifecycle status of the item.
	Status string `json:"status" db:"status"`

	// ReportedBy is the identifier of the user who reported the item.
	ReportedBy int `json:"reported_by" db:"reported_by"`

	// ClaimedBy is the identifier of the user whose claim was approved,
	// or nil while the item is unclaimed.
	ClaimedBy *int `json:"claimed_by" db:"claimed_by"`

	// ClaimedAt is the time the claim was approved, or nil.
	ClaimedAt *time.Time `json:"claimed_at,omitempty" db:"claimed_at"`

	// ReporterName and ClaimantName are display names joined in by list
	// queries for convenience; they are not stored on the item row.
	ReporterName string `json:"reporter_name,omitempty" db:"-"`
	ClaimantName string `json:"claimant_name,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the item was reported.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the item.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
