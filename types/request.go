package types

import "time"

// Request types and statuses. A request transitions exactly once from
// "pending" to either "approved" or "rejected" and is never reopened.
const (
	RequestTypeReport = "report"
	RequestTypeClaim  = "claim"

	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// ReasonAlreadyClaimed is the rejection reason stamped on competing claim
// requests when another claim on the same item is approved.
const ReasonAlreadyClaimed = "Item already claimed by another user"

// Request is an admin-reviewable action record: either a found-item report
// awaiting publication or a claim attempt awaiting assignment.
type Request struct {
	// ID is the unique identifier of the request.
	ID int `json:"id" db:"id"`

	// Type is "report" or "claim".
	Type string `json:"type" db:"type"`

	// Status is "pending", "approved" or "rejected".
	Status string `json:"status" db:"status"`

	// ItemID references the item this request concerns.
	ItemID int `json:"item_id" db:"item_id"`

	// UserID references the user who submitted the request.
	UserID int `json:"user_id" db:"user_id"`

	// AdminID references the administrator who decided the request,
	// or nil while it is pending.
	AdminID *int `json:"admin_id" db:"admin_id"`

	// ActionDate is the time the request was decided, or nil.
	ActionDate *time.Time `json:"action_date,omitempty" db:"action_date"`

	// Reason is the rejection reason, set only on rejected requests.
	Reason string `json:"reason,omitempty" db:"reason"`

	// UserName and UserEmail are joined in by list queries so admins can
	// see who submitted the request without a second lookup.
	UserName  string `json:"user_name,omitempty" db:"-"`
	UserEmail string `json:"user_email,omitempty" db:"-"`

	// Item is the associated item, populated by list queries.
	Item *Item `json:"item,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the request was submitted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the request.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
