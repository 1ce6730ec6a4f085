package models

import "time"

// DefaultFreeRequests is the cold-outreach connection request allowance
// granted to every new member.
const DefaultFreeRequests = 5

// Member is a node in the connection graph. Profile data (name, email, work
// history) lives in the profile service; the graph only needs the id and the
// remaining free-request allowance.
type Member struct {
	ID                    string    `db:"id" json:"id"`
	RemainingFreeRequests int       `db:"remaining_free_requests" json:"remaining_free_requests"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}
