package models

import (
	"fmt"
	"strings"
	"time"
)

// ConnectionStatus is the lifecycle state of a connection edge.
type ConnectionStatus string

const (
	// ConnectionStatusNone means no edge exists for the pair.
	ConnectionStatusNone ConnectionStatus = ""
	// ConnectionStatusRequest is a pending, one-sided proposal.
	ConnectionStatusRequest ConnectionStatus = "Request"
	// ConnectionStatusAccepted is a mutually confirmed connection.
	ConnectionStatusAccepted ConnectionStatus = "Accepted"
)

// Connection is an edge between two members. Direction (requester vs
// recipient) is kept for dashboard display; once accepted the pair is
// treated symmetrically.
type Connection struct {
	RequesterID string           `db:"requester_id" json:"requester_id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Status      ConnectionStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// ConnectionEntry is a dashboard row: the counterpart of the listed member
// plus the edge status.
type ConnectionEntry struct {
	CounterpartID string           `db:"counterpart_id" json:"counterpart_id"`
	Status        ConnectionStatus `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// ConnectionFilter selects which edges a listing returns.
type ConnectionFilter string

const (
	// FilterIncoming lists pending requests sent to the member.
	FilterIncoming ConnectionFilter = "incoming"
	// FilterOutgoing lists pending requests sent by the member.
	FilterOutgoing ConnectionFilter = "outgoing"
	// FilterAccepted lists confirmed connections in either direction.
	FilterAccepted ConnectionFilter = "accepted"
)

// ParseConnectionFilter validates a filter string from the API surface.
func ParseConnectionFilter(s string) (ConnectionFilter, error) {
	switch ConnectionFilter(strings.ToLower(s)) {
	case FilterIncoming:
		return FilterIncoming, nil
	case FilterOutgoing:
		return FilterOutgoing, nil
	case FilterAccepted, "":
		return FilterAccepted, nil
	default:
		return "", fmt.Errorf("unknown connection filter %q", s)
	}
}
