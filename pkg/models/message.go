package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageStatus is the delivery state of a message. Statuses only move
// forward (Draft -> Sent -> Delivered -> Read); the receiver may delete the
// message at any state.
type MessageStatus string

const (
	MessageStatusDraft     MessageStatus = "Draft"
	MessageStatusSent      MessageStatus = "Sent"
	MessageStatusDelivered MessageStatus = "Delivered"
	MessageStatusRead      MessageStatus = "Read"
)

var messageStatusOrder = map[MessageStatus]int{
	MessageStatusDraft:     0,
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

// Valid reports whether s is a known message status.
func (s MessageStatus) Valid() bool {
	_, ok := messageStatusOrder[s]
	return ok
}

// Before reports whether s precedes other in the delivery lifecycle.
func (s MessageStatus) Before(other MessageStatus) bool {
	return messageStatusOrder[s] < messageStatusOrder[other]
}

// Message is a message record between two members.
type Message struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	SenderID   string        `db:"sender_id" json:"sender_id"`
	ReceiverID string        `db:"receiver_id" json:"receiver_id"`
	Contents   string        `db:"contents" json:"contents"`
	Status     MessageStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}
