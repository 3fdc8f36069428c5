// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"github.com/google/uuid"
	"time"
)

// Message is an immutable chat message as accepted and returned by the
// pipeline. ID and CreatedAt are server-assigned.
type Message struct {
	ID         uuid.UUID
	Room       RoomID
	AuthorID   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}
