// Package domain contains core concepts of the chat system.
// This file defines the durable tenant entities the core authorizes against.
package domain

import "time"

// Guild is a tenant grouping channels and members.
type Guild struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// Channel is a persistent, named sub-room within a guild.
type Channel struct {
	ID          string
	Name        string
	Description string
	GuildID     string
	CreatedAt   time.Time
}

// GuildMembership records that a user belongs to a guild. Authorization for
// every channel of the guild derives transitively from this fact.
type GuildMembership struct {
	UserID   string
	GuildID  string
	Role     string
	JoinedAt time.Time
}
