package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Link maps one short code to one long URL. Links are created once and never
// updated or deleted.
type Link struct {
	ID        uuid.UUID
	Code      string
	LongURL   string
	CreatedAt time.Time
}

// AllocationStatus tells a caller how an Allocate call produced its link.
type AllocationStatus uint8

const (
	// Created: a new code was minted and stored.
	Created AllocationStatus = iota + 1
	// Reused: the URL was already shortened and its existing code is returned.
	Reused
)

func (s AllocationStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Reused:
		return "reused"
	default:
		return "unknown"
	}
}

// Allocation is the result of a successful Allocate call.
type Allocation struct {
	Link   Link
	Status AllocationStatus
	// Attempts is the number of inserts tried; zero when the dedup lookup hit.
	Attempts int
}
