// Package contributor exposes the approved-contributor fact consumed by the
// access subsystem.
//
// Applications are produced and reviewed elsewhere (the admin approval
// workflow); this package only reads them. A contributor may obtain
// credentials or access grants only while their application is ACCEPTED.
package contributor

import (
	"context"
	"errors"
	"time"
)

// Status is the review state of a contribution application.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDenied   Status = "DENIED"
)

// Application is the read-only approval fact for one contributor.
type Application struct {
	UserID    string
	ClientID  string // opaque client identifier, UUID format
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Accepted reports whether the application grants contributor access.
func (a Application) Accepted() bool { return a.Status == StatusAccepted }

// ErrNotFound is returned when a user has no contribution application.
var ErrNotFound = errors.New("contribution application not found")

// Store is the read boundary over the approval-workflow data.
type Store interface {
	// GetByUserID returns the application for a user, or ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (Application, error)
}
