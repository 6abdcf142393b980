package recovery

import (
	"context"

	"newsletter/models"
	"newsletter/verifier"
)

// Repository is the storage the recovery workflow reads and mutates.
type Repository interface {
	// ListRejected returns every rejected signup, newest first.
	ListRejected(ctx context.Context) ([]models.RejectedEmail, error)

	// GetRejected returns nil, nil when no row has that id.
	GetRejected(ctx context.Context, id uint) (*models.RejectedEmail, error)

	// FindRejectedByEmail returns the most recent rejection for email, or nil, nil.
	FindRejectedByEmail(ctx context.Context, email string) (*models.RejectedEmail, error)

	// PromoteRejected inserts sub unless its email already exists and deletes
	// the rejected row plus any other rejected rows for the original or
	// corrected address, in one transaction. created is false when the
	// subscriber was already there; duplicates counts the extra rows removed.
	PromoteRejected(ctx context.Context, rejected *models.RejectedEmail, sub *models.Subscriber) (created bool, duplicates int64, err error)
}

// Validator is satisfied by *verifier.Validator.
type Validator interface {
	Validate(ctx context.Context, email string) (verifier.Verdict, error)
}
