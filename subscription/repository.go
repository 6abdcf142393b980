package subscription

import (
	"context"
	"time"

	"newsletter/models"
	"newsletter/verifier"
)

// Repository is the storage behind signups and unsubscribes. Lookups return
// nil, nil when nothing matches.
type Repository interface {
	CountSubscriptionsOn(ctx context.Context, ip string, day time.Time) (int64, error)
	FindSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	CreateSubscriber(ctx context.Context, sub *models.Subscriber) (bool, error)
	ReactivateSubscriber(ctx context.Context, id uint, ip, userAgent string, score int) (bool, error)
	RecordRejection(ctx context.Context, row *models.RejectedEmail) error
	UnsubscribeByToken(ctx context.Context, email, token string) (bool, error)
	UnsubscribeByEmail(ctx context.Context, email string) (bool, error)
}

type Validator interface {
	Validate(ctx context.Context, email string) (verifier.Verdict, error)
}
