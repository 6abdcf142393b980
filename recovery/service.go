// Package recovery re-validates rejected signups and promotes the ones that
// now pass to active subscribers.
package recovery

import (
	"context"
	"fmt"
	"time"

	"newsletter/models"
	"newsletter/utils"
	"newsletter/verifier"
)

// RecoveredIP is stored on subscribers created by recovery. These rows do
// count toward the daily limit of a client whose resolved address is also
// 127.0.0.1, such as local traffic that did not pass through a proxy.
const RecoveredIP = "127.0.0.1"

// RecoveredUserAgent is stored on recovered subscribers.
const RecoveredUserAgent = "recovery"

type Outcome string

const (
	OutcomeRecovered         Outcome = "recovered"
	OutcomeAlreadySubscribed Outcome = "already_subscribed"
	OutcomeStillInvalid      Outcome = "still_invalid"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeError             Outcome = "error"
)

// RevalidationRow is one line of a dry run.
type RevalidationRow struct {
	ID             uint      `json:"id"`
	OriginalEmail  string    `json:"original_email"`
	CorrectedEmail string    `json:"corrected_email"`
	OldReason      string    `json:"old_reason"`
	NowValid       bool      `json:"now_valid"`
	NewReason      string    `json:"new_reason"`
	Score          int       `json:"score"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ItemResult struct {
	ID            uint    `json:"id"`
	OriginalEmail string  `json:"original_email,omitempty"`
	Email         string  `json:"email,omitempty"`
	Outcome       Outcome `json:"outcome"`
	Reason        string  `json:"reason,omitempty"`
	Score         int     `json:"score,omitempty"`
	Error         string  `json:"error,omitempty"`

	// DuplicatesRemoved counts other rejected rows for the same address that
	// were cleared along with this one.
	DuplicatesRemoved int64 `json:"duplicates_removed,omitempty"`
}

// BatchResult totals a multi-row recovery. Failed covers rows that are still
// invalid as well as rows that hit a storage or resolver fault.
type BatchResult struct {
	Recovered         int          `json:"recovered"`
	AlreadySubscribed int          `json:"already_subscribed"`
	Failed            int          `json:"failed"`
	NotFound          int          `json:"not_found"`
	Items             []ItemResult `json:"items"`
}

func (b *BatchResult) add(item ItemResult) {
	switch item.Outcome {
	case OutcomeRecovered:
		b.Recovered++
	case OutcomeAlreadySubscribed:
		b.AlreadySubscribed++
	case OutcomeNotFound:
		b.NotFound++
	default:
		b.Failed++
	}
	b.Items = append(b.Items, item)
}

type Service struct {
	repo      Repository
	validator Validator
	now       func() time.Time
	newToken  func() (string, error)
}

func NewService(repo Repository, validator Validator) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		now:       time.Now,
		newToken:  utils.GenerateSecureToken,
	}
}

// Revalidate runs the validator over every rejected row without writing
// anything. A fault on one row is reported on that row.
func (s *Service) Revalidate(ctx context.Context) ([]RevalidationRow, error) {
	rejected, err := s.repo.ListRejected(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rejected emails: %w", err)
	}

	rows := make([]RevalidationRow, 0, len(rejected))
	for _, r := range rejected {
		row := RevalidationRow{
			ID:             r.ID,
			OriginalEmail:  r.Email,
			CorrectedEmail: r.Email,
			OldReason:      r.RejectionReason,
			SubmittedAt:    r.SubmittedAt,
		}

		verdict, err := s.validator.Validate(ctx, r.Email)
		if err != nil {
			row.NewReason = err.Error()
			rows = append(rows, row)
			continue
		}
		row.CorrectedEmail = verdict.Email
		row.NowValid = verdict.Valid
		row.NewReason = verdict.Reason
		row.Score = verdict.Score
		rows = append(rows, row)
	}
	return rows, nil
}

// RecoverByIDs processes ids in order. It only returns an error for a
// cancelled context; per-row problems are counted.
func (s *Service) RecoverByIDs(ctx context.Context, ids []uint) (BatchResult, error) {
	result := BatchResult{Items: make([]ItemResult, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rejected, err := s.repo.GetRejected(ctx, id)
		if err != nil {
			result.add(ItemResult{ID: id, Outcome: OutcomeError, Error: err.Error()})
			continue
		}
		if rejected == nil {
			result.add(ItemResult{ID: id, Outcome: OutcomeNotFound})
			continue
		}

		item, err := s.recover(ctx, rejected)
		if err != nil {
			item.Outcome = OutcomeError
			item.Error = err.Error()
		}
		result.add(item)
	}
	return result, nil
}

// RecoverAll attempts every address currently in the rejected set, using the
// newest row per address. Promotion clears the older rows.
func (s *Service) RecoverAll(ctx context.Context) (BatchResult, error) {
	rejected, err := s.repo.ListRejected(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list rejected emails: %w", err)
	}

	seen := make(map[string]struct{}, len(rejected))
	ids := make([]uint, 0, len(rejected))
	for _, r := range rejected {
		key := verifier.NormalizeEmail(r.Email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, r.ID)
	}
	return s.RecoverByIDs(ctx, ids)
}

// RecoverSingle recovers the rejected row for email. Unlike the batch calls
// it returns faults as errors.
func (s *Service) RecoverSingle(ctx context.Context, email string) (ItemResult, error) {
	email = verifier.NormalizeEmail(email)

	rejected, err := s.repo.FindRejectedByEmail(ctx, email)
	if err != nil {
		return ItemResult{}, fmt.Errorf("find rejected email: %w", err)
	}
	if rejected == nil {
		return ItemResult{OriginalEmail: email, Outcome: OutcomeNotFound}, nil
	}
	return s.recover(ctx, rejected)
}

func (s *Service) recover(ctx context.Context, rejected *models.RejectedEmail) (ItemResult, error) {
	item := ItemResult{ID: rejected.ID, OriginalEmail: rejected.Email, Email: rejected.Email}

	verdict, err := s.validator.Validate(ctx, rejected.Email)
	if err != nil {
		return item, fmt.Errorf("revalidate %s: %w", rejected.Email, err)
	}
	item.Email = verdict.Email
	item.Score = verdict.Score
	if !verdict.Valid {
		item.Outcome = OutcomeStillInvalid
		item.Reason = verdict.Reason
		return item, nil
	}

	token, err := s.newToken()
	if err != nil {
		return item, fmt.Errorf("generate unsubscribe token: %w", err)
	}

	sub := &models.Subscriber{
		Email:            verdict.Email,
		SubscribedAt:     s.now(),
		ValidationScore:  verdict.Score,
		IPAddress:        RecoveredIP,
		UserAgent:        RecoveredUserAgent,
		Status:           models.StatusActive,
		UnsubscribeToken: token,
	}
	created, duplicates, err := s.repo.PromoteRejected(ctx, rejected, sub)
	if err != nil {
		return item, fmt.Errorf("promote rejected email %d: %w", rejected.ID, err)
	}
	item.DuplicatesRemoved = duplicates

	if created {
		item.Outcome = OutcomeRecovered
	} else {
		item.Outcome = OutcomeAlreadySubscribed
	}
	return item, nil
}
