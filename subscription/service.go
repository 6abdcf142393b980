// Package subscription handles public signups and unsubscribes on top of the
// verifier and the subscriber store.
package subscription

import (
	"context"
	"fmt"
	"time"

	"newsletter/models"
	"newsletter/utils"
	"newsletter/verifier"
)

type Outcome string

const (
	OutcomeSubscribed        Outcome = "subscribed"
	OutcomeReactivated       Outcome = "reactivated"
	OutcomeAlreadySubscribed Outcome = "already_subscribed"
	OutcomeRejected          Outcome = "rejected"
	OutcomeRateLimited       Outcome = "rate_limited"
)

type Request struct {
	Email     string
	IPAddress string
	UserAgent string
}

// Result is the true outcome of a signup. It is only ever shown to admins
// and logs; the public sees PublicResponse.
type Result struct {
	Outcome   Outcome          `json:"outcome"`
	Email     string           `json:"email"`
	Corrected string           `json:"corrected,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Verdict   verifier.Verdict `json:"verdict"`
}

func (r Result) Accepted() bool {
	return r.Outcome == OutcomeSubscribed || r.Outcome == OutcomeReactivated || r.Outcome == OutcomeAlreadySubscribed
}

type Service struct {
	repo      Repository
	validator Validator
	limiter   verifier.RateLimiter
	now       func() time.Time
	newToken  func() (string, error)
}

func NewService(repo Repository, validator Validator, limiter verifier.RateLimiter) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		limiter:   limiter,
		now:       time.Now,
		newToken:  utils.GenerateSecureToken,
	}
}

// Subscribe rate-limits, validates and stores one signup. Rejections are
// recorded and returned as a Result; only storage or resolver faults are
// errors.
func (s *Service) Subscribe(ctx context.Context, req Request) (Result, error) {
	email := verifier.NormalizeEmail(req.Email)
	if email == "" {
		return Result{}, ErrEmailRequired
	}

	count, err := s.repo.CountSubscriptionsOn(ctx, req.IPAddress, s.now())
	if err != nil {
		return Result{}, err
	}
	if !s.limiter.Allow(req.IPAddress, count) {
		if err := s.reject(ctx, email, verifier.ReasonRateLimited, req); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeRateLimited, Email: email, Reason: verifier.ReasonRateLimited}, nil
	}

	verdict, err := s.validator.Validate(ctx, email)
	if err != nil {
		return Result{}, err
	}
	if !verdict.Valid {
		if err := s.reject(ctx, email, verdict.Reason, req); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeRejected, Email: email, Reason: verdict.Reason, Verdict: verdict}, nil
	}

	result := Result{Email: verdict.Email, Verdict: verdict}
	if verdict.Email != email {
		result.Corrected = verdict.Email
	}

	existing, err := s.repo.FindSubscriberByEmail(ctx, verdict.Email)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		result.Outcome = OutcomeAlreadySubscribed
		if !existing.IsActive() {
			reactivated, err := s.repo.ReactivateSubscriber(ctx, existing.ID, req.IPAddress, req.UserAgent, verdict.Score)
			if err != nil {
				return Result{}, err
			}
			if reactivated {
				result.Outcome = OutcomeReactivated
			}
		}
		return result, nil
	}

	token, err := s.newToken()
	if err != nil {
		return Result{}, fmt.Errorf("generate unsubscribe token: %w", err)
	}
	created, err := s.repo.CreateSubscriber(ctx, &models.Subscriber{
		Email:            verdict.Email,
		SubscribedAt:     s.now(),
		ValidationScore:  verdict.Score,
		IPAddress:        req.IPAddress,
		UserAgent:        req.UserAgent,
		Status:           models.StatusActive,
		UnsubscribeToken: token,
	})
	if err != nil {
		return Result{}, err
	}

	// A concurrent signup for the same address won the insert.
	if !created {
		result.Outcome = OutcomeAlreadySubscribed
		return result, nil
	}
	result.Outcome = OutcomeSubscribed
	return result, nil
}

func (s *Service) reject(ctx context.Context, email, reason string, req Request) error {
	return s.repo.RecordRejection(ctx, &models.RejectedEmail{
		Email:           email,
		RejectionReason: reason,
		SubmittedAt:     s.now(),
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
	})
}

type UnsubscribeResult struct {
	Changed bool
}

// Unsubscribe deactivates email. With a token the pair must match an active
// subscriber; without one any active row for the address is flipped.
func (s *Service) Unsubscribe(ctx context.Context, email, token string) (UnsubscribeResult, error) {
	email = verifier.NormalizeEmail(email)
	if email == "" {
		return UnsubscribeResult{}, ErrEmailRequired
	}

	if token != "" {
		changed, err := s.repo.UnsubscribeByToken(ctx, email, token)
		if err != nil {
			return UnsubscribeResult{}, err
		}
		if !changed {
			return UnsubscribeResult{}, ErrInvalidUnsubscribeLink
		}
		return UnsubscribeResult{Changed: true}, nil
	}

	if !verifier.CheckFormat(email) {
		return UnsubscribeResult{}, ErrInvalidEmail
	}
	changed, err := s.repo.UnsubscribeByEmail(ctx, email)
	if err != nil {
		return UnsubscribeResult{}, err
	}
	return UnsubscribeResult{Changed: changed}, nil
}
