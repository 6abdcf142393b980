package subscription

import "errors"

var (
	ErrEmailRequired          = errors.New("email is required")
	ErrInvalidEmail           = errors.New("invalid email format")
	ErrInvalidUnsubscribeLink = errors.New("invalid unsubscribe link")
)
