package domain

import "errors"

var (
	ErrMalformedNotification   = errors.New("malformed_notification")
	ErrVerificationUnavailable = errors.New("verification_unavailable")
	ErrNotVerified             = errors.New("notification_not_verified")
)
