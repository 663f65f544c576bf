package models

import "errors"

// Business-rule violations surfaced to handlers, which map them to HTTP
// status codes.
var (
	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this tournament")
	ErrEnrollmentClosed   = errors.New("enrollment is closed for this tournament")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrUserInactive       = errors.New("account is deactivated")

	ErrAlreadyCredited = errors.New("player has already been credited")
	ErrKillsLocked     = errors.New("kill list is locked after payout")
	ErrAlreadyPaid     = errors.New("tournament payout already completed")
	ErrNothingToCredit = errors.New("computed credit is zero")

	ErrOTPExpired      = errors.New("code expired or not issued, request a new one")
	ErrOTPInvalid      = errors.New("invalid code")
	ErrOTPLocked       = errors.New("too many failed attempts, request a new code")
	ErrOTPCooldown     = errors.New("please wait before requesting another code")
	ErrRoomNotRevealed = errors.New("room credentials are not revealed yet")
)
