package usecase

import "errors"

var (
	// ErrInvalidCredentials indicates identifier/password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account cannot hold live credentials.
	ErrInactiveAccount = errors.New("account is not active")

	// ErrInvalidAccessToken indicates an access token failed validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates an access token is past its expiry.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrRevokedAccessToken indicates the access token's jti is blacklisted.
	ErrRevokedAccessToken = errors.New("access token revoked")

	// ErrInvalidRefreshToken indicates a refresh token failed validation or
	// has no live record.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates a refresh token is past its expiry.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrTokenFamilyMismatch indicates the presented token's lineage does not
	// match its stored record.
	ErrTokenFamilyMismatch = errors.New("refresh token family mismatch")
	// ErrRefreshTokenReplay indicates a superseded refresh token was
	// presented again; the whole family is revoked in response.
	ErrRefreshTokenReplay = errors.New("refresh token replay detected")

	// ErrInvalidResetToken indicates a reset-class token failed validation.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrExpiredResetToken indicates a reset-class token is past its expiry.
	ErrExpiredResetToken = errors.New("reset token expired")
	// ErrResetTokenUsed indicates a one-time token was already consumed.
	ErrResetTokenUsed = errors.New("reset token already used")

	// ErrPasswordPolicyViolation indicates the candidate password does not
	// meet complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
	// ErrCurrentPasswordInvalid indicates the supplied current password is
	// incorrect.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	// ErrUserExists indicates the username or email is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound indicates no user matches the identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound indicates no live session matches the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)
