package goAccounts

import "errors"

var (
	// ErrAccountNotFound is an exported constant or variable used by the account engine.
	ErrAccountNotFound = errors.New("account is not registered")
	// ErrAccountDisabled is an exported constant or variable used by the account engine.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrAccountNotVerified is an exported constant or variable used by the account engine.
	ErrAccountNotVerified = errors.New("account is not verified")
	// ErrDuplicateEmail is an exported constant or variable used by the account engine.
	ErrDuplicateEmail = errors.New("email has already been registered")
	// ErrDuplicateUsername is an exported constant or variable used by the account engine.
	ErrDuplicateUsername = errors.New("username has already been registered")
	// ErrUsernameRequired is an exported constant or variable used by the account engine.
	ErrUsernameRequired = errors.New("username can't be empty")
	// ErrPasswordRequired is an exported constant or variable used by the account engine.
	ErrPasswordRequired = errors.New("password can't be empty")
	// ErrPasswordlessConflict is an exported constant or variable used by the account engine.
	ErrPasswordlessConflict = errors.New("passwordless account has no password")
	// ErrPasswordlessDisabled is an exported constant or variable used by the account engine.
	ErrPasswordlessDisabled = errors.New("passwordless login is not allowed")
	// ErrPasswordlessUnavailable is an exported constant or variable used by the account engine.
	ErrPasswordlessUnavailable = errors.New("passwordless login is not available because mail is not configured")
	// ErrWrongPassword is an exported constant or variable used by the account engine.
	ErrWrongPassword = errors.New("wrong password")
	// ErrInvalidToken is an exported constant or variable used by the account engine.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTwoFactorCodeRequired is an exported constant or variable used by the account engine.
	ErrTwoFactorCodeRequired = errors.New("two-factor code is required")
	// ErrInvalidTwoFactorCode is an exported constant or variable used by the account engine.
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	// ErrTwoFactorNotEnabled is an exported constant or variable used by the account engine.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")
	// ErrTwoFactorAlreadyEnabled is an exported constant or variable used by the account engine.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication has already been enabled")
	// ErrSocialAccountConflict is an exported constant or variable used by the account engine.
	ErrSocialAccountConflict = errors.New("social account has been linked to another account")
	// ErrMissingSocialEmail is an exported constant or variable used by the account engine.
	ErrMissingSocialEmail = errors.New("missing e-mail address in social profile")
	// ErrSignupDisabled is an exported constant or variable used by the account engine.
	ErrSignupDisabled = errors.New("sign up is not available")
	// ErrAlreadyDisabled is an exported constant or variable used by the account engine.
	ErrAlreadyDisabled = errors.New("account has already been disabled")
	// ErrAlreadyEnabled is an exported constant or variable used by the account engine.
	ErrAlreadyEnabled = errors.New("account has already been enabled")
	// ErrMissingAccountID is an exported constant or variable used by the account engine.
	ErrMissingAccountID = errors.New("missing account id")
	// ErrLoginRateLimited is an exported constant or variable used by the account engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrMailDelivery is an exported constant or variable used by the account engine.
	ErrMailDelivery = errors.New("mail delivery failed")
	// ErrInvalidPlan is an exported constant or variable used by the account engine.
	ErrInvalidPlan = errors.New("invalid account plan")
	// ErrEngineNotReady is an exported constant or variable used by the account engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrTokenGeneration is retryable: signing or token-store infrastructure
	// failed transiently and the caller should surface a 5xx, not a 4xx.
	ErrTokenGeneration = errors.New("unable to generate token")
)
