package goAccounts

import (
	"context"
	"strings"
	"time"
)

// Login authenticates with a password or requests a magic link.
//
// The identifier is the email when set, otherwise the username (only
// with usernames enabled). Accounts with two-factor enabled must supply
// a fresh TOTP code alongside the password. An empty password requests
// passwordless login: a magic link is mailed and the result carries no
// session token.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	identifier := strings.ToLower(strings.TrimSpace(req.Email))
	byEmail := identifier != ""
	if !byEmail {
		if !e.config.Signup.UsernameEnabled {
			return nil, ErrAccountNotFound
		}
		identifier = strings.TrimSpace(req.Username)
		if identifier == "" {
			return nil, ErrAccountNotFound
		}
	}

	ip, _ := ClientIPFromContext(ctx)
	if err := e.limiter.Enforce(ctx, identifier, ip); err != nil {
		e.metrics.Inc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, "", identifier, false, err, nil)
		return nil, err
	}

	var account *Account
	var err error
	if byEmail {
		account, err = e.accounts.GetByEmail(ctx, identifier)
	} else {
		account, err = e.accounts.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if err := e.checkAccount(account, true); err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, "", identifier, false, err, nil)
		return nil, err
	}

	if req.Password == "" {
		return e.requestMagicLink(ctx, account)
	}

	if account.Passwordless {
		e.metrics.Inc(MetricLoginFailure)
		return nil, ErrPasswordlessConflict
	}

	ok, err := e.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}
	if !ok {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, account.ID, account.Email, false, ErrWrongPassword, nil)
		return nil, ErrWrongPassword
	}

	if account.TOTP.Enabled {
		if req.TwoFactorCode == "" {
			e.metrics.Inc(MetricTwoFactorRequired)
			return nil, ErrTwoFactorCodeRequired
		}
		valid, err := e.totp.VerifyCode(account.TOTP.Secret, req.TwoFactorCode, time.Now())
		if err != nil {
			return nil, err
		}
		if !valid {
			e.metrics.Inc(MetricTwoFactorFailure)
			e.emitAudit(ctx, auditEventTwoFactorFailure, account.ID, account.Email, false, ErrInvalidTwoFactorCode, nil)
			return nil, ErrInvalidTwoFactorCode
		}
		e.metrics.Inc(MetricTwoFactorSuccess)
	}

	// Transparent hash upgrade on successful verification.
	if upgrade, err := e.hasher.NeedsUpgrade(account.PasswordHash); err == nil && upgrade {
		if rehash, err := e.hasher.Hash(req.Password); err == nil {
			if updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{PasswordHash: &rehash}); err == nil {
				account = updated
			}
		}
	}

	if err := e.limiter.Reset(ctx, identifier, ip); err != nil {
		return nil, err
	}

	token, err := e.issueSession(account)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, account.ID, account.Email, true, nil, nil)

	return &LoginResult{Token: token}, nil
}

func (e *Engine) requestMagicLink(ctx context.Context, account *Account) (*LoginResult, error) {
	if !e.config.Signup.PasswordlessEnabled {
		return nil, ErrPasswordlessDisabled
	}
	if !e.mail.Enabled() {
		return nil, ErrPasswordlessUnavailable
	}

	token, err := e.generateOneTime(ctx, TokenPasswordless, account.ID)
	if err != nil {
		return nil, err
	}

	if err := e.mail.SendCritical(ctx, account.Email, TemplateMagicLink, map[string]any{
		"name":  account.FullName,
		"token": token,
	}); err != nil {
		e.emitAudit(ctx, auditEventMailFailure, account.ID, account.Email, false, err, nil)
		return nil, err
	}

	e.metrics.Inc(MetricMagicLinkRequested)
	e.emitAudit(ctx, auditEventMagicLinkRequested, account.ID, account.Email, true, nil, nil)

	return &LoginResult{Passwordless: true, Email: account.Email}, nil
}

// Passwordless redeems a magic-link token for a session token.
// Redeeming the link proves control of the mailbox, so an unverified
// account becomes verified here.
func (e *Engine) Passwordless(ctx context.Context, token string) (string, error) {
	if !e.config.Signup.PasswordlessEnabled {
		return "", ErrPasswordlessDisabled
	}

	accountID, err := e.consumeOneTime(ctx, TokenPasswordless, token)
	if err != nil {
		return "", err
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.Status != StatusEnabled {
		return "", ErrAccountDisabled
	}

	if !account.Verified {
		verified := true
		account, err = e.accounts.Update(ctx, account.ID, AccountPatch{Verified: &verified})
		if err != nil {
			return "", err
		}
	}

	sessionToken, err := e.issueSession(account)
	if err != nil {
		return "", err
	}

	e.metrics.Inc(MetricMagicLinkRedeemed)
	e.emitAudit(ctx, auditEventMagicLinkRedeemed, account.ID, account.Email, true, nil, nil)

	return sessionToken, nil
}
