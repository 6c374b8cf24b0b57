package goAccounts

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log"
	"strings"
	"time"
)

// gravatarURL derives the default avatar from the email address.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=64&d=robohash"
}

// Register creates a new account.
//
// With verification enabled the account starts unverified and an
// activation mail is sent; the activation mail is critical, so a
// delivery failure fails the whole operation. With verification
// disabled the account is live immediately, a welcome mail goes out
// best-effort, and the result carries a session token.
//
// An empty password creates a passwordless account when the
// configuration allows it; such accounts can only log in via magic
// link.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if !e.config.Signup.Enabled {
		return nil, ErrSignupDisabled
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.metrics.Inc(MetricRegisterDuplicate)
		return nil, ErrDuplicateEmail
	}

	username := strings.TrimSpace(req.Username)
	if e.config.Signup.UsernameEnabled {
		if username == "" {
			return nil, ErrUsernameRequired
		}
		byName, err := e.accounts.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if byName != nil {
			e.metrics.Inc(MetricRegisterDuplicate)
			return nil, ErrDuplicateUsername
		}
	} else {
		username = ""
	}

	account := &Account{
		Username:    username,
		FullName:    strings.TrimSpace(req.FullName),
		Email:       email,
		Roles:       append([]string(nil), e.config.Signup.DefaultRoles...),
		Plan:        e.config.Signup.DefaultPlan,
		Avatar:      req.Avatar,
		Status:      StatusEnabled,
		Verified:    !e.config.Signup.VerificationEnabled,
		CreatedAt:   time.Now(),
		SocialLinks: map[string]string{},
	}
	if account.Avatar == "" {
		account.Avatar = gravatarURL(email)
	}

	if req.Password == "" {
		if !e.config.Signup.PasswordlessEnabled {
			return nil, ErrPasswordRequired
		}
		if !e.mail.Enabled() {
			return nil, ErrPasswordlessUnavailable
		}
		account.Passwordless = true
	} else {
		hash, err := e.hasher.Hash(req.Password)
		if err != nil {
			e.metrics.Inc(MetricRegisterFailure)
			return nil, err
		}
		account.PasswordHash = hash
	}

	created, err := e.accounts.Create(ctx, account)
	if err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		return nil, err
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventAccountCreated, created.ID, created.Email, true, nil, map[string]string{
		"username": created.Username,
		"fullName": created.FullName,
		"plan":     string(created.Plan),
	})

	if e.config.Provisioning.Enabled && e.provisioner != nil {
		if err := e.provisioner.CreateExternalAccount(ctx, created.Email, created.Username, req.Password); err != nil {
			log.Printf("goAccounts: provisioning for %s failed: %v", created.Email, err)
		}
	}

	result := &RegisterResult{Account: created}

	if !created.Verified {
		token, err := e.generateOneTime(ctx, TokenVerification, created.ID)
		if err != nil {
			return nil, err
		}
		if err := e.mail.SendCritical(ctx, created.Email, TemplateActivate, map[string]any{
			"name":  created.FullName,
			"token": token,
		}); err != nil {
			e.emitAudit(ctx, auditEventMailFailure, created.ID, created.Email, false, err, nil)
			return nil, err
		}
		return result, nil
	}

	e.mail.SendBestEffort(ctx, created.Email, TemplateWelcome, map[string]any{
		"name": created.FullName,
	})

	token, err := e.issueSession(created)
	if err != nil {
		return nil, err
	}
	result.Token = token
	return result, nil
}

// Verify redeems an activation token and returns a session token for the
// now-verified account. Tokens are single-use; a second redemption of
// the same token fails with ErrInvalidToken.
func (e *Engine) Verify(ctx context.Context, token string) (string, error) {
	accountID, err := e.consumeOneTime(ctx, TokenVerification, token)
	if err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return "", err
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return "", err
	}
	if account.Status != StatusEnabled {
		e.metrics.Inc(MetricVerifyFailure)
		return "", ErrAccountDisabled
	}

	verified := true
	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{Verified: &verified})
	if err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return "", err
	}

	e.metrics.Inc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventAccountVerified, updated.ID, updated.Email, true, nil, nil)

	e.mail.SendBestEffort(ctx, updated.Email, TemplateWelcome, map[string]any{
		"name": updated.FullName,
	})

	return e.issueSession(updated)
}
