package goAccounts

import (
	"context"
	"strings"
	"time"
)

// SocialLogin authenticates through an external identity provider.
//
// Resolution order: an account already linked to (provider, profile.ID)
// logs in directly; otherwise an account with the profile's email gets
// the identity linked and logs in; otherwise a new account is created
// (signup permitting). Accounts created this way carry no password and
// are verified immediately, the provider having attested the email.
func (e *Engine) SocialLogin(ctx context.Context, provider string, profile SocialProfile) (*RegisterResult, error) {
	if provider == "" || profile.ID == "" {
		return nil, ErrSocialAccountConflict
	}

	linked, err := e.accounts.GetBySocialLink(ctx, provider, profile.ID)
	if err != nil {
		return nil, err
	}

	if current, ok := AccountIDFromContext(ctx); ok {
		// Logged-in flow: attach the identity to the current account.
		if linked != nil && linked.ID != current {
			return nil, ErrSocialAccountConflict
		}
		account, err := e.Link(ctx, current, provider, profile.ID)
		if err != nil {
			return nil, err
		}
		token, err := e.issueSession(account)
		if err != nil {
			return nil, err
		}
		e.metrics.Inc(MetricSocialLoginSuccess)
		return &RegisterResult{Account: account, Token: token}, nil
	}

	if linked != nil {
		// Provider-attested identities skip the verification gate; only
		// a disabled account blocks the login.
		if err := e.checkAccount(linked, false); err != nil {
			return nil, err
		}
		token, err := e.issueSession(linked)
		if err != nil {
			return nil, err
		}
		e.metrics.Inc(MetricSocialLoginSuccess)
		e.emitAudit(ctx, auditEventSocialLogin, linked.ID, linked.Email, true, nil, map[string]string{"provider": provider})
		return &RegisterResult{Account: linked, Token: token}, nil
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, ErrMissingSocialEmail
	}

	existing, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := e.checkAccount(existing, false); err != nil {
			return nil, err
		}
		account, err := e.Link(ctx, existing.ID, provider, profile.ID)
		if err != nil {
			return nil, err
		}
		token, err := e.issueSession(account)
		if err != nil {
			return nil, err
		}
		e.metrics.Inc(MetricSocialLoginSuccess)
		e.emitAudit(ctx, auditEventSocialLogin, account.ID, account.Email, true, nil, map[string]string{"provider": provider})
		return &RegisterResult{Account: account, Token: token}, nil
	}

	if !e.config.Signup.Enabled {
		return nil, ErrSignupDisabled
	}

	username := strings.TrimSpace(profile.Username)
	if e.config.Signup.UsernameEnabled {
		if username == "" {
			username = strings.SplitN(email, "@", 2)[0]
		}
		byName, err := e.accounts.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if byName != nil {
			return nil, ErrDuplicateUsername
		}
	} else {
		username = ""
	}

	account := &Account{
		Username:     username,
		FullName:     strings.TrimSpace(profile.FullName),
		Email:        email,
		Passwordless: true,
		Avatar:       profile.Avatar,
		Roles:        append([]string(nil), e.config.Signup.DefaultRoles...),
		Plan:         e.config.Signup.DefaultPlan,
		Status:       StatusEnabled,
		Verified:     true,
		CreatedAt:    time.Now(),
		SocialLinks:  map[string]string{provider: profile.ID},
	}
	if account.Avatar == "" {
		account.Avatar = gravatarURL(email)
	}

	created, err := e.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.metrics.Inc(MetricSocialLoginSuccess)
	e.emitAudit(ctx, auditEventAccountCreated, created.ID, created.Email, true, nil, map[string]string{
		"username": created.Username,
		"fullName": created.FullName,
		"provider": provider,
	})

	e.mail.SendBestEffort(ctx, created.Email, TemplateWelcome, map[string]any{
		"name": created.FullName,
	})

	token, err := e.issueSession(created)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Account: created, Token: token}, nil
}

// Link attaches a social identity to an account and marks the account
// verified. An empty accountID falls back to the context identity.
// Linking an identity that already belongs to a different account fails
// with ErrSocialAccountConflict; re-linking the same identity to the
// same account is a no-op.
func (e *Engine) Link(ctx context.Context, accountID, provider, externalID string) (*Account, error) {
	if accountID == "" {
		var ok bool
		accountID, ok = AccountIDFromContext(ctx)
		if !ok {
			return nil, ErrMissingAccountID
		}
	}

	owner, err := e.accounts.GetBySocialLink(ctx, provider, externalID)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		if owner.ID == accountID {
			return owner, nil
		}
		return nil, ErrSocialAccountConflict
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// A federated identity attests the mailbox, so linking also marks
	// the account verified.
	verified := true
	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{
		Verified:       &verified,
		SetSocialLinks: map[string]string{provider: externalID},
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricSocialLinked)
	e.emitAudit(ctx, auditEventSocialLinked, updated.ID, updated.Email, true, nil, map[string]string{"provider": provider})

	return updated, nil
}

// Unlink removes a social identity from an account. An empty accountID
// falls back to the context identity. Removing an absent link is a
// no-op.
func (e *Engine) Unlink(ctx context.Context, accountID, provider string) (*Account, error) {
	if accountID == "" {
		var ok bool
		accountID, ok = AccountIDFromContext(ctx)
		if !ok {
			return nil, ErrMissingAccountID
		}
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{
		RemoveSocialLinks: []string{provider},
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricSocialUnlinked)
	e.emitAudit(ctx, auditEventSocialUnlinked, updated.ID, updated.Email, true, nil, map[string]string{"provider": provider})

	return updated, nil
}
