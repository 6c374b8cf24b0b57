package goAccounts

import (
	"context"
	"strings"
)

// ForgotPassword mails a single-use reset link. The reset mail is
// critical: a delivery failure fails the operation so the caller can
// tell the account holder nothing was sent.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	account, err := e.getByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if err := e.checkAccount(account, true); err != nil {
		return err
	}
	if account.Passwordless {
		return ErrPasswordlessConflict
	}

	token, err := e.generateOneTime(ctx, TokenPasswordReset, account.ID)
	if err != nil {
		return err
	}

	if err := e.mail.SendCritical(ctx, account.Email, TemplateResetPassword, map[string]any{
		"name":  account.FullName,
		"token": token,
	}); err != nil {
		e.emitAudit(ctx, auditEventMailFailure, account.ID, account.Email, false, err, nil)
		return err
	}

	e.metrics.Inc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, account.ID, account.Email, true, nil, nil)

	return nil
}

// ResetPassword redeems a reset token and installs the new password.
// Redeeming the link proves control of the mailbox, so the account
// also becomes verified, and a previously passwordless account gains a
// password. Returns a fresh session token.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	accountID, err := e.consumeOneTime(ctx, TokenPasswordReset, token)
	if err != nil {
		e.metrics.Inc(MetricPasswordResetFailure)
		return "", err
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		e.metrics.Inc(MetricPasswordResetFailure)
		return "", err
	}
	if account.Status != StatusEnabled {
		e.metrics.Inc(MetricPasswordResetFailure)
		return "", ErrAccountDisabled
	}

	if newPassword == "" {
		e.metrics.Inc(MetricPasswordResetFailure)
		return "", ErrPasswordRequired
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metrics.Inc(MetricPasswordResetFailure)
		return "", err
	}

	verified := true
	passwordless := false
	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{
		PasswordHash: &hash,
		Passwordless: &passwordless,
		Verified:     &verified,
	})
	if err != nil {
		e.metrics.Inc(MetricPasswordResetFailure)
		return "", err
	}

	e.metrics.Inc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, updated.ID, updated.Email, true, nil, nil)

	e.mail.SendBestEffort(ctx, updated.Email, TemplatePasswordChanged, map[string]any{
		"name": updated.FullName,
	})

	return e.issueSession(updated)
}
