package goAccounts

import (
	"context"
	"time"
)

// Enable2FA begins TOTP enrollment for the account. A fresh shared
// secret is stored against the account in a pending state and returned
// together with the otpauth:// provisioning URI; two-factor is not
// enforced until [Engine.Finalize2FA] confirms the authenticator works.
// Calling Enable2FA again before finalizing replaces the pending secret.
func (e *Engine) Enable2FA(ctx context.Context, accountID string) (*TwoFactorSetup, error) {
	if !e.config.TwoFactor.Enabled {
		return nil, ErrTwoFactorNotEnabled
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := e.checkAccount(account, true); err != nil {
		return nil, err
	}
	if account.TOTP.Enabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	pending := TOTPSettings{Enabled: false, Secret: secret}
	if _, err := e.accounts.Update(ctx, account.ID, AccountPatch{TOTP: &pending}); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventTwoFactorRequested, account.ID, account.Email, true, nil, nil)

	return &TwoFactorSetup{
		Secret:     secret,
		OTPAuthURL: e.totp.ProvisionURI(secret, account.Email),
	}, nil
}

// Finalize2FA confirms enrollment by verifying a code generated from
// the pending secret. On success two-factor becomes mandatory for every
// subsequent password login.
func (e *Engine) Finalize2FA(ctx context.Context, accountID, code string) error {
	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := e.checkAccount(account, true); err != nil {
		return err
	}
	if account.TOTP.Enabled || account.TOTP.Secret == "" {
		return ErrTwoFactorNotEnabled
	}

	valid, err := e.totp.VerifyCode(account.TOTP.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if !valid {
		e.metrics.Inc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, account.ID, account.Email, false, ErrInvalidTwoFactorCode, nil)
		return ErrInvalidTwoFactorCode
	}

	enabled := TOTPSettings{Enabled: true, Secret: account.TOTP.Secret}
	if _, err := e.accounts.Update(ctx, account.ID, AccountPatch{TOTP: &enabled}); err != nil {
		return err
	}

	e.metrics.Inc(MetricTwoFactorEnabled)
	e.emitAudit(ctx, auditEventTwoFactorEnabled, account.ID, account.Email, true, nil, nil)

	return nil
}

// Disable2FA turns off two-factor for the account. A valid current code
// is required, so a stolen session alone cannot weaken the account.
func (e *Engine) Disable2FA(ctx context.Context, accountID, code string) error {
	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := e.checkAccount(account, true); err != nil {
		return err
	}
	if !account.TOTP.Enabled {
		return ErrTwoFactorNotEnabled
	}

	valid, err := e.totp.VerifyCode(account.TOTP.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if !valid {
		e.metrics.Inc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, account.ID, account.Email, false, ErrInvalidTwoFactorCode, nil)
		return ErrInvalidTwoFactorCode
	}

	cleared := TOTPSettings{}
	if _, err := e.accounts.Update(ctx, account.ID, AccountPatch{TOTP: &cleared}); err != nil {
		return err
	}

	e.metrics.Inc(MetricTwoFactorDisabled)
	e.emitAudit(ctx, auditEventTwoFactorDisabled, account.ID, account.Email, true, nil, nil)

	return nil
}
