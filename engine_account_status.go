package goAccounts

import "context"

// DisableAccount blocks an account from every authenticated flow.
// Sessions already issued stop resolving on their next use. Disabling a
// disabled account fails with ErrAlreadyDisabled.
func (e *Engine) DisableAccount(ctx context.Context, accountID string) (*Account, error) {
	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == StatusDisabled {
		return nil, ErrAlreadyDisabled
	}

	status := StatusDisabled
	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricAccountDisabled)
	e.emitAudit(ctx, auditEventAccountDisabled, updated.ID, updated.Email, true, nil, nil)

	return updated, nil
}

// EnableAccount lifts a disable. Verification state is untouched: an
// account that was never verified still has to finish verification
// before it can log in.
func (e *Engine) EnableAccount(ctx context.Context, accountID string) (*Account, error) {
	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == StatusEnabled {
		return nil, ErrAlreadyEnabled
	}

	status := StatusEnabled
	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricAccountEnabled)
	e.emitAudit(ctx, auditEventAccountEnabled, updated.ID, updated.Email, true, nil, nil)

	return updated, nil
}

// UpgradePlan moves the account onto another plan. Setting the current
// plan again is a no-op and emits nothing.
func (e *Engine) UpgradePlan(ctx context.Context, accountID string, plan Plan) (*Account, error) {
	if !ValidPlan(plan) {
		return nil, ErrInvalidPlan
	}

	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := e.checkAccount(account, false); err != nil {
		return nil, err
	}
	if account.Plan == plan {
		return account, nil
	}

	previous := account.Plan
	updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{Plan: &plan})
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricPlanChanged)
	e.emitAudit(ctx, auditEventPlanChanged, updated.ID, updated.Email, true, nil, map[string]string{
		"from": string(previous),
		"to":   string(plan),
	})

	return updated, nil
}
