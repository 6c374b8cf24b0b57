package goAccounts

import (
	"context"
	"fmt"
	"log"
)

// mailer wraps the caller's Notifier with the engine's delivery budget:
// a bounded number of attempts, each under its own timeout. Critical
// sends propagate failure to the flow; best-effort sends only log it.
type mailer struct {
	notifier Notifier
	config   MailConfig
	site     SiteConfig
	metrics  *Metrics
}

func newMailer(notifier Notifier, cfg MailConfig, site SiteConfig, metrics *Metrics) *mailer {
	return &mailer{
		notifier: notifier,
		config:   cfg,
		site:     site,
		metrics:  metrics,
	}
}

// Enabled reports whether mail-dependent features are available.
func (m *mailer) Enabled() bool {
	return m != nil && m.config.Enabled && m.notifier != nil
}

// SendCritical delivers mail the flow cannot proceed without (activation
// links, magic links, reset links). Failure after all attempts surfaces
// as ErrMailDelivery.
func (m *mailer) SendCritical(ctx context.Context, to, template string, data map[string]any) error {
	if !m.Enabled() {
		return fmt.Errorf("%w: mail is not configured", ErrMailDelivery)
	}

	err := m.send(ctx, to, template, data)
	if err != nil {
		m.metrics.Inc(MetricMailFailure)
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	m.metrics.Inc(MetricMailSent)
	return nil
}

// SendBestEffort delivers informational mail (welcome, password-changed).
// Failure is logged and counted, never propagated.
func (m *mailer) SendBestEffort(ctx context.Context, to, template string, data map[string]any) {
	if !m.Enabled() {
		return
	}

	if err := m.send(ctx, to, template, data); err != nil {
		m.metrics.Inc(MetricMailFailure)
		log.Printf("goAccounts: best-effort mail %q to %s failed: %v", template, to, err)
		return
	}

	m.metrics.Inc(MetricMailSent)
}

func (m *mailer) send(ctx context.Context, to, template string, data map[string]any) error {
	payload := make(map[string]any, len(data)+3)
	for k, v := range data {
		payload[k] = v
	}
	payload["site"] = m.site.Name
	payload["siteUrl"] = m.site.URL
	payload["from"] = m.config.From

	var lastErr error
	for attempt := 0; attempt < m.config.Retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
		lastErr = m.notifier.Send(attemptCtx, to, template, payload)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
