package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailDispatcher sends summaries over SMTP. Delivery failures are logged;
// notification is best effort and never fails a batch.
type EmailDispatcher struct {
	config SMTPConfig
}

func NewEmailDispatcher(config SMTPConfig) EmailDispatcher {
	return EmailDispatcher{config: config}
}

func (d EmailDispatcher) BatchFinished(ctx context.Context, summary BatchSummary) {
	if summary.Recipient == "" {
		slog.InfoContext(ctx, "no notification recipient configured", "org_id", summary.OrgID)
		return
	}

	subject := fmt.Sprintf("Collection run %s: %s", summary.Period, summary.Status)
	body := fmt.Sprintf(
		"Schedule: %s\nPeriod: %s\nStatus: %s\nProcessed: %d\nSucceeded: %d\nFailed: %d\nTotal: %s EUR\n",
		summary.ScheduleName, summary.Period, summary.Status,
		summary.Processed, summary.Succeeded, summary.Failed,
		summary.TotalAmount.StringFixed(2),
	)
	if summary.ErrorDetail != "" {
		body += fmt.Sprintf("Error: %s\n", summary.ErrorDetail)
	}

	d.send(ctx, summary.Recipient, subject, body)
}

func (d EmailDispatcher) DisputeClosed(ctx context.Context, notice DisputeNotice) {
	if notice.Recipient == "" {
		slog.InfoContext(ctx, "no notification recipient configured", "org_id", notice.OrgID)
		return
	}

	subject := fmt.Sprintf("Chargeback %s: %s", notice.Reference, notice.Outcome)
	body := fmt.Sprintf(
		"Member: %s\nAmount: %s EUR\nOutcome: %s\nReference: %s\n",
		notice.MemberName, notice.Amount.StringFixed(2), notice.Outcome, notice.Reference,
	)

	d.send(ctx, notice.Recipient, subject, body)
}

func (d EmailDispatcher) send(ctx context.Context, to, subject, body string) {
	e := email.NewEmail()
	e.From = d.config.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", d.config.Host, d.config.Port)
	auth := smtp.PlainAuth("", d.config.Username, d.config.Password, d.config.Host)
	if err := e.Send(addr, auth); err != nil {
		slog.ErrorContext(ctx, "could not send notification email", "to", to, "subject", subject, "error", err)
		return
	}
	slog.InfoContext(ctx, "notification email sent", "to", to, "subject", subject)
}

// LogDispatcher is the fallback when SMTP is not configured.
type LogDispatcher struct{}

func (LogDispatcher) BatchFinished(ctx context.Context, summary BatchSummary) {
	slog.InfoContext(ctx, "batch finished",
		"org_id", summary.OrgID,
		"schedule", summary.ScheduleName,
		"period", summary.Period,
		"status", summary.Status,
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"total", summary.TotalAmount,
	)
}

func (LogDispatcher) DisputeClosed(ctx context.Context, notice DisputeNotice) {
	slog.InfoContext(ctx, "dispute closed",
		"org_id", notice.OrgID,
		"member", notice.MemberName,
		"amount", notice.Amount,
		"outcome", notice.Outcome,
		"reference", notice.Reference,
	)
}
