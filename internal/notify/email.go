// Package notify delivers best-effort email notifications. Nothing
// here may fail a transfer: the monetary state is committed before any
// notification is attempted, so errors are logged and dropped.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// Disabled logs the email instead of sending it; safe default for
	// development.
	Disabled bool
}

type Mailer struct {
	cfg      Config
	users    *store.UserStore
	accounts engine.AccountStore
	log      *zap.Logger
}

func NewMailer(cfg Config, users *store.UserStore, accounts engine.AccountStore, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, users: users, accounts: accounts, log: log}
}

// TransferCompleted emails the sender a transfer alert. Implements
// engine.TransferNotifier; invoked on a detached goroutine.
func (m *Mailer) TransferCompleted(ctx context.Context, tx *models.Transaction) {
	account, err := m.accounts.Get(ctx, tx.FromAccountID)
	if err != nil {
		m.log.Warn("transfer notification skipped: account lookup failed",
			zap.Uint("account_id", tx.FromAccountID), zap.Error(err))
		return
	}
	user, err := m.users.GetByID(ctx, account.UserID)
	if err != nil {
		m.log.Warn("transfer notification skipped: user lookup failed",
			zap.Uint("user_id", account.UserID), zap.Error(err))
		return
	}

	subject := "Transaction Alert"
	body := fmt.Sprintf(
		"Hi %s,\n\nA transfer of %s has been made from your account %d to account %d.\n\nBest regards,\nThe Bank Team",
		user.Name, tx.Amount.String(), tx.FromAccountID, tx.ToAccountID,
	)
	m.send(user.Email, subject, body)
}

// Welcome emails a newly registered user.
func (m *Mailer) Welcome(email, name string) {
	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for registering. We're excited to have you on board!\n\nBest regards,\nThe Bank Team",
		name,
	)
	m.send(email, "Welcome!", body)
}

func (m *Mailer) send(to, subject, body string) {
	if m.cfg.Disabled || m.cfg.Host == "" {
		m.log.Info("email disabled, not sending",
			zap.String("to", to), zap.String("subject", subject))
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		m.log.Warn("failed to send email", zap.String("to", to), zap.Error(err))
		return
	}
	m.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
}
