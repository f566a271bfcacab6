// Package mail sends the weekly report and goal notices over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/report"
)

// Mailer is the port the worker notifies through.
type Mailer interface {
	SendGoalReached(ctx context.Context, to string, goal core.FinancialGoal, currency core.Currency) error
	SendWeeklyReport(ctx context.Context, to string, r WeeklyReport, currency core.Currency) error
}

// WeeklyReport is the content of the Monday summary mail.
type WeeklyReport struct {
	Name       string
	Range      report.DateRange
	Totals     report.Totals
	ByCategory []report.CategoryShare
	Goals      []core.FinancialGoal
	BestStreak int
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches (*email.Email).Send so tests can capture messages.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

type Sender struct {
	cfg    Config
	logger *applog.Logger
	send   sendFunc
}

var _ Mailer = (*Sender)(nil)

func NewSender(cfg Config, logger *applog.Logger) *Sender {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Sender{
		cfg:    cfg,
		logger: logger.WithComponent(applog.ComponentMail),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (s *Sender) SendGoalReached(ctx context.Context, to string, goal core.FinancialGoal, currency core.Currency) error {
	e := s.newEmail(to, fmt.Sprintf("Goal reached: %s", goal.Title))
	e.Text = []byte(GoalReachedBody(goal, currency))
	return s.deliver(ctx, e)
}

func (s *Sender) SendWeeklyReport(ctx context.Context, to string, r WeeklyReport, currency core.Currency) error {
	e := s.newEmail(to, fmt.Sprintf("Your week in finboard (%s to %s)", r.Range.Start.Format("02/01"), r.Range.End.Format("02/01")))
	e.Text = []byte(WeeklyReportBody(r, currency))
	return s.deliver(ctx, e)
}

func (s *Sender) newEmail(to, subject string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = subject
	return e
}

func (s *Sender) deliver(ctx context.Context, e *email.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send email", "to", e.To, applog.FieldError, err)
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.InfoContext(ctx, "Email sent", "to", e.To, "subject", e.Subject)
	return nil
}

func GoalReachedBody(goal core.FinancialGoal, currency core.Currency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Congratulations!\n\n")
	fmt.Fprintf(&b, "You reached your goal \"%s\": %s saved of %s.\n",
		goal.Title, currency.Format(goal.CurrentAmount), currency.Format(goal.TargetAmount))
	fmt.Fprintf(&b, "Target date was %s.\n", goal.TargetDate.Format("02/01/2006"))
	b.WriteString("\nKeep going,\nfinboard\n")
	return b.String()
}

func WeeklyReportBody(r WeeklyReport, currency core.Currency) string {
	var b strings.Builder
	name := r.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Between %s and %s:\n", r.Range.Start.Format("02/01/2006"), r.Range.End.Format("02/01/2006"))
	fmt.Fprintf(&b, "  Income:   %s\n", currency.Format(r.Totals.Income))
	fmt.Fprintf(&b, "  Expenses: %s\n", currency.Format(r.Totals.Expenses))
	fmt.Fprintf(&b, "  Balance:  %s\n", currency.Format(r.Totals.Balance))

	if len(r.ByCategory) > 0 {
		b.WriteString("\nWhere the money went:\n")
		for _, c := range r.ByCategory {
			fmt.Fprintf(&b, "  %-12s %3d%%  %s\n", c.Name, c.Value, currency.Format(c.Amount))
		}
	}

	if len(r.Goals) > 0 {
		b.WriteString("\nGoals:\n")
		for _, g := range r.Goals {
			pct := 0
			if g.TargetAmount.GreaterThan(decimal.Zero) {
				pct = core.Percent(g.CurrentAmount, g.TargetAmount)
			}
			fmt.Fprintf(&b, "  %s: %d%% (%s of %s)\n", g.Title, pct, currency.Format(g.CurrentAmount), currency.Format(g.TargetAmount))
		}
	}

	if r.BestStreak > 0 {
		fmt.Fprintf(&b, "\nYour best habit streak is %d days.\n", r.BestStreak)
	}
	b.WriteString("\nfinboard\n")
	return b.String()
}
