package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/report"
)

type captured struct {
	e    *email.Email
	addr string
	auth smtp.Auth
}

func newTestSender(cfg Config, err error) (*Sender, *[]captured) {
	var sent []captured
	s := NewSender(cfg, nil)
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		sent = append(sent, captured{e, addr, auth})
		return err
	}
	return s, &sent
}

func TestSendGoalReached(t *testing.T) {
	s, sent := newTestSender(Config{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "finboard <no-reply@example.com>"}, nil)
	goal := core.FinancialGoal{
		Title:         "Emergency fund",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.RequireFromString("1000.50"),
		TargetDate:    core.NewDate(2027, 3, 1),
	}
	if err := s.SendGoalReached(context.Background(), "ana@example.com", goal, core.USD); err != nil {
		t.Fatalf("SendGoalReached: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(*sent))
	}
	got := (*sent)[0]
	if got.addr != "smtp.example.com:2525" || got.auth == nil {
		t.Fatalf("unexpected transport: %s %v", got.addr, got.auth)
	}
	if got.e.To[0] != "ana@example.com" || !strings.Contains(got.e.Subject, "Emergency fund") {
		t.Fatalf("unexpected envelope: %+v", got.e)
	}
	body := string(got.e.Text)
	if !strings.Contains(body, "$1000.50 saved of $1000.00") || !strings.Contains(body, "01/03/2027") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func TestSendWithoutCredentialsSkipsAuth(t *testing.T) {
	s, sent := newTestSender(Config{Host: "localhost", Port: 25, From: "a@b.c"}, nil)
	if err := s.SendGoalReached(context.Background(), "x@y.z", core.FinancialGoal{Title: "T", TargetAmount: decimal.NewFromInt(1)}, core.BRL); err != nil {
		t.Fatal(err)
	}
	if (*sent)[0].auth != nil {
		t.Fatal("expected no SMTP auth")
	}
}

func TestSendErrorIsWrapped(t *testing.T) {
	boom := errors.New("relay denied")
	s, _ := newTestSender(Config{Host: "localhost", Port: 25}, boom)
	err := s.SendWeeklyReport(context.Background(), "x@y.z", WeeklyReport{}, core.BRL)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped relay error, got %v", err)
	}
}

func TestWeeklyReportBody(t *testing.T) {
	r := WeeklyReport{
		Name:  "Ana",
		Range: report.DateRange{Start: core.NewDate(2026, 3, 2), End: core.NewDate(2026, 3, 8)},
		Totals: report.Totals{
			Income:   decimal.NewFromInt(3000),
			Expenses: decimal.NewFromInt(1200),
			Balance:  decimal.NewFromInt(1800),
		},
		ByCategory: []report.CategoryShare{{Name: core.Housing, Value: 75, Amount: decimal.NewFromInt(900)}},
		Goals: []core.FinancialGoal{
			{Title: "Trip", TargetAmount: decimal.NewFromInt(10000), CurrentAmount: decimal.NewFromInt(3500)},
			{Title: "Broken", TargetAmount: decimal.Zero},
		},
		BestStreak: 4,
	}
	body := WeeklyReportBody(r, core.BRL)
	for _, want := range []string{
		"Hi Ana,",
		"02/03/2026 and 08/03/2026",
		"Income:   R$ 3000.00",
		"Balance:  R$ 1800.00",
		"Housing",
		"75%",
		"Trip: 35%",
		"Broken: 0%",
		"best habit streak is 4 days",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}
