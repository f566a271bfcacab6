package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/services"
)

type seedOptions struct {
	Email        string
	Password     string
	Transactions int
	Goals        int
	Habits       int
	Months       int
}

type seedResult struct {
	Owner        string
	Transactions int
	Goals        int
	Habits       int
}

type seeder struct {
	auth         *services.AuthService
	transactions *services.TransactionService
	goals        *services.GoalService
	habits       *services.HabitService
	faker        *gofakeit.Faker
	today        core.Date
	logger       *applog.Logger
}

var habitNames = []string{
	"Log every expense",
	"No takeaway coffee",
	"Check the budget",
	"Pack lunch",
	"Review subscriptions",
	"Move spare change to savings",
}

var goalTitles = []string{
	"Emergency fund",
	"Summer trip",
	"New laptop",
	"Wedding",
	"Car down payment",
	"Course fees",
}

func (s *seeder) run(ctx context.Context, opts seedOptions) (seedResult, error) {
	first, last := s.faker.FirstName(), s.faker.LastName()
	email := opts.Email
	if email == "" {
		email = s.faker.Email()
	}
	password := opts.Password
	if password == "" {
		password = s.faker.Password(true, true, true, false, false, 12)
	}

	sess, err := s.auth.Signup(ctx, services.Signup{
		Email:     email,
		Password:  password,
		FirstName: first,
		LastName:  last,
	})
	if err != nil {
		return seedResult{}, fmt.Errorf("signup %s: %w", email, err)
	}
	owner := sess.User.ID
	s.logger.InfoContext(ctx, "Seed user created", "email", email, applog.FieldOwner, owner)

	res := seedResult{Owner: owner}

	from := s.today.AddMonths(-opts.Months).Time
	to := s.today.Time
	categories := core.Categories()
	for i := 0; i < opts.Transactions; i++ {
		cat := categories[s.faker.Number(0, len(categories)-1)]
		in := services.NewTransaction{
			Description: s.description(cat),
			Amount:      s.amount(cat),
			Category:    cat,
			Date:        core.DateOf(s.faker.DateRange(from, to)),
		}
		if _, err := s.transactions.Create(ctx, owner, in); err != nil {
			return res, fmt.Errorf("create transaction %d: %w", i, err)
		}
		res.Transactions++
	}

	for i := 0; i < opts.Goals; i++ {
		target := decimal.NewFromInt(int64(s.faker.Number(5, 100)) * 100)
		g, err := s.goals.Create(ctx, owner, services.NewGoal{
			Title:        goalTitles[i%len(goalTitles)],
			TargetAmount: target,
			TargetDate:   s.today.AddMonths(s.faker.Number(2, 24)),
		})
		if err != nil {
			return res, fmt.Errorf("create goal %d: %w", i, err)
		}
		saved := target.Mul(decimal.NewFromFloat(s.faker.Float64Range(0, 0.9))).Round(2)
		if saved.IsPositive() {
			if _, err := s.goals.Deposit(ctx, owner, g.ID, saved); err != nil {
				return res, fmt.Errorf("deposit goal %d: %w", i, err)
			}
		}
		res.Goals++
	}

	for i := 0; i < opts.Habits; i++ {
		h, err := s.habits.Create(ctx, owner, services.NewHabit{
			Name:   habitNames[i%len(habitNames)],
			Target: fmt.Sprintf("%d days", s.faker.RandomInt([]int{7, 14, 21, 30})),
		})
		if err != nil {
			return res, fmt.Errorf("create habit %d: %w", i, err)
		}
		if s.faker.Bool() {
			if _, err := s.habits.Toggle(ctx, owner, h.ID, true); err != nil {
				return res, fmt.Errorf("toggle habit %d: %w", i, err)
			}
		}
		res.Habits++
	}

	return res, nil
}

func (s *seeder) description(cat core.Category) string {
	switch cat {
	case core.Income:
		return s.faker.RandomString([]string{"Salary", "Freelance invoice", "Refund", "Dividends"})
	case core.Food:
		return "Groceries at " + s.faker.Company()
	case core.Transport:
		return s.faker.RandomString([]string{"Fuel", "Train ticket", "Bus pass", "Taxi"})
	case core.Housing:
		return s.faker.RandomString([]string{"Rent", "Electricity bill", "Internet", "Condo fee"})
	default:
		return s.faker.ProductName()
	}
}

func (s *seeder) amount(cat core.Category) decimal.Decimal {
	switch cat {
	case core.Income:
		return decimal.NewFromFloat(s.faker.Price(800, 4000)).Round(2)
	case core.Housing:
		return decimal.NewFromFloat(s.faker.Price(50, 1500)).Round(2)
	default:
		return decimal.NewFromFloat(s.faker.Price(1, 250)).Round(2)
	}
}

func newFaker(seed int64) *gofakeit.Faker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return gofakeit.New(seed)
}
