package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Housing     Category = "Housing"
	Food        Category = "Food"
	Transport   Category = "Transport"
	Education   Category = "Education"
	Health      Category = "Health"
	Leisure     Category = "Leisure"
	Investments Category = "Investments"
	Income      Category = "Income"
	Other       Category = "Other"
)

type (
	Category string

	// Transaction is a single income (positive amount) or expense (negative amount).
	Transaction struct {
		ID          string          `json:"id"`
		Owner       string          `json:"owner"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    Category        `json:"category"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	FinancialGoal struct {
		ID            string          `json:"id"`
		Owner         string          `json:"owner"`
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		TargetDate    Date            `json:"target_date"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	FinancialHabit struct {
		ID              string    `json:"id"`
		Owner           string    `json:"owner"`
		Name            string    `json:"name"`
		Target          string    `json:"target"`
		CurrentStreak   int       `json:"current_streak"`
		BestStreak      int       `json:"best_streak"`
		LastCompletedAt *Date     `json:"last_completed_at"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	// User is an authentication identity. Every other entity is owned by one.
	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// UserProfile shares its ID with the owning user.
	UserProfile struct {
		ID        string    `json:"id"`
		FirstName string    `json:"first_name"`
		LastName  string    `json:"last_name"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)

var categories = []Category{Housing, Food, Transport, Education, Health, Leisure, Investments, Income, Other}

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrNonPositiveAmount     = errors.New("amount must be greater than zero")
	ErrEmptyDescription      = errors.New("description is required")
	ErrDescriptionTooLong    = errors.New("description too long (max 200 characters)")
	ErrUnknownCategory       = errors.New("unknown category")
	ErrInvalidDate           = errors.New("invalid date")
	ErrEmptyTitle            = errors.New("title is required")
	ErrEmptyName             = errors.New("name is required")
	ErrNonPositiveTarget     = errors.New("target amount must be a positive value")
	ErrTargetDateNotFuture   = errors.New("target date must be in the future")
	ErrNonPositiveDeposit    = errors.New("deposit amount must be greater than zero")
	ErrAlreadyCompletedToday = errors.New("habit already completed today")
)

// ValidationError reports invalid user input. It is always raised before any
// store call and its message is safe to show to the user.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Categories returns the fixed category label set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches a label case-insensitively against the fixed set.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", invalid("category", ErrUnknownCategory)
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsIncome reports whether amounts in this category are stored positive.
func (c Category) IsIncome() bool { return c == Income }

func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return invalid("date", ErrInvalidDate)
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if len(desc) > 200 {
		return invalid("description", ErrDescriptionTooLong)
	}
	if !t.Category.Valid() {
		return invalid("category", ErrUnknownCategory)
	}
	if t.Amount.IsZero() {
		return invalid("amount", ErrNonPositiveAmount)
	}
	return nil
}

// ValidateGoal checks the user-editable goal fields against the current time.
func ValidateGoal(title string, target decimal.Decimal, targetDate Date, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if !target.IsPositive() {
		return invalid("target_amount", ErrNonPositiveTarget)
	}
	if targetDate.IsZero() || !targetDate.After(now) {
		return invalid("target_date", ErrTargetDateNotFuture)
	}
	return nil
}

func (h FinancialHabit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	return nil
}

// FullName joins first and last name, skipping empty parts.
func (p UserProfile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
