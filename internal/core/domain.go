package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire layout of calendar dates (goal deadlines).
const DateLayout = "2006-01-02"

type (
	TransactionType string

	// Date is a calendar date without a time component. The wrapped time is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		Amount      decimal.Decimal
		Description string
		Type        TransactionType
		Date        string // ISO-8601 date-time, stored verbatim
		Category    string // empty means uncategorized
	}

	Goal struct {
		ID            string
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      Date
		CreatedAt     time.Time
	}

	// NewTransaction carries the caller-supplied fields of a transaction.
	NewTransaction struct {
		Amount      decimal.Decimal
		Description string
		Type        TransactionType
		Date        string
		Category    string
	}

	// NewGoal carries the caller-supplied fields of a goal.
	NewGoal struct {
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      Date
	}
)

// timestampLayouts are the ISO-8601 forms accepted for transaction dates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTimestamp parses an ISO-8601 date or date-time. Values without a zone
// are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	// Both are midnight UTC. time.Duration would saturate past ~292 years.
	return int((other.Unix() - d.Unix()) / secondsPerDay)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "deadline", Err: ErrInvalidDate}
	}
	return nil
}

// OccurredAt returns the parsed instant of the transaction date.
func (t Transaction) OccurredAt() (time.Time, error) {
	return ParseTimestamp(t.Date)
}

// Month returns the YYYY-MM prefix of the transaction date. Dates shorter than
// seven characters are returned unchanged.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return t.Date
	}
	return t.Date[:7]
}

func (n NewTransaction) Validate() error {
	if !n.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if len(strings.TrimSpace(n.Description)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if !n.Type.IsValid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	if _, err := ParseTimestamp(n.Date); err != nil {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

func (n NewGoal) Validate() error {
	if len(strings.TrimSpace(n.Title)) == 0 {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if !n.TargetAmount.IsPositive() {
		return &ValidationError{Field: "target_amount", Err: ErrInvalidTarget}
	}
	if n.CurrentAmount.IsNegative() {
		return &ValidationError{Field: "current_amount", Err: ErrNegativeCurrent}
	}
	return n.Deadline.Validate()
}
