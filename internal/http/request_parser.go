// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

const maxBodyBytes = 64 << 10

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, defaulting
// each missing value to today's. A present but non-numeric value is an error.
func ParseMonthParams(query url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{
		Year:  today.Year(),
		Month: int(today.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, &core.ValidationError{Field: "year", Err: core.ErrInvalidPeriod}
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, &core.ValidationError{Field: "month", Err: core.ErrInvalidPeriod}
		}
		params.Month = m
	}

	return params, nil
}

// Amount is a request amount given either as a JSON number or as a string
// such as "12,50".
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	*a = Amount(b)
	return nil
}

// Decimal parses the amount. An absent amount yields zero when optional.
func (a Amount) Decimal(field string, optional bool) (decimal.Decimal, error) {
	if a == "" && optional {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

type transactionRequest struct {
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Category    string `json:"category"`
}

func (r transactionRequest) toNew() (core.NewTransaction, error) {
	amount, err := r.Amount.Decimal("amount", false)
	if err != nil {
		return core.NewTransaction{}, err
	}
	return core.NewTransaction{
		Amount:      amount,
		Description: sanitizeInput(r.Description),
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(r.Type))),
		Date:        strings.TrimSpace(r.Date),
		Category:    sanitizeInput(r.Category),
	}, nil
}

type goalRequest struct {
	Title         string `json:"title"`
	TargetAmount  Amount `json:"target_amount"`
	CurrentAmount Amount `json:"current_amount"`
	Deadline      string `json:"deadline"`
}

func (r goalRequest) toNew() (core.NewGoal, error) {
	target, err := r.TargetAmount.Decimal("target_amount", false)
	if err != nil {
		return core.NewGoal{}, err
	}
	current, err := r.CurrentAmount.Decimal("current_amount", true)
	if err != nil {
		return core.NewGoal{}, err
	}
	deadline, err := core.ParseDate(strings.TrimSpace(r.Deadline))
	if err != nil {
		return core.NewGoal{}, &core.ValidationError{Field: "deadline", Err: core.ErrInvalidDate}
	}
	return core.NewGoal{
		Title:         sanitizeInput(r.Title),
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
	}, nil
}

var errBadJSON = errors.New("request body must be a single JSON object")

// decodeJSON reads one JSON object from the request body into dst. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadJSON, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errBadJSON
	}
	return nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
