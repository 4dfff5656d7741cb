// Package cronexpr validates 5-field cron expressions and computes fire
// times. Only the standard minute/hour/dom/month/dow form is accepted;
// descriptors like "@hourly" are rejected so every stored expression reads
// the same way.
package cronexpr

import (
	"fmt"
	"strings"

	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Parse parses a 5-field cron expression.
func Parse(expr string) (cron.Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}

// Validate reports whether expr is a valid 5-field cron expression.
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}

// NextAfter returns the first fire time strictly after t.
func NextAfter(expr string, t time.Time) (time.Time, error) {
	sched, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}

// Describe renders a short human-readable description of the expression.
// It is informational only; firing decisions always go through NextAfter.
func Describe(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return expr
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]

	var parts []string
	switch {
	case strings.HasPrefix(minute, "*/"):
		parts = append(parts, fmt.Sprintf("every %s minutes", minute[2:]))
	case minute == "*":
		parts = append(parts, "every minute")
	default:
		if hour == "*" {
			parts = append(parts, fmt.Sprintf("at minute %s of every hour", minute))
		} else {
			parts = append(parts, fmt.Sprintf("at %s:%s", hour, pad(minute)))
		}
	}
	if dom != "*" {
		parts = append(parts, fmt.Sprintf("on day %s of the month", dom))
	}
	if month != "*" {
		parts = append(parts, fmt.Sprintf("in month %s", month))
	}
	if dow != "*" {
		parts = append(parts, fmt.Sprintf("on weekday %s", dow))
	}
	return strings.Join(parts, ", ")
}

func pad(minute string) string {
	if len(minute) == 1 {
		return "0" + minute
	}
	return minute
}
