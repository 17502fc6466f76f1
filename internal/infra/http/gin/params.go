package ginserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDay accepts a calendar date or an RFC3339 timestamp. Empty input yields the zero time.
func parseDay(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", field, raw)
	}
	return t.UTC(), nil
}

func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected RFC3339 timestamp, got %q", field, raw)
	}
	return t.UTC(), nil
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseBool(raw string) bool {
	value, _ := strconv.ParseBool(strings.TrimSpace(raw))
	return value
}

type stayRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
}

func (r stayRequest) dates() (time.Time, time.Time, error) {
	in, err := parseDay("check_in", r.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := parseDay("check_out", r.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}
