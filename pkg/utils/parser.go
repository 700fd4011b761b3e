package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"railbook-service/internal/domain/entity"
)

// ProviderTimeLayout is the timestamp format used by the provider and
// by booking messages.
const ProviderTimeLayout = "02.01.2006 15:04:05"

// ParseProviderTime parses a provider-format timestamp.
func ParseProviderTime(value string) (time.Time, error) {
	t, err := time.Parse(ProviderTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t, nil
}

// FormatProviderTime renders a timestamp in the provider format.
func FormatProviderTime(t time.Time) string {
	return t.Format(ProviderTimeLayout)
}

// ParseRoute splits an "A -> B" route into its endpoints. Intermediate
// stops are ignored.
func ParseRoute(route string) (string, string, error) {
	parts := strings.Split(route, "->")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed route %q", route)
	}
	from := strings.TrimSpace(parts[0])
	to := strings.TrimSpace(parts[len(parts)-1])
	if from == "" || to == "" {
		return "", "", fmt.Errorf("malformed route %q", route)
	}
	return from, to, nil
}

// SeatPosition derives the upper/lower position from seat number
// parity: even numbers are upper, odd numbers are lower. Returns false
// for seat numbers that are not integers.
func SeatPosition(seatNum string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(seatNum))
	if err != nil {
		return "", false
	}
	if n%2 == 0 {
		return entity.PositionUpper, true
	}
	return entity.PositionLower, true
}
