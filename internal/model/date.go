package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Date parsing errors.
var (
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM")
	ErrInvalidYear       = fmt.Errorf("%w: invalid year", ErrInvalidDateFormat)
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
)

// DateKey identifies one monthly dataset file.
//
// DateKey is a comparable value type; keys are ordered by (Year, Month).
//
// Example:
//
//	key, err := ParseDateKey("2023-01")
//	fmt.Println(key)        // 2023-01
//	fmt.Println(key.Next()) // 2023-02
type DateKey struct {
	Year  int
	Month int
}

// ParseDateKey parses a YYYY-MM string.
//
// Returns an error wrapping:
//   - ErrInvalidDateFormat if the string does not split into exactly two parts
//     or the month is not an integer
//   - ErrInvalidYear if the year is not an integer
//   - ErrInvalidMonth if the month is outside 1-12
func ParseDateKey(s string) (DateKey, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return DateKey{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return DateKey{}, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return DateKey{}, fmt.Errorf("%w: invalid month in %q", ErrInvalidDateFormat, s)
	}

	if month < 1 || month > 12 {
		return DateKey{}, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}

	return DateKey{Year: year, Month: month}, nil
}

// String formats the key as YYYY-MM.
func (k DateKey) String() string {
	return fmt.Sprintf("%d-%02d", k.Year, k.Month)
}

// Before reports whether k sorts strictly before other.
func (k DateKey) Before(other DateKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Next returns the following calendar month.
func (k DateKey) Next() DateKey {
	if k.Month >= 12 {
		return DateKey{Year: k.Year + 1, Month: 1}
	}
	return DateKey{Year: k.Year, Month: k.Month + 1}
}

// ExpandRange parses start and end and returns every month between them,
// both ends included.
//
// A start that sorts after end yields an empty slice rather than an error.
//
// Example:
//
//	keys, _ := ExpandRange("2023-11", "2024-02")
//	// [2023-11 2023-12 2024-01 2024-02]
func ExpandRange(start, end string) ([]DateKey, error) {
	from, err := ParseDateKey(start)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	to, err := ParseDateKey(end)
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	var keys []DateKey
	for cur := from; !to.Before(cur); cur = cur.Next() {
		keys = append(keys, cur)
	}
	return keys, nil
}
