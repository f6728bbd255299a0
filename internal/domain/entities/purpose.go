package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// UnclassifiedActivity is the activity code used when a trip's activities
// and stated purposes share nothing.
const UnclassifiedActivity = 99

// PurposeBucket collapses a raw TRAVEL_PURPOSE code into the coarse activity
// buckets. Codes outside the table pass through unchanged.
func PurposeBucket(code int) int {
	switch code {
	case 1:
		return 2
	case 2, 5, 7, 11, 27, 28:
		return 3
	case 3, 4, 6, 9, 12, 22, 24, 25, 26:
		return 4
	case 8, 10, 21, 23:
		return 5
	case 13:
		return 6
	default:
		return code
	}
}

// ParsePurposes parses a semicolon-delimited purpose list and maps every
// code through PurposeBucket, keeping order and duplicates.
func ParsePurposes(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		code, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid purpose code %q: %w", p, err)
		}
		out = append(out, PurposeBucket(code))
	}
	return out, nil
}

// InvalidNights is returned by ParseNights for labels it does not know.
const InvalidNights = -1

// DayTripLabel is the stay label for a trip without nights.
const DayTripLabel = "당일"

// ParseNights converts a stay label ("당일", "1박 2일" … "7박 8일") into the
// number of nights, or InvalidNights.
func ParseNights(label string) int {
	label = strings.TrimSpace(label)
	if label == DayTripLabel {
		return 0
	}
	for n := 1; n <= 7; n++ {
		if label == NightsLabel(n) {
			return n
		}
	}
	return InvalidNights
}

// NightsLabel is the inverse of ParseNights; values outside 0..7 are
// rendered as plain numbers.
func NightsLabel(n int) string {
	switch {
	case n == 0:
		return DayTripLabel
	case n >= 1 && n <= 7:
		return fmt.Sprintf("%d박 %d일", n, n+1)
	default:
		return strconv.Itoa(n)
	}
}

// NightsLabels lists every stay label ParseNights accepts, shortest first.
func NightsLabels() []string {
	out := make([]string, 0, 8)
	for n := 0; n <= 7; n++ {
		out = append(out, NightsLabel(n))
	}
	return out
}

// PurposeChoices are the activity purposes a user can pick.
var PurposeChoices = []string{
	"없음",
	"쇼핑 / 구매",
	"체험 활동 / 입장 및 관람",
	"휴식",
	"단순 구경 / 산책 / 걷기",
	"기타 활동",
}
