package entities

import (
	"strconv"
	"strings"
)

// NullFloat is a float column that may be blank in the source CSV. gocsv
// calls UnmarshalCSV for it, so a blank cell stays "missing" instead of 0.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a valid NullFloat.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

func (n *NullFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		*n = NullFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = NullFloat{Value: v, Valid: true}
	return nil
}

func (n NullFloat) MarshalCSV() (string, error) {
	if !n.Valid {
		return "", nil
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64), nil
}

// YesNo decodes the survey's Y/N flag columns.
type YesNo bool

func (y *YesNo) UnmarshalCSV(s string) error {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "1", "TRUE":
		*y = true
	default:
		*y = false
	}
	return nil
}

func (y YesNo) MarshalCSV() (string, error) {
	if y {
		return "Y", nil
	}
	return "N", nil
}

// Float returns 1 for Y and 0 for N.
func (y YesNo) Float() float64 {
	if y {
		return 1
	}
	return 0
}
