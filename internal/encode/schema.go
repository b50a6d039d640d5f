package encode

import (
	"strconv"
	"strings"
)

// Mapping is the fixed code table for one categorical column. A value absent
// from Codes (and not accepted by Token, when set) has no code.
type Mapping struct {
	Column string
	Codes  map[string]int
	// Token parses values that follow a pattern instead of a closed list.
	Token func(string) (int, bool)
	// Note documents a known coverage gap in the table.
	Note string
}

// Code returns the integer code for v.
func (m Mapping) Code(v string) (int, bool) {
	if c, ok := m.Codes[v]; ok {
		return c, true
	}
	if m.Token != nil {
		return m.Token(v)
	}
	return 0, false
}

// Schema is the ordered list of recognized categorical columns.
type Schema []Mapping

// Lookup finds the mapping for a column.
func (s Schema) Lookup(column string) (Mapping, bool) {
	for _, m := range s {
		if m.Column == column {
			return m, true
		}
	}
	return Mapping{}, false
}

// Code encodes one value of one column. Unknown columns have no code.
func (s Schema) Code(column, value string) (int, bool) {
	m, ok := s.Lookup(column)
	if !ok {
		return 0, false
	}
	return m.Code(value)
}

// Columns lists the schema columns in order.
func (s Schema) Columns() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.Column
	}
	return out
}

// DefaultSchema returns the HR attrition code tables. The tables are
// deliberately partial for enrolled_university, experience and last_new_job:
// values outside them encode to missing and are imputed later.
func DefaultSchema() Schema {
	return Schema{
		{Column: "city", Token: cityCode},
		{Column: "gender", Codes: map[string]int{
			"Male":   0,
			"Female": 1,
			"Other":  2,
		}},
		{Column: "relevent_experience", Codes: map[string]int{
			"Has relevent experience": 0,
			"No relevent experience":  1,
		}},
		{Column: "enrolled_university", Codes: map[string]int{
			"Full time course": 0,
			"Part time course": 1,
		}, Note: "no_enrollment has no code"},
		{Column: "education_level", Codes: map[string]int{
			"Phd":            0,
			"Masters":        1,
			"Graduate":       2,
			"High School":    3,
			"Primary School": 4,
		}},
		{Column: "major_discipline", Codes: map[string]int{
			"Arts":            0,
			"Business Degree": 1,
			"Humanities":      2,
			"No Major":        3,
			"Other":           4,
			"STEM":            5,
		}},
		{Column: "experience", Codes: map[string]int{
			"<1":  0,
			">20": 21,
		}, Note: "years 1..20 have no code"},
		// "Oct-49" is the 10-49 band after a spreadsheet date conversion; both spellings share code 2.
		{Column: "company_size", Codes: map[string]int{
			"<10":       0,
			"50-99":     1,
			"Oct-49":    2,
			"10/49":     2,
			"100-500":   3,
			"500-999":   4,
			"1000-4999": 5,
			"5000-9999": 6,
			"10000+":    7,
		}},
		{Column: "company_type", Codes: map[string]int{
			"Pvt Ltd":             0,
			"Funded Startup":      1,
			"Early Stage Startup": 2,
			"Public Sector":       3,
			"NGO":                 4,
			"Other":               5,
		}},
		{Column: "last_new_job", Codes: map[string]int{
			">4":    5,
			"never": 6,
		}, Note: "1..4 have no code"},
	}
}

// cityCode accepts tokens of the form city_<digits>.
func cityCode(v string) (int, bool) {
	digits, ok := strings.CutPrefix(v, "city_")
	if !ok || digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
