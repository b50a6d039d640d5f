package encode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/attrition-cli/internal/dataset"
)

func TestDefaultSchemaListedValues(t *testing.T) {
	cases := []struct {
		column string
		value  string
		want   int
	}{
		{"gender", "Male", 0},
		{"gender", "Female", 1},
		{"gender", "Other", 2},
		{"relevent_experience", "Has relevent experience", 0},
		{"relevent_experience", "No relevent experience", 1},
		{"enrolled_university", "Full time course", 0},
		{"enrolled_university", "Part time course", 1},
		{"education_level", "Phd", 0},
		{"education_level", "Masters", 1},
		{"education_level", "Graduate", 2},
		{"education_level", "High School", 3},
		{"education_level", "Primary School", 4},
		{"major_discipline", "Arts", 0},
		{"major_discipline", "Business Degree", 1},
		{"major_discipline", "Humanities", 2},
		{"major_discipline", "No Major", 3},
		{"major_discipline", "Other", 4},
		{"major_discipline", "STEM", 5},
		{"experience", "<1", 0},
		{"experience", ">20", 21},
		{"company_size", "<10", 0},
		{"company_size", "50-99", 1},
		{"company_size", "Oct-49", 2},
		{"company_size", "10/49", 2},
		{"company_size", "100-500", 3},
		{"company_size", "500-999", 4},
		{"company_size", "1000-4999", 5},
		{"company_size", "5000-9999", 6},
		{"company_size", "10000+", 7},
		{"company_type", "Pvt Ltd", 0},
		{"company_type", "Funded Startup", 1},
		{"company_type", "Early Stage Startup", 2},
		{"company_type", "Public Sector", 3},
		{"company_type", "NGO", 4},
		{"company_type", "Other", 5},
		{"last_new_job", ">4", 5},
		{"last_new_job", "never", 6},
		{"city", "city_103", 103},
		{"city", "city_1", 1},
	}
	s := DefaultSchema()
	for _, tc := range cases {
		got, ok := s.Code(tc.column, tc.value)
		if assert.True(t, ok, "%s=%q should have a code", tc.column, tc.value) {
			assert.Equal(t, tc.want, got, "%s=%q", tc.column, tc.value)
		}
	}
}

func TestDefaultSchemaUnlistedValues(t *testing.T) {
	cases := []struct {
		column string
		value  string
	}{
		{"enrolled_university", "no_enrollment"},
		{"experience", "1"},
		{"experience", "20"},
		{"last_new_job", "1"},
		{"last_new_job", "4"},
		{"gender", "male"},
		{"company_size", "10-49"},
		{"company_type", "Startup"},
		{"city", "city_"},
		{"city", "city_1a"},
		{"city", "town_5"},
		{"unknown_column", "x"},
	}
	s := DefaultSchema()
	for _, tc := range cases {
		_, ok := s.Code(tc.column, tc.value)
		assert.False(t, ok, "%s=%q should not have a code", tc.column, tc.value)
	}
}

func hrTable() *dataset.Table {
	v := func(s string) dataset.Cell { return dataset.Cell{Value: s, Valid: true} }
	na := dataset.Cell{}
	return &dataset.Table{
		Name:   "HRRetention_train.csv",
		Header: []string{"enrollee_id", "city", "gender", "relevent_experience", "enrolled_university", "company_size", "training_hours"},
		Rows: [][]dataset.Cell{
			{v("8949"), v("city_103"), v("Female"), v("Has relevent experience"), v("no_enrollment"), v("Oct-49"), v("36")},
			{v("29725"), v("city_40"), na, v("No relevent experience"), v("Full time course"), v("50-99"), na},
			{v("11561"), v("city_x"), v("Male"), v("No relevent experience"), v("no_enrollment"), na, v("83")},
		},
	}
}

func TestEncodeScenario(t *testing.T) {
	f, gaps, err := Encode(hrTable(), DefaultSchema())
	require.NoError(t, err)
	require.Equal(t, 3, f.NRows())

	row := f.Data[0]
	col := func(name string) int {
		j, ok := f.Index(name)
		require.True(t, ok, name)
		return j
	}
	assert.Equal(t, 1.0, row[col("gender")])
	assert.Equal(t, 0.0, row[col("relevent_experience")])
	assert.Equal(t, 2.0, row[col("company_size")])
	assert.Equal(t, 103.0, row[col("city")])
	assert.Equal(t, 8949.0, row[col("enrollee_id")])
	assert.Equal(t, 36.0, row[col("training_hours")])

	// no_enrollment is a real category without a code.
	assert.True(t, dataset.IsNA(row[col("enrolled_university")]))
	assert.True(t, dataset.IsNA(f.Data[2][col("enrolled_university")]))
	assert.Equal(t, 0.0, f.Data[1][col("enrolled_university")])

	// Missing cells stay missing.
	assert.True(t, dataset.IsNA(f.Data[1][col("gender")]))
	assert.True(t, dataset.IsNA(f.Data[1][col("training_hours")]))

	// Malformed city tokens fail softly.
	assert.True(t, dataset.IsNA(f.Data[2][col("city")]))

	assert.Equal(t, 3, gaps.Total)
	assert.Equal(t, 2, gaps.Counts["enrolled_university"]["no_enrollment"])
	assert.Equal(t, 1, gaps.Column("city"))
	assert.Equal(t, []string{"city", "enrolled_university"}, gaps.Columns())
}

func TestEncodeDoesNotModifyInput(t *testing.T) {
	tbl := hrTable()
	_, _, err := Encode(tbl, DefaultSchema())
	require.NoError(t, err)
	assert.Equal(t, "no_enrollment", tbl.Rows[0][4].Value)
	assert.True(t, tbl.Rows[0][4].Valid)
}

func TestEncodeNonNumericPassthrough(t *testing.T) {
	tbl := &dataset.Table{
		Name:   "bad.csv",
		Header: []string{"gender", "training_hours"},
		Rows: [][]dataset.Cell{
			{{Value: "Male", Valid: true}, {Value: "12", Valid: true}},
			{{Value: "Male", Valid: true}, {Value: "lots", Valid: true}},
		},
		HeaderRead: true,
	}
	_, _, err := Encode(tbl, DefaultSchema())
	var pe *dataset.ParseError
	require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
	assert.Equal(t, "training_hours", pe.Column)
	assert.Equal(t, 3, pe.Row)

	// Without a header line the second data row is line 2.
	tbl.HeaderRead = false
	_, _, err = Encode(tbl, DefaultSchema())
	require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
	assert.Equal(t, 2, pe.Row)
}

func TestGapReportMarkdown(t *testing.T) {
	_, gaps, err := Encode(hrTable(), DefaultSchema())
	require.NoError(t, err)
	md := gaps.Markdown()
	assert.Contains(t, md, "[ENCODING GAPS]")
	assert.Contains(t, md, "- enrolled_university (2): no_enrollment(2)")
	assert.Contains(t, md, "- city (1): city_x(1)")

	empty := newGapReport()
	assert.Equal(t, "", empty.Markdown())
}
