package dataset

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2017, 8, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2017-08-14 09:30:00", want},
		{"2017-08-14T09:30:00", want},
		{"2017-08-14T09:30:00Z", want},
		{"2017-08-14T06:30:00-03:00", want},
		{"2017-08-14 09:30", want},
		{" 2017-08-14 09:30:00 ", want},
		{"2017-08-14", time.Date(2017, 8, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseTimestamp("14/08/2017")
	assert.Error(t, err)
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		input string
		want  sql.NullBool
	}{
		{"1", sql.NullBool{Bool: true, Valid: true}},
		{"True", sql.NullBool{Bool: true, Valid: true}},
		{"yes", sql.NullBool{Bool: true, Valid: true}},
		{"On Time", sql.NullBool{Bool: true, Valid: true}},
		{"0", sql.NullBool{Bool: false, Valid: true}},
		{"0.0", sql.NullBool{Bool: false, Valid: true}},
		{"late", sql.NullBool{Bool: false, Valid: true}},
		{"", sql.NullBool{}},
		{"nan", sql.NullBool{}},
		{"maybe", sql.NullBool{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFlag(tt.input))
		})
	}
}

func TestParseScore(t *testing.T) {
	assert.Equal(t, 5, parseScore("5"))
	assert.Equal(t, 4, parseScore("4.0"))
	assert.Equal(t, 3, parseScore("2.6"))
	assert.Zero(t, parseScore(""))
	assert.Zero(t, parseScore("NaN"))
	assert.Zero(t, parseScore("five"))
	assert.Zero(t, parseScore("inf"))
}

func TestParseNullValues(t *testing.T) {
	assert.Equal(t, sql.NullFloat64{Float64: 2.25, Valid: true}, parseNullFloat("2.25"))
	assert.False(t, parseNullFloat("N/A").Valid)
	assert.False(t, parseNullFloat("abc").Valid)
	for _, s := range []string{"NaN", "nan", "inf", "Inf", "-inf", "+Infinity", "1e999"} {
		assert.False(t, parseNullFloat(s).Valid, "%q should be missing", s)
	}

	assert.Equal(t, sql.NullString{String: "good", Valid: true}, parseNullString("good"))
	assert.False(t, parseNullString("None").Valid)
}
