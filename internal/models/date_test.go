package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.January, 10), d)
	assert.Equal(t, "2024-01-10", d.String())

	_, err = ParseDate("10/01/2024")
	assert.Error(t, err)
	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestNewDateNormalizes(t *testing.T) {
	assert.Equal(t, NewDate(2024, time.March, 1), NewDate(2024, time.February, 30))
}

func TestDateScan(t *testing.T) {
	want := NewDate(2024, time.May, 6)

	tests := []struct {
		name string
		src  any
	}{
		{"text", "2024-05-06"},
		{"bytes", []byte("2024-05-06")},
		{"timestamp text", "2024-05-06T00:00:00Z"},
		{"time", time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, want, d)
		})
	}
}

func TestDateScanRejects(t *testing.T) {
	var d Date
	assert.Error(t, d.Scan(nil))
	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("not a date"))
}

func TestDateValue(t *testing.T) {
	v, err := NewDate(1999, time.December, 31).Value()
	require.NoError(t, err)
	assert.Equal(t, "1999-12-31", v)
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2024, time.January, 1)
	b := NewDate(2024, time.January, 2)
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, a.Equal(NewDate(2024, time.January, 1)))
	assert.True(t, Date{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestDateValid(t *testing.T) {
	assert.True(t, NewDate(2024, time.February, 29).Valid())
	assert.True(t, NewDate(1, time.January, 1).Valid())
	assert.True(t, NewDate(9999, time.December, 31).Valid())

	assert.False(t, Date{}.Valid())
	assert.False(t, Date{Year: 2024, Month: time.February, Day: 30}.Valid())
	assert.False(t, Date{Year: 2023, Month: 13, Day: 1}.Valid())
	assert.False(t, Date{Year: 10000, Month: time.January, Day: 1}.Valid())
}
