package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"12/08/1974":    "1974-08-12",
		"1/2/2030":      "2030-02-01",
		"12-08-1974":    "1974-08-12",
		"12.08.1974":    "1974-08-12",
		"1974-08-12":    "1974-08-12",
		"12 AUG 1974":   "1974-08-12",
		"12 Aug. 1974":  "1974-08-12",
		"2 august 1974": "1974-08-02",
	}
	for input, want := range cases {
		got, ok := NormalizeDate(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := NormalizeDate("31/02/2020")
	assert.False(t, ok)
	_, ok = NormalizeDate("tomorrow")
	assert.False(t, ok)
}

func TestFindDates(t *testing.T) {
	dates := FindDates("Issued 16 APR 2017, valid until 2027-04-15 (ref 12/08/1974)")

	require.Len(t, dates, 3)
	assert.Equal(t, "2017-04-16", dates[0].ISO)
	assert.Equal(t, "16 APR 2017", dates[0].Raw)
	assert.Equal(t, "2027-04-15", dates[1].ISO)
	assert.Equal(t, "1974-08-12", dates[2].ISO)

	_, ok := FindDate("no dates here")
	assert.False(t, ok)
}
