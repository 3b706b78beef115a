package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	_, err = ParseDate("01/03/2024")
	require.Error(t, err)
}

func TestDate_Arithmetic(t *testing.T) {
	start := NewDate(2024, time.February, 28)
	end := start.AddDays(2)
	assert.Equal(t, "2024-03-01", end.String())
	assert.Equal(t, 2, start.DaysUntil(end))
	assert.Equal(t, -2, end.DaysUntil(start))
	assert.True(t, start.Before(end))
	assert.True(t, end.After(start))
	assert.Equal(t, NewDate(2023, time.January, 1), BaselineDate(2023))
}

func TestDateOf_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	d := DateOf(time.Date(2024, 3, 1, 23, 30, 0, 0, loc))
	assert.Equal(t, NewDate(2024, time.March, 1), d)
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}
	b, err := json.Marshal(wrapper{D: NewDate(2024, time.March, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-01"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-12-31"}`), &w))
	assert.Equal(t, NewDate(2024, time.December, 31), w.D)

	require.Error(t, json.Unmarshal([]byte(`{"d":"2024-13-01"}`), &w))

	require.NoError(t, json.Unmarshal([]byte(`{"d":""}`), &w))
	assert.True(t, w.D.IsZero())
}

func TestDate_MapKey(t *testing.T) {
	parsed, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	m := map[Date]int{NewDate(2024, time.March, 1): 1}
	assert.Equal(t, 1, m[parsed])
	assert.Equal(t, 1, m[DateOf(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))])
}
