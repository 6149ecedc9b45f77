package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Amount{
		"5.00":    500,
		"5":       500,
		"5.5":     550,
		"0.01":    1,
		".75":     75,
		"-3.50":   -350,
		" 12.34 ": 1234,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.234", "1.2.3", "-", "."} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}

func TestDivRoundsToPenny(t *testing.T) {
	assert.Equal(t, Amount(333), Amount(1000).Div(3))
	assert.Equal(t, Amount(167), Amount(500).Div(3))
	assert.Equal(t, Amount(500), Amount(500).Div(1))
	assert.Equal(t, Amount(-167), Amount(-500).Div(3))
	assert.Equal(t, Amount(0), Amount(500).Div(0))
}

func TestString(t *testing.T) {
	assert.Equal(t, "5.00", Amount(500).String())
	assert.Equal(t, "-0.05", Amount(-5).String())
	assert.Equal(t, "12.34", Amount(1234).String())
}

func TestAmountJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{Price: 350})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"3.50"}`, string(b))

	var in struct {
		Amount Amount `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"6.50"}`), &in))
	assert.Equal(t, Amount(650), in.Amount)
	require.NoError(t, json.Unmarshal([]byte(`{"amount":3}`), &in))
	assert.Equal(t, Amount(300), in.Amount)
	assert.Error(t, json.Unmarshal([]byte(`{"amount":"abc"}`), &in))
}
