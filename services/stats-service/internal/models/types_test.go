package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ConsumerID
		wantErr bool
	}{
		{"number", `1034`, 1034, false},
		{"numeric string", `"1034"`, 1034, false},
		{"null", `null`, 0, false},
		{"garbage", `"abc"`, 0, true},
		{"float", `10.5`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ConsumerID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-01T10:15:00Z", time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"2024-03-01T12:15:00+02:00", time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"2024-03-01T10:15:00.123", time.Date(2024, 3, 1, 10, 15, 0, 123000000, time.UTC)},
		{"2024-03-01 10:15:00", time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}

	_, err := ParseTimestamp("01/03/2024")
	assert.Error(t, err)
}

func TestTimestamp_JSON(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T10:15:00"`), &ts))

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T10:15:00Z"`, string(out))

	var empty Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.IsZero())

	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`12345`), &ts))
}

func TestTimestamp_Within(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	assert.True(t, Timestamp{Time: from}.Within(from, to), "lower bound is inclusive")
	assert.True(t, Timestamp{Time: to}.Within(from, to), "upper bound is inclusive")
	assert.False(t, Timestamp{Time: to.Add(time.Second)}.Within(from, to))
	assert.False(t, Timestamp{}.Within(from, to), "zero timestamp never matches")
}

func TestDeposit_Unmarshal(t *testing.T) {
	payload := `[
		{"consumerID": 7, "depositAmount": 10.10, "brandID": 3, "consumerCurrencyID": 1, "timestamp": "2024-01-02T03:04:05"},
		{"consumerID": "8", "depositAmount": "0.30", "brandID": 3, "consumerCurrencyID": 2, "timestamp": "2024-01-02T03:04:06Z"}
	]`

	var deposits []Deposit
	require.NoError(t, json.Unmarshal([]byte(payload), &deposits))
	require.Len(t, deposits, 2)

	assert.Equal(t, ConsumerID(7), deposits[0].ConsumerID)
	assert.True(t, decimal.RequireFromString("10.10").Equal(deposits[0].DepositAmount))
	assert.Equal(t, ConsumerID(8), deposits[1].ConsumerID)
	assert.True(t, decimal.RequireFromString("0.3").Equal(deposits[1].DepositAmount))
	assert.Equal(t, int64(2), deposits[1].ConsumerCurrencyID)
}

func TestPlayer_RegisteredAt(t *testing.T) {
	var players []Player
	require.NoError(t, json.Unmarshal([]byte(`[
		{"consumerID": 1, "bTag": "a_1b_2", "registrationTimestamp": "2024-01-05T00:00:00Z"},
		{"consumerID": 2, "bTag": "a_1b_2", "registrationTimestamp": null}
	]`), &players))

	assert.False(t, players[0].RegisteredAt().IsZero())
	assert.True(t, players[1].RegisteredAt().IsZero())
}
