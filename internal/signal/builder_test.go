package signal

import (
	"alertflow/internal/model"
	"alertflow/internal/strategy"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strategyID = "3f1c2a4e-6b7d-4c8e-9f10-1a2b3c4d5e6f"

func testAlert(id string) model.RawAlert {
	barTime := time.Date(2023, 9, 14, 15, 55, 0, 0, time.UTC)
	return model.RawAlert{
		StrategyID: id,
		Ticker:     "AAPL",
		Timeframe:  "5m",
		Exchange:   "NASDAQ",
		AlertType:  model.AlertLong,
		Bar: model.BarData{
			Time:   barTime,
			Open:   decimal.RequireFromString("176.55"),
			High:   decimal.RequireFromString("176.58"),
			Low:    decimal.RequireFromString("176.20"),
			Close:  decimal.RequireFromString("176.40"),
			Volume: decimal.RequireFromString("113.629"),
		},
		Time: barTime.Add(5 * time.Minute),
	}
}

func testRegistry(t *testing.T, strategies ...model.Strategy) *strategy.Registry {
	t.Helper()
	r, err := strategy.NewRegistry(strategies...)
	require.NoError(t, err)
	return r
}

func TestBuild(t *testing.T) {
	s := model.Strategy{ID: strategyID, Name: "aapl", Enabled: true, Broker: model.BrokerAlpaca, MaxRetries: 1, RetryDelay: 0.01}
	raw := testAlert(strategyID)

	sig, err := Build(raw, testRegistry(t, s))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", sig.Ticker)
	assert.Equal(t, "5m", sig.Timeframe)
	assert.Equal(t, "NASDAQ", sig.Exchange)
	assert.Equal(t, model.AlertLong, sig.AlertType)
	assert.Equal(t, raw.Time, sig.FireTime)
	assert.Equal(t, s, sig.Strategy)
	assert.True(t, raw.Bar.Open.Equal(sig.Bar.Open))
	assert.True(t, raw.Bar.High.Equal(sig.Bar.High))
	assert.True(t, raw.Bar.Low.Equal(sig.Bar.Low))
	assert.True(t, raw.Bar.Close.Equal(sig.Bar.Close))
	assert.True(t, raw.Bar.Volume.Equal(sig.Bar.Volume))
	assert.Equal(t, "113.629", sig.Bar.Volume.String())
}

func TestBuild_UnknownStrategy(t *testing.T) {
	r := testRegistry(t, model.Strategy{ID: strategyID, Name: "aapl", Enabled: true})

	for _, id := range []string{"", "nope", "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"} {
		_, err := Build(testAlert(id), r)

		var unknown *UnknownStrategyError
		require.True(t, errors.As(err, &unknown), "id %q", id)
		assert.Equal(t, id, unknown.ID)
		assert.Equal(t, fmt.Sprintf("Unknown strategy - %s", id), err.Error())
		assert.True(t, IsValidationError(err))
	}
}

func TestBuild_StrategyDisabled(t *testing.T) {
	r := testRegistry(t, model.Strategy{ID: strategyID, Name: "aapl", Enabled: false})

	_, err := Build(testAlert(strategyID), r)

	var disabled *StrategyDisabledError
	require.True(t, errors.As(err, &disabled))
	assert.Equal(t, "aapl", disabled.Name)
	assert.Equal(t, strategyID, disabled.ID)
	assert.Equal(t, "Strategy aapl with id "+strategyID+" is disabled", err.Error())
	assert.True(t, IsValidationError(err))
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(errors.New("boom")))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", &UnknownStrategyError{ID: "x"})))
}

func TestRawAlert_Decode(t *testing.T) {
	body := `{
		"webhook_key": "` + strategyID + `",
		"time": "2023-09-14T16:00:00Z",
		"exchange": "NASDAQ",
		"ticker": "AAPL",
		"timeframe": "5m",
		"type": "stop_loss",
		"bar": {"time": "2023-09-14T15:55:00Z", "open": "176.55", "high": 176.58, "low": "176.20", "close": "176.40", "volume": "113.629"}
	}`
	var raw model.RawAlert
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	assert.Equal(t, strategyID, raw.StrategyID)
	assert.Equal(t, model.AlertStopLoss, raw.AlertType)
	assert.Equal(t, "176.58", raw.Bar.High.String())
	assert.Equal(t, "176.2", raw.Bar.Low.String())

	var other model.RawAlert
	require.NoError(t, json.Unmarshal([]byte(`{"type":"take_profit"}`), &other))
	assert.Equal(t, model.AlertUnknown, other.AlertType)
}
