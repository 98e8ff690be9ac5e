package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest_go/internal/domain"
)

var (
	fxcm      = domain.NewVenue("FXCM")
	audusd    = domain.NewSymbol("AUD/USD", fxcm)
	barMinBid = domain.NewBarType(audusd, 1, domain.AggregationMinute, domain.PriceTypeBid)
)

func barWithClose(closePrice string, ts time.Time) domain.Bar {
	px := domain.NewPriceFromString(closePrice)
	return domain.NewBar(px, px, px, px, domain.NewQuantityFromInt(1000), ts)
}

func TestCreate_MissingNameIsConfigError(t *testing.T) {
	_, err := Create(ImportableConfig{})

	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCreate_UnknownNameIsConfigError(t *testing.T) {
	_, err := Create(ImportableConfig{Name: "does_not_exist"})

	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCreate_Noop(t *testing.T) {
	instance, err := Create(ImportableConfig{Name: "noop"})

	require.NoError(t, err)
	assert.Equal(t, "noop", instance.Name())
	assert.Nil(t, instance.OnQuoteTick(domain.QuoteTick{}))
}

func TestCreate_SMACrossFromParams(t *testing.T) {
	instance, err := Create(ImportableConfig{
		Name: "sma_cross",
		Params: map[string]any{
			"bar_type":    barMinBid.String(),
			"fast_period": 2,
			"slow_period": 3,
			"trade_size":  100_000,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "sma_cross", instance.Name())
}

func TestCreate_SMACrossRequiresBarType(t *testing.T) {
	_, err := Create(ImportableConfig{Name: "sma_cross"})

	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCreate_SMACrossRejectsInvertedPeriods(t *testing.T) {
	_, err := Create(ImportableConfig{
		Name: "sma_cross",
		Params: map[string]any{
			"bar_type":    barMinBid.String(),
			"fast_period": 20,
			"slow_period": 10,
		},
	})

	assert.Error(t, err)
}

func TestRegistered_ContainsBuiltins(t *testing.T) {
	names := Registered()

	assert.Contains(t, names, "noop")
	assert.Contains(t, names, "sma_cross")
}

func TestSMACross_GoldenCrossEmitsBuy(t *testing.T) {
	s, err := NewSMACross("test", barMinBid, 2, 3, domain.NewQuantityFromInt(100_000))
	require.NoError(t, err)

	ts := time.Unix(0, 0).UTC()
	closes := []string{"1.00000", "1.00000", "1.00000", "1.00000", "1.00100", "1.00300"}

	var intents []OrderIntent
	for i, c := range closes {
		intents = append(intents, s.OnBar(barMinBid, barWithClose(c, ts.Add(time.Duration(i)*time.Minute)))...)
	}

	require.NotEmpty(t, intents)
	assert.Equal(t, domain.SideBuy, intents[0].Side)
	assert.Equal(t, audusd, intents[0].Symbol)
	assert.Equal(t, domain.OrderMarket, intents[0].Type)
}

func TestSMACross_DeadCrossEmitsSell(t *testing.T) {
	s, err := NewSMACross("test", barMinBid, 2, 3, domain.NewQuantityFromInt(100_000))
	require.NoError(t, err)

	ts := time.Unix(0, 0).UTC()
	closes := []string{"1.00300", "1.00300", "1.00300", "1.00300", "1.00100", "0.99800"}

	var intents []OrderIntent
	for i, c := range closes {
		intents = append(intents, s.OnBar(barMinBid, barWithClose(c, ts.Add(time.Duration(i)*time.Minute)))...)
	}

	require.NotEmpty(t, intents)
	assert.Equal(t, domain.SideSell, intents[len(intents)-1].Side)
}

func TestSMACross_IgnoresOtherBarTypes(t *testing.T) {
	s, err := NewSMACross("test", barMinBid, 2, 3, domain.NewQuantityFromInt(100_000))
	require.NoError(t, err)

	other := domain.NewBarType(audusd, 1, domain.AggregationMinute, domain.PriceTypeAsk)
	for i := 0; i < 10; i++ {
		assert.Nil(t, s.OnBar(other, barWithClose("1.00000", time.Unix(int64(i), 0))))
	}
}

func TestSMACross_ResetClearsState(t *testing.T) {
	s, err := NewSMACross("test", barMinBid, 2, 3, domain.NewQuantityFromInt(100_000))
	require.NoError(t, err)

	ts := time.Unix(0, 0).UTC()
	for i := 0; i < 5; i++ {
		s.OnBar(barMinBid, barWithClose("1.00000", ts.Add(time.Duration(i)*time.Minute)))
	}

	s.Reset()

	// After reset the first bars prime the windows again without signals.
	intents := s.OnBar(barMinBid, barWithClose("2.00000", ts.Add(time.Hour)))
	assert.Empty(t, intents)
}
