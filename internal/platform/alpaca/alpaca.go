package alpaca

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/market"
)

// AlpacaSource serves historical bars and latest quotes from the Alpaca
// market data API.
type AlpacaSource struct {
	log       *slog.Logger
	api       alpacaApi
	feed      marketdata.Feed
	timeFrame marketdata.TimeFrame
}

func NewAlpacaSource(log *slog.Logger, cfg config.Alpaca, creds config.Credentials) (*AlpacaSource, error) {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = creds.BaseURL
	}

	return newAlpacaSourceWithApi(log, cfg, newRestApi(creds.APIKey, creds.APISecret, baseUrl, cfg.DataUrl))
}

func newAlpacaSourceWithApi(log *slog.Logger, cfg config.Alpaca, api alpacaApi) (*AlpacaSource, error) {
	tf, err := parseTimeFrame(cfg.TimeFrame)
	if err != nil {
		return nil, fmt.Errorf("invalid alpaca timeframe: %w", err)
	}

	return &AlpacaSource{
		log:       log,
		api:       api,
		feed:      marketdata.Feed(cfg.Feed),
		timeFrame: tf,
	}, nil
}

func (s *AlpacaSource) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.api.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  s.timeFrame,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
		Feed:       s.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s bars: %w", symbol, err)
	}

	bars := make([]market.Bar, len(res))
	for i, b := range res {
		bars[i] = market.Bar{
			Timestamp: b.Timestamp.UnixNano(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		}
	}

	if err := market.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("alpaca returned invalid %s bars: %w", symbol, err)
	}

	s.log.Debug("bars fetched", slog.String("symbol", symbol), slog.Int("count", len(bars)), slog.Time("start", start), slog.Time("end", end))
	return bars, nil
}

func (s *AlpacaSource) GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error) {
	if err := ctx.Err(); err != nil {
		return market.Quote{}, err
	}

	q, err := s.api.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{Feed: s.feed})
	if err != nil {
		return market.Quote{}, fmt.Errorf("failed to get %s quote: %w", symbol, err)
	}
	if q == nil || q.BidPrice <= 0 || q.AskPrice <= 0 {
		return market.Quote{}, fmt.Errorf("%w for %s", market.ErrNoQuote, symbol)
	}

	return market.Quote{
		Symbol:   symbol,
		Time:     q.Timestamp,
		BidPrice: q.BidPrice,
		AskPrice: q.AskPrice,
	}, nil
}

// Ping verifies credentials and connectivity against the trading API.
func (s *AlpacaSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	acc, err := s.api.GetAccount()
	if err != nil {
		return fmt.Errorf("failed to get alpaca account: %w", err)
	}

	s.log.Info("connected to alpaca", slog.String("account", acc.AccountNumber), slog.String("status", acc.Status))
	return nil
}

// parseTimeFrame accepts Alpaca notation such as 1Min, 15Min, 1Hour, 1Day.
func parseTimeFrame(s string) (marketdata.TimeFrame, error) {
	if s == "" {
		return marketdata.OneDay, nil
	}

	units := []struct {
		suffix string
		unit   marketdata.TimeFrameUnit
	}{
		{"Min", marketdata.Min},
		{"Hour", marketdata.Hour},
		{"Day", marketdata.Day},
		{"Week", marketdata.Week},
		{"Month", marketdata.Month},
	}

	for _, u := range units {
		num, ok := strings.CutSuffix(s, u.suffix)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return marketdata.TimeFrame{}, fmt.Errorf("bad timeframe %q", s)
		}

		return marketdata.NewTimeFrame(n, u.unit), nil
	}

	return marketdata.TimeFrame{}, fmt.Errorf("unknown timeframe unit in %q", s)
}
