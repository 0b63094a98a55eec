package feed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/tradesenseai/challenge-platform/internal/config"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_lastPriceURL = "/last-price"
)

// QuoteService serves last prices from an upstream quote feed. When no feed
// address is configured, or the upstream is unreachable, it degrades to a
// deterministic synthetic price so the simulated platform keeps trading.
type QuoteService struct {
	c   *resty.Client
	cfg config.FeedConfig

	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewQuoteService(cfg config.FeedConfig, logger logger.Logger) *QuoteService {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.Timeout)

	return &QuoteService{
		c:           client,
		cfg:         cfg,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute)),
		logger:      logger,
	}
}

func (s *QuoteService) LastPrice(ctx context.Context, symbol string) (float64, error) {
	if symbol == "" {
		return 0, fmt.Errorf("empty symbol")
	}

	if s.cfg.Address == "" {
		return s.syntheticPrice(symbol), nil
	}

	s.rateLimiter.Take()
	req := s.c.R().
		SetQueryParam("symbol", symbol).
		SetResult(&model.QuoteResponse{}).
		SetError(&model.QuoteErrorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_lastPriceURL)
	if err != nil {
		s.logger.Warnf("%s: quote feed unreachable, using synthetic price for %s", err, symbol)
		return s.syntheticPrice(symbol), nil
	}
	defer resp.Body.Close()

	s.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		response := resp.Error().(*model.QuoteErrorResponse)
		return 0, fmt.Errorf("%s: quote request error", response.Message)
	}
	if resp.IsSuccess() {
		quote := resp.Result().(*model.QuoteResponse)
		if quote.Price <= 0 {
			return 0, fmt.Errorf("non-positive price %f for %s", quote.Price, symbol)
		}
		return quote.Price, nil
	}

	return 0, fmt.Errorf("quote unexpected request error: %s", resp.Status())
}

// syntheticPrice derives a base price from the symbol name and walks it with
// a slow sine drift, so repeated quotes for one symbol move but stay close.
func (s *QuoteService) syntheticPrice(symbol string) float64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	base := 10 + float64(h.Sum64()%99000)/100 // 10.00 .. 999.99

	phase := float64(time.Now().Unix()%3600) / 3600 * 2 * math.Pi
	drift := 0.005 * math.Sin(phase)

	return base * (1 + drift)
}
