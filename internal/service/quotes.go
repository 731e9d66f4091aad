package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type quoteStore interface {
	GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	UpsertPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error
	GetAllSymbols(ctx context.Context) ([]string, error)
}

type PriceProvider interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	Start(ctx context.Context, interval time.Duration)
}

// QuoteService serves stock prices from price_history, refreshing entries
// older than the staleness window from an external quote endpoint.
type QuoteService struct {
	store    quoteStore
	log      *logrus.Logger
	baseURL  string
	client   *http.Client
	maxStale time.Duration
}

func NewQuoteService(store quoteStore, log *logrus.Logger, baseURL string) *QuoteService {
	return &QuoteService{
		store:    store,
		log:      log,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		maxStale: 15 * time.Minute,
	}
}

type quoteResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (s *QuoteService) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	price, ts, err := s.store.GetLatestPrice(ctx, symbol)
	if err == nil && time.Since(ts) < s.maxStale {
		return price, ts, nil
	}

	fetched, ferr := s.fetch(ctx, symbol)
	if ferr != nil {
		if err == nil {
			s.log.Warnf("quote fetch for %s failed, serving stored price: %v", symbol, ferr)
			return price, ts, nil
		}
		return decimal.Zero, time.Time{}, ferr
	}

	now := time.Now().UTC()
	if err := s.store.UpsertPrice(ctx, symbol, fetched, now); err != nil {
		s.log.Warnf("store price for %s failed: %v", symbol, err)
	}
	return fetched, now, nil
}

func (s *QuoteService) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/quote?symbol=%s", s.baseURL, symbol)
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return decimal.Zero, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("quote provider rate limited")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return decimal.Zero, fmt.Errorf("quote provider returned %d", resp.StatusCode)
		}

		var body quoteResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			return decimal.Zero, err
		}
		price, err := decimal.NewFromString(body.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bad price %q: %w", body.Price, err)
		}
		return price, nil
	}
	return decimal.Zero, lastErr
}

func (s *QuoteService) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("quote refresher stopping")
				return
			case <-ticker.C:
				symbols, err := s.store.GetAllSymbols(ctx)
				if err != nil {
					s.log.Warnf("list symbols failed: %v", err)
					continue
				}
				for _, sym := range symbols {
					price, err := s.fetch(ctx, sym)
					if err != nil {
						s.log.Warnf("refresh price for %s failed: %v", sym, err)
						continue
					}
					if err := s.store.UpsertPrice(ctx, sym, price, time.Now().UTC()); err != nil {
						s.log.Warnf("store price for %s failed: %v", sym, err)
					}
				}
			}
		}
	}()
}
