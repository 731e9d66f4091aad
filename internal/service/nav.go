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

// navStore is the slice of the repository the NAV service needs.
type navStore interface {
	GetLatestNAV(ctx context.Context, schemeCode string) (decimal.Decimal, time.Time, error)
	UpsertNAV(ctx context.Context, schemeCode string, nav decimal.Decimal, asOf time.Time) error
	ListSchemeCodes(ctx context.Context) ([]string, error)
}

type NavProvider interface {
	GetNAV(ctx context.Context, schemeCode string) (decimal.Decimal, time.Time, error)
	RefreshAll(ctx context.Context) error
	Start(ctx context.Context, interval time.Duration)
}

// NavService serves scheme NAVs from nav_history, refreshing stale entries
// from an mfapi-style endpoint.
type NavService struct {
	store    navStore
	log      *logrus.Logger
	baseURL  string
	client   *http.Client
	maxStale time.Duration
}

func NewNavService(store navStore, log *logrus.Logger, baseURL string) *NavService {
	return &NavService{
		store:    store,
		log:      log,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		maxStale: 12 * time.Hour,
	}
}

type navResponse struct {
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
}

func (s *NavService) GetNAV(ctx context.Context, schemeCode string) (decimal.Decimal, time.Time, error) {
	nav, asOf, err := s.store.GetLatestNAV(ctx, schemeCode)
	if err == nil && time.Since(asOf) < s.maxStale {
		return nav, asOf, nil
	}

	fetched, fetchedAt, ferr := s.fetch(ctx, schemeCode)
	if ferr != nil {
		// Fall back to whatever we have, stale or not.
		if err == nil {
			s.log.Warnf("nav fetch for %s failed, serving stored value: %v", schemeCode, ferr)
			return nav, asOf, nil
		}
		return decimal.Zero, time.Time{}, ferr
	}

	if err := s.store.UpsertNAV(ctx, schemeCode, fetched, fetchedAt); err != nil {
		s.log.Warnf("store nav for %s failed: %v", schemeCode, err)
	}
	return fetched, fetchedAt, nil
}

// fetch pulls the latest NAV, retrying rate-limited responses with a capped
// doubling backoff.
func (s *NavService) fetch(ctx context.Context, schemeCode string) (decimal.Decimal, time.Time, error) {
	url := fmt.Sprintf("%s/mf/%s/latest", s.baseURL, schemeCode)
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return decimal.Zero, time.Time{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return decimal.Zero, time.Time{}, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("nav provider rate limited")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return decimal.Zero, time.Time{}, fmt.Errorf("nav provider returned %d", resp.StatusCode)
		}

		var body navResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			return decimal.Zero, time.Time{}, err
		}
		if len(body.Data) == 0 {
			return decimal.Zero, time.Time{}, fmt.Errorf("no nav data for scheme %s", schemeCode)
		}

		nav, err := decimal.NewFromString(body.Data[0].NAV)
		if err != nil {
			return decimal.Zero, time.Time{}, fmt.Errorf("bad nav %q: %w", body.Data[0].NAV, err)
		}
		asOf, err := time.Parse("02-01-2006", body.Data[0].Date)
		if err != nil {
			asOf = time.Now().UTC()
		}
		return nav, asOf, nil
	}
	return decimal.Zero, time.Time{}, lastErr
}

// RefreshAll re-fetches every known scheme once.
func (s *NavService) RefreshAll(ctx context.Context) error {
	codes, err := s.store.ListSchemeCodes(ctx)
	if err != nil {
		return err
	}
	for _, code := range codes {
		nav, asOf, err := s.fetch(ctx, code)
		if err != nil {
			s.log.Warnf("refresh nav for %s failed: %v", code, err)
			continue
		}
		if err := s.store.UpsertNAV(ctx, code, nav, asOf); err != nil {
			s.log.Warnf("store nav for %s failed: %v", code, err)
		}
	}
	return nil
}

func (s *NavService) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("nav refresher stopping")
				return
			case <-ticker.C:
				if err := s.RefreshAll(ctx); err != nil {
					s.log.Warnf("nav refresh cycle failed: %v", err)
				}
			}
		}
	}()
}
