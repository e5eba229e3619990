// Package price fetches current USD prices from a CoinGecko-style API and
// shields it behind a freshness-window cache.
package price

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Service serves prices from the cache where fresh and fetches the rest in one
// batched request. Fetch failures degrade to whatever the cache could serve.
type Service struct {
	apiURL string
	client *http.Client
	cache  *Cache
}

func NewService(apiURL string, timeout time.Duration, cache *Cache) *Service {
	return &Service{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
		cache:  cache,
	}
}

// GetPrices returns current USD prices for the given assets. Assets with no
// price available (cache miss plus fetch failure or absence from the response)
// are omitted from the result; a partial or empty map is the only failure signal.
func (s *Service) GetPrices(assets []string) map[string]float64 {
	result := make(map[string]float64, len(assets))
	var uncached []string

	for _, asset := range assets {
		if p, ok := s.cache.Get(asset); ok {
			result[asset] = p
		} else {
			uncached = append(uncached, asset)
		}
	}

	if len(uncached) == 0 {
		return result
	}

	fetched, err := s.fetch(uncached)
	if err != nil {
		log.Errorf("❌ price fetch failed for %d assets, serving %d cached: %v",
			len(uncached), len(result), err)
		return result
	}

	for _, asset := range uncached {
		p, ok := fetched[asset]
		if !ok {
			log.Warnf("⚠️ no price in response for asset: %s", asset)
			continue
		}
		s.cache.Put(asset, p)
		result[asset] = p
	}

	return result
}

// GetPrice returns the current USD price for a single asset.
func (s *Service) GetPrice(asset string) (float64, bool) {
	prices := s.GetPrices([]string{asset})
	p, ok := prices[asset]
	return p, ok
}

func (s *Service) fetch(assets []string) (map[string]float64, error) {
	u, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid price api url")
	}
	q := u.Query()
	q.Set("ids", strings.Join(assets, ","))
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	resp, err := s.client.Get(u.String())
	if err != nil {
		return nil, errors.Wrap(err, "price request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("price api returned status %d", resp.StatusCode)
	}

	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to parse price response")
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("price api payload: %s", spew.Sdump(payload))
	}

	prices := make(map[string]float64, len(payload))
	for asset, quote := range payload {
		prices[asset] = quote.USD
	}
	return prices, nil
}
