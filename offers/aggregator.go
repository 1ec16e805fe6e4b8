package offers

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/models"
)

// Aggregator fans a query out across marketplace sources under one deadline.
// It is best-effort by contract: source failures are logged and skipped, and
// once maxResults offers have arrived the remaining in-flight requests are
// cancelled.
type Aggregator struct {
	sources    []Source
	cache      *Cache
	timeout    time.Duration
	maxResults int
	logger     *zap.Logger
}

func NewAggregator(sources []Source, cache *Cache, timeout time.Duration, maxResults int, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		sources:    sources,
		cache:      cache,
		timeout:    timeout,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search returns up to maxResults external offers for query, cheapest first.
// The boolean reports whether the result came from cache.
func (a *Aggregator) Search(ctx context.Context, query string) ([]models.Offer, bool) {
	key := strings.ToLower(sanitizeQuery(query))
	if key == "" {
		return nil, false
	}
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached, true
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		source string
		offers []models.Offer
		err    error
	}
	results := make(chan result, len(a.sources))
	for _, src := range a.sources {
		go func(src Source) {
			offers, err := src.Search(ctx, query, a.maxResults)
			results <- result{source: src.Name(), offers: offers, err: err}
		}(src)
	}

	var collected []models.Offer
	for range a.sources {
		r := <-results
		if r.err != nil {
			// Timeouts and upstream hiccups are expected; the aggregate is
			// whatever arrived in time.
			a.logger.Debug("offers source failed", zap.String("source", r.source), zap.Error(r.err))
			continue
		}
		collected = append(collected, r.offers...)
		if len(collected) >= a.maxResults {
			cancel()
			break
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Price < collected[j].Price
	})
	if len(collected) > a.maxResults {
		collected = collected[:a.maxResults]
	}

	if a.cache != nil && len(collected) > 0 {
		a.cache.Put(key, collected)
	}
	return collected, false
}
