package fetch

import (
	"context"
	"time"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is how long a fetched posting is reused
const DefaultCacheTTL = 6 * time.Hour

// CachedFetcher wraps a Fetcher with an in-process TTL cache keyed by URL.
// Failures are not cached.
type CachedFetcher struct {
	next  Fetcher
	cache *cache.Cache
}

// NewCachedFetcher creates a cached fetcher. A zero ttl uses DefaultCacheTTL.
func NewCachedFetcher(next Fetcher, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// FetchJob implements Fetcher
func (f *CachedFetcher) FetchJob(ctx context.Context, url string) (*types.JobPosting, error) {
	if cached, ok := f.cache.Get(url); ok {
		job := *cached.(*types.JobPosting)
		return &job, nil
	}

	job, err := f.next.FetchJob(ctx, url)
	if err != nil {
		return nil, err
	}
	stored := *job
	f.cache.SetDefault(url, &stored)
	return job, nil
}

// Invalidate drops a cached URL so the next call fetches it again
func (f *CachedFetcher) Invalidate(url string) {
	f.cache.Delete(url)
}

// Len returns the number of cached postings
func (f *CachedFetcher) Len() int {
	return f.cache.ItemCount()
}
