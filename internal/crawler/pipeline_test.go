package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/marketplace"
)

// memPersister collects snapshots in memory.
type memPersister struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	fail      error
}

func (p *memPersister) Persist(_ context.Context, s domain.Snapshot) error {
	if p.fail != nil {
		return p.fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
	return nil
}

func (p *memPersister) articleIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int64, 0, len(p.snapshots))
	for _, s := range p.snapshots {
		ids = append(ids, s.Article.ID)
	}
	return ids
}

// pipelineFetcher drives a small but complete crawl: every category holds the
// same two articles, so cross-category dedup is exercised too.
func pipelineFetcher() *fakeFetcher {
	f := &fakeFetcher{}
	f.maxPrice = func(string, string) (int64, error) { return 50000, nil }
	f.catalogPage = func(url string, page int) ([]marketplace.CatalogProduct, error) {
		if page == 1 && strings.Contains(url, "sort=popular") {
			return products(101, 102), nil
		}
		return nil, nil
	}
	f.cardDetails = func(ids string) ([]marketplace.Card, error) {
		var cards []marketplace.Card
		for _, raw := range strings.Split(ids, ";") {
			switch raw {
			case "101":
				cards = append(cards, validCard(101))
			case "102":
				cards = append(cards, validCard(102))
			}
		}
		return cards, nil
	}
	return f
}

func smallConfig() Config {
	return Config{Workers: 2, QueueSize: 2}
}

func TestPipeline_FullCrawl(t *testing.T) {
	persister := &memPersister{}
	p := NewPipeline(pipelineFetcher(), persister, smallConfig(), discardLogger())

	stats, err := p.Run(context.Background(), []domain.Category{testCategory()})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Categories)
	assert.Equal(t, int64(2), stats.Persisted)
	assert.ElementsMatch(t, []int64{101, 102}, persister.articleIDs())
	assert.False(t, stats.Started.IsZero())
}

func TestPipeline_SharedTimestamp(t *testing.T) {
	persister := &memPersister{}
	p := NewPipeline(pipelineFetcher(), persister, smallConfig(), discardLogger())

	stats, err := p.Run(context.Background(), []domain.Category{testCategory()})
	require.NoError(t, err)

	for _, s := range persister.snapshots {
		assert.Equal(t, stats.Started, s.History.Timestamp)
	}
}

func TestPipeline_DeduplicatesAcrossCategories(t *testing.T) {
	shard := "electronic"
	queryA, queryB := "cat=515", "cat=516"
	categories := []domain.Category{
		{ID: 1, Shard: &shard, Query: &queryA},
		{ID: 2, Shard: &shard, Query: &queryB},
	}

	persister := &memPersister{}
	p := NewPipeline(pipelineFetcher(), persister, smallConfig(), discardLogger())

	stats, err := p.Run(context.Background(), categories)
	require.NoError(t, err)

	// Both categories surface the same two articles; each is persisted once.
	assert.Equal(t, int64(2), stats.Persisted)
}

func TestPipeline_FetchErrorCancelsCrawl(t *testing.T) {
	fetcher := pipelineFetcher()
	fetcher.maxPrice = func(string, string) (int64, error) {
		return 0, marketplace.ErrUpstreamUnavailable
	}

	persister := &memPersister{}
	p := NewPipeline(fetcher, persister, smallConfig(), discardLogger())

	_, err := p.Run(context.Background(), []domain.Category{testCategory()})
	require.Error(t, err)
	assert.ErrorIs(t, err, marketplace.ErrUpstreamUnavailable)
	assert.Empty(t, persister.snapshots)
}

func TestPipeline_PersistErrorCancelsCrawl(t *testing.T) {
	persister := &memPersister{fail: errors.New("connection refused")}
	p := NewPipeline(pipelineFetcher(), persister, smallConfig(), discardLogger())

	_, err := p.Run(context.Background(), []domain.Category{testCategory()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCardFetcher_DropsEmptyBatches(t *testing.T) {
	fetcher := &fakeFetcher{
		cardDetails: func(ids string) ([]marketplace.Card, error) {
			if ids == "1" {
				return nil, nil
			}
			return []marketplace.Card{validCard(2)}, nil
		},
	}

	in := make(chan IDBatch, 2)
	in <- IDBatch{CategoryID: 1, IDs: "1"}
	in <- IDBatch{CategoryID: 1, IDs: "2"}
	close(in)
	out := make(chan CardBatch, 2)

	cf := NewCardFetcher(fetcher, in, out, discardLogger())
	require.NoError(t, cf.Run(context.Background()))
	close(out)

	var batches []CardBatch
	for b := range out {
		batches = append(batches, b)
	}
	require.Len(t, batches, 1)
	assert.Equal(t, int64(2), batches[0].Cards[0].ID)
}
