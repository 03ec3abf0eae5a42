// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/normalize"
	"github.com/NotAlvin/Argus-Pub/internal/poll"
	"github.com/NotAlvin/Argus-Pub/internal/textmodel"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

type fakeResolver struct {
	fail map[string]error
}

func (f *fakeResolver) Resolve(_ context.Context, name string, _ types.EntityType) (string, error) {
	if err := f.fail[name]; err != nil {
		return "", err
	}
	return "id-" + name, nil
}

type fakePoller struct {
	panicOn  string
	timeout  string
	response *types.SearchResponse
}

func (f *fakePoller) Fetch(_ context.Context, id string) poll.Outcome {
	if id == "id-"+f.panicOn {
		panic("boom")
	}
	if id == "id-"+f.timeout {
		return poll.Outcome{ID: id, State: poll.TimedOut}
	}
	resp := f.response
	if resp == nil {
		resp = &types.SearchResponse{}
	}
	return poll.Outcome{ID: id, State: poll.Completed, Response: resp, Polls: 1}
}

// fakeNormalizer returns the same two articles for every entity.
type fakeNormalizer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNormalizer) NormalizeResponse(_ context.Context, _ *types.SearchResponse, _ types.SearchQuery) ([]types.NewsArticle, int) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return []types.NewsArticle{{Title: "a"}, {Title: "b"}}, 0
}

type recordingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *recordingClock) Now() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	return nil
}

// steppingClock advances its time by every sleep it is asked for.
type steppingClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newHarvester(r Resolver, p Poller, cfg types.HarvestConfig, clock poll.Clock) (*Harvester, *fakeNormalizer) {
	n := &fakeNormalizer{}
	return New(r, p, n, cfg, clock, logging.Discard()), n
}

func fiveEntities() types.SearchQuery {
	return types.SearchQuery{
		Names:     []string{"Alice Tan", "Bob Lee"},
		Companies: []string{"Acme", "Globex", "Initech"},
		Language:  types.LanguageEN,
	}
}

func TestHarvestIsolatesFailures(t *testing.T) {
	r := &fakeResolver{fail: map[string]error{"Globex": errors.New("provider down")}}
	h, _ := newHarvester(r, &fakePoller{}, types.HarvestConfig{Concurrency: 2}, &recordingClock{})

	res, err := h.Harvest(context.Background(), fiveEntities())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Completed, 5)
	require.Len(t, res.Failures, 1)
	assert.EqualError(t, res.Failures["Globex"], "provider down")
	assert.Nil(t, res.Articles["Globex"])
	for _, name := range []string{"Alice Tan", "Bob Lee", "Acme", "Initech"} {
		assert.Len(t, res.Articles[name], 2, name)
	}
}

func TestHarvestRejectsInvalidQuery(t *testing.T) {
	h, _ := newHarvester(&fakeResolver{}, &fakePoller{}, types.HarvestConfig{}, &recordingClock{})
	_, err := h.Harvest(context.Background(), types.SearchQuery{})
	assert.Error(t, err)
}

func TestHarvestRecoversPanics(t *testing.T) {
	h, _ := newHarvester(&fakeResolver{}, &fakePoller{panicOn: "Acme"}, types.HarvestConfig{}, &recordingClock{})

	res, err := h.Harvest(context.Background(), fiveEntities())
	require.NoError(t, err)
	require.Contains(t, res.Failures, "Acme")
	assert.Contains(t, res.Failures["Acme"].Error(), "panic: boom")
	assert.Len(t, res.Failures, 1)
}

func TestHarvestRecordsPollTimeouts(t *testing.T) {
	h, n := newHarvester(&fakeResolver{}, &fakePoller{timeout: "Bob Lee"}, types.HarvestConfig{}, &recordingClock{})

	res, err := h.Harvest(context.Background(), fiveEntities())
	require.NoError(t, err)
	require.Contains(t, res.Failures, "Bob Lee")
	assert.Contains(t, res.Failures["Bob Lee"].Error(), "TIMED_OUT")
	assert.Equal(t, 4, n.calls)
}

func sortedSleeps(sleeps []time.Duration) []time.Duration {
	out := append([]time.Duration(nil), sleeps...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestHarvestStaggersEveryEntity(t *testing.T) {
	clock := &recordingClock{}
	cfg := types.HarvestConfig{Concurrency: 3, Stagger: 100 * time.Millisecond}
	h, _ := newHarvester(&fakeResolver{}, &fakePoller{}, cfg, clock)

	_, err := h.Harvest(context.Background(), fiveEntities())
	require.NoError(t, err)

	ms := time.Millisecond
	assert.Equal(t, []time.Duration{100 * ms, 200 * ms, 300 * ms, 400 * ms}, sortedSleeps(clock.sleeps))
}

func TestHarvestStaggersBeyondFirstWave(t *testing.T) {
	names := []string{"e0", "e1", "e2", "e3", "e4", "e5", "e6", "e7"}
	fail := map[string]error{}
	for _, n := range names {
		fail[n] = errors.New("rejected")
	}
	clock := &recordingClock{}
	cfg := types.HarvestConfig{Concurrency: 4, Stagger: 100 * time.Millisecond}
	h, _ := newHarvester(&fakeResolver{fail: fail}, &fakePoller{}, cfg, clock)

	res, err := h.Harvest(context.Background(), types.SearchQuery{Names: names})
	require.NoError(t, err)
	assert.Len(t, res.Failures, 8)

	var want []time.Duration
	for i := 1; i < len(names); i++ {
		want = append(want, time.Duration(i)*100*time.Millisecond)
	}
	assert.Equal(t, want, sortedSleeps(clock.sleeps), "fast failures do not let later entities skip their slot")
}

func TestHarvestStaggerMeasuredFromRunStart(t *testing.T) {
	clock := &steppingClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	cfg := types.HarvestConfig{Concurrency: 1, Stagger: 100 * time.Millisecond}
	h, _ := newHarvester(&fakeResolver{}, &fakePoller{}, cfg, clock)

	_, err := h.Harvest(context.Background(), fiveEntities())
	require.NoError(t, err)

	ms := time.Millisecond
	assert.Equal(t, []time.Duration{100 * ms, 100 * ms, 100 * ms, 100 * ms}, clock.sleeps,
		"time already spent waiting counts toward each slot")
}

func TestHarvestMergesDuplicateTitlesPerEntity(t *testing.T) {
	resp := &types.SearchResponse{Data: &types.SearchData{
		Status: types.StatusCompleted,
		ResultEN: []types.ResultGroup{{Articles: []types.ArticleEnvelope{
			{Article: &types.RawArticle{Title: "Same", URL: "https://a.example/1", Published: "2024-06-01"}},
			{Article: &types.RawArticle{Title: "Same", URL: "https://b.example/2", Published: "2024-06-01"}},
		}}},
	}}
	norm := normalize.New(textmodel.Local(3), nil, normalize.Options{}, logging.Discard())
	h := New(&fakeResolver{}, &fakePoller{response: resp}, norm, types.HarvestConfig{}, &recordingClock{}, logging.Discard())

	res, err := h.Harvest(context.Background(), types.SearchQuery{Companies: []string{"Acme"}, Language: types.LanguageEN})
	require.NoError(t, err)
	require.Empty(t, res.Failures)

	got := res.Articles["Acme"]
	require.Len(t, got, 1)
	assert.Equal(t, "Same", got[0].Title)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "https://a.example/1", got[0].Link)
}

func TestHarvestEntityUnknown(t *testing.T) {
	h, n := newHarvester(&fakeResolver{}, &fakePoller{}, types.HarvestConfig{}, &recordingClock{})

	articles, err := h.HarvestEntity(context.Background(), "Nobody", fiveEntities())
	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.Empty(t, articles)
	assert.Zero(t, n.calls)
}

func TestHarvestEntityCancelled(t *testing.T) {
	h, _ := newHarvester(&fakeResolver{}, &fakePoller{}, types.HarvestConfig{}, &recordingClock{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.runEntity(ctx, "Acme", fiveEntities(), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHarvestWritesBatches(t *testing.T) {
	dir := t.TempDir()
	cfg := types.HarvestConfig{BatchDir: dir, BatchSize: 1}
	h, _ := newHarvester(&fakeResolver{}, &fakePoller{}, cfg, &recordingClock{})
	q := fiveEntities()

	_, err := h.Harvest(context.Background(), q)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "Acme_articles_batch_2.json"))
	require.NoError(t, err)

	got, err := ReadBatches(dir, q)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	require.Len(t, got["Acme"], 2)
	assert.Equal(t, "a", got["Acme"][0].Title)
	assert.Equal(t, "b", got["Acme"][1].Title)
}

func TestWriteBatchesSplitsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	articles := []types.NewsArticle{{Title: "x"}, {Title: "y"}, {Title: "x"}, {Title: "z"}}

	paths, err := WriteBatches(dir, "A/B Corp", articles, 2)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "A-B Corp_articles_batch_1.json", filepath.Base(paths[0]))

	first, err := ReadArticles(paths[0])
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 2, first[0].Count)

	second, err := ReadArticles(paths[1])
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "z", second[0].Title)
}

func TestReadBatchesOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	var articles []types.NewsArticle
	for _, title := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"} {
		articles = append(articles, types.NewsArticle{Title: title})
	}
	_, err := WriteBatches(dir, "Acme", articles, 1)
	require.NoError(t, err)

	got, err := ReadBatches(dir, types.SearchQuery{Companies: []string{"Acme", "Other"}})
	require.NoError(t, err)
	require.Len(t, got["Acme"], 11)
	assert.Equal(t, "10", got["Acme"][9].Title)
	assert.NotContains(t, got, "Other")
}

func TestWriteOutputCountsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "combined.json")
	articles := []types.NewsArticle{
		{Title: "Deal closes", Link: "https://a.example/1"},
		{Title: "Deal closes", Link: "https://b.example/1"},
		{Title: "Other <news>"},
	}

	require.NoError(t, WriteOutput(path, articles))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Other <news>")

	got, err := ReadArticles(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "https://a.example/1", got[0].Link)
	assert.Equal(t, 1, got[1].Count)
}

func TestWriteOutputSumsFetchCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.json")
	combined := Combine(map[string][]types.NewsArticle{
		"Acme":      {{Title: "Same", Count: 2}, {Title: "Only Acme", Count: 1}},
		"Alice Tan": {{Title: "Same", Count: 1}},
	}, []string{"Acme", "Alice Tan"})

	require.NoError(t, WriteOutput(path, combined))

	got, err := ReadArticles(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Same", got[0].Title)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, 1, got[1].Count)
}

func TestOutputName(t *testing.T) {
	q := types.SearchQuery{Names: []string{"Alice Tan"}, Companies: []string{"Acme"}}
	assert.Equal(t, "Alice Tan_Acme_articles_combined.json", OutputName(q))

	var many []string
	for range 40 {
		many = append(many, "Some Long Company Name")
	}
	assert.Equal(t, FallbackOutputName, OutputName(types.SearchQuery{Companies: many}))
}

func TestCombine(t *testing.T) {
	in := map[string][]types.NewsArticle{
		"a": {{Title: "1"}},
		"b": {{Title: "2"}, {Title: "3"}},
	}
	got := Combine(in, []string{"b", "a", "missing"})
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Title)
	assert.Equal(t, "1", got[2].Title)
}

func TestLoadQueriesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_cases.json")
	content := `{"names": ["Alice Tan"], "companies": [], "language": "EN", "since": "2024-01-15"}

{"names": [], "companies": ["Acme"], "since": "not a date"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	qs, err := LoadQueries(path)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	assert.Equal(t, types.LanguageEN, qs[0].Language)
	require.NotNil(t, qs[0].Since)
	assert.Equal(t, "2024-01-15", qs[0].Since.Format(types.DateLayout))

	assert.Equal(t, []string{"Acme"}, qs[1].Companies)
	assert.Equal(t, types.LanguageEN, qs[1].Language)
	assert.Nil(t, qs[1].Since)
}

func TestLoadQueriesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	content := `- names: ["Wang Wei"]
  language: zh-cn
- companies: ["Acme", "Globex"]
  since: "2024-03-01"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	qs, err := LoadQueries(path)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, types.LanguageZHCN, qs[0].Language)
	assert.Len(t, qs[1].Entities(), 2)
	require.NotNil(t, qs[1].Since)
}

func TestLoadQueriesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadQueries(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json}\n"), 0o644))
	_, err = LoadQueries(bad)
	assert.ErrorContains(t, err, "line 1")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"names": [], "companies": []}`+"\n"), 0o644))
	_, err = LoadQueries(empty)
	assert.ErrorContains(t, err, "no names or companies")
}
