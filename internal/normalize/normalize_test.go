// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/textmodel"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

type stubSummarizer struct {
	calls []string
}

func (s *stubSummarizer) Summarize(_ context.Context, text, lang string) (string, error) {
	s.calls = append(s.calls, lang)
	return lang + "-summary:" + text, nil
}

type stubPages struct {
	page    Page
	err     error
	image   string
	fetched []string
}

func (s *stubPages) FetchArticle(_ context.Context, link string) (Page, error) {
	s.fetched = append(s.fetched, link)
	return s.page, s.err
}

func (s *stubPages) FetchImage(_ context.Context, _ string) (string, error) {
	if s.image == "" {
		return "", errors.New("no image")
	}
	return s.image, nil
}

func models(sum textmodel.Summarizer) textmodel.Models {
	m := textmodel.Local(3)
	if sum != nil {
		m.Summarizer = sum
	}
	return m
}

func strPtr(s string) *string { return &s }

func day(s string) *time.Time {
	t, _ := time.Parse(types.DateLayout, s)
	return &t
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-06-01", d.String())

	d, err = ParseDate("")
	assert.NoError(t, err)
	assert.Nil(t, d)

	for _, bad := range []string{"01/06/2024", "2024-13-01", "yesterday"} {
		d, err = ParseDate(bad)
		assert.Nil(t, d, bad)
		var mde *MalformedDateError
		assert.True(t, errors.As(err, &mde), bad)
	}
}

func TestNormalize_DateIsDateOrNull(t *testing.T) {
	n := New(models(nil), nil, Options{}, logging.Discard())
	q := types.SearchQuery{Language: types.LanguageEN}

	for _, tc := range []struct {
		published string
		want      string
	}{
		{"2024-06-01", `"2024-06-01"`},
		{"garbage", "null"},
		{"", "null"},
	} {
		a, keep, err := n.Normalize(context.Background(), types.RawArticle{Title: "t", Published: tc.published}, q)
		require.NoError(t, err)
		require.True(t, keep)

		data, err := json.Marshal(a)
		require.NoError(t, err)
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, tc.want, string(m["publication_date"]), tc.published)
	}
}

func TestNormalize_SinceIsExclusive(t *testing.T) {
	n := New(models(nil), nil, Options{}, logging.Discard())
	q := types.SearchQuery{Language: types.LanguageEN, Since: day("2024-01-01")}
	ctx := context.Background()

	_, keep, err := n.Normalize(ctx, types.RawArticle{Title: "on", Published: "2024-01-01"}, q)
	require.NoError(t, err)
	assert.False(t, keep, "an article dated exactly since is dropped")

	_, keep, _ = n.Normalize(ctx, types.RawArticle{Title: "before", Published: "2023-12-31"}, q)
	assert.False(t, keep)

	_, keep, _ = n.Normalize(ctx, types.RawArticle{Title: "after", Published: "2024-01-02"}, q)
	assert.True(t, keep)

	_, keep, _ = n.Normalize(ctx, types.RawArticle{Title: "undated"}, q)
	assert.True(t, keep, "undated articles are kept")
}

func TestNormalize_SummaryFallback(t *testing.T) {
	sum := &stubSummarizer{}
	n := New(models(sum), nil, Options{}, logging.Discard())
	ctx := context.Background()

	a, _, err := n.Normalize(ctx, types.RawArticle{Title: "t", Text: "body", Summary: strPtr("provided")},
		types.SearchQuery{Language: types.LanguageEN})
	require.NoError(t, err)
	assert.Equal(t, "provided", a.Summary)
	assert.Empty(t, sum.calls)

	a, _, _ = n.Normalize(ctx, types.RawArticle{Title: "t", Text: "body", Summary: strPtr("  ")},
		types.SearchQuery{Language: types.LanguageZHTW})
	assert.Equal(t, "zh-summary:body", a.Summary)

	a, _, _ = n.Normalize(ctx, types.RawArticle{Title: "t", Text: "body"},
		types.SearchQuery{Language: types.LanguageEN})
	assert.Equal(t, "en-summary:body", a.Summary)
	assert.Equal(t, []string{"zh", "en"}, sum.calls)
}

func TestNormalize_BotChallengeRescrape(t *testing.T) {
	pages := &stubPages{page: Page{Title: "Real Headline", Text: "Real body with strong growth."}}
	sum := &stubSummarizer{}
	n := New(models(sum), pages, Options{}, logging.Discard())

	raw := types.RawArticle{
		Title:   DefaultBotSentinel,
		URL:     "https://www.bloomberg.com/news/x",
		Text:    "Please verify you are human",
		Summary: strPtr("captcha"),
	}
	a, keep, err := n.Normalize(context.Background(), raw, types.SearchQuery{Language: types.LanguageEN})
	require.NoError(t, err)
	require.True(t, keep)

	assert.Equal(t, []string{raw.URL}, pages.fetched)
	assert.Equal(t, "Real Headline", a.Title)
	assert.Equal(t, "Real body with strong growth.", a.Content)
	assert.Equal(t, "en-summary:Real body with strong growth.", a.Summary, "summary is recomputed from the page")
	assert.Greater(t, a.Sentiment, 0.0)
}

func TestNormalize_BotChallengeRescrapeFailureKeepsProviderFields(t *testing.T) {
	pages := &stubPages{err: errors.New("403")}
	n := New(models(nil), pages, Options{Sentinels: []string{"Access denied"}}, logging.Discard())

	raw := types.RawArticle{Title: "Access denied", URL: "u", Text: "txt", Summary: strPtr("s")}
	a, keep, err := n.Normalize(context.Background(), raw, types.SearchQuery{})
	require.NoError(t, err)
	require.True(t, keep)
	assert.Equal(t, "Access denied", a.Title)
	assert.Equal(t, "s", a.Summary)
}

func TestNormalize_Image(t *testing.T) {
	pages := &stubPages{image: "https://cdn.example.com/lead.jpg"}
	n := New(models(nil), pages, Options{FetchImages: true}, logging.Discard())

	a, _, err := n.Normalize(context.Background(), types.RawArticle{Title: "t", URL: "u"}, types.SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/lead.jpg", a.Image)

	pages.image = ""
	a, _, err = n.Normalize(context.Background(), types.RawArticle{Title: "t", URL: "u"}, types.SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, a.Image, "image lookup failures are not fatal")
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(models(nil), nil, Options{}, logging.Discard())
	raw := types.RawArticle{
		Title:     "Acme shares surge",
		URL:       "https://example.com/a",
		Text:      "Acme shares surge after strong results. Analysts upgrade the stock. Some concern remains.",
		Published: "2024-06-01",
		Source:    "Reuters",
	}
	q := types.SearchQuery{Language: types.LanguageEN}

	a, _, err := n.Normalize(context.Background(), raw, q)
	require.NoError(t, err)
	b, _, err := n.Normalize(context.Background(), raw, q)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizeResponse_PicksLanguageBucket(t *testing.T) {
	n := New(models(nil), nil, Options{}, logging.Discard())
	resp := &types.SearchResponse{Data: &types.SearchData{
		Status: types.StatusCompleted,
		ResultEN: []types.ResultGroup{{Articles: []types.ArticleEnvelope{
			{Article: &types.RawArticle{Title: "en-1", Published: "2024-06-02"}},
			{Article: &types.RawArticle{Title: "en-old", Published: "2023-01-01"}},
			{Article: nil},
		}}},
		ResultZH: []types.ResultGroup{{Articles: []types.ArticleEnvelope{
			{Article: &types.RawArticle{Title: "zh-1"}},
		}}},
	}}

	got, dropped := n.NormalizeResponse(context.Background(), resp, types.SearchQuery{Language: types.LanguageEN, Since: day("2024-01-01")})
	require.Len(t, got, 1)
	assert.Equal(t, "en-1", got[0].Title)
	assert.Equal(t, 1, dropped)

	got, _ = n.NormalizeResponse(context.Background(), resp, types.SearchQuery{Language: types.LanguageZHCN})
	require.Len(t, got, 1)
	assert.Equal(t, "zh-1", got[0].Title)

	got, _ = n.NormalizeResponse(context.Background(), nil, types.SearchQuery{})
	assert.Empty(t, got)
}

func TestNormalizeResponse_MergesSameTitle(t *testing.T) {
	n := New(models(nil), nil, Options{}, logging.Discard())
	resp := &types.SearchResponse{Data: &types.SearchData{
		Status: types.StatusCompleted,
		ResultEN: []types.ResultGroup{
			{Articles: []types.ArticleEnvelope{
				{Article: &types.RawArticle{Title: "Same", URL: "https://a.example/1", Published: "2024-06-02"}},
				{Article: &types.RawArticle{Title: "Other", URL: "https://a.example/2"}},
			}},
			{Articles: []types.ArticleEnvelope{
				{Article: &types.RawArticle{Title: "Same", URL: "https://b.example/1", Published: "2024-06-03"}},
			}},
		},
	}}

	got, dropped := n.NormalizeResponse(context.Background(), resp, types.SearchQuery{Language: types.LanguageEN})
	assert.Zero(t, dropped)
	require.Len(t, got, 2)
	assert.Equal(t, "Same", got[0].Title)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "https://a.example/1", got[0].Link, "first occurrence is kept")
	assert.Equal(t, "Other", got[1].Title)
	assert.Equal(t, 1, got[1].Count)
}
