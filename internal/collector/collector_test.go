package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_brief/internal/config"
	"github.com/iWorld-y/news_brief/internal/logger"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.Timeout = 5
	cfg.FallbackImages = nil
	return cfg
}

func rssFeed(title string, n int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>` + title + `</title>
    <link>https://example.com</link>
    <description>Test</description>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, `
    <item>
      <title>Item %d</title>
      <link>https://example.com/item%d</link>
      <description><![CDATA[<p>Summary <b>%d</b></p><img src="https://example.com/img%d.jpg">]]></description>
    </item>`, i, i, i, i)
	}
	sb.WriteString(`
  </channel>
</rss>`)
	return sb.String()
}

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func deadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestCollect_LimitPerFeed(t *testing.T) {
	for total := 0; total <= 4; total++ {
		for _, limit := range []int{1, 2, 3} {
			t.Run(fmt.Sprintf("total=%d/limit=%d", total, limit), func(t *testing.T) {
				url := serve(t, rssFeed("Feed", total))
				items := New(testConfig()).Collect(context.Background(), []string{url}, limit)
				assert.Len(t, items, min(total, limit))
			})
		}
	}
}

func TestCollect_FailingFeedsAreSkipped(t *testing.T) {
	good := serve(t, rssFeed("Good Feed", 3))
	malformed := serve(t, "this is not xml at all")
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	feeds := []string{malformed, good, deadURL(), broken.URL}
	items := New(testConfig()).Collect(context.Background(), feeds, 2)

	require.Len(t, items, 2)
	for i, item := range items {
		assert.Equal(t, "Good Feed", item.Source)
		assert.Equal(t, fmt.Sprintf("Item %d", i+1), item.Title)
		assert.Equal(t, fmt.Sprintf("https://example.com/item%d", i+1), item.Link)
	}
}

func TestCollect_SummaryCountsParsedFeeds(t *testing.T) {
	var buf bytes.Buffer
	orig := logger.Log
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logger.CustomFormatter{})
	logger.Log = l
	t.Cleanup(func() { logger.Log = orig })

	feeds := []string{serve(t, rssFeed("Good Feed", 3)), deadURL(), serve(t, "not a feed")}
	items := New(testConfig()).Collect(context.Background(), feeds, 2)

	require.Len(t, items, 2)
	assert.Contains(t, buf.String(), "共抓取 2 条新闻，来自 1/3 个源")
}

func TestCollect_LogsThroughContextEntry(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logger.CustomFormatter{})
	ctx := logger.WithEntry(context.Background(), l.WithField("run_id", "run-42"))

	New(testConfig()).Collect(ctx, []string{serve(t, rssFeed("Feed", 1))}, 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, "run_id=run-42")
	}
}

func TestCollect_TransientErrorRetriedOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, rssFeed("Flaky", 1))
	}))
	t.Cleanup(srv.Close)

	items := New(testConfig()).Collect(context.Background(), []string{srv.URL}, 2)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, calls)
}

func TestCollect_NotFoundNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	items := New(testConfig()).Collect(context.Background(), []string{srv.URL}, 2)
	assert.Empty(t, items)
	assert.Equal(t, 1, calls)
}

func TestCollect_FeedOrderPreserved(t *testing.T) {
	a := serve(t, rssFeed("A", 2))
	b := serve(t, rssFeed("B", 2))

	items := New(testConfig()).Collect(context.Background(), []string{b, a, b}, 1)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"B", "A", "B"}, []string{items[0].Source, items[1].Source, items[2].Source})
}

func TestCollect_Normalization(t *testing.T) {
	url := serve(t, rssFeed("Feed", 1))
	items := New(testConfig()).Collect(context.Background(), []string{url}, 2)

	require.Len(t, items, 1)
	assert.Equal(t, "Summary 1", items[0].Summary)
	assert.Equal(t, "https://example.com/img1.jpg", items[0].ImageURL)
}

func TestCollect_UnknownSource(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel>
<item><title>Untitled feed item</title><link>https://example.com/x</link></item>
</channel></rss>`
	url := serve(t, body)

	items := New(testConfig()).Collect(context.Background(), []string{url}, 2)
	require.Len(t, items, 1)
	assert.Equal(t, unknownSource, items[0].Source)
}

func TestCollect_SummaryBudget(t *testing.T) {
	long := strings.Repeat("word ", 400)
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Long</title>
<item><title>t</title><link>https://example.com/t</link><description><![CDATA[<div><p>` + long + `<i>unclosed]]></description></item>
</channel></rss>`
	url := serve(t, body)

	cfg := testConfig()
	cfg.SummaryBudget = 250
	items := New(cfg).Collect(context.Background(), []string{url}, 2)

	require.Len(t, items, 1)
	assert.LessOrEqual(t, utf8.RuneCountInString(items[0].Summary), 250)
	assert.NotContains(t, items[0].Summary, "<")
}

func TestCollect_FallbackImage(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Plain</title>
<item><title>t</title><link>https://example.com/t</link><description>no image here</description></item>
</channel></rss>`
	url := serve(t, body)

	cfg := testConfig()
	cfg.FallbackImages = []string{"https://stock.example.com/1.jpg", "https://stock.example.com/2.jpg"}
	c := New(cfg, WithPicker(func(pool []string) string { return pool[len(pool)-1] }))

	items := c.Collect(context.Background(), []string{url}, 2)
	require.Len(t, items, 1)
	assert.Equal(t, "https://stock.example.com/2.jpg", items[0].ImageURL)
}

func TestCollect_NoFallbackPool(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Plain</title>
<item><title>t</title><link>https://example.com/t</link><description>no image here</description></item>
</channel></rss>`
	url := serve(t, body)

	items := New(testConfig()).Collect(context.Background(), []string{url}, 2)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].ImageURL)
}

func TestCollect_EnrichEmptySummary(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Bare</title>
<item><title>a</title><link>https://example.com/a</link></item>
<item><title>b</title><link>https://example.com/b</link></item>
</channel></rss>`
	url := serve(t, body)

	cfg := testConfig()
	cfg.EnrichEmptySummaries = true
	var fetched []string
	c := New(cfg, WithTextFetcher(func(_ context.Context, link string) (string, error) {
		fetched = append(fetched, link)
		if strings.HasSuffix(link, "/b") {
			return "", errors.New("blocked")
		}
		return "Full <b>article</b> text", nil
	}))

	items := c.Collect(context.Background(), []string{url}, 2)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, fetched)
	assert.Equal(t, "Full article text", items[0].Summary)
	assert.Empty(t, items[1].Summary)
}

func TestCollect_EnrichDisabled(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Bare</title>
<item><title>a</title><link>https://example.com/a</link></item>
</channel></rss>`
	url := serve(t, body)

	called := false
	c := New(testConfig(), WithTextFetcher(func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	}))

	items := c.Collect(context.Background(), []string{url}, 2)
	require.Len(t, items, 1)
	assert.False(t, called)
}
