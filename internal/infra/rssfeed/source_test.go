package rssfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"postlabor-feed/internal/resilience/retry"
	"postlabor-feed/internal/usecase/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Post-Labor Research Log</title>
  <link>https://example.org</link>
  <image><url>https://example.org/logo.png</url><title>logo</title><link>https://example.org</link></image>
  <item>
    <title>UBI pilot results</title>
    <link>https://example.org/ubi</link>
    <guid>ubi-2025-01</guid>
    <pubDate>Fri, 03 Jan 2025 10:15:00 GMT</pubDate>
    <description><![CDATA[<p>Monthly <b>cash</b> transfers.</p><img src="https://example.org/ubi.png"><script>alert(1)</script>]]></description>
  </item>
  <item>
    <title>Robots and wages</title>
    <link>https://example.org/robots</link>
    <pubDate>Thu, 02 Jan 2025 09:00:00 GMT</pubDate>
    <description>Plain text body.</description>
    <enclosure url="https://example.org/robot.jpg" type="image/jpeg" length="100"/>
  </item>
  <item>
    <title>Third entry</title>
    <link>https://example.org/third</link>
    <description>No image here.</description>
  </item>
</channel>
</rss>`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewSource(srv.Client(), srv.URL+"/feed.xml?lang=en")
	require.NoError(t, err)
	s.retryConfig = retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return s
}

func TestNewSource_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.org/feed", "not a url"} {
		_, err := NewSource(nil, raw)
		assert.Error(t, err, raw)
	}
}

func TestSource_Fetch(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	})

	items, err := s.Fetch(context.Background(), feed.Query{Limit: 6})
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, StableID("ubi-2025-01"), first.ID)
	assert.Equal(t, "UBI pilot results", first.Title)
	assert.Equal(t, "Monthly cash transfers.", first.Summary)
	assert.Equal(t, "https://example.org/ubi.png", first.ImageURL)
	require.Len(t, first.Sources, 1)
	assert.Equal(t, "https://example.org/ubi", first.Sources[0].URL)
	assert.Equal(t, "2025-01-03", first.Sources[0].Date)
	assert.Equal(t, time.Date(2025, 1, 3, 10, 15, 0, 0, time.UTC), first.CreatedAt.UTC())

	second := items[1]
	assert.Equal(t, StableID("https://example.org/robots"), second.ID, "link is the fallback key")
	assert.Equal(t, "https://example.org/robot.jpg", second.ImageURL)

	third := items[2]
	assert.Equal(t, "https://example.org/logo.png", third.ImageURL, "feed image is the last resort")
	assert.True(t, third.CreatedAt.IsZero())
}

func TestSource_FetchLimitAndArchive(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	})

	items, err := s.Fetch(context.Background(), feed.Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = s.Fetch(context.Background(), feed.Query{Limit: 1, Archive: true})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestSource_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleRSS))
	})

	items, err := s.Fetch(context.Background(), feed.Query{Limit: 6})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSource_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.Fetch(context.Background(), feed.Query{Limit: 6})
	require.Error(t, err)
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSource_MalformedFeed(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	})

	_, err := s.Fetch(context.Background(), feed.Query{Limit: 6})
	assert.Error(t, err)
}

func TestStableID(t *testing.T) {
	a := StableID("https://example.org/a")
	assert.Equal(t, a, StableID("https://example.org/a"))
	assert.NotEqual(t, a, StableID("https://example.org/b"))
	assert.Positive(t, a)
	assert.Positive(t, StableID(""))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain   text\n here", "plain text here"},
		{"<p>Hello <em>world</em></p><style>p{}</style>", "Hello world"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	long := strings.Repeat("ä", 700)
	got := Truncate(long, MaxSummaryRunes)
	assert.Equal(t, MaxSummaryRunes, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
