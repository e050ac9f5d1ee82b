package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngine_Render(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body><article>Acme Corp acquires Widget Co in an all-cash deal valued at fifty million dollars, the companies said on Tuesday. The acquisition expands Acme's industrial portfolio.</article></body></html>"))
	}))
	defer srv.Close()

	engine := NewHTTPEngine("test")
	page, err := engine.Render(context.Background(), srv.URL, Options{
		UserAgent: "TestAgent/1.0",
		Headers:   DefaultHeaders(),
	})
	require.NoError(t, err)
	assert.Equal(t, 200, page.StatusCode)
	assert.Contains(t, page.HTML, "Acme Corp acquires Widget Co")
	assert.Equal(t, "TestAgent/1.0", gotUA)
}

func TestHTTPEngine_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	engine := NewHTTPEngine("test")
	_, err := engine.Render(context.Background(), srv.URL, Options{})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestHTTPEngine_BlockPageDowngradedTo403(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Error 429: too many requests, slow down</body></html>"))
	}))
	defer srv.Close()

	engine := NewHTTPEngine("test")
	_, err := engine.Render(context.Background(), srv.URL, Options{})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		blocked bool
		kind    BlockType
	}{
		{
			name:    "clean page",
			status:  200,
			body:    strings.Repeat("<p>real article content about a merger</p>", 100),
			blocked: false,
		},
		{
			name:    "cloudflare 403",
			status:  403,
			headers: map[string]string{"cf-ray": "abc123"},
			body:    "denied",
			blocked: true,
			kind:    BlockCloudflare,
		},
		{
			name:    "rate limit page",
			status:  200,
			body:    "Error 429 too many requests",
			blocked: true,
			kind:    BlockRateLimit,
		},
		{
			name:    "captcha",
			status:  200,
			body:    "<div class=\"g-recaptcha\"></div>",
			blocked: true,
			kind:    BlockCaptcha,
		},
		{
			name:    "js shell",
			status:  200,
			body:    "<noscript>Please enable JavaScript</noscript>",
			blocked: true,
			kind:    BlockJSShell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}
			blocked, kind := DetectBlock(resp, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			if tt.blocked {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestRandomViewport_Bounds(t *testing.T) {
	for range 50 {
		v := RandomViewport()
		assert.GreaterOrEqual(t, v.Width, 1024)
		assert.LessOrEqual(t, v.Width, 1920)
		assert.GreaterOrEqual(t, v.Height, 768)
		assert.LessOrEqual(t, v.Height, 1080)
	}
}

func TestRandomUserAgent_WellFormed(t *testing.T) {
	for range 20 {
		ua := RandomUserAgent()
		assert.True(t, strings.HasPrefix(ua, "Mozilla/5.0 "))
		assert.Contains(t, ua, "Chrome/")
		assert.Contains(t, ua, "Safari/537.36")
	}
}

func TestPool_Pick(t *testing.T) {
	a := NewHTTPEngine("a")
	b := NewHTTPEngine("b")
	pool := NewPool(a, b)
	require.Equal(t, 2, pool.Size())

	seen := map[string]bool{}
	for range 100 {
		seen[pool.Pick().Name()] = true
	}
	assert.True(t, seen["a"])
	assert.True(t, seen["b"])
}
