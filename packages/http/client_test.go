package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/Time/current/zone", r.URL.Path)
		assert.Equal(t, "America/Bogota", r.URL.Query().Get("timeZone"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"timeZone": "America/Bogota", "year": 2026}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api/")
	req := NewRequest("GET", "Time/current/zone").
		Accept("application/json").
		SetQueryParam("timeZone", "America/Bogota")

	resp, err := client.Do(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, "200 OK", resp.Status())
	assert.True(t, resp.IsJSON())
	assert.Contains(t, resp.Text(), "America/Bogota")
	assert.Positive(t, resp.Duration())

	year, ok := resp.Field("year")
	require.True(t, ok)
	assert.Equal(t, json.Number("2026"), year)
}

func TestClient_PostJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"timeZone":"Europe/Amsterdam","timeSpan":"16:03:45:17"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	req := NewRequest("post", "/Calculation/current/increment").
		SetJSONBody(NewBody().Set("timeZone", "Europe/Amsterdam").Set("timeSpan", "16:03:45:17"))

	resp, err := client.Do(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode())
	assert.Contains(t, resp.Text(), "123")
}

func TestClient_ErrorStatusIsAResponse(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		}))

		resp, err := NewClient(server.URL).Do(context.Background(), NewRequest("GET", "missing"))
		server.Close()

		require.NoError(t, err)
		assert.Equal(t, code, resp.StatusCode())
		assert.Contains(t, resp.Text(), "nope")
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	resp, err := NewClient(url).Do(context.Background(), NewRequest("GET", "TimeZone/AvailableTimeZones"))

	require.Error(t, err)
	assert.Nil(t, resp)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "GET", connErr.Method)
	assert.Equal(t, url+"/TimeZone/AvailableTimeZones", connErr.URL)
	assert.False(t, connErr.Timeout())
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	_, err := client.Do(context.Background(), NewRequest("GET", "/"))

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.True(t, connErr.Timeout())
}

func TestClient_CancelledContext(t *testing.T) {
	arrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	_, err := NewClient(server.URL).Do(ctx, NewRequest("GET", "/"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var connErr *ConnectionError
	assert.False(t, errors.As(err, &connErr))
}

func TestClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("timeapi.io/api").Do(context.Background(), NewRequest("GET", "x"))

	require.Error(t, err)
	var connErr *ConnectionError
	assert.False(t, errors.As(err, &connErr))
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestClient_WithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "timecheck", r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.Header.Get("X-Trace"))
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL,
		WithDefaultHeader("Accept", "application/json"),
		WithDefaultHeaders(map[string]string{"User-Agent": "timecheck", "X-Trace": "1"}),
	)
	resp, err := client.Do(context.Background(), NewRequest("GET", "/").Accept("text/plain"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`final`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithFollowRedirects(true))
	resp, err := client.Do(context.Background(), NewRequest("GET", "redirect"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, "final", resp.Text())
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithFollowRedirects(false))
	resp, err := client.Do(context.Background(), NewRequest("GET", "redirect"))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode())
}

func TestClient_MaxRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithMaxRedirects(3))
	resp, err := client.Do(context.Background(), NewRequest("GET", "redirect"))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode())
	assert.LessOrEqual(t, redirectCount, 4)
}

func TestClient_RateLimitExcludedFromDuration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRateLimit(5))

	start := time.Now()
	_, err := client.Do(context.Background(), NewRequest("GET", "/"))
	require.NoError(t, err)
	second, err := client.Do(context.Background(), NewRequest("GET", "/"))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Less(t, second.Duration(), 150*time.Millisecond)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", WithRateLimit(0.01))
	_, _ = client.Do(context.Background(), NewRequest("GET", "/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Do(ctx, NewRequest("GET", "/"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://timeapi.io/api/",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "file scheme",
			url:     "file:///etc/passwd",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
