package hunter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		PerMinuteLimit: 500,
		PerSecondLimit: 15,
	})
}

func TestClient_Account(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"email": "ops@discfinder.example",
				"plan_name": "Starter",
				"requests": {
					"searches": {"used": 12, "available": 500},
					"verifications": {"used": 0, "available": 100}
				}
			}
		}`))
	})

	info, err := client.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Starter", info.Data.PlanName)
	assert.Equal(t, 12, info.Data.Requests.Searches.Used)
	assert.Equal(t, 500, info.Data.Requests.Searches.Available)
}

func TestClient_DomainSearch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain-search", r.URL.Path)
		assert.Equal(t, "disctraders.example", r.URL.Query().Get("domain"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"domain": "disctraders.example",
				"emails": [
					{"value": "info@disctraders.example", "type": "generic", "confidence": 92}
				]
			},
			"meta": {"results": 1}
		}`))
	})

	res, err := client.DomainSearch(context.Background(), "disctraders.example", 0)
	require.NoError(t, err)
	require.Len(t, res.Data.Emails, 1)
	assert.Equal(t, "info@disctraders.example", res.Data.Emails[0].Value)
	assert.Equal(t, 92, res.Data.Emails[0].Confidence)
	assert.Equal(t, 1, res.Meta.Results)
}

func TestClient_EmailFinder(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-finder", r.URL.Path)
		assert.Equal(t, "Jane", r.URL.Query().Get("first_name"))
		assert.Equal(t, "Doe", r.URL.Query().Get("last_name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"email": "jane.doe@disctraders.example", "score": 85}}`))
	})

	res, err := client.EmailFinder(context.Background(), "disctraders.example", "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@disctraders.example", res.Data.Email)
	assert.Equal(t, 85, res.Data.Score)
}

func TestClient_EmailCount(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-count", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"total": 7, "personal_emails": 2, "generic_emails": 5}}`))
	})

	res, err := client.EmailCount(context.Background(), "disctraders.example")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Data.Total)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "401 maps to unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "403 maps to rate limited", status: http.StatusForbidden, wantErr: ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := client.Account(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_UpstreamError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broke"))
	})

	_, err := client.Account(context.Background())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Contains(t, upstream.Body, "upstream broke")
}

func TestClient_Timeout(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	client.http.SetTimeout(50 * time.Millisecond)

	_, err := client.Account(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_CancelledContext(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Account(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrTimeout))
}
