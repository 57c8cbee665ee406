package sensorpush

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AttachesBearerOutsideOAuthPaths(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	resp, err := client.Do(context.Background(), http.MethodPost, "/devices/sensors", "tok123", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestClient_NoBearerOnOAuthPaths(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.Do(context.Background(), http.MethodPost, "/oauth/authorize", "tok123", authorizeRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "oauth bootstrap must carry credentials in the body only")
}

func TestClient_NonOKStatusIsAResponseNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	resp, err := client.Do(context.Background(), http.MethodPost, "/devices/sensors", "tok", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.True(t, resp.IsAuthError())
	assert.False(t, resp.IsRateLimited())
	assert.JSONEq(t, `{"message":"forbidden"}`, string(resp.Body))
}

func TestClient_RateLimitedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	resp, err := client.Do(context.Background(), http.MethodPost, "/samples", "tok", samplesRequest{Limit: 1})
	require.NoError(t, err)
	assert.True(t, resp.IsRateLimited())
}

func TestClient_TimeoutIsDistinctErrorClass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond)

	resp, err := client.Do(context.Background(), http.MethodPost, "/devices/sensors", "tok", nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestResponse_Decode(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"authorization":"auth-1"}`)}

	var out authorizeResponse
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "auth-1", out.Authorization)

	resp.Body = []byte(`not json`)
	assert.Error(t, resp.Decode(&out))
}
