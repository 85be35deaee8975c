package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blazzica/marketplace-api/config"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         8081,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 7 * time.Second,
	}

	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, "127.0.0.1:8081", srv.Addr)
	assert.Equal(t, 3*time.Second, srv.ReadTimeout)
	assert.Equal(t, 3*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 7*time.Second, srv.WriteTimeout)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL is required")
}

func TestRun_InvalidLogLevel(t *testing.T) {
	t.Setenv("SUPABASE_URL", "http://127.0.0.1:54321")
	t.Setenv("SUPABASE_KEY", "anon-key")
	t.Setenv("LOG_LEVEL", "loud")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Setenv("SUPABASE_URL", "http://127.0.0.1:54321")
	t.Setenv("SUPABASE_KEY", "anon-key")
	t.Setenv("PORT", "0")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUDIT_ENABLED", "false")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
