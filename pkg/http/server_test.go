package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestServer_StartAndShutdown(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	srv := NewServer("127.0.0.1:0", NewRoutes("", &fakeAuth{}, logger), logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	srv.Addr = addr

	errorCh := make(chan error, 1)
	shutdown, err := srv.Start(errorCh)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/status")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	shutdown(context.Background())
	assert.Empty(t, errorCh)
}

func TestServer_StartFailsWhenAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	logger := zaptest.NewLogger(t).Sugar()
	srv := NewServer(ln.Addr().String(), NewRoutes("", &fakeAuth{}, logger), logger)

	_, err = srv.Start(make(chan error, 1))
	assert.Error(t, err)
}
