package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestServerRejectsReservedPort(t *testing.T) {
	s := &Server{Host: net.IPv4(127, 0, 0, 1), Port: 80, Handler: http.NotFoundHandler()}
	err := s.Run(context.Background())
	require.ErrorIs(t, err, chimneyerr.ErrInvalidPortRange)
}

func TestServerServesAndShutsDownGracefully(t *testing.T) {
	port := freePort(t)
	handlerHit := make(chan struct{}, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerHit <- struct{}{}
		w.WriteHeader(http.StatusOK)
	})

	s := &Server{Host: net.IPv4(127, 0, 0, 1), Port: port, Handler: handler}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return s.State() == StateListening
	}, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(int(port)) + "/")
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case <-handlerHit:
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	require.Equal(t, StateClosed, s.State())
}
