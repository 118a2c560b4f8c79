package hostdetect

import (
	"net/http"
	"testing"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/config"
	"github.com/stretchr/testify/require"
)

func TestDetectAutoFirstHeaderWins(t *testing.T) {
	handle := config.NewHandle(config.Default())
	headers := http.Header{}
	headers.Set("Host", "example.com")
	headers.Set("X-Forwarded-Host", "other.example")

	res, err := Detect(handle, headers)
	require.NoError(t, err)
	require.Equal(t, "example.com", res.Host)
	require.Equal(t, "Host", res.HeaderName)
	require.True(t, res.IsAuto)
}

func TestDetectAutoCachesWinningHeader(t *testing.T) {
	handle := config.NewHandle(config.Default())
	headers := http.Header{}
	headers.Set("X-Real-Host", "cached.example")

	_, err := Detect(handle, headers)
	require.NoError(t, err)

	require.NotNil(t, handle.Load().ResolvedHostHeader)
	require.Equal(t, "X-Real-Host", *handle.Load().ResolvedHostHeader)
}

func TestDetectIdempotentAfterCache(t *testing.T) {
	handle := config.NewHandle(config.Default())
	headers := http.Header{}
	headers.Set("X-Real-Host", "cached.example")

	first, err := Detect(handle, headers)
	require.NoError(t, err)
	second, err := Detect(handle, headers)
	require.NoError(t, err)
	require.Equal(t, first.Host, second.Host)
	require.Equal(t, first.HeaderName, second.HeaderName)
}

func TestDetectFailsWithNoHeaders(t *testing.T) {
	handle := config.NewHandle(config.Default())
	_, err := Detect(handle, http.Header{})
	require.ErrorIs(t, err, chimneyerr.ErrHostDetectionFailed)
}

func TestDetectManualStrategyOnlyUsesConfiguredHeaders(t *testing.T) {
	cfg := config.Default()
	cfg.HostDetection = config.HostDetectionStrategy{Manual: true, Headers: []string{"X-Custom-Host"}}
	handle := config.NewHandle(cfg)

	headers := http.Header{}
	headers.Set("Host", "example.com")
	_, err := Detect(handle, headers)
	require.ErrorIs(t, err, chimneyerr.ErrHostDetectionFailed)

	headers.Set("X-Custom-Host", "custom.example")
	res, err := Detect(handle, headers)
	require.NoError(t, err)
	require.Equal(t, "custom.example", res.Host)
	require.False(t, res.IsAuto)
}
