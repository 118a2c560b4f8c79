package mimetype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForPathKnownExtensions(t *testing.T) {
	require.Equal(t, "text/html; charset=utf-8", ForPath("/index.html", nil))
	require.Equal(t, "text/css; charset=utf-8", ForPath("/assets/style.CSS", nil))
	require.Equal(t, "image/svg+xml", ForPath("/logo.svg", nil))
}

func TestForPathUnknownExtensionSniffs(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")
	require.Equal(t, "image/png", ForPath("/weird.bin", png))
}

func TestForPathUnknownNoSniff(t *testing.T) {
	require.Equal(t, "application/octet-stream", ForPath("/weird.bin", nil))
}
