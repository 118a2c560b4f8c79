package domainkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Domain
		wantErr bool
	}{
		{name: "bare host", raw: "example.com", want: Domain{Name: "example.com"}},
		{name: "host with port", raw: "example.com:8443", want: Domain{Name: "example.com", Port: 8443}},
		{name: "mixed case normalizes", raw: "Example.COM", want: Domain{Name: "example.com"}},
		{name: "wildcard", raw: "*", want: Domain{Name: Wildcard}},
		{name: "empty is invalid", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFromHostHeader(t *testing.T) {
	d, err := FromHostHeader("localhost:8080")
	require.NoError(t, err)
	require.Equal(t, Domain{Name: "localhost", Port: 8080}, d)

	d, err = FromHostHeader("localhost")
	require.NoError(t, err)
	require.Equal(t, Domain{Name: "localhost"}, d)
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "example.com", Domain{Name: "example.com"}.Display())
	require.Equal(t, "example.com:8080", Domain{Name: "example.com", Port: 8080}.Display())
}
