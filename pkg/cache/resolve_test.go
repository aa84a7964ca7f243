package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/models"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		source    string
		overrides models.OverrideConfig
		want      Identity
		wantErr   bool
	}{
		{
			name:   "URL path pattern",
			source: "https://fw-download.ubnt.com/data/unifi-firmware/firmware/UAL6/6.6.55.12345/UAL6.bin",
			want:   Identity{DeviceCode: "UAL6", Version: "6.6.55.12345"},
		},
		{
			name:   "filename signature plus version",
			source: "/tmp/downloads/BZ.qca956x.v6.6.55.bin",
			want:   Identity{DeviceCode: "BZ2", Version: "6.6.55"},
		},
		{
			name:   "USW signature",
			source: "US.bcm5334x_US24PRO_7.1.20+14456.bin",
			want:   Identity{DeviceCode: "US24PRO", Version: "7.1.20"},
		},
		{
			name:      "overrides beat the URL",
			source:    "https://dl.example.com/firmware/UAL6/6.6.55/fw.bin",
			overrides: models.OverrideConfig{DeviceCode: "U6LR", Version: "1.2.3"},
			want:      Identity{DeviceCode: "U6LR", Version: "1.2.3"},
		},
		{
			name:      "partial override keeps URL for the rest",
			source:    "https://dl.example.com/firmware/UAL6/6.6.55/fw.bin",
			overrides: models.OverrideConfig{DeviceCode: "U6LR"},
			want:      Identity{DeviceCode: "U6LR", Version: "6.6.55"},
		},
		{
			name:    "version without device code",
			source:  "firmware-6.6.55.bin",
			wantErr: true,
		},
		{
			name:    "device code without version",
			source:  "UAL6-latest.bin",
			wantErr: true,
		},
		{
			name:    "nothing to go on",
			source:  "update.bin",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.source, tt.overrides)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fwerrors.IsItem(err), "unresolved identity must be per-item, not fatal")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignaturePrecedence(t *testing.T) {
	t.Parallel()

	// more specific signatures fire before their prefixes
	id, err := Resolve("UAP6MP-fw-6.6.55.bin", models.OverrideConfig{})
	require.NoError(t, err)
	assert.Equal(t, "UAP6MP", id.DeviceCode)
}

func TestSourceFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		want   string
	}{
		{"https://dl.example.com/firmware/UAL6/6.6.55/fw.bin", "fw.bin"},
		{"https://dl.example.com/firmware/UAL6/6.6.55/fw.bin?token=abc", "fw.bin"},
		{"/var/tmp/fw.bin", "fw.bin"},
		{"fw.bin", "fw.bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceFilename(tt.source), tt.source)
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://dl.example.com/fw.bin"))
	assert.True(t, IsURL("http://dl.example.com/fw.bin"))
	assert.False(t, IsURL("/var/tmp/fw.bin"))
	assert.False(t, IsURL("ftp://dl.example.com/fw.bin"))
}
