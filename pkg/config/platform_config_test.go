package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/models"
)

const sampleConfig = `
platforms:
  google:
    client_id: google-id
    client_secret: ${TEST_GOOGLE_SECRET}
    redirect_url: https://app.example.com/auth/google/callback
    scopes:
      - https://www.googleapis.com/auth/adwords
  meta:
    client_id: fb-id
    client_secret: fb-secret
    redirect_url: https://app.example.com/auth/facebook/callback
  tiktok:
    disabled: true
`

func TestLoadPlatformConfig(t *testing.T) {
	t.Setenv("TEST_GOOGLE_SECRET", "from-env")

	path := filepath.Join(t.TempDir(), "platforms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	configs, err := LoadPlatformConfig(path)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	google := configs[models.PlatformGoogle]
	assert.Equal(t, "google-id", google.ClientID)
	assert.Equal(t, "from-env", google.ClientSecret)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/adwords"}, google.Scopes)

	assert.Equal(t, "fb-id", configs[models.PlatformFacebook].ClientID)
	assert.NotContains(t, configs, models.PlatformTikTok)
}

func TestLoadPlatformConfig_MissingFile(t *testing.T) {
	_, err := LoadPlatformConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParsePlatformConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown platform",
			yaml: "platforms:\n  myspace:\n    client_id: a\n    client_secret: b\n    redirect_url: https://x.example.com\n",
			want: "unsupported platform",
		},
		{
			name: "missing secret",
			yaml: "platforms:\n  linkedin:\n    client_id: a\n    redirect_url: https://x.example.com\n",
			want: "invalid configuration for platform linkedin",
		},
		{
			name: "empty",
			yaml: "platforms: {}\n",
			want: "no platforms configured",
		},
		{
			name: "malformed",
			yaml: "platforms: [",
			want: "failed to parse YAML config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlatformConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
