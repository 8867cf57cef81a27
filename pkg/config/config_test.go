package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	dir, err := ioutil.TempDir("", "config")
	require.Nil(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "config.yaml")
	require.Nil(t, ioutil.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_Load_ShouldUseDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	os.Unsetenv("CONFIG_FILE")

	cfg, err := Load()
	require.Nil(t, err)
	require.Equal(t, ":8002", cfg.ServerAddress)
	require.Equal(t, "https://api.deezer.com", cfg.DeezerAPIURL)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestConfig_Load_ShouldFailIfExplicitFileIsMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(os.TempDir(), "does-not-exist.yaml"))

	_, err := Load()
	require.NotNil(t, err)
}

func TestConfig_Load_ShouldReadYamlFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
server_address: ":9000"
base_url: "https://widget.example.com"
request_timeout: 3s
log_level: debug
log_format: json
allowed_origins:
  - "https://chatgpt.com"
`))

	cfg, err := Load()
	require.Nil(t, err)
	require.Equal(t, ":9000", cfg.ServerAddress)
	require.Equal(t, "https://widget.example.com", cfg.BaseURL)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"https://chatgpt.com"}, cfg.AllowedOrigins)
	require.Equal(t, "https://www.deezer.com", cfg.WidgetDomain)
}

func TestConfig_Load_ShouldPreferEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `server_address: ":9000"`))
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("REQUEST_TIMEOUT", "1500ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.Nil(t, err)
	require.Equal(t, ":7000", cfg.ServerAddress)
	require.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestConfig_Load_ShouldRejectBadTimeout(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, ""))
	t.Setenv("REQUEST_TIMEOUT", "soon")

	_, err := Load()
	require.NotNil(t, err)
}

func TestConfig_Load_ShouldReadMCPSettings(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
mcp_instructions: "Find songs."
mcp_session_timeout: 5m
`))
	t.Setenv("MCP_STATELESS", "true")

	cfg, err := Load()
	require.Nil(t, err)
	require.Equal(t, "Find songs.", cfg.MCPInstructions)
	require.Equal(t, 5*time.Minute, cfg.MCPSessionTimeout)
	require.True(t, cfg.MCPStateless)
}

func TestConfig_Load_ShouldRejectBadStatelessFlag(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, ""))
	t.Setenv("MCP_STATELESS", "sometimes")

	_, err := Load()
	require.NotNil(t, err)
}

func TestConfig_Parse_ShouldRejectMalformedYaml(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Parse([]byte("server_address: [")))
}

func TestConfig_Validate(t *testing.T) {
	require.Nil(t, Default().Validate())

	cfg := Default()
	cfg.ServerAddress = ""
	require.NotNil(t, cfg.Validate())

	cfg = Default()
	cfg.DeezerAPIURL = "not a url"
	require.NotNil(t, cfg.Validate())

	cfg = Default()
	cfg.RequestTimeout = 0
	require.NotNil(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "loud"
	require.NotNil(t, cfg.Validate())

	cfg = Default()
	cfg.LogFormat = "xml"
	require.NotNil(t, cfg.Validate())

	cfg = Default()
	cfg.AllowedOrigins = nil
	require.NotNil(t, cfg.Validate())

	cfg = Default()
	cfg.MCPSessionTimeout = -time.Second
	require.NotNil(t, cfg.Validate())
}

func TestConfig_ConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	cfg.ConfigureLogging()

	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	require.True(t, ok)
}
