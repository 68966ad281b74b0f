package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMap(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	return parse(env.Options{Environment: vars})
}

func TestDefaults(t *testing.T) {
	cfg, err := parseMap(t, map[string]string{"BOT_TOKEN": "123:abc"})
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Empty(t, cfg.AdminIDs)
	assert.Equal(t, "Asia/Bangkok", cfg.Location.String())
	assert.Equal(t, "10:00", cfg.ReminderAt.String())
	assert.Equal(t, int64(0), cfg.DefaultTopicID)
	assert.Equal(t, "reports.db", cfg.DBPath)
	assert.Equal(t, 60, cfg.PollTimeout)
	assert.Equal(t, uint64(3), cfg.SendRetries)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestOverrides(t *testing.T) {
	cfg, err := parseMap(t, map[string]string{
		"BOT_TOKEN":             "t",
		"ADMIN_IDS":             "11,22,33",
		"TIMEZONE":              "Europe/Moscow",
		"DEFAULT_REMINDER_TIME": "9:05",
		"DEFAULT_TOPIC_ID":      "39824",
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{11, 22, 33}, cfg.AdminIDs)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.Equal(t, "09:05", cfg.ReminderAt.String())
	assert.Equal(t, int64(39824), cfg.DefaultTopicID)
}

func TestTokenFromSecretFile(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(secret, []byte("  from-file\n"), 0o600))

	cfg, err := parseMap(t, map[string]string{"BOT_TOKEN_FILE": secret})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.BotToken)
}

func TestInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"no token":       {"BOT_TOKEN_FILE": filepath.Join(t.TempDir(), "missing")},
		"bad timezone":   {"BOT_TOKEN": "t", "TIMEZONE": "Mars/Olympus"},
		"bad time":       {"BOT_TOKEN": "t", "DEFAULT_REMINDER_TIME": "25:99"},
		"bad admin ids":  {"BOT_TOKEN": "t", "ADMIN_IDS": "1,two"},
		"negative topic": {"BOT_TOKEN": "t", "DEFAULT_TOPIC_ID": "-1"},
		"zero rate":      {"BOT_TOKEN": "t", "SEND_RATE": "0"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseMap(t, vars)
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BOT_TOKEN=dotenv-token\nDEFAULT_REMINDER_TIME=07:45\n"), 0o600))
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DEFAULT_REMINDER_TIME", "")
	os.Unsetenv("BOT_TOKEN")
	os.Unsetenv("DEFAULT_REMINDER_TIME")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.BotToken)
	assert.Equal(t, "07:45", cfg.ReminderAt.String())
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.BotToken)
}

func TestLoadStoreNeedsNoToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DB_PATH", "/var/lib/reportbot/reports.db")

	st, err := LoadStore("")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/reportbot/reports.db", st.DBPath)
	assert.Equal(t, "info", st.LogLevel)
}
