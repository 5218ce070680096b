package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("FILES_LOG", "-100500")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MONGO_DB_NAME", "")
	t.Setenv("SLEEP_TIME", "")
	t.Setenv("PROGRESS_THRESHOLD", "")
	t.Setenv("WEB_SERVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(-100500), cfg.FilesLogChatID)
	assert.Equal(t, "savebot", cfg.MongoDBName)
	assert.Equal(t, 60*time.Second, cfg.SleepTime)
	assert.Equal(t, int64(50_000_000), cfg.ProgressThreshold)
	assert.Equal(t, "0.0.0.0:8000", cfg.WebServerAddr)
	assert.False(t, cfg.WebServerEnabled)
	assert.False(t, cfg.NotionEnabled())
}

func TestLoadRequiredFields(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("FILES_LOG", "-100500")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("FILES_LOG", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_OWNER_IDS", "11, 22")
	t.Setenv("SLEEP_TIME", "5")
	t.Setenv("PROGRESS_THRESHOLD", "1000")
	t.Setenv("WEB_SERVER", "true")
	t.Setenv("WEB_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("NOTION_TOKEN", "ntn-token")
	t.Setenv("NOTION_PARENT_PAGE_ID", "root-page")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{11, 22}, cfg.BotOwnerIDs)
	assert.Equal(t, 5*time.Second, cfg.SleepTime)
	assert.Equal(t, int64(1000), cfg.ProgressThreshold)
	assert.True(t, cfg.WebServerEnabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.WebServerAddr)
	assert.True(t, cfg.NotionEnabled())

	assert.True(t, cfg.IsOwner(11))
	assert.True(t, cfg.IsOwner(22))
	assert.False(t, cfg.IsOwner(33))
}

func TestLoadInvalidValues(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("SLEEP_TIME", "abc")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SLEEP_TIME", "")
	t.Setenv("BOT_OWNER_IDS", "not-a-number")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("BOT_OWNER_IDS", "")
	t.Setenv("FILES_LOG", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}

func TestParseOwnerIDs(t *testing.T) {
	ids, err := parseOwnerIDs("1,2, 3 ,")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = parseOwnerIDs("1,x")
	assert.Error(t, err)
}
