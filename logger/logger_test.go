package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Writes JSON to daily file", func(t *testing.T) {
		dir := t.TempDir()
		log, flush, err := New(Options{Dir: dir, Level: "info"})
		require.NoError(t, err)

		log.Infow("inquiry delivered", "provider", "resend")
		flush()

		content, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"inquiry delivered"`)
		assert.Contains(t, string(content), `"provider":"resend"`)
	})

	t.Run("Level filters debug", func(t *testing.T) {
		dir := t.TempDir()
		log, flush, err := New(Options{Dir: dir, Level: "warn"})
		require.NoError(t, err)

		log.Infow("should not appear")
		log.Warnw("should appear")
		flush()

		content, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
		require.NoError(t, err)
		assert.NotContains(t, string(content), "should not appear")
		assert.Contains(t, string(content), "should appear")
	})

	t.Run("Invalid level", func(t *testing.T) {
		_, _, err := New(Options{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("Console only without dir", func(t *testing.T) {
		log, flush, err := New(Options{Level: "error"})
		require.NoError(t, err)
		assert.NotNil(t, log)
		flush()
	})
}
