package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"

	"sessionrecorder/backend/internal/actionlog"
	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/pkg/database"
)

const page = `<html><head><title>Shop</title></head><body>
<div>
  <form>
    <input id="search" type="text">
    <input name="qty" type="number">
    <button class="btn primary">Buy</button>
    <button class="btn">Cancel</button>
    <span>a</span><span>b</span>
  </form>
</div>
</body></html>`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeLog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "session.json")
	require.NoError(t, actionlog.Save(path, []models.Action{
		{Type: models.ActionNavigate, URL: "https://shop.test/", Timestamp: 1},
		{Type: models.ActionClick, Selector: "#buy", TagName: "BUTTON", URL: "https://shop.test/cart", Timestamp: 2},
		{Type: models.ActionInput, Selector: `[name="q"]`, Value: "x", Timestamp: 3},
	}))
	return path
}

func TestResolvePage(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"#search", []string{"#search"}},
		{"input[type=number]", []string{`[name="qty"]`}},
		{"button", []string{".btn", ".btn"}},
		{"span", []string{"//div[1]/form[1]/span[1]", "//div[1]/form[1]/span[2]"}},
		{"body", []string{"//body"}},
		{"title", []string{"//html[1]/head[1]/title[1]"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := ResolvePage(strings.NewReader(page), tt.query)
			require.NoError(t, err)
			require.Len(t, results, len(tt.want))
			for i, r := range results {
				assert.Equal(t, tt.want[i], r.Locator)
			}
		})
	}
}

func TestResolvePageVerifies(t *testing.T) {
	results, err := ResolvePage(strings.NewReader(page), "span, #search, body, title")
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Found, r.Locator)
		assert.Equal(t, 1, r.Matches, r.Locator)
	}

	// both buttons share a class, so only the first is found by replay
	results, err = ResolvePage(strings.NewReader(page), "button")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Found)
	assert.False(t, results[1].Found)
	assert.Equal(t, 2, results[1].Matches)
}

func TestResolveCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0644))

	out, err := run(t, "resolve", path, "span")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ //div[1]/form[1]/span[2] (1 matches)")

	out, err = run(t, "resolve", path, "button")
	assert.Error(t, err)
	assert.Contains(t, out, "✗ .btn (2 matches)")

	_, err = run(t, "resolve", path, "table")
	assert.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	logPath := writeLog(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "generate", logPath, "--out", outDir, "--name", "checkout")
	require.NoError(t, err)
	assert.Contains(t, out, "checkout.py (3 steps, 0 skipped)")
	assert.Contains(t, out, "checkout.jmx (2 steps, 1 skipped)")

	script, err := os.ReadFile(filepath.Join(outDir, "checkout.py"))
	require.NoError(t, err)
	assert.Contains(t, string(script), `driver.get("https://shop.test/")`)

	plan, err := os.ReadFile(filepath.Join(outDir, "checkout.jmx"))
	require.NoError(t, err)
	assert.Contains(t, string(plan), `testname="Request 2"`)
}

func TestGenerateCommandFormats(t *testing.T) {
	dir := t.TempDir()
	logPath := writeLog(t, dir)

	_, err := run(t, "generate", logPath, "--out", dir, "--format", "JMeter")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "recorded_session.jmx"))
	assert.NoFileExists(t, filepath.Join(dir, "recorded_session.py"))

	_, err = run(t, "generate", logPath, "--out", dir, "--format", "cypress")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	logPath := writeLog(t, dir)

	out, err := run(t, "validate", logPath, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 3 actions")
	assert.Contains(t, out, "click")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"type":"scroll","timestamp":1}]`), 0644))
	out, err = run(t, "validate", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "✗ Action log is invalid")
}

func TestExportCommand(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "recorder.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", dbPath)

	db, err := database.Open(sqlite.Open(dbPath), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	store := database.NewRecordingStore(db)

	recorded := []models.Action{
		{Type: models.ActionNavigate, URL: "https://shop.test/", Timestamp: 1},
		{Type: models.ActionChange, Selector: "#size", Value: "L", TagName: "SELECT", Timestamp: 2},
	}
	require.NoError(t, store.CreateRecording(ctx, &models.Recording{SessionID: "done"}))
	require.NoError(t, store.SaveActions(ctx, "done", recorded))
	require.NoError(t, store.SetRecording(ctx, "live", true))

	logPath := filepath.Join(dir, "exported", "done.json")
	out, err := run(t, "export", "done", "--out", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 actions)")

	got, err := actionlog.Load(logPath)
	require.NoError(t, err)
	assert.Equal(t, recorded, got)

	// the exported file feeds straight into generate
	out, err = run(t, "generate", logPath, "--out", dir, "--format", "selenium")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded_session.py (1 steps, 1 skipped)")

	_, err = run(t, "export", "live", "--out", filepath.Join(dir, "live.json"))
	assert.ErrorContains(t, err, "still in progress")
	assert.NoFileExists(t, filepath.Join(dir, "live.json"))

	_, err = run(t, "export", "missing")
	assert.ErrorContains(t, err, "not found")
}
