package actionlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionrecorder/backend/internal/models"
)

var sample = []models.Action{
	{Type: models.ActionNavigate, URL: "https://shop.test/", Timestamp: 1700000000000},
	{Type: models.ActionClick, Selector: "#buy", TagName: "BUTTON", Text: "Buy", URL: "https://shop.test/", Timestamp: 1700000001000},
	{Type: models.ActionInput, Selector: `[name="q"]`, Value: "shoes", TagName: "INPUT", InputType: "text", Timestamp: 1700000002000},
	{Type: models.ActionChange, Selector: "//div[1]/select[1]", Value: "red", TagName: "SELECT", Timestamp: 1700000003000},
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	require.NoError(t, Save(path, sample))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, Save(path, sample))
	require.NoError(t, Save(path, nil))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty array", `[]`, false},
		{"valid", `[{"type":"navigate","url":"https://a.test/","timestamp":1}]`, false},
		{"click without selector", `[{"type":"click","timestamp":1}]`, false},
		{"not an array", `{"type":"navigate"}`, true},
		{"unknown type", `[{"type":"scroll","timestamp":1}]`, true},
		{"missing timestamp", `[{"type":"click","selector":"#a"}]`, true},
		{"navigate without url", `[{"type":"navigate","timestamp":1}]`, true},
		{"negative timestamp", `[{"type":"click","selector":"#a","timestamp":-5}]`, true},
		{"wrong field type", `[{"type":"input","selector":"#a","value":3,"timestamp":1}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmptyInput(t *testing.T) {
	assert.ErrorIs(t, Validate([]byte("  \n")), ErrEmptyInput)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"type":"hover","timestamp":1}]`), 0644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}
