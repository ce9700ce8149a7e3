package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	s := &Splog{writer: &bytes.Buffer{}}
	s.EnableDebugLog(dir, 1, 1, 1)

	s.Debug("transaction %q on %s", "push", "main")

	data, err := os.ReadFile(filepath.Join(dir, "stax", "debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `transaction \"push\" on main`)
	assert.Contains(t, string(data), "level=DEBUG")
}

func TestDebugDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	s := &Splog{writer: &buf}

	s.Debug("never seen %d", 1)

	assert.Empty(t, buf.String())
}

func TestQuietSuppressesInfoAndTips(t *testing.T) {
	var buf bytes.Buffer
	s := &Splog{writer: &buf}
	s.SetQuiet(true)

	s.Info("applied %s", "p1")
	s.Tip("run 'stax push'")

	assert.Empty(t, buf.String())

	s.Warn("patch %s is hidden", "p2")
	s.Error("no stack on branch %s", "main")
	assert.Contains(t, buf.String(), "warning: patch p2 is hidden")
	assert.Contains(t, buf.String(), "error: no stack on branch main")
}
