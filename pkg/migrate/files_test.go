package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/internal/store/files"
)

const legacyUsersYAML = `- id: u1
  handle: alice
  ships:
  - name: GLADIUS
    quantity: 2
  - name: Totally Unknown Ship
  - name: 600
`

func TestRunAgainstFilesLeavesOtherValuesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(legacyUsersYAML), 0o644))

	backend, err := files.New(dir)
	require.NoError(t, err)

	first := runDefault(t, backend)
	users := first.Collection(store.Users)
	assert.Equal(t, Counters{Total: 1, Updated: 1}, users.Counters)
	require.Len(t, first.Mappings, 1)
	assert.Equal(t, gladiusID, first.Mappings[0].CanonicalID)
	require.Len(t, first.Unmatched, 2)
	assert.Equal(t, "Totally Unknown Ship", first.Unmatched[0].Name)
	assert.Equal(t, "600", first.Unmatched[1].Name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "- name: 600\n")
	assert.Contains(t, text, "quantity: 2\n")
	assert.NotContains(t, text, ".0")
	assert.Contains(t, text, "shipId: "+gladiusID)

	second := runDefault(t, backend)
	assert.Equal(t, Counters{Total: 1, Skipped: 1, FieldsCanonical: 1}, second.Collection(store.Users).Counters)
	assert.Empty(t, second.Mappings)
	assert.Len(t, second.Unmatched, 2)
}
