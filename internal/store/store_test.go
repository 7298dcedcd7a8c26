package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "u1", Document{"id": "u1"}.ID())
	assert.Equal(t, "42", Document{"id": 42}.ID())
	assert.Equal(t, "", Document{}.ID())
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := Document{
		"id": "u1",
		"ships": []any{
			map[string]any{"name": "Gladius"},
		},
	}

	clone := doc.Clone()
	clone["ships"].([]any)[0].(map[string]any)["name"] = "Changed"

	assert.Equal(t, "Gladius", doc["ships"].([]any)[0].(map[string]any)["name"])
}

func TestNormalize(t *testing.T) {
	type ship struct {
		Name string `json:"name"`
	}
	out, err := Normalize([]ship{{Name: "Gladius"}})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"name": "Gladius"}}, out)
}

func TestNormalizeKeepsIntegers(t *testing.T) {
	out, err := Normalize([]any{
		map[string]any{"name": 600, "quantity": uint64(2), "ratio": 0.5},
		map[string]any{"big": int64(9007199254740993)},
	})
	require.NoError(t, err)

	list := out.([]any)
	first := list[0].(map[string]any)
	assert.Equal(t, int64(600), first["name"])
	assert.Equal(t, int64(2), first["quantity"])
	assert.Equal(t, 0.5, first["ratio"])
	assert.Equal(t, int64(9007199254740993), list[1].(map[string]any)["big"])
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"users", "missions", "planned_missions", "operations", "resources"}, Names())
}
