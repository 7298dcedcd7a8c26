// Package store defines the document collections that hold legacy ship
// references, and the backends that serve them.
//
// Documents are schemaless maps so that a patch touches only the field it
// names and everything else in the document round-trips untouched.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Collection names, in migration order.
const (
	Users           = "users"
	Missions        = "missions"
	PlannedMissions = "planned_missions"
	Operations      = "operations"
	Resources       = "resources"
)

// Names returns every collection name in migration order.
func Names() []string {
	return []string{Users, Missions, PlannedMissions, Operations, Resources}
}

// Document is one stored record. The "id" key identifies it.
type Document map[string]any

// ID returns the document id as a string.
func (d Document) ID() string {
	switch v := d["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a deep copy of d, so callers can modify nested lists
// without touching the stored original.
func (d Document) Clone() Document {
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return Document(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Collection is the storage interface a migrator works against.
type Collection interface {
	// Name returns the collection name.
	Name() string
	// List returns every document. Callers own the returned documents.
	List(ctx context.Context) ([]Document, error)
	// Patch replaces one top-level field of the document with the given id.
	Patch(ctx context.Context, id, field string, value any) error
}

// Backend opens collections by name.
type Backend interface {
	Collection(name string) Collection
	Close() error
}

// Normalize converts value into the plain map/slice/scalar form that every
// backend stores, by round-tripping it through JSON. Integers stay integers:
// numbers decode as int64 (uint64 above that range) and only fractional or
// exponent forms become float64.
func Normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return convertNumbers(out), nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = convertNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = convertNumbers(val)
		}
		return t
	case json.Number:
		return numberValue(t)
	default:
		return v
	}
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
