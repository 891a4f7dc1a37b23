//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOverwriteRoundTrip(t *testing.T) {
	s := NewStore([]Variable{{Name: "x", Type: TypeString}})

	require.NoError(t, s.Write("x", "hello", Overwrite))
	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	require.NoError(t, s.Write("x", "world", Overwrite))
	v, err = s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, "world", v)
}

func TestStoreInsertAppends(t *testing.T) {
	s := NewStore([]Variable{{
		Name:    "x",
		Type:    TypeList,
		Default: []any{"a", "b"},
	}})

	require.NoError(t, s.Write("x", "c", Insert))
	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, v)
}

func TestStoreMergeDict(t *testing.T) {
	s := NewStore([]Variable{{
		Name:    "x",
		Type:    TypeDict,
		Default: map[string]any{"x": 1},
	}})

	require.NoError(t, s.Write("x", map[string]any{"y": 2}, Merge))
	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, v)
}

func TestStoreMergeDictLastWriterWins(t *testing.T) {
	s := NewStore([]Variable{{
		Name:    "x",
		Type:    TypeDict,
		Default: map[string]any{"x": 1},
	}})

	require.NoError(t, s.Write("x", map[string]any{"x": 7}, Merge))
	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 7}, v)
}

func TestStoreMergeList(t *testing.T) {
	s := NewStore([]Variable{{
		Name:    "x",
		Type:    TypeList,
		Default: []any{1},
	}})

	require.NoError(t, s.Write("x", []any{2, 3}, Merge))
	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, v)
}

func TestStoreReadUndeclared(t *testing.T) {
	s := NewStore(nil)

	_, err := s.Read("missing")
	assert.ErrorIs(t, err, ErrUndeclared)
	assert.ErrorIs(t, s.Write("missing", 1, Overwrite), ErrUndeclared)
}

func TestStoreReadUnwritten(t *testing.T) {
	s := NewStore([]Variable{{Name: "x", Type: TypeString}})

	_, err := s.Read("x")
	assert.ErrorIs(t, err, ErrUnwritten)
}

func TestStoreReadDefault(t *testing.T) {
	s := NewStore([]Variable{{Name: "x", Type: TypeNumber, Default: 42}})

	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSupportsPolicy(t *testing.T) {
	tests := []struct {
		name   string
		typ    Type
		policy WritePolicy
		want   bool
	}{
		{"overwrite on string", TypeString, Overwrite, true},
		{"insert on list", TypeList, Insert, true},
		{"insert on dict", TypeDict, Insert, false},
		{"insert on string", TypeString, Insert, false},
		{"merge on list", TypeList, Merge, true},
		{"merge on dict", TypeDict, Merge, true},
		{"merge on number", TypeNumber, Merge, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Variable{Name: "x", Type: tt.typ}
			assert.Equal(t, tt.want, v.SupportsPolicy(tt.policy))
		})
	}
}

func TestStoreInvalidPolicyWrite(t *testing.T) {
	s := NewStore([]Variable{{Name: "x", Type: TypeString}})

	assert.Error(t, s.Write("x", "v", Insert))
	assert.Error(t, s.Write("x", "v", Merge))
}

func TestStoreSnapshotRestore(t *testing.T) {
	s := NewStore([]Variable{
		{Name: "x", Type: TypeList, Default: []any{}},
		{Name: "y", Type: TypeString},
	})
	require.NoError(t, s.Write("x", 1, Insert))
	require.NoError(t, s.Write("y", "kept", Overwrite))

	snap := s.Snapshot()

	restored := NewStore([]Variable{
		{Name: "x", Type: TypeList, Default: []any{}},
		{Name: "y", Type: TypeString},
	})
	restored.Restore(snap)

	v, err := restored.Read("x")
	require.NoError(t, err)
	assert.Equal(t, []any{1}, v)
	v, err = restored.Read("y")
	require.NoError(t, err)
	assert.Equal(t, "kept", v)
}

func TestStoreReset(t *testing.T) {
	s := NewStore([]Variable{{Name: "x", Type: TypeString, Default: "d"}})
	require.NoError(t, s.Write("x", "written", Overwrite))

	s.Reset("x")

	v, err := s.Read("x")
	require.NoError(t, err)
	assert.Equal(t, "d", v)
}

func TestTypeAccepts(t *testing.T) {
	assert.True(t, TypeString.Accepts("hi"))
	assert.False(t, TypeString.Accepts(1))
	assert.True(t, TypeNumber.Accepts(2.5))
	assert.False(t, TypeNumber.Accepts("2.5"))
	assert.True(t, TypeList.Accepts([]any{"a"}))
	assert.False(t, TypeList.Accepts([]string{"a"}))
	assert.True(t, TypeDict.Accepts(map[string]any{"k": 1}))
	assert.False(t, TypeDict.Accepts(map[string]string{"k": "v"}))
	assert.True(t, TypeAny.Accepts(struct{}{}))
	// nil means "no default" and is fine everywhere.
	assert.True(t, TypeList.Accepts(nil))
}

func TestValidateRejectsMistypedDefault(t *testing.T) {
	v := Variable{Name: "notes", Type: TypeList, Default: []string{"a", "b"}}
	err := v.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default []string does not satisfy list variable notes")

	v.Default = []any{"a", "b"}
	require.NoError(t, v.Validate())
}
