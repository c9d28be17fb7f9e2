package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.SilenceLogs()
	os.Exit(m.Run())
}

func testDocument(t *testing.T) *schema.Document {
	t.Helper()
	doc, err := schema.ParseDocument([]byte(`{"required":["q"],"properties":{"q":{"type":"string"},"n":{"type":"number","enum":[1,2]}},"examples":[{"q":"hi"}]}`))
	require.NoError(t, err)
	return doc
}

func stores(t *testing.T) map[string]Store {
	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := testDocument(t)

			_, err := s.GetSchema(ctx, "agent-1", Input)
			assert.ErrorIs(t, err, ErrSchemaNotFound)

			require.NoError(t, s.SetSchema(ctx, "agent-1", Input, doc))

			got, err := s.GetSchema(ctx, "agent-1", Input)
			require.NoError(t, err)
			assert.Equal(t, []string{"q"}, got.Required)
			require.Len(t, got.Properties, 2)
			assert.Equal(t, "q", got.Properties[0].Name)
			assert.Equal(t, "n", got.Properties[1].Name)
			assert.Len(t, got.Examples, 1)

			_, err = s.GetSchema(ctx, "agent-1", Output)
			assert.ErrorIs(t, err, ErrSchemaNotFound, "directions are independent")

			require.NoError(t, s.DeleteSchema(ctx, "agent-1", Input))
			_, err = s.GetSchema(ctx, "agent-1", Input)
			assert.ErrorIs(t, err, ErrSchemaNotFound)

			assert.ErrorIs(t, s.DeleteSchema(ctx, "agent-1", Input), ErrSchemaNotFound)
		})
	}
}

func TestStore_ListAgents(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := testDocument(t)

			ids, err := s.ListAgents(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			require.NoError(t, s.SetSchema(ctx, "b", Input, doc))
			require.NoError(t, s.SetSchema(ctx, "a", Output, doc))
			require.NoError(t, s.SetSchema(ctx, "a", Input, doc))

			ids, err = s.ListAgents(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids)

			require.NoError(t, s.DeleteSchema(ctx, "b", Input))
			ids, err = s.ListAgents(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ids)
		})
	}
}

func TestStore_InvalidKeys(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"", "..", ".", "../etc", "a/b", "with space"} {
				_, err := s.GetSchema(ctx, id, Input)
				assert.ErrorIs(t, err, ErrInvalidAgentID, id)
				assert.ErrorIs(t, s.SetSchema(ctx, id, Input, &schema.Document{}), ErrInvalidAgentID, id)
			}

			_, err := s.GetSchema(ctx, "agent", Direction("sideways"))
			assert.ErrorIs(t, err, ErrInvalidDirection)
		})
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := testDocument(t)

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.SetSchema(ctx, "shared", Output, doc))
					got, err := s.GetSchema(ctx, "shared", Output)
					if assert.NoError(t, err) {
						assert.Equal(t, []string{"q"}, got.Required)
					}
				}()
			}
			wg.Wait()
		})
	}
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.SetSchema(context.Background(), "agent", Output, testDocument(t)))

	data, err := os.ReadFile(filepath.Join(dir, "agent", "output.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"required"`)

	// Property order survives a trip through the file.
	reloaded, err := schema.ParseDocument(data)
	require.NoError(t, err)
	assert.Equal(t, "q", reloaded.Properties[0].Name)
}

func TestFileStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken", "input.json"), []byte(`{"properties": 1}`), 0600))

	_, err = s.GetSchema(context.Background(), "broken", Input)
	var me *schema.MalformedError
	assert.ErrorAs(t, err, &me)
}

func TestFileStore_CancelledContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.GetSchema(ctx, "agent", Input)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "input", want: Input},
		{in: "OUTPUT", want: Output},
		{in: " input ", want: Input},
		{in: "in", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDirection(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDirection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
