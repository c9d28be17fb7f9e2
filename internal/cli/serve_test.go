package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/contracts/internal/contract"
	"github.com/lacquerai/contracts/internal/store"
)

func TestNewStore(t *testing.T) {
	st, err := newStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	st, err = newStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	dir := t.TempDir()
	st, err = newStore("FILE", dir)
	require.NoError(t, err)
	fs, ok := st.(*store.FileStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "billing", "input.json"), fs.Path("billing", store.Input))

	_, err = newStore("redis", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}

func TestLoadContracts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "billing/input.json", userContract)
	writeFile(t, dir, "billing/output.yaml", userContractYAML)
	writeFile(t, dir, "search/Input.yml", userContractYAML)
	writeFile(t, dir, "search/notes.txt", "ignored")
	writeFile(t, dir, "search/readme.json", `{"not": "a direction"}`)

	ctx := context.Background()
	svc := contract.NewService(store.NewMemoryStore())

	loaded, err := loadContracts(ctx, svc, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)

	agents, err := svc.Agents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"billing", "search"}, agents)

	result, err := svc.Validate(ctx, "billing", store.Input, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Missing required field: age"}, result.Errors)

	_, err = svc.Schema(ctx, "search", store.Output)
	assert.ErrorIs(t, err, contract.ErrNoSchema)
}

func TestLoadContracts_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "billing/input.json", `{"properties": 5}`)

	_, err := loadContracts(context.Background(), contract.NewService(store.NewMemoryStore()), dir)
	require.Error(t, err)

	var lintErr *contract.LintError
	assert.ErrorAs(t, err, &lintErr)
}

func TestLoadContracts_MissingDir(t *testing.T) {
	_, err := loadContracts(context.Background(), contract.NewService(store.NewMemoryStore()), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
