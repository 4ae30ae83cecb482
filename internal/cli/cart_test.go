package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `products:
  - id: saree-kanchi
    title: Kanchipuram Silk Saree
    price: "12500.00"
    sale_price: "9999.00"
    variants:
      - id: maroon
        name: Maroon
        inventory: 2
      - id: teal
        name: Teal
        inventory: 0
  - id: dupatta-cotton
    title: Block Print Cotton Dupatta
    price: "1450.00"
    total_stock: 5
`

type cliEnv struct {
	dbPath      string
	catalogPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o600))
	return &cliEnv{dbPath: filepath.Join(dir, "cart.db"), catalogPath: catalogPath}
}

// run executes cartctl with the environment's files and returns stdout
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--db", e.dbPath, "--catalog", e.catalogPath, "--token", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) listing(t *testing.T) CartListing {
	t.Helper()
	out, err := e.run(t, "--format", "json", "list")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CartListing `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestList_Empty(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart is empty")
}

func TestAdd_PersistsAcrossInvocations(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "add", "saree-kanchi", "--color", "maroon")
	require.NoError(t, err)
	assert.Contains(t, out, "Item added to cart")

	_, err = env.run(t, "add", "dupatta-cotton", "--qty", "3")
	require.NoError(t, err)

	listing := env.listing(t)
	require.Len(t, listing.Items, 2)
	assert.Equal(t, 2, listing.Count)
	assert.Equal(t, "Kanchipuram Silk Saree", listing.Items[0].Snapshot.Title)
	assert.Equal(t, "Maroon", listing.Items[0].Snapshot.ColorName)
	assert.Equal(t, "14349", listing.Total.String())
}

func TestAdd_OverStockIsRejected(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "add", "saree-kanchi", "--color", "maroon", "--qty", "2")
	require.NoError(t, err)

	out, err := env.run(t, "add", "saree-kanchi", "--color", "maroon")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Only 2 items available for this color")

	listing := env.listing(t)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, 2, listing.Items[0].Quantity)
}

func TestAdd_MissingCatalog(t *testing.T) {
	env := newCLIEnv(t)
	env.catalogPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := env.run(t, "add", "saree-kanchi")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSet_ZeroRemovesLine(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "add", "dupatta-cotton", "--qty", "2")
	require.NoError(t, err)

	_, err = env.run(t, "set", "dupatta-cotton", "4")
	require.NoError(t, err)
	assert.Equal(t, 4, env.listing(t).Items[0].Quantity)

	_, err = env.run(t, "set", "dupatta-cotton", "0")
	require.NoError(t, err)
	assert.Empty(t, env.listing(t).Items)
}

func TestSet_BadQuantity(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "set", "dupatta-cotton", "many")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVariant_OutOfStockColor(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "add", "saree-kanchi", "--color", "maroon")
	require.NoError(t, err)

	out, err := env.run(t, "variant", "saree-kanchi", "--from", "maroon", "--to", "teal")
	require.Error(t, err)
	assert.Contains(t, out, "out of stock")

	listing := env.listing(t)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "maroon", listing.Items[0].ColorID)
}

func TestRemove(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "add", "dupatta-cotton")
	require.NoError(t, err)

	_, err = env.run(t, "remove", "dupatta-cotton")
	require.NoError(t, err)
	assert.Empty(t, env.listing(t).Items)

	_, err = env.run(t, "remove", "dupatta-cotton")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestClear(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "add", "dupatta-cotton")
	require.NoError(t, err)

	out, err := env.run(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart cleared")
	assert.Equal(t, 0, env.listing(t).Count)
}

func TestCleanup_LocalOnly(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "add", "saree-kanchi", "--color", "maroon")
	require.NoError(t, err)
	_, err = env.run(t, "add", "dupatta-cotton")
	require.NoError(t, err)

	out, err := env.run(t, "cleanup", "saree-kanchi:maroon")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 locally")

	listing := env.listing(t)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "dupatta-cotton", listing.Items[0].ProductID)
}
