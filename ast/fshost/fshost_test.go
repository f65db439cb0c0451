package fshost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := InMemory("/work")

	require.NoError(t, h.WriteFile(ctx, "/work/src/a.ts", []byte("const x = 1;")))

	assert.True(t, h.FileExists(ctx, "/work/src/a.ts"))
	assert.True(t, h.DirectoryExists(ctx, "/work/src"))
	assert.False(t, h.FileExists(ctx, "/work/src/missing.ts"))

	data, err := h.ReadFile(ctx, "/work/src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;", string(data))
}

func TestInMemoryReadMissingFileIsNotFound(t *testing.T) {
	ctx := context.Background()
	h := InMemory("/work")

	_, err := h.ReadFile(ctx, "/work/nope.ts")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGlobMatchesRelativeToCwd(t *testing.T) {
	ctx := context.Background()
	h := InMemory("/work")

	require.NoError(t, h.WriteFile(ctx, "/work/src/a.ts", []byte("a")))
	require.NoError(t, h.WriteFile(ctx, "/work/src/nested/b.ts", []byte("b")))
	require.NoError(t, h.WriteFile(ctx, "/work/README.md", []byte("readme")))

	matches, err := h.Glob(ctx, []string{"**/*.ts"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts", "src/nested/b.ts"}, matches)
}
