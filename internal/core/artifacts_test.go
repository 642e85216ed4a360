package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-backend/internal/storage"
)

func TestFetchArtifacts(t *testing.T) {
	ctx := context.Background()
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, provider.PutObject(ctx, "models", ModelObjectKey, bytes.NewReader([]byte("onnx bytes"))))
	require.NoError(t, provider.PutObject(ctx, "models", LabelsObjectKey, bytes.NewReader([]byte(`["cat"]`))))

	cacheDir := filepath.Join(t.TempDir(), "cache")
	modelPath, labelsPath, err := FetchArtifacts(ctx, provider, "models", cacheDir)
	require.NoError(t, err)

	data, err := os.ReadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("onnx bytes"), data)

	data, err = os.ReadFile(labelsPath)
	require.NoError(t, err)
	assert.Equal(t, []byte(`["cat"]`), data)
}

func TestFetchArtifactsUsesCache(t *testing.T) {
	ctx := context.Background()
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, ModelObjectKey), []byte("cached model"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, LabelsObjectKey), []byte("cached labels"), 0644))

	// Nothing in the bucket; cached copies must be enough.
	modelPath, labelsPath, err := FetchArtifacts(ctx, provider, "models", cacheDir)
	require.NoError(t, err)

	data, err := os.ReadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached model"), data)

	data, err = os.ReadFile(labelsPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached labels"), data)
}

func TestFetchArtifactsMissingObject(t *testing.T) {
	ctx := context.Background()
	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	_, _, err = FetchArtifacts(ctx, provider, "models", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ModelObjectKey)
}
