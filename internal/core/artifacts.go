package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vision-backend/internal/storage"
)

// Object keys the export tooling writes into the artifact bucket.
const (
	ModelObjectKey  = "model.onnx"
	LabelsObjectKey = "labels.json"
)

// FetchArtifacts makes sure the model and labels are present in cacheDir,
// downloading whichever is missing from the artifact bucket, and returns
// their local paths. Already-cached files are not re-downloaded.
func FetchArtifacts(ctx context.Context, store storage.Provider, bucket, cacheDir string) (string, string, error) {
	modelPath := filepath.Join(cacheDir, ModelObjectKey)
	labelsPath := filepath.Join(cacheDir, LabelsObjectKey)

	for _, artifact := range []struct{ key, path string }{
		{ModelObjectKey, modelPath},
		{LabelsObjectKey, labelsPath},
	} {
		if _, err := os.Stat(artifact.path); err == nil {
			slog.Info("artifact already cached", "path", artifact.path)
			continue
		}

		slog.Info("downloading artifact", "bucket", bucket, "key", artifact.key)
		if err := store.DownloadObject(ctx, bucket, artifact.key, artifact.path); err != nil {
			return "", "", fmt.Errorf("failed to download '%s' from bucket '%s': %w", artifact.key, bucket, err)
		}
	}

	return modelPath, labelsPath, nil
}
