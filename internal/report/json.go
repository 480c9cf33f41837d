package report

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sanops/asbuilt/internal/models"
)

const jsonArtifactName = "asbuilt.json"

// writeJSON dumps the full normalized inventory. This artifact is the
// machine-readable source of truth; the other artifacts are views of it.
func writeJSON(_ context.Context, dir string, inv *models.Inventory) (string, error) {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", err
	}

	path := artifactPath(dir, jsonArtifactName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
