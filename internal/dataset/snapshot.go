package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"olist-dashboard/internal/models"
)

const snapshotVersion = "v1"

type snapshot struct {
	Version   string
	CreatedAt time.Time
	Records   []models.OrderRecord
}

func snapshotFilename(dir, csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(dir, fmt.Sprintf("%s_%s.gob", name, snapshotVersion))
}

func saveSnapshot(dir, csvPath string, records []models.OrderRecord) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(snapshotFilename(dir, csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot{
		Version:   snapshotVersion,
		CreatedAt: time.Now(),
		Records:   records,
	})
}

func loadSnapshot(dir, csvPath string) (*snapshot, error) {
	file, err := os.Open(snapshotFilename(dir, csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %q, want %q", snap.Version, snapshotVersion)
	}
	return &snap, nil
}
