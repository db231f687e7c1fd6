// Package backup exports and imports session snapshots as tar.gz archives.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/store"
)

// FormatVersion is written into every archive.
const FormatVersion = "1.0"

const (
	metadataFile  = "metadata.json"
	sessionPrefix = "sessions/"
)

var (
	// ErrChecksumMismatch is returned when an archived file does not match
	// the checksum recorded in the metadata.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")

	// ErrMissingMetadata is returned for archives without metadata.json.
	ErrMissingMetadata = errors.New("backup missing metadata")
)

// Metadata describes an archive.
type Metadata struct {
	Version     string            `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	Description string            `json:"description"`
	Sessions    []string          `json:"sessions"`
	Checksums   map[string]string `json:"checksums"`
}

// ImportResult reports what an import restored.
type ImportResult struct {
	Metadata *Metadata `json:"metadata"`
	Imported []string  `json:"imported"`
	Cleared  int       `json:"cleared"`
}

// Manager handles backup operations against a snapshot store.
type Manager struct {
	store  store.SnapshotStore
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a backup manager.
func NewManager(s store.SnapshotStore) *Manager {
	return &Manager{store: s, now: time.Now, logger: logging.New("backup")}
}

// Export writes the given sessions, or all sessions when ids is empty, to
// outputPath.
func (m *Manager) Export(ctx context.Context, ids []string, outputPath, description string) (*Metadata, error) {
	if len(ids) == 0 {
		all, err := m.store.List(ctx, store.Filter{OrderBy: "created_at"})
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		for _, s := range all {
			ids = append(ids, s.ID)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("creating backup file: %w", err)
	}
	defer file.Close()

	gzw := gzip.NewWriter(file)
	tw := tar.NewWriter(gzw)

	metadata := &Metadata{
		Version:     FormatVersion,
		CreatedAt:   m.now().UTC(),
		Description: description,
		Checksums:   make(map[string]string),
	}

	for _, id := range ids {
		snap, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", id, err)
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", id, err)
		}
		name := sessionPrefix + id + ".json"
		if err := addToTar(tw, name, data, metadata.CreatedAt); err != nil {
			return nil, fmt.Errorf("adding %s to tar: %w", id, err)
		}
		metadata.Sessions = append(metadata.Sessions, id)
		metadata.Checksums[name] = checksum(data)
	}

	metaJSON, _ := json.MarshalIndent(metadata, "", "  ")
	if err := addToTar(tw, metadataFile, metaJSON, metadata.CreatedAt); err != nil {
		return nil, fmt.Errorf("adding metadata: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip: %w", err)
	}

	m.logger.Info("sessions exported",
		slog.String("path", outputPath),
		slog.Int("sessions", len(metadata.Sessions)),
	)
	return metadata, nil
}

// Import restores sessions from an archive. Every checksum is verified
// before anything is written. Without merge all stored sessions are
// removed first; with merge archived sessions replace stored ones with the
// same ID and the rest are kept.
func (m *Manager) Import(ctx context.Context, inputPath string, merge bool) (*ImportResult, error) {
	metadata, files, err := readArchive(inputPath)
	if err != nil {
		return nil, err
	}

	snaps := make([]engine.Snapshot, 0, len(metadata.Sessions))
	for _, id := range metadata.Sessions {
		name := sessionPrefix + id + ".json"
		data, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("backup missing %s", name)
		}
		if got := checksum(data); got != metadata.Checksums[name] {
			return nil, fmt.Errorf("%s: %w", name, ErrChecksumMismatch)
		}
		var snap engine.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		snaps = append(snaps, snap)
	}

	res := &ImportResult{Metadata: metadata}
	if !merge {
		existing, err := m.store.List(ctx, store.Filter{})
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		for _, s := range existing {
			if err := m.store.Delete(ctx, s.ID); err != nil && !store.IsNotFound(err) {
				return nil, fmt.Errorf("clearing %s: %w", s.ID, err)
			}
			res.Cleared++
		}
	}

	for _, snap := range snaps {
		if err := m.store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("importing %s: %w", snap.SessionID, err)
		}
		res.Imported = append(res.Imported, snap.SessionID)
	}

	m.logger.Info("sessions imported",
		slog.String("path", inputPath),
		slog.Int("imported", len(res.Imported)),
		slog.Int("cleared", res.Cleared),
	)
	return res, nil
}

// List shows the metadata of an archive without importing it.
func (m *Manager) List(inputPath string) (*Metadata, error) {
	metadata, _, err := readArchive(inputPath)
	return metadata, err
}

func readArchive(inputPath string) (*Metadata, map[string][]byte, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening backup: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	var metadata *Metadata
	files := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading tar: %w", err)
		}
		name := path.Clean(header.Name)
		if name != metadataFile && !strings.HasPrefix(name, sessionPrefix) {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", header.Name, err)
		}
		if name == metadataFile {
			metadata = &Metadata{}
			if err := json.Unmarshal(data, metadata); err != nil {
				return nil, nil, fmt.Errorf("parsing metadata: %w", err)
			}
			continue
		}
		files[name] = data
	}

	if metadata == nil {
		return nil, nil, ErrMissingMetadata
	}
	sort.Strings(metadata.Sessions)
	return metadata, files, nil
}

func addToTar(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
