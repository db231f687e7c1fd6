package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/memory"
	"github.com/uddhav/creative-thinking/internal/store"
)

func openStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s store.SnapshotStore, id, problem string) engine.Snapshot {
	t.Helper()
	m := memory.NewManager(nil)
	_, _, err := m.RecordEvent("reverse", 1, "drop the free tier", domain.DecisionImpact{
		OptionsClosed:     []string{"free-tier"},
		ReversibilityCost: 0.6,
		CommitmentLevel:   0.7,
	})
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	snap := engine.Snapshot{
		SessionID: id,
		CreatedAt: at,
		UpdatedAt: at,
		Context:   domain.SessionContext{SessionID: id, Problem: problem},
		Memory:    m.Memory(),
	}
	require.NoError(t, s.Create(context.Background(), snap))
	return snap
}

func TestAddToTar(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	data := []byte(`{"test": "data"}`)
	require.NoError(t, addToTar(tw, "test.json", data, time.Now()))
	require.NoError(t, tw.Close())

	tr := tar.NewReader(&buf)
	header, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "test.json", header.Name)
	assert.Equal(t, int64(len(data)), header.Size)
}

func TestExportImportRoundtrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	orig := seed(t, src, "s1", "pricing")
	seed(t, src, "s2", "hiring")

	archive := filepath.Join(t.TempDir(), "sessions.tar.gz")
	meta, err := NewManager(src).Export(ctx, nil, archive, "nightly")
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, meta.Version)
	assert.ElementsMatch(t, []string{"s1", "s2"}, meta.Sessions)
	assert.Len(t, meta.Checksums, 2)

	dst := openStore(t)
	listed, err := NewManager(dst).List(archive)
	require.NoError(t, err)
	assert.Equal(t, "nightly", listed.Description)
	assert.Equal(t, []string{"s1", "s2"}, listed.Sessions)

	res, err := NewManager(dst).Import(ctx, archive, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, res.Imported)

	got, err := dst.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "pricing", got.Context.Problem)
	assert.InDelta(t, orig.Memory.Score(), got.Memory.Score(), 1e-12)
	assert.Equal(t, orig.Memory.ForeclosedOptions, got.Memory.ForeclosedOptions)
}

func TestExport_Selected(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	seed(t, src, "s1", "")
	seed(t, src, "s2", "")

	archive := filepath.Join(t.TempDir(), "one.tar.gz")
	meta, err := NewManager(src).Export(ctx, []string{"s2"}, archive, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, meta.Sessions)

	_, err = NewManager(src).Export(ctx, []string{"missing"}, archive, "")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestImport_ReplaceClearsExisting(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	seed(t, src, "s1", "")
	archive := filepath.Join(t.TempDir(), "b.tar.gz")
	_, err := NewManager(src).Export(ctx, nil, archive, "")
	require.NoError(t, err)

	dst := openStore(t)
	seed(t, dst, "local", "")

	res, err := NewManager(dst).Import(ctx, archive, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cleared)

	_, err = dst.Get(ctx, "local")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = dst.Get(ctx, "s1")
	require.NoError(t, err)
}

func writeArchive(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crafted.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gzw := gzip.NewWriter(f)
	tw := tar.NewWriter(gzw)
	for name, data := range files {
		require.NoError(t, addToTar(tw, name, data, time.Now()))
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return path
}

func TestImport_ChecksumMismatch(t *testing.T) {
	meta, err := json.Marshal(Metadata{
		Version:   FormatVersion,
		Sessions:  []string{"s1"},
		Checksums: map[string]string{"sessions/s1.json": checksum([]byte("original"))},
	})
	require.NoError(t, err)
	archive := writeArchive(t, map[string][]byte{
		"metadata.json":    meta,
		"sessions/s1.json": []byte(`{"session_id":"s1"}`),
	})

	dst := openStore(t)
	seed(t, dst, "local", "")

	_, err = NewManager(dst).Import(context.Background(), archive, false)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	// nothing was cleared
	_, err = dst.Get(context.Background(), "local")
	require.NoError(t, err)
}

func TestImport_MissingMetadata(t *testing.T) {
	archive := writeArchive(t, map[string][]byte{"sessions/s1.json": []byte(`{}`)})
	_, err := NewManager(openStore(t)).List(archive)
	require.ErrorIs(t, err, ErrMissingMetadata)
}
