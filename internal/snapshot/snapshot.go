// Package snapshot persists the raw record table so later runs can skip
// retrieval.
//
// File layout: the 4-byte magic "WGS1" followed by one zstd frame holding a
// msgpack document of the table's records in identifier order.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/worldgen/internal/importer"
)

var magic = []byte("WGS1")

// ErrBadSnapshot is returned for snapshot files that are not in the expected format.
var ErrBadSnapshot = errors.New("bad snapshot")

// RebuildFunc produces a fresh table when no usable snapshot exists.
type RebuildFunc func(ctx context.Context) (*importer.RawTable, error)

var _ importer.TableLoader = (*Cache)(nil)

// Cache loads the raw table from a snapshot file, rebuilding and persisting
// it when the file is missing or unreadable. Snapshot contents are trusted as
// is; staleness against the source is not checked.
type Cache struct {
	path    string
	rebuild RebuildFunc
	logger  *zap.Logger
}

// New constructs a Cache for the snapshot at path.
//
// Precondition: rebuild must be non-nil.
func New(path string, rebuild RebuildFunc, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{path: path, rebuild: rebuild, logger: logger}
}

// Load implements importer.TableLoader.
//
// Postcondition: Returns the snapshot table, or a freshly rebuilt table that
// has been written to the snapshot path, or a non-nil error. A failed rebuild
// writes nothing.
func (c *Cache) Load(ctx context.Context) (*importer.RawTable, error) {
	table, err := Read(c.path)
	if err == nil {
		c.logger.Info("loaded snapshot", zap.String("path", c.path), zap.Int("maps", table.Len()))
		return table, nil
	}
	c.logger.Warn("snapshot cannot be read; rebuilding", zap.String("path", c.path), zap.Error(err))

	table, err = c.rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding snapshot: %w", err)
	}
	if err := Write(c.path, table); err != nil {
		return nil, err
	}
	c.logger.Info("wrote snapshot", zap.String("path", c.path), zap.Int("maps", table.Len()))
	return table, nil
}

// Invalidate removes the snapshot file so the next Load rebuilds.
// A missing file is not an error.
func (c *Cache) Invalidate() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot %s: %w", c.path, err)
	}
	return nil
}

// Encode serialises table into the snapshot format.
func Encode(table *importer.RawTable) ([]byte, error) {
	body, err := msgpack.Marshal(table.Records())
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(body, append([]byte(nil), magic...)), nil
}

// Decode parses snapshot bytes.
//
// Postcondition: Returns the table or an error wrapping ErrBadSnapshot.
func Decode(data []byte) (*importer.RawTable, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, fmt.Errorf("%w: missing magic", ErrBadSnapshot)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot decoder: %w", err)
	}
	defer dec.Close()
	body, err := dec.DecodeAll(data[len(magic):], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	var records []*importer.RawMap
	if err := msgpack.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	table, err := importer.NewTable(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	return table, nil
}

// Read loads the snapshot at path.
func Read(path string) (*importer.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return Decode(data)
}

// Write persists table to path via a temporary file and rename, so readers
// never observe a partial snapshot.
func Write(path string, table *importer.RawTable) error {
	data, err := Encode(table)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}
