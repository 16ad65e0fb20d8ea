package importer

import (
	"context"

	"github.com/cory-johannsen/worldgen/internal/world"
)

// Fetcher retrieves a document or binary blob by its path relative to the
// source repository root.
//
// Postcondition: Returns the full contents, or a non-nil transport error.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// TableLoader yields the complete raw record table, from a snapshot or a
// fresh retrieval.
//
// Postcondition: Returns a complete RawTable or a non-nil error; never a
// partial table.
type TableLoader interface {
	Load(ctx context.Context) (*RawTable, error)
}

// Converter turns one raw record into a resolved map.
//
// Postcondition: Returns (map, true, nil) on success; (_, false, nil) when the
// record's tile data cannot be decoded and the record should be skipped; or a
// non-nil error for conditions that must abort the run.
type Converter interface {
	Convert(ctx context.Context, raw *RawMap) (world.WorldMap, bool, error)
}

// ConverterFactory builds the Converter for a loaded table. Reference
// resolution needs the complete table, so the converter cannot exist before it.
type ConverterFactory func(table *RawTable) Converter

// Static returns a ConverterFactory that ignores the table and yields c.
func Static(c Converter) ConverterFactory {
	return func(*RawTable) Converter { return c }
}
