package pret

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cory-johannsen/worldgen/internal/importer"
)

// Source retrieves the raw record table from a pokefirered-layout repository:
//
//	data/layouts/layouts.json
//	data/maps/map_groups.json
//	data/maps/<name>/map.json   <- one per name listed in map_groups.json
type Source struct {
	fetcher  importer.Fetcher
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSource constructs a Source reading through fetcher.
func NewSource(fetcher importer.Fetcher, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{fetcher: fetcher, validate: validator.New(), logger: logger}
}

// BuildTable retrieves every map and its layout and assembles them into a
// RawTable. Records are retrieved and inserted sequentially.
//
// Postcondition: Returns a complete table, or a non-nil error naming the
// first map that could not be retrieved, parsed, validated, or inserted.
func (s *Source) BuildTable(ctx context.Context) (*importer.RawTable, error) {
	start := time.Now()

	s.logger.Info("fetching layouts")
	data, err := s.fetcher.Fetch(ctx, LayoutsPath)
	if err != nil {
		return nil, err
	}
	layouts, err := ParseLayouts(data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetching map groups")
	data, err = s.fetcher.Fetch(ctx, MapGroupsPath)
	if err != nil {
		return nil, err
	}
	names, err := ParseMapGroups(data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("found map names", zap.Int("count", len(names)))

	b := importer.NewTableBuilder()
	for _, name := range names {
		raw, err := s.fetchMap(ctx, name, layouts)
		if err != nil {
			return nil, err
		}
		if err := b.Insert(raw); err != nil {
			return nil, err
		}
		s.logger.Debug("parsed map", zap.String("map", raw.Data.Name))
	}
	table := b.Build()

	s.logger.Info("retrieved raw maps",
		zap.Int("count", table.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return table, nil
}

func (s *Source) fetchMap(ctx context.Context, name string, layouts map[string]importer.RawLayout) (*importer.RawMap, error) {
	data, err := s.fetcher.Fetch(ctx, MapPath(name))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}
	m, err := ParseMap(data)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}
	layout, ok := layouts[m.Layout]
	if !ok {
		return nil, fmt.Errorf("map %s: unknown layout %q", name, m.Layout)
	}
	raw := &importer.RawMap{Data: *m, Layout: layout}
	if err := s.validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("map %s: invalid record: %w", name, err)
	}
	return raw, nil
}

// FetchBlob retrieves a binary blob such as a blockdata or border file.
func (s *Source) FetchBlob(ctx context.Context, path string) ([]byte, error) {
	data, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetching blob %s: %w", path, err)
	}
	return data, nil
}
