package importer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/worldgen/internal/world"
)

// ErrDuplicateLocation is matched by DuplicateLocationError.
var ErrDuplicateLocation = errors.New("duplicate world map location")

// DuplicateLocationError reports two records that resolved to one location.
type DuplicateLocationError struct {
	Location world.Location
	// Name is the display name of the record whose insert lost.
	Name string
	// Existing is the display name of the record already in the graph.
	Existing string
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("duplicate world map id %s: %q collides with %q", e.Location, e.Name, e.Existing)
}

// Is reports whether target is ErrDuplicateLocation.
func (e *DuplicateLocationError) Is(target error) bool {
	return target == ErrDuplicateLocation
}

// Assembler resolves every record of a RawTable concurrently into a world.Graph.
type Assembler struct {
	table     *RawTable
	converter Converter
	workers   int
	logger    *zap.Logger
}

// NewAssembler constructs an Assembler. workers < 1 means runtime.NumCPU().
//
// Precondition: table and converter must be non-nil.
func NewAssembler(table *RawTable, converter Converter, workers int, logger *zap.Logger) *Assembler {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{table: table, converter: converter, workers: workers, logger: logger}
}

// Assemble converts every record with at most a.workers in flight and
// inserts the results into a new graph. Records whose tile data cannot be
// decoded are logged and skipped.
//
// Postcondition: Returns a graph holding one map per converted record, or a
// non-nil error and no graph when any record fails fatally or two records
// share a location.
func (a *Assembler) Assemble(ctx context.Context) (*world.Graph, error) {
	start := time.Now()
	graph := world.NewGraph()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, raw := range a.table.Records() {
		raw := raw
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return a.assembleOne(gctx, graph, raw)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("assembled world graph",
		zap.Int("records", a.table.Len()),
		zap.Int("maps", graph.Len()),
		zap.Int("skipped", a.table.Len()-graph.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return graph, nil
}

func (a *Assembler) assembleOne(ctx context.Context, graph *world.Graph, raw *RawMap) error {
	a.logger.Debug("converting map", zap.String("map", raw.Data.Name))
	m, ok, err := a.converter.Convert(ctx, raw)
	if err != nil {
		return fmt.Errorf("converting map %q: %w", raw.Data.Name, err)
	}
	if !ok {
		a.logger.Warn("could not convert map; skipping",
			zap.String("map", raw.Data.Name),
			zap.String("raw_id", raw.Data.ID),
		)
		return nil
	}
	if existing, inserted := graph.InsertIfAbsent(m); !inserted {
		return &DuplicateLocationError{Location: m.ID, Name: m.Name, Existing: existing.Name}
	}
	return nil
}
