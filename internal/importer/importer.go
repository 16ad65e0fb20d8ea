package importer

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/worldgen/internal/world"
)

// ManifestFile is the name of the index written next to the map files.
const ManifestFile = "manifest.yaml"

// ManifestEntry describes one written map file.
type ManifestEntry struct {
	Location string `yaml:"location"`
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
}

// Manifest indexes a written graph.
type Manifest struct {
	RunID  string          `yaml:"run_id"`
	Count  int             `yaml:"count"`
	Digest string          `yaml:"digest"`
	Maps   []ManifestEntry `yaml:"maps"`
}

// Importer orchestrates a run: raw table, graph assembly, output.
type Importer struct {
	tables     TableLoader
	converters ConverterFactory
	workers    int
	logger    *zap.Logger
}

// New constructs an Importer.
//
// Precondition: tables and converters must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(tables TableLoader, converters ConverterFactory, workers int, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{tables: tables, converters: converters, workers: workers, logger: logger}
}

// Build loads the raw table and assembles the world graph.
//
// Postcondition: Returns a complete graph, or a non-nil error and no graph.
func (imp *Importer) Build(ctx context.Context) (*world.Graph, error) {
	t0 := time.Now()
	table, err := imp.tables.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading raw maps: %w", err)
	}
	imp.logger.Info("loaded raw maps",
		zap.Int("count", table.Len()),
		zap.Duration("elapsed", time.Since(t0)),
	)

	graph, err := NewAssembler(table, imp.converters(table), imp.workers, imp.logger).Assemble(ctx)
	if err != nil {
		return nil, fmt.Errorf("assembling world graph: %w", err)
	}

	for _, d := range graph.DanglingConnections() {
		imp.logger.Warn("connection targets a map missing from the graph",
			zap.Stringer("from", d.From),
			zap.String("direction", string(d.Direction)),
			zap.Stringer("target", d.Target),
		)
	}
	return graph, nil
}

// Run builds the graph and writes it to outputDir as one YAML file per map
// plus a manifest. Nothing is written unless the whole graph assembles.
//
// Precondition: outputDir must exist or be creatable.
// Postcondition: Returns the written manifest, or a non-nil error.
func (imp *Importer) Run(ctx context.Context, outputDir string) (*Manifest, error) {
	overall := time.Now()
	graph, err := imp.Build(ctx)
	if err != nil {
		return nil, err
	}
	manifest, err := WriteGraph(graph, outputDir, uuid.NewString())
	if err != nil {
		return nil, err
	}
	imp.logger.Info("wrote world graph",
		zap.String("dir", outputDir),
		zap.Int("maps", manifest.Count),
		zap.String("digest", manifest.Digest),
		zap.String("run_id", manifest.RunID),
		zap.Duration("total", time.Since(overall)),
	)
	return manifest, nil
}

// GraphDigest returns the hex xxhash64 of every map document in key order.
// Equal graphs always have equal digests.
func GraphDigest(graph *world.Graph) (string, error) {
	h := xxhash.New()
	for _, m := range graph.Maps() {
		data, err := world.MarshalMap(m)
		if err != nil {
			return "", err
		}
		_, _ = h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteGraph writes every map in graph to dir and a manifest indexing them.
// Each map is validated by re-loading its encoded form before it is written.
//
// Postcondition: Returns the manifest written to dir/manifest.yaml, or a non-nil error.
func WriteGraph(graph *world.Graph, dir, runID string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	h := xxhash.New()
	manifest := &Manifest{RunID: runID}
	for _, m := range graph.Maps() {
		data, err := world.MarshalMap(m)
		if err != nil {
			return nil, err
		}
		// Validate output is loadable before writing.
		if _, err := world.LoadMapFromBytes(data); err != nil {
			return nil, fmt.Errorf("map %s failed validation: %w", m.ID, err)
		}
		name := mapFileName(m.ID)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return nil, fmt.Errorf("writing map %s: %w", m.ID, err)
		}
		_, _ = h.Write(data)
		manifest.Maps = append(manifest.Maps, ManifestEntry{Location: m.ID.String(), Name: m.Name, File: name})
	}
	manifest.Count = len(manifest.Maps)
	manifest.Digest = hex.EncodeToString(h.Sum(nil))

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("serialising manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	return manifest, nil
}

func mapFileName(loc world.Location) string {
	name := loc.Index
	if loc.Map != "" {
		name = loc.Map + "." + loc.Index
	}
	name = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(name)
	return name + ".yaml"
}
