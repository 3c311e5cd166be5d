// Package pipeline orchestrates the conversion pipeline shared by the CLI
// and the serve endpoint: parse → resolve → build → segment → transform →
// write, with content-addressed caching around the expensive stages.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/skeltree/skeltree/pkg/annotations"
	"github.com/skeltree/skeltree/pkg/cache"
	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morph"
	"github.com/skeltree/skeltree/pkg/morphio"
	"github.com/skeltree/skeltree/pkg/observability"
	"github.com/skeltree/skeltree/pkg/skeleton"
)

// Stats collects per-stage measurements of one run.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	SectionCount int
	PointCount   int

	ParseTime   time.Duration
	ConvertTime time.Duration
	WriteTime   time.Duration
}

// CacheInfo records which stages were served from cache.
type CacheInfo struct {
	GraphHit      bool
	MorphologyHit bool
}

// Result is the outcome of a completed run.
type Result struct {
	// RunID tags the run's log lines, hook events and stored documents.
	RunID string

	Document  *morphio.Document
	Stats     Stats
	CacheInfo CacheInfo

	// DiagnosticsSummary is the degraded-topology report, "clean" when
	// nothing was dropped or merged. Empty on a morphology cache hit,
	// where the conversion never ran.
	DiagnosticsSummary string
}

// Runner executes conversions with caching. It is stateless apart from the
// cache, keyer and logger; one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete conversion and writes the morphology document
// to the output path. Refusing to clobber an existing output is checked
// before any work happens; pass Overwrite to replace it.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if !opts.Overwrite {
		if _, err := os.Stat(opts.OutputPath); err == nil {
			return nil, skelerrors.New(skelerrors.ErrCodeExistingOutput,
				"output file %q exists (use force overwrite to replace)", opts.OutputPath)
		}
	}

	result := &Result{RunID: uuid.New().String()}
	logger := r.Logger.With("run", result.RunID)

	inputHash, err := cache.HashFiles(opts.SkeletonPath, opts.AnnotationsPath, opts.XSectionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeFileNotFound, err, "hashing inputs")
		}
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "hashing inputs")
	}

	ann, err := annotations.ReadFile(opts.AnnotationsPath)
	if err != nil {
		return nil, err
	}
	threshold := opts.EffectiveThreshold(ann.Threshold, ann.HasThreshold)
	if ann.HasThreshold && !opts.ForceThreshold {
		logger.Info("using annotated segment threshold", "threshold", threshold)
	}
	if ann.StackAABB != nil {
		logger.Info("stack bounding box present",
			"min", ann.StackAABB.Min, "max", ann.StackAABB.Max)
	}

	keyOpts := cache.MorphKeyOpts{
		Threshold: threshold,
		Scale:     opts.Scale,
		Verbosity: opts.Verbosity.String(),
		Debug:     opts.Verbosity <= morph.VerbosityDebug,
	}
	morphKey := r.Keyer.MorphologyKey(inputHash, keyOpts)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, morphKey); err == nil && hit {
			if doc, err := morphio.Read(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "morphology")
				result.Document = doc
				result.CacheInfo.MorphologyHit = true
				result.Stats.SectionCount = len(doc.Sections)
				logger.Info("conversion served from cache")
				return result, r.write(ctx, logger, result, opts)
			}
		}
		observability.Cache().OnCacheMiss(ctx, "morphology")
	}

	g, err := r.parse(ctx, logger, result, inputHash, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	convertStart := time.Now()
	observability.Conversion().OnConvertStart(ctx, result.RunID, g.NodeCount())
	conv, err := Convert(g, ann, threshold, opts.Scale, opts.Verbosity)
	result.Stats.ConvertTime = time.Since(convertStart)
	observability.Conversion().OnConvertComplete(ctx, result.RunID,
		sectionCount(conv), result.Stats.ConvertTime, err)
	if err != nil {
		return nil, err
	}

	result.Document = morphio.Flatten(conv.Morphology)
	result.Stats.SectionCount = conv.Morphology.SectionCount()
	result.Stats.PointCount = conv.Morphology.PointCount()
	result.DiagnosticsSummary = conv.Diagnostics.Summary()

	if conv.Diagnostics.Degraded() {
		observability.Conversion().OnDegraded(ctx, result.RunID, result.DiagnosticsSummary)
		logger.Warn("degraded topology", "summary", result.DiagnosticsSummary)
	}
	logger.Info("converted skeleton",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"sections", result.Stats.SectionCount,
		"duration", result.Stats.ConvertTime)

	if !opts.Refresh {
		var buf bytes.Buffer
		if err := morphio.Write(&buf, result.Document); err == nil {
			if err := r.Cache.Set(ctx, morphKey, buf.Bytes(), cache.MorphologyTTL); err == nil {
				observability.Cache().OnCacheSet(ctx, "morphology", buf.Len())
			}
		}
	}

	return result, r.write(ctx, logger, result, opts)
}

func sectionCount(conv *ConvertResult) int {
	if conv == nil || conv.Morphology == nil {
		return 0
	}
	return conv.Morphology.SectionCount()
}

// parse loads the skeleton, merges cross-section overrides, and flattens it
// into a graph, serving the raw skeleton from cache when it can.
func (r *Runner) parse(ctx context.Context, logger *log.Logger, result *Result, inputHash string, opts Options) (*skeleton.Graph, error) {
	parseStart := time.Now()
	observability.Conversion().OnParseStart(ctx, result.RunID, opts.SkeletonPath)

	skel, hit, err := r.loadSkeleton(ctx, inputHash, opts)
	if err != nil {
		observability.Conversion().OnParseComplete(ctx, result.RunID, opts.SkeletonPath, 0, time.Since(parseStart), err)
		return nil, err
	}
	result.CacheInfo.GraphHit = hit

	g, err := skeleton.BuildGraph(skel)
	result.Stats.ParseTime = time.Since(parseStart)
	observability.Conversion().OnParseComplete(ctx, result.RunID, opts.SkeletonPath,
		nodeCount(g), result.Stats.ParseTime, err)
	if err != nil {
		return nil, err
	}

	logger.Info("parsed skeleton",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", hit,
		"duration", result.Stats.ParseTime)
	return g, nil
}

func nodeCount(g *skeleton.Graph) int {
	if g == nil {
		return 0
	}
	return g.NodeCount()
}

// loadSkeleton returns the parsed skeleton with cross-section overrides
// already applied, from cache when possible.
func (r *Runner) loadSkeleton(ctx context.Context, inputHash string, opts Options) (*skeleton.Skeleton, bool, error) {
	graphKey := r.Keyer.GraphKey(inputHash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, graphKey); err == nil && hit {
			var skel skeleton.Skeleton
			if err := json.Unmarshal(data, &skel); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return &skel, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	skel, err := skeleton.ParseFile(opts.SkeletonPath)
	if err != nil {
		return nil, false, err
	}

	if opts.XSectionPath != "" {
		data, err := skeleton.ReadXSectionFile(opts.XSectionPath)
		if err != nil {
			return nil, false, err
		}
		stats := skel.ApplyCrossSections(data)
		r.Logger.Info("applied cross-section overrides", "stats", stats.String())
	}

	if !opts.Refresh {
		if data, err := json.Marshal(skel); err == nil {
			if err := r.Cache.Set(ctx, graphKey, data, cache.GraphTTL); err == nil {
				observability.Cache().OnCacheSet(ctx, "graph", len(data))
			}
		}
	}
	return skel, false, nil
}

// write stores the morphology document at the output path.
func (r *Runner) write(ctx context.Context, logger *log.Logger, result *Result, opts Options) error {
	writeStart := time.Now()
	observability.Conversion().OnWriteStart(ctx, result.RunID, opts.OutputPath)
	err := morphio.WriteFile(opts.OutputPath, result.Document)
	result.Stats.WriteTime = time.Since(writeStart)
	observability.Conversion().OnWriteComplete(ctx, result.RunID, opts.OutputPath, result.Stats.WriteTime, err)
	if err != nil {
		return err
	}
	logger.Info("wrote morphology", "path", opts.OutputPath, "sections", len(result.Document.Sections))
	return nil
}
