package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/bricklayers/pkg/cache"
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/gcode"
	"github.com/matzehuels/bricklayers/pkg/io"
	"github.com/matzehuels/bricklayers/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
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

// memo is the cached form of a run's result.
type memo struct {
	Output   []byte           `json:"output"`
	Stats    Stats            `json:"stats"`
	Warnings []errors.Warning `json:"warnings"`
}

// Execute runs the complete parse → transform → emit pipeline on input.
//
// The output for the same input and options is memoized unless
// opts.Refresh is set. Either the complete output is returned or an error;
// the input is never modified.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		InputHash: cache.Hash(input),
	}
	logger := opts.Logger.With("run", result.RunID)

	key := r.Keyer.OutputKey(result.InputHash, opts.OutputKeyOpts())
	if !opts.Refresh {
		if m, ok := r.loadMemo(ctx, key); ok {
			result.Output = m.Output
			result.OutputHash = cache.Hash(m.Output)
			result.Stats = m.Stats
			result.Warnings = m.Warnings
			result.CacheInfo.OutputHit = true
			logger.Info("reused cached output", "layers", m.Stats.Layers, "bytes", len(m.Output))
			return result, nil
		}
	}

	hooks := observability.Pipeline()

	// Stage 1: Parse
	hooks.OnParseStart(ctx, len(input))
	parseStart := time.Now()
	p, warnings, err := Parse(input, opts.Dialect)
	result.Stats.ParseTime = time.Since(parseStart)
	lines := 0
	if p != nil {
		lines = p.Lines()
	}
	hooks.OnParseComplete(ctx, lines, result.Stats.ParseTime, err)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Program = p
	result.Stats.Lines = lines
	result.Stats.Dialect = p.Dialect.Name
	result.Stats.DialectDetected = p.Detected
	result.Stats.ExtrusionIn = gcode.TotalDeposit(p.Body)

	logger.Debug("parsed file",
		"lines", lines,
		"dialect", p.Dialect.Name,
		"detected", p.Detected,
		"duration", result.Stats.ParseTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Transform
	transformStart := time.Now()
	layers, segWarnings := Segment(p)
	warnings = append(warnings, segWarnings...)
	hooks.OnTransformStart(ctx, len(layers))
	state := Transform(layers, p, opts.Transform)
	warnings = append(warnings, state.Warnings...)
	result.Layers = layers
	result.Stats.Layers = len(layers)
	result.Stats.BodyLayers = bodyLayers(layers)
	result.Stats.Features = featureCounts(layers)
	result.Stats.Transform = state.Stats
	result.Stats.TransformTime = time.Since(transformStart)
	hooks.OnTransformComplete(ctx, result.Stats.Changed(), result.Stats.TransformTime)

	logger.Debug("transformed layers",
		"layers", len(layers),
		"shifted", state.Stats.ShiftedLayers,
		"displaced", state.Stats.DisplacedMoves,
		"reordered", state.Stats.ReorderedLoops,
		"duration", result.Stats.TransformTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Emit
	emitStart := time.Now()
	result.Output = Emit(p, layers)
	result.OutputHash = cache.Hash(result.Output)
	result.Stats.ExtrusionOut = gcode.TotalDeposit(p.Body)
	result.Stats.EmitTime = time.Since(emitStart)
	hooks.OnEmitComplete(ctx, len(result.Output), result.Stats.EmitTime)

	result.Warnings = warnings
	for _, w := range warnings {
		hooks.OnWarning(ctx, w)
		logWarning(logger, w)
	}

	logger.Info("processed file",
		"layers", len(layers),
		"shifted_layers", state.Stats.ShiftedLayers,
		"displaced_moves", state.Stats.DisplacedMoves,
		"reordered_loops", state.Stats.ReorderedLoops,
		"warnings", len(warnings))

	r.storeMemo(ctx, key, memo{Output: result.Output, Stats: result.Stats, Warnings: warnings}, logger)
	return result, nil
}

// Analyze parses and segments input without transforming it. The result has
// no output; its layers carry the feature tags.
func (r *Runner) Analyze(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	p, warnings, err := Parse(input, opts.Dialect)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	layers, segWarnings := Segment(p)

	result := &Result{
		RunID:     uuid.NewString(),
		InputHash: cache.Hash(input),
		Program:   p,
		Layers:    layers,
		Warnings:  append(warnings, segWarnings...),
	}
	result.Stats.Lines = p.Lines()
	result.Stats.Layers = len(layers)
	result.Stats.BodyLayers = bodyLayers(layers)
	result.Stats.Dialect = p.Dialect.Name
	result.Stats.DialectDetected = p.Detected
	result.Stats.Features = featureCounts(layers)
	result.Stats.ExtrusionIn = gcode.TotalDeposit(p.Body)
	result.Stats.ExtrusionOut = result.Stats.ExtrusionIn
	result.Stats.ParseTime = time.Since(start)
	return result, nil
}

// ProcessFile rewrites the file at path.
//
// Files the tool already wrote are left untouched unless fopts.Force is set,
// since processing them again would shift every wall twice. The run still
// succeeds: the result carries the earlier report in Skipped and an
// ALREADY_PROCESSED warning. The original bytes and a [Report] are recorded in the cache so the file
// can be put back with [Runner.Restore]. The output replaces the input
// atomically, or goes to fopts.Output when set.
func (r *Runner) ProcessFile(ctx context.Context, path string, opts Options, fopts FileOptions) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger.With("file", path)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	data, err := io.ReadGCode(path)
	if err != nil {
		return nil, err
	}

	if !fopts.Force {
		if rep, ok := r.Lookup(ctx, data); ok {
			w := errors.NewWarning(errors.WarnAlreadyProcessed, -1, 0,
				"written by %s on %s, left untouched (use --force to process it again)",
				rep.Tool, rep.CreatedAt.Format(time.DateTime))
			logger.Warn("file already processed", "run", rep.RunID, "tool", rep.Tool)
			return &Result{
				RunID:     uuid.NewString(),
				Warnings:  []errors.Warning{w},
				InputHash: cache.Hash(data),
				Skipped:   rep,
			}, nil
		}
	}

	result, err := r.Execute(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	if fopts.DryRun {
		logger.Info("dry run, nothing written", "bytes", len(result.Output))
		return result, nil
	}

	dest := path
	if fopts.Output != "" {
		dest = fopts.Output
	}
	if result.OutputHash != result.InputHash {
		r.record(ctx, data, result.Report(dest, opts), logger)
	}
	if err := io.WriteAtomic(ctx, dest, result.Output); err != nil {
		return nil, err
	}
	logger.Info("wrote file", "path", dest, "bytes", len(result.Output))
	return result, nil
}

// Lookup returns the report recorded for a file the tool wrote, identified
// by its content.
func (r *Runner) Lookup(ctx context.Context, data []byte) (*Report, bool) {
	hooks := observability.Cache()
	raw, hit, err := r.Cache.Get(ctx, r.Keyer.MarkerKey(cache.Hash(data)))
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, "marker")
		return nil, false
	}
	var rep Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		hooks.OnCacheMiss(ctx, "marker")
		return nil, false
	}
	hooks.OnCacheHit(ctx, "marker")
	return &rep, true
}

// Restore puts back the input a processed file was produced from. It fails
// with NOT_FOUND when the file's content does not match any recorded output.
func (r *Runner) Restore(ctx context.Context, path string) error {
	data, err := io.ReadGCode(path)
	if err != nil {
		return err
	}
	h := cache.Hash(data)
	hooks := observability.Cache()

	original, hit, err := r.Cache.Get(ctx, r.Keyer.OriginalKey(h))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "read cache")
	}
	if !hit {
		hooks.OnCacheMiss(ctx, "original")
		return errors.New(errors.ErrCodeNotFound, "no original recorded for %s", path)
	}
	hooks.OnCacheHit(ctx, "original")

	if err := io.WriteAtomic(ctx, path, original); err != nil {
		return err
	}
	for _, key := range []string{r.Keyer.MarkerKey(h), r.Keyer.OriginalKey(h)} {
		if err := r.Cache.Delete(ctx, key); err != nil {
			r.Logger.Warn("failed to delete cache entry", "key", key, "error", err)
		}
	}
	r.Logger.Info("restored file", "path", path, "bytes", len(original))
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// record stores the original bytes and the report under the output hash.
// Cache failures are logged; they never fail the run.
func (r *Runner) record(ctx context.Context, original []byte, rep Report, logger *log.Logger) {
	hooks := observability.Cache()
	if err := r.Cache.Set(ctx, r.Keyer.OriginalKey(rep.OutputHash), original, cache.TTLOriginal); err != nil {
		logger.Warn("failed to record original, restore will not be possible", "error", err)
		return
	}
	hooks.OnCacheSet(ctx, "original", len(original))

	data, err := json.Marshal(rep)
	if err != nil {
		logger.Warn("failed to encode report", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, r.Keyer.MarkerKey(rep.OutputHash), data, cache.TTLMarker); err != nil {
		logger.Warn("failed to record marker", "error", err)
		return
	}
	hooks.OnCacheSet(ctx, "marker", len(data))
}

func (r *Runner) loadMemo(ctx context.Context, key string) (memo, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, "output")
		return memo{}, false
	}
	var m memo
	if err := json.Unmarshal(data, &m); err != nil {
		// Unreadable entries are recomputed.
		hooks.OnCacheMiss(ctx, "output")
		return memo{}, false
	}
	hooks.OnCacheHit(ctx, "output")
	m.Stats.ParseTime, m.Stats.TransformTime, m.Stats.EmitTime = 0, 0, 0
	return m, true
}

func (r *Runner) storeMemo(ctx context.Context, key string, m memo, logger *log.Logger) {
	data, err := json.Marshal(m)
	if err != nil {
		logger.Warn("failed to encode output for cache", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLOutput); err != nil {
		logger.Warn("failed to cache output", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "output", len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// logWarning logs w. Ambiguous features are common in hand-written files
// and only logged at debug level.
func logWarning(logger *log.Logger, w errors.Warning) {
	kv := []any{"code", w.Code}
	if w.Layer >= 0 {
		kv = append(kv, "layer", w.Layer)
	}
	if w.Line > 0 {
		kv = append(kv, "line", w.Line)
	}
	if w.Code == errors.WarnAmbiguousFeature {
		logger.Debug(w.Message, kv...)
		return
	}
	logger.Warn(w.Message, kv...)
}
