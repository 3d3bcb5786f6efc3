package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modelgraph/pkg/cache"
	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so that caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; each run builds its own graph.
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

// Execute runs the complete build → group → layout → score → adapt
// pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	inputHash, err := opts.InputHash()
	if err != nil {
		return nil, err
	}
	keyOpts, err := opts.LayoutKeyOpts()
	if err != nil {
		return nil, err
	}
	cacheKey := r.Keyer.LayoutKey(inputHash, keyOpts)

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, cacheKey, hasVisual); ok {
			cached.InputHash = inputHash
			cached.CacheInfo.LayoutHit = true
			r.Logger.Info("loaded layout from cache", "entities", len(cached.Visual.Entities))
			return cached, nil
		}
	}

	result := &Result{InputHash: inputHash}

	// Stage 1: Build
	buildStart := time.Now()
	build := opts
	build.Group = false
	g, err := BuildGraph(build)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Stats.BuildTime = time.Since(buildStart)
	result.Dangling = g.Dangling()
	r.Logger.Info("built graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"dangling", len(result.Dangling),
		"duration", result.Stats.BuildTime)
	for _, d := range result.Dangling {
		r.Logger.Debug("skipped reference", "ref", d.String())
	}

	// Stage 2: Group
	if opts.Group {
		groupStart := time.Now()
		if err := Group(g); err != nil {
			return nil, err
		}
		result.Stats.GroupTime = time.Since(groupStart)
		r.Logger.Info("grouped generalizations",
			"subgraphs", g.GraphCount()-1,
			"duration", result.Stats.GroupTime)
	}

	// Stage 3: Layout
	layoutStart := time.Now()
	g, err = Layout(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	r.Logger.Info("computed layout",
		"algorithm", opts.Config.Main.Algorithm,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Score
	metricsStart := time.Now()
	result.Metrics = Score(g)
	result.Stats.MetricsTime = time.Since(metricsStart)

	// Stage 5: Adapt
	result.Graph = g
	result.Visual = Adapt(g, opts)
	result.Stats.setCounts(g)

	r.store(ctx, cacheKey, result, cache.TTLLayout)
	return result, nil
}

// Evaluate scores the layout stored in opts.Visual without running a
// layout backend. Reports are cached by input hash.
func (r *Runner) Evaluate(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBuild(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	inputHash, err := opts.InputHash()
	if err != nil {
		return nil, err
	}
	cacheKey := r.Keyer.MetricsKey(inputHash)

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, cacheKey, hasMetrics); ok {
			cached.InputHash = inputHash
			cached.CacheInfo.MetricsHit = true
			return cached, nil
		}
	}

	result := &Result{InputHash: inputHash}
	buildStart := time.Now()
	g, err := BuildGraph(opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Stats.BuildTime = time.Since(buildStart)
	result.Dangling = g.Dangling()

	metricsStart := time.Now()
	result.Metrics = Score(g)
	result.Stats.MetricsTime = time.Since(metricsStart)
	result.Graph = g
	result.Stats.setCounts(g)
	r.Logger.Info("scored layout", "metrics", len(result.Metrics.Results), "duration", result.Stats.MetricsTime)

	r.store(ctx, cacheKey, result, cache.TTLMetrics)
	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup returns a cached result. Read and decode failures count as
// misses, as do entries that decode but fail complete.
func (r *Runner) lookup(ctx context.Context, key string, complete func(*Result) bool) (*Result, bool) {
	keyType := cache.KeyType(key)
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key_type", keyType, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.Logger.Debug("discarding undecodable cache entry", "key_type", keyType, "error", err)
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	if !complete(&res) {
		r.Logger.Debug("discarding incomplete cache entry", "key_type", keyType)
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return &res, true
}

// store caches a result. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, key string, res *Result, ttl time.Duration) {
	data, err := json.Marshal(res)
	if err != nil {
		r.Logger.Warn("cache encode failed", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(data))
}

func hasVisual(res *Result) bool { return res.Visual != nil }

func hasMetrics(res *Result) bool { return len(res.Metrics.Results) > 0 }

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (s *Stats) setCounts(g *diagram.MainGraph) {
	s.NodeCount = g.NodeCount()
	s.EdgeCount = g.EdgeCount()
	s.SubgraphCount = g.GraphCount() - 1
	s.DanglingCount = len(g.Dangling())
}
