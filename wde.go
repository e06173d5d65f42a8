package wde

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"runtime"
)

// TreeType selects the spatial index used for nearest-neighbor queries.
type TreeType string

const (
	// TreeAuto picks TreeBrute for small sample sets and TreeKDTree
	// otherwise.
	TreeAuto     TreeType = "auto"
	TreeKDTree   TreeType = "kdtree"
	TreeBallTree TreeType = "balltree"
	TreeBrute    TreeType = "brute"
)

// autoBruteCutoff is the sample count below which TreeAuto falls back to
// brute-force queries; tree construction overhead dominates under it.
const autoBruteCutoff = 32

func validTreeType(t TreeType) bool {
	switch t {
	case TreeAuto, TreeKDTree, TreeBallTree, TreeBrute:
		return true
	}
	return false
}

// Config holds the parameters of a wavelet density estimator.
type Config struct {
	// Basis is the wavelet basis of the expansion. Required.
	Basis Basis
	// K is the nearest-neighbor rank of the ball-volume estimator.
	K int
	// DeltaJ is the number of detail levels above the base resolution.
	// Zero means a scaling-functions-only fit.
	DeltaJ int
	// Loss is the cross-validation objective.
	Loss Loss
	// Ordering ranks beta candidates before thresholding.
	Ordering Ordering
	// MultiLevel enables per-level threshold refinement in FitCV.
	MultiLevel bool
	// MDLRanking orders candidates in FitMDL.
	MDLRanking MDLRanking
	// Tree selects the spatial index.
	Tree TreeType
	// LeafSize bounds tree leaf nodes.
	LeafSize int
	// Workers is the parallelism of coefficient computation.
	// Zero means runtime.NumCPU().
	Workers int
	// Progress, when set, receives fitting events.
	Progress ProgressFunc
}

// DefaultConfig returns a config with the defaults every zero field falls
// back to. Basis has no default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		K:          1,
		Loss:       LossNormed,
		Ordering:   OrderAQ,
		MDLRanking: MDLByContribution,
		Tree:       TreeAuto,
		LeafSize:   40,
	}
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.K == 0 {
		cfg.K = def.K
	}
	if cfg.Loss == "" {
		cfg.Loss = def.Loss
	}
	if cfg.Ordering == "" {
		cfg.Ordering = def.Ordering
	}
	if cfg.MDLRanking == "" {
		cfg.MDLRanking = def.MDLRanking
	}
	if cfg.Tree == "" {
		cfg.Tree = def.Tree
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = def.LeafSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Basis == nil {
		return fmt.Errorf("%w: Basis is required", ErrInvalidConfig)
	}
	if d := cfg.Basis.Dims(); d < 1 || d > MaxDims {
		return fmt.Errorf("%w: basis dimensionality %d out of range [1, %d]", ErrInvalidConfig, d, MaxDims)
	}
	if cfg.K < 1 {
		return fmt.Errorf("%w: K must be >= 1, got %d", ErrInvalidConfig, cfg.K)
	}
	if cfg.DeltaJ < 0 {
		return fmt.Errorf("%w: DeltaJ must be >= 0, got %d", ErrInvalidConfig, cfg.DeltaJ)
	}
	if !validLoss(cfg.Loss) {
		return fmt.Errorf("%w: unknown loss %q", ErrInvalidConfig, cfg.Loss)
	}
	if !validOrdering(cfg.Ordering) {
		return fmt.Errorf("%w: unknown ordering %q", ErrInvalidConfig, cfg.Ordering)
	}
	if !validMDLRanking(cfg.MDLRanking) {
		return fmt.Errorf("%w: unknown MDL ranking %q", ErrInvalidConfig, cfg.MDLRanking)
	}
	if !validTreeType(cfg.Tree) {
		return fmt.Errorf("%w: unknown tree type %q", ErrInvalidConfig, cfg.Tree)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("%w: LeafSize must be >= 1, got %d", ErrInvalidConfig, cfg.LeafSize)
	}
	return nil
}

// Estimator fits square-root wavelet density estimates. It caches the
// neighbor structure and coefficient table of the last sample set, so
// different fitting strategies over the same samples share one
// preparation pass. An Estimator must not be used concurrently.
type Estimator struct {
	cfg   Config
	basis Basis
	dims  int

	// sample-set state, rebuilt when the samples change
	n        int
	data     []float64
	minx     []float64
	maxx     []float64
	tree     SpatialTree
	balls    *BallVolumeInfo
	store    *CoefficientStore
	hasBetas bool
	dataHash uint64

	lastSingle *ThresholdResult
	lastMulti  []ThresholdResult
}

// New constructs an estimator from cfg. Zero-valued fields take their
// DefaultConfig values before validation.
func New(cfg Config) (*Estimator, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Estimator{
		cfg:   cfg,
		basis: cfg.Basis,
		dims:  cfg.Basis.Dims(),
	}, nil
}

// Config returns the estimator's effective configuration, defaults applied.
func (e *Estimator) Config() Config { return e.cfg }

// Invalidate drops the cached sample-set state. The next fit recomputes
// everything even for identical samples.
func (e *Estimator) Invalidate() {
	e.n = 0
	e.data = nil
	e.minx = nil
	e.maxx = nil
	e.tree = nil
	e.balls = nil
	e.store = nil
	e.hasBetas = false
	e.dataHash = 0
	e.lastSingle = nil
	e.lastMulti = nil
}

// Coefficients returns the full coefficient table computed for the current
// sample set, or nil before the first fit.
func (e *Estimator) Coefficients() *CoefficientStore { return e.store }

// LastSingleThreshold returns the single-threshold curve of the most
// recent FitCV call against the current sample set.
func (e *Estimator) LastSingleThreshold() (ThresholdResult, bool) {
	if e.lastSingle == nil {
		return ThresholdResult{}, false
	}
	return *e.lastSingle, true
}

// LastMultiThresholds returns the per-level threshold results of the most
// recent multi-level FitCV call, or nil.
func (e *Estimator) LastMultiThresholds() []ThresholdResult { return e.lastMulti }

// hashSamples fingerprints a flattened sample matrix so repeated fits over
// the same samples reuse the cached neighbor and coefficient state.
func hashSamples(data []float64, n, dims int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(dims))
	h.Write(buf[:])
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// prepareSamples validates and flattens the samples, then builds the
// spatial index and ball volumes. A sample set identical to the cached one
// is a no-op.
func (e *Estimator) prepareSamples(data [][]float64) error {
	n := len(data)
	if n == 0 {
		return fmt.Errorf("%w: empty sample set", ErrInsufficientSamples)
	}
	flat := make([]float64, 0, n*e.dims)
	for i, row := range data {
		if len(row) != e.dims {
			return fmt.Errorf("%w: row %d has %d features, basis has %d", ErrDimensionMismatch, i, len(row), e.dims)
		}
		flat = append(flat, row...)
	}

	hash := hashSamples(flat, n, e.dims)
	if e.data != nil && hash == e.dataHash {
		return nil
	}
	e.Invalidate()

	minx := make([]float64, e.dims)
	maxx := make([]float64, e.dims)
	copy(minx, flat[:e.dims])
	copy(maxx, flat[:e.dims])
	for i := 1; i < n; i++ {
		row := flat[i*e.dims : (i+1)*e.dims]
		for ax, v := range row {
			if v < minx[ax] {
				minx[ax] = v
			}
			if v > maxx[ax] {
				maxx[ax] = v
			}
		}
	}

	metric := EuclideanMetric{}
	var tree SpatialTree
	treeType := e.cfg.Tree
	if treeType == TreeAuto {
		if n < autoBruteCutoff {
			treeType = TreeBrute
		} else {
			treeType = TreeKDTree
		}
	}
	switch treeType {
	case TreeKDTree:
		tree = NewKDTree(flat, n, e.dims, metric, e.cfg.LeafSize)
	case TreeBallTree:
		tree = NewBallTree(flat, n, e.dims, metric, e.cfg.LeafSize)
	default:
		tree = newBruteTree(flat, n, e.dims, metric)
	}

	balls, err := ComputeBallVolumes(tree, e.cfg.K)
	if err != nil {
		return err
	}

	e.n = n
	e.data = flat
	e.minx = minx
	e.maxx = maxx
	e.tree = tree
	e.balls = balls
	e.dataHash = hash
	return nil
}

// prepare readies the coefficient table for fitting: scaling coefficients
// always, detail coefficients for levels 0..DeltaJ-1 when withBetas is set.
func (e *Estimator) prepare(data [][]float64, withBetas bool) error {
	if err := e.prepareSamples(data); err != nil {
		return err
	}
	qs := quadrants(e.dims)
	if e.store == nil {
		e.store = newCoefficientStore()
		e.addIndexes(e.store, 0, qs[:1])
		e.computePending(e.store)
	}
	if withBetas && !e.hasBetas {
		for lvl := 0; lvl < e.cfg.DeltaJ; lvl++ {
			e.addIndexes(e.store, lvl, qs[1:])
		}
		e.computePending(e.store)
		e.hasBetas = true
	}
	return nil
}

func (e *Estimator) info(strategy string) Info {
	return Info{
		Basis:    e.basis.Name(),
		N:        e.n,
		J0:       e.basis.J0(),
		DeltaJ:   e.cfg.DeltaJ,
		K:        e.cfg.K,
		Strategy: strategy,
	}
}

// Fit estimates the density with every computed coefficient: all scaling
// coefficients plus all detail coefficients up to DeltaJ levels.
func (e *Estimator) Fit(data [][]float64) (*Density, error) {
	if err := e.prepare(data, true); err != nil {
		return nil, err
	}
	return newDensity(e.basis, e.store, e.info("Full"))
}

// FitMDL estimates the density with the coefficient subset chosen by the
// minimum-description-length criterion.
func (e *Estimator) FitMDL(data [][]float64) (*Density, error) {
	if err := e.prepare(data, true); err != nil {
		return nil, err
	}
	reduced := e.selectMDL()
	return newDensity(e.basis, reduced, e.info("MDL"))
}

// FitCV estimates the density with the coefficient subset chosen by
// leave-one-out threshold selection: a single global cutoff, refined to
// per-level cutoffs when MultiLevel is set. Requires DeltaJ >= 1; with no
// detail coefficients there is nothing to threshold.
func (e *Estimator) FitCV(data [][]float64) (*Density, error) {
	if e.cfg.DeltaJ < 1 {
		return nil, fmt.Errorf("%w: threshold selection needs DeltaJ >= 1", ErrInvalidConfig)
	}
	if err := e.prepare(data, true); err != nil {
		return nil, err
	}

	set := e.computeContributions(e.store, e.cfg.Ordering)
	single := e.singleThreshold(set, e.cfg.Loss)
	e.lastSingle = &single
	e.lastMulti = nil

	var keys []Index
	keys = append(keys, set.alphaKeys...)
	strategy := "CV-Single"
	if e.cfg.MultiLevel {
		strategy = "CV-Multi"
		e.lastMulti = e.multiThreshold(single, set, e.cfg.Loss)
		for _, res := range e.lastMulti {
			for _, c := range res.Sorted[:res.PosK+1] {
				keys = append(keys, c.Key)
			}
		}
	} else {
		for _, c := range single.Sorted[:single.PosK+1] {
			keys = append(keys, c.Key)
		}
	}

	info := e.info(strategy)
	info.Loss = e.cfg.Loss
	info.Ordering = e.cfg.Ordering
	return newDensity(e.basis, e.store.Subset(keys), info)
}

// FitIterative estimates the density by greedy coefficient expansion,
// growing the detail levels on demand instead of computing them up front.
// The fitted Info reports the effective expansion depth reached, not the
// configured DeltaJ.
func (e *Estimator) FitIterative(data [][]float64) (*Density, error) {
	if err := e.prepare(data, false); err != nil {
		return nil, err
	}
	reduced, depth := e.selectIterative()
	info := e.info("Iter")
	info.DeltaJ = depth
	return newDensity(e.basis, reduced, info)
}
