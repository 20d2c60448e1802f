package observe

// TextureLimit tracks the min/max of one physical quantity (pressure,
// impingement rate, or density) across all textured cells, split between
// "all moments" and "moments-only" scans (spec §4.E step 5).
type TextureLimit struct {
	MinAll, MaxAll         float64
	MinMomentsOnly, MaxMomentsOnly float64
}

// TextureLimits holds the three physical quantities' limits.
type TextureLimits struct {
	Pressure     TextureLimit
	ImpRate      TextureLimit
	Density      TextureLimit
}

// State is the observable aggregate shape shared by ThreadState (one per
// worker, written only by its owner) and GlobalState (shared, merged under
// a timed mutex). They are structurally identical; GlobalState adds the
// caches and texture limits that only make sense on the merged snapshot.
type State struct {
	Global GlobalHits
	DistTraveledTotal             float64
	DistTraveledTotalFullHitsOnly float64
	NbLeakTotal                   int64

	GlobalHistogram []Histogram // indexed by moment, index 0 = steady state

	Facets []FacetState // one per Model.Facets entry
}

// NewState allocates a State matching the model's facet/moment/texture
// dimensions. bounceBins/distanceBins/timeBins size the global histograms;
// perFacet supplies each facet's own (texW,texH,profileSize,angleMapSize).
func NewState(nbMoments, bounceBins, distanceBins, timeBins int, perFacet []FacetDims) State {
	n := nbMoments + 1
	s := State{
		GlobalHistogram: make([]Histogram, n),
		Facets:          make([]FacetState, len(perFacet)),
	}
	for m := 0; m < n; m++ {
		s.GlobalHistogram[m] = NewHistogram(bounceBins, distanceBins, timeBins)
	}
	for i, d := range perFacet {
		s.Facets[i] = NewFacetState(nbMoments, d.TexW, d.TexH, d.ProfileSize, bounceBins, distanceBins, timeBins, d.AngleMapSize)
	}
	return s
}

// FacetDims carries the per-facet sizing needed to allocate a FacetState.
type FacetDims struct {
	TexW, TexH, ProfileSize, AngleMapSize int
}

// Add merges src into s (commutative additive merge, spec §4.E step 2).
func (s *State) Add(src *State) {
	s.Global.Add(&src.Global)
	s.DistTraveledTotal += src.DistTraveledTotal
	s.DistTraveledTotalFullHitsOnly += src.DistTraveledTotalFullHitsOnly
	s.NbLeakTotal += src.NbLeakTotal
	for m := range s.GlobalHistogram {
		s.GlobalHistogram[m].Add(&src.GlobalHistogram[m])
	}
	for i := range s.Facets {
		s.Facets[i].Add(&src.Facets[i])
	}
}

// Reset zeroes s in place without reallocating (spec §4.F Reset()).
func (s *State) Reset() {
	s.Global = GlobalHits{}
	s.DistTraveledTotal = 0
	s.DistTraveledTotalFullHitsOnly = 0
	s.NbLeakTotal = 0
	for m := range s.GlobalHistogram {
		s.GlobalHistogram[m].Reset()
	}
	for i := range s.Facets {
		s.Facets[i].Reset()
	}
}

// ThreadState is one worker's private, allocation-free scratch + buffers.
type ThreadState struct {
	State

	HitCache  Ring[HitRecord]
	LeakCache Ring[LeakRecord]

	ParticleID int // this worker's particle slot id; only id 0 feeds HitCache into the global merge

	// Reused per-facet scratch (tmpFacetVars, spec §9): sized to nbFacet,
	// avoids per-hit allocation in the hot loop.
	Scratch []FacetScratch
}

// FacetScratch is the per-facet-per-particle scratch row (spec §3's
// tmpFacetVars and §9's sizing guidance).
type FacetScratch struct {
	ColU, ColV           float64
	ColDist              float64
	ColDistTranspPass    float64
	IsHit                bool
}

// NewThreadState allocates a ThreadState for a worker.
func NewThreadState(nbMoments, bounceBins, distanceBins, timeBins int, perFacet []FacetDims, hitCacheSize, leakCacheSize, particleID int) *ThreadState {
	return &ThreadState{
		State:      NewState(nbMoments, bounceBins, distanceBins, timeBins, perFacet),
		HitCache:   NewRing[HitRecord](hitCacheSize),
		LeakCache:  NewRing[LeakRecord](leakCacheSize),
		ParticleID: particleID,
		Scratch:    make([]FacetScratch, len(perFacet)),
	}
}

// Reset zeroes the thread state's accumulators and caches but keeps scratch
// buffer capacity (driver's responsibility after a successful merge, spec §4.E).
func (t *ThreadState) Reset() {
	t.State.Reset()
	t.HitCache.Reset()
	t.LeakCache.Reset()
}

// GlobalState is the authoritative aggregate, protected by one timed mutex
// (owned by the reduce package, not embedded here to keep State's merge
// logic mutex-agnostic and independently testable).
type GlobalState struct {
	State

	HitCache      Ring[HitRecord]
	LeakCache     Ring[LeakRecord]
	TextureLimits TextureLimits
}

// NewGlobalState allocates a GlobalState matching the model dimensions.
func NewGlobalState(nbMoments, bounceBins, distanceBins, timeBins int, perFacet []FacetDims, hitCacheSize, leakCacheSize int) *GlobalState {
	return &GlobalState{
		State:     NewState(nbMoments, bounceBins, distanceBins, timeBins, perFacet),
		HitCache:  NewRing[HitRecord](hitCacheSize),
		LeakCache: NewRing[LeakRecord](leakCacheSize),
	}
}

// Reset zeroes the global state (spec §4.F ClearSimulation/ResetSimulation).
func (g *GlobalState) Reset() {
	g.State.Reset()
	g.HitCache.Reset()
	g.LeakCache.Reset()
	g.TextureLimits = TextureLimits{}
}
