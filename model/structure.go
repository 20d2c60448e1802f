package model

// Structure is an ordered spatial region; particles occupy exactly one
// structure at a time. Facets reference their owning structure by Facet.SuperIdx.
type Structure struct {
	Name       string
	FacetIDs   []int // indices into Model.Facets belonging to this structure (SuperIdx==-1 facets are implicitly in all)
}

// Vertex3 is a point in the shared world-space vertex table.
type Vertex3 struct {
	X, Y, Z float64
}
