// Package geometry loads and saves the Model the particle transport core
// consumes, from the two on-disk formats it must stay compatible with: the
// legacy line-oriented GEO format and the tree-structured XML format (spec
// §6). Neither format stores the derived local frame or mesh; a load always
// ends by deriving each facet's frame (buildFacetGeometry). The
// time-dependent parameter catalog (sticking/opacity/outgassing curves) and
// the Maxwell-Boltzmann speed CDFs are parsed/derived by finalizeParams
// before the Model is handed to sim.LoadSimulation; mesh.Build runs later,
// once the caller knows the run's texture resolution.
package geometry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iBaer/molflow-core/model"
)

// geoFacetRecord accumulates one facet's key:value pairs while scanning,
// since a facet's indices line and its many scalar fields can arrive in any
// order within its block.
type geoFacetRecord struct {
	indices []int

	sticking, opacity, temperature, outgassing, accommodation float64
	stickingParamID, opacityParamID, outgassingParamID        int
	desorbTypeN                                                float64
	desorbType                                                 string
	is2Sided, isMoving, countDirection, visible                bool
	superIdx, superDest, teleportDest                          int
	diffusePart, specularPart, cosineExponent                  float64
	texWidth, texHeight                                        int
	countDes, countAbs, countRefl, countTrans                  bool
	outgassingMapFile                                          string
}

// ParseGEO reads the legacy line-oriented GEO format into a Model. version
// gates the interpretation of outgassing (v7+: stored mbar·l/s, converted
// ×0.1 to the core's Pa·m³/s) and desorbTypeN/accomodationFactor (absent
// before v9/v13, left at their zero defaults).
func ParseGEO(r io.Reader) (*model.Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	m := &model.Model{}
	version := 1
	var vertices []model.Vertex3
	var facets []geoFacetRecord
	var cur *geoFacetRecord
	nbSuper := 0
	lineNo := 0
	cat := newRawParamCatalog()
	var curParamKind string
	curParamID := -1

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("geometry: geo line %d: expected 'key: value', got %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "version":
			version = mustInt(val)
		case "nbSuper":
			nbSuper = mustInt(val)
		case "gasMass":
			m.GasMass = mustFloat(val)
		case "halfLife":
			m.HalfLife = mustFloat(val)
		case "enableDecay":
			m.EnableDecay = val == "1"
		case "useMaxwellDistribution":
			m.UseMaxwellDistribution = val == "1"
		case "latestMoment":
			m.LatestMoment = mustFloat(val)
		case "totalDesorbedMolecules":
			m.TotalDesorbedMolecules = mustFloat(val)
		case "calcConstantFlow":
			m.CalcConstantFlow = val == "1"
		case "vertex":
			parts := strings.Fields(val)
			if len(parts) != 3 {
				return nil, fmt.Errorf("geometry: geo line %d: vertex needs 3 components, got %q", lineNo, val)
			}
			vertices = append(vertices, model.Vertex3{X: mustFloat(parts[0]), Y: mustFloat(parts[1]), Z: mustFloat(parts[2])})
		case "facet":
			facets = append(facets, geoFacetRecord{stickingParamID: -1, opacityParamID: -1, outgassingParamID: -1})
			cur = &facets[len(facets)-1]
		case "indices":
			if cur == nil {
				return nil, fmt.Errorf("geometry: geo line %d: indices before facet header", lineNo)
			}
			for _, f := range strings.Fields(val) {
				cur.indices = append(cur.indices, mustInt(f)-1) // 1-based on disk
			}
		case "parameter":
			parts := strings.Fields(val)
			if len(parts) != 2 {
				return nil, fmt.Errorf("geometry: geo line %d: parameter needs 'id kind', got %q", lineNo, val)
			}
			curParamID = mustInt(parts[0])
			curParamKind = parts[1]
		case "point":
			if curParamKind == "" {
				return nil, fmt.Errorf("geometry: geo line %d: point before parameter header", lineNo)
			}
			parts := strings.Fields(val)
			if len(parts) != 2 {
				return nil, fmt.Errorf("geometry: geo line %d: point needs 'x y', got %q", lineNo, val)
			}
			cat.addPoint(curParamKind, curParamID, mustFloat(parts[0]), mustFloat(parts[1]))
		default:
			if cur == nil {
				continue // unrecognised header key, tolerated for forward compatibility
			}
			if err := applyFacetKey(cur, key, val, version); err != nil {
				return nil, fmt.Errorf("geometry: geo line %d: %w", lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("geometry: reading geo: %w", err)
	}

	m.Vertices = vertices
	if len(vertices) == 0 {
		return nil, fmt.Errorf("geometry: geo file has no vertices")
	}
	if len(facets) == 0 {
		return nil, fmt.Errorf("geometry: geo file has no facets")
	}

	m.Facets = make([]model.Facet, len(facets))
	for i := range facets {
		if err := buildFacetFromRecord(m, &m.Facets[i], &facets[i], i); err != nil {
			return nil, fmt.Errorf("geometry: facet %d: %w", i+1, err)
		}
	}
	assignStructures(m, nbSuper)
	finalizeParams(m, cat)
	return m, nil
}

func applyFacetKey(f *geoFacetRecord, key, val string, version int) error {
	switch key {
	case "sticking":
		f.sticking = mustFloat(val)
	case "stickingParam":
		f.stickingParamID = mustInt(val)
	case "opacity":
		f.opacity = mustFloat(val)
	case "opacityParam":
		f.opacityParamID = mustInt(val)
	case "temperature":
		if version >= 2 {
			f.temperature = mustFloat(val)
		}
	case "countDirection":
		if version >= 2 {
			f.countDirection = val == "1"
		}
	case "visible":
		if version >= 4 {
			f.visible = val == "1"
		}
	case "teleportDest":
		if version >= 5 {
			f.teleportDest = mustInt(val)
		}
	case "outgassing":
		if version >= 7 {
			f.outgassing = mustFloat(val) * 0.1 // mbar*l/s -> Pa*m^3/s
		} else {
			f.outgassing = mustFloat(val)
		}
	case "outgassingParam":
		f.outgassingParamID = mustInt(val)
	case "outgassingMapFile":
		f.outgassingMapFile = val
	case "desorbTypeN":
		if version >= 9 {
			f.desorbTypeN = mustFloat(val)
		}
	case "accomodationFactor":
		if version >= 13 {
			f.accommodation = mustFloat(val)
		}
	case "desorbType":
		f.desorbType = val
	case "is2sided":
		f.is2Sided = val == "1"
	case "isMoving":
		f.isMoving = val == "1"
	case "superIdx":
		f.superIdx = mustInt(val)
	case "superDest":
		f.superDest = mustInt(val)
	case "diffusePart":
		f.diffusePart = mustFloat(val)
	case "specularPart":
		f.specularPart = mustFloat(val)
	case "cosineExponent":
		f.cosineExponent = mustFloat(val)
	case "texWidth":
		f.texWidth = mustInt(val)
	case "texHeight":
		f.texHeight = mustInt(val)
	case "countDes":
		f.countDes = val == "1"
	case "countAbs":
		f.countAbs = val == "1"
	case "countRefl":
		f.countRefl = val == "1"
	case "countTrans":
		f.countTrans = val == "1"
	default:
		// forward-compatible: unknown per-facet keys are ignored rather than
		// rejected, since future GEO versions may add fields this loader
		// predates.
	}
	return nil
}

func buildFacetFromRecord(m *model.Model, f *model.Facet, rec *geoFacetRecord, id int) error {
	if len(rec.indices) < 3 {
		return fmt.Errorf("fewer than 3 indices")
	}
	for _, idx := range rec.indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("vertex index %d out of range", idx+1)
		}
	}

	f.GlobalID = id
	f.CDFID = -1
	f.Indices = rec.indices
	frame := buildFacetGeometry(m.Vertices, rec.indices)
	vertices2, area, center := projectVertices2(m.Vertices, rec.indices, &frame)
	f.Frame = frame
	f.Vertices2 = vertices2
	f.Area = area
	f.Center = center

	f.Sticking = rec.sticking
	f.StickingParamID = rec.stickingParamID
	f.Opacity = rec.opacity
	f.OpacityParamID = rec.opacityParamID
	f.Temperature = rec.temperature
	f.AccommodationFactor = rec.accommodation
	f.Is2Sided = rec.is2Sided
	f.IsMoving = rec.isMoving

	f.DesorbType = parseDesorbType(rec.desorbType)
	f.DesorbTypeN = rec.desorbTypeN
	f.OutgassingParamID = rec.outgassingParamID
	f.Outgassing = rec.outgassing

	f.Reflect = model.ReflectType{DiffusePart: rec.diffusePart, SpecularPart: rec.specularPart, CosineExponent: rec.cosineExponent}

	f.SuperIdx = rec.superIdx
	f.SuperDest = rec.superDest
	f.TeleportDest = rec.teleportDest

	f.TexWidth, f.TexHeight = rec.texWidth, rec.texHeight
	f.IsTextured = rec.texWidth > 0 && rec.texHeight > 0
	f.TexWidthD, f.TexHeightD = frame.Ulen, frame.Vlen
	f.CountDes, f.CountAbs, f.CountRefl, f.CountTrans, f.CountDirection = rec.countDes, rec.countAbs, rec.countRefl, rec.countTrans, rec.countDirection

	if rec.outgassingMapFile != "" {
		om, err := LoadOutgassingMapCSV(rec.outgassingMapFile)
		if err != nil {
			return fmt.Errorf("outgassing map: %w", err)
		}
		om.BuildCDF()
		f.OutgassingMap = om
	}
	return nil
}

func parseDesorbType(s string) model.DesorbType {
	switch s {
	case "cosine", "":
		return model.DesorbCosine
	case "uniform":
		return model.DesorbUniform
	case "cosineN":
		return model.DesorbCosineN
	case "anglemap":
		return model.DesorbAngleMap
	default:
		return model.DesorbNone
	}
}

func desorbTypeName(t model.DesorbType) string {
	switch t {
	case model.DesorbCosine:
		return "cosine"
	case model.DesorbUniform:
		return "uniform"
	case model.DesorbCosineN:
		return "cosineN"
	case model.DesorbAngleMap:
		return "anglemap"
	default:
		return "none"
	}
}

// assignStructures groups facets into Model.Structures by their SuperIdx,
// since the GEO format records structure membership per-facet rather than
// as an explicit structure-to-facet index.
func assignStructures(m *model.Model, nbSuper int) {
	if nbSuper < 1 {
		nbSuper = 1
		for i := range m.Facets {
			if m.Facets[i].SuperIdx+1 > nbSuper {
				nbSuper = m.Facets[i].SuperIdx + 1
			}
		}
	}
	m.Structures = make([]model.Structure, nbSuper)
	for i := range m.Facets {
		s := m.Facets[i].SuperIdx
		if s == -1 {
			continue
		}
		if s < 0 || s >= nbSuper {
			continue
		}
		m.Structures[s].FacetIDs = append(m.Structures[s].FacetIDs, i)
	}
}

// WriteGEO serializes m in GEO format at the given version, gating which
// optional fields are emitted the same way ParseGEO gates which it reads
// (spec §6). Per-facet area is never written (v8 dropped it; callers always
// recompute on load).
func WriteGEO(w io.Writer, m *model.Model, version int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "version: %d\n", version)
	fmt.Fprintf(bw, "nbSuper: %d\n", len(m.Structures))
	fmt.Fprintf(bw, "gasMass: %s\n", fmtFloat(m.GasMass))
	fmt.Fprintf(bw, "halfLife: %s\n", fmtFloat(m.HalfLife))
	fmt.Fprintf(bw, "enableDecay: %s\n", fmtBool(m.EnableDecay))
	fmt.Fprintf(bw, "useMaxwellDistribution: %s\n", fmtBool(m.UseMaxwellDistribution))
	fmt.Fprintf(bw, "latestMoment: %s\n", fmtFloat(m.LatestMoment))
	fmt.Fprintf(bw, "totalDesorbedMolecules: %s\n", fmtFloat(m.TotalDesorbedMolecules))
	fmt.Fprintf(bw, "calcConstantFlow: %s\n", fmtBool(m.CalcConstantFlow))

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vertex: %s %s %s\n", fmtFloat(v.X), fmtFloat(v.Y), fmtFloat(v.Z))
	}

	for i := range m.Facets {
		f := &m.Facets[i]
		fmt.Fprintf(bw, "facet: %d\n", i+1)
		idxStrs := make([]string, len(f.Indices))
		for j, idx := range f.Indices {
			idxStrs[j] = strconv.Itoa(idx + 1)
		}
		fmt.Fprintf(bw, "indices: %s\n", strings.Join(idxStrs, " "))
		fmt.Fprintf(bw, "sticking: %s\n", fmtFloat(f.Sticking))
		fmt.Fprintf(bw, "stickingParam: %d\n", f.StickingParamID)
		fmt.Fprintf(bw, "opacity: %s\n", fmtFloat(f.Opacity))
		fmt.Fprintf(bw, "opacityParam: %d\n", f.OpacityParamID)
		if version >= 2 {
			fmt.Fprintf(bw, "temperature: %s\n", fmtFloat(f.Temperature))
			fmt.Fprintf(bw, "countDirection: %s\n", fmtBool(f.CountDirection))
		}
		if version >= 4 {
			fmt.Fprintf(bw, "visible: 1\n")
		}
		if version >= 5 && f.TeleportDest != 0 {
			fmt.Fprintf(bw, "teleportDest: %d\n", f.TeleportDest)
		}
		if version >= 7 {
			fmt.Fprintf(bw, "outgassing: %s\n", fmtFloat(f.Outgassing/0.1))
			fmt.Fprintf(bw, "outgassingParam: %d\n", f.OutgassingParamID)
		}
		if version >= 9 {
			fmt.Fprintf(bw, "desorbTypeN: %s\n", fmtFloat(f.DesorbTypeN))
		}
		if version >= 13 {
			fmt.Fprintf(bw, "accomodationFactor: %s\n", fmtFloat(f.AccommodationFactor))
		}
		fmt.Fprintf(bw, "desorbType: %s\n", desorbTypeName(f.DesorbType))
		fmt.Fprintf(bw, "is2sided: %s\n", fmtBool(f.Is2Sided))
		fmt.Fprintf(bw, "isMoving: %s\n", fmtBool(f.IsMoving))
		fmt.Fprintf(bw, "superIdx: %d\n", f.SuperIdx)
		fmt.Fprintf(bw, "superDest: %d\n", f.SuperDest)
		fmt.Fprintf(bw, "diffusePart: %s\n", fmtFloat(f.Reflect.DiffusePart))
		fmt.Fprintf(bw, "specularPart: %s\n", fmtFloat(f.Reflect.SpecularPart))
		fmt.Fprintf(bw, "cosineExponent: %s\n", fmtFloat(f.Reflect.CosineExponent))
		fmt.Fprintf(bw, "texWidth: %d\n", f.TexWidth)
		fmt.Fprintf(bw, "texHeight: %d\n", f.TexHeight)
		fmt.Fprintf(bw, "countDes: %s\n", fmtBool(f.CountDes))
		fmt.Fprintf(bw, "countAbs: %s\n", fmtBool(f.CountAbs))
		fmt.Fprintf(bw, "countRefl: %s\n", fmtBool(f.CountRefl))
		fmt.Fprintf(bw, "countTrans: %s\n", fmtBool(f.CountTrans))
	}

	writeParamCatalog(bw, "sticking", m.Params.Sticking)
	writeParamCatalog(bw, "opacity", m.Params.Opacity)
	writeParamCatalog(bw, "outgassing", m.Params.Outgassing)

	return bw.Flush()
}

// writeParamCatalog emits one parameter/point block per non-empty curve in
// the catalog, mirroring the facet/indices block shape ParseGEO's
// "parameter: id kind" + "point: x y" cases read back.
func writeParamCatalog(bw *bufio.Writer, kind string, curves []model.Curve) {
	for id, c := range curves {
		if len(c.X) == 0 {
			continue
		}
		fmt.Fprintf(bw, "parameter: %d %s\n", id, kind)
		for i := range c.X {
			fmt.Fprintf(bw, "point: %s %s\n", fmtFloat(c.X[i]), fmtFloat(c.Y[i]))
		}
	}
}

func mustInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func fmtBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
