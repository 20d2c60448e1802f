package geometry

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/iBaer/molflow-core/model"
)

// The XML schema is the tree-structured sibling of GEO (spec §6): a flat
// vertex list under Geometry/Vertices, a flat facet list under
// Geometry/Facets, each facet carrying the same nodes GEO encodes as
// key:value lines (Sticking, Opacity, Outgassing, Temperature, Reflection,
// Structure, Teleport, Motion, Recordings/Profile, Recordings/Texture,
// DynamicOutgassing). Indices are 0-based on disk here (GEO is 1-based);
// vertexOffset lets two geometries be merged into one vertex table.

type xmlDoc struct {
	XMLName  xml.Name    `xml:"SimulationEnvironment"`
	Geometry xmlGeometry `xml:"Geometry"`
}

type xmlGeometry struct {
	Vertices   xmlVertices   `xml:"Vertices"`
	Facets     xmlFacets     `xml:"Facets"`
	Parameters xmlParameters `xml:"Parameters"`
}

// xmlParameters is the parameter catalog referenced by facet Sticking/
// Opacity/Outgassing paramId attributes: one Parameter element per curve,
// kind-tagged since sticking/opacity/outgassing each index into their own
// slice in model.TimeDependentParams.
type xmlParameters struct {
	Parameter []xmlParameter `xml:"Parameter"`
}

type xmlParameter struct {
	ID    int        `xml:"id,attr"`
	Kind  string     `xml:"kind,attr"` // "sticking", "opacity", or "outgassing"
	Point []xmlPoint `xml:"Point"`
}

type xmlPoint struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

type xmlVertices struct {
	Indice []xmlVertex `xml:"Indice"`
}

type xmlVertex struct {
	ID           int     `xml:"id,attr"`
	X            float64 `xml:"x,attr"`
	Y            float64 `xml:"y,attr"`
	Z            float64 `xml:"z,attr"`
	VertexOffset int     `xml:"vertexOffset,attr"`
}

type xmlFacets struct {
	Facet []xmlFacet `xml:"Facet"`
}

type xmlFacet struct {
	ID         int         `xml:"id,attr"`
	Indices    xmlIndices  `xml:"Indices"`
	Sticking   xmlParam    `xml:"Sticking"`
	Opacity    xmlParam    `xml:"Opacity"`
	Outgassing xmlOutgas   `xml:"Outgassing"`
	Temperature xmlTemp    `xml:"Temperature"`
	Reflection xmlReflect  `xml:"Reflection"`
	Structure  xmlStruct   `xml:"Structure"`
	Teleport   xmlTeleport `xml:"Teleport"`
	Motion     xmlMotion   `xml:"Motion"`
	Recordings xmlRecord   `xml:"Recordings"`
}

type xmlIndices struct {
	Indice []xmlIndice `xml:"Indice"`
}

type xmlIndice struct {
	Vertex int `xml:"vertex,attr"`
}

type xmlParam struct {
	Constant float64 `xml:"constant,attr"`
	ParamID  int      `xml:"paramId,attr"`
}

type xmlOutgas struct {
	Constant float64 `xml:"constant,attr"` // Pa*m^3/s on disk in XML, no unit conversion (unlike GEO)
	ParamID  int      `xml:"paramId,attr"`
	MapFile  string   `xml:"mapFile,attr"`
}

type xmlTemp struct {
	Value               float64 `xml:"value,attr"`
	AccommodationFactor float64 `xml:"accomodationFactor,attr"`
}

type xmlReflect struct {
	Diffuse  float64 `xml:"diffusePart,attr"`
	Specular float64 `xml:"specularPart,attr"`
	CosineN  float64 `xml:"cosineExponent,attr"`
}

type xmlStruct struct {
	SuperIdx  int  `xml:"superIdx,attr"`
	SuperDest int  `xml:"superDest,attr"`
	Is2Sided  bool `xml:"is2sided,attr"`
}

type xmlTeleport struct {
	Dest int `xml:"dest,attr"`
}

type xmlMotion struct {
	IsMoving bool `xml:"isMoving,attr"`
}

type xmlRecord struct {
	Profile xmlProfile `xml:"Profile"`
	Texture xmlTexture `xml:"Texture"`
}

type xmlProfile struct {
	Type int `xml:"type,attr"`
}

type xmlTexture struct {
	Width      int  `xml:"width,attr"`
	Height     int  `xml:"height,attr"`
	CountDes   bool `xml:"countDes,attr"`
	CountAbs   bool `xml:"countAbs,attr"`
	CountRefl  bool `xml:"countRefl,attr"`
	CountTrans bool `xml:"countTrans,attr"`
}

// ParseXML reads the tree-structured XML geometry format into a Model.
func ParseXML(r io.Reader) (*model.Model, error) {
	var doc xmlDoc
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("geometry: parsing xml: %w", err)
	}

	maxID := -1
	for _, v := range doc.Geometry.Vertices.Indice {
		id := v.ID + v.VertexOffset
		if id > maxID {
			maxID = id
		}
	}
	if maxID < 0 {
		return nil, fmt.Errorf("geometry: xml file has no vertices")
	}
	vertices := make([]model.Vertex3, maxID+1)
	for _, v := range doc.Geometry.Vertices.Indice {
		vertices[v.ID+v.VertexOffset] = model.Vertex3{X: v.X, Y: v.Y, Z: v.Z}
	}

	if len(doc.Geometry.Facets.Facet) == 0 {
		return nil, fmt.Errorf("geometry: xml file has no facets")
	}

	m := &model.Model{Vertices: vertices}
	m.Facets = make([]model.Facet, len(doc.Geometry.Facets.Facet))
	maxSuper := 0
	for i, xf := range doc.Geometry.Facets.Facet {
		indices := make([]int, len(xf.Indices.Indice))
		for j, ind := range xf.Indices.Indice {
			indices[j] = ind.Vertex // already 0-based on disk
		}
		if len(indices) < 3 {
			return nil, fmt.Errorf("geometry: facet %d has fewer than 3 indices", xf.ID)
		}
		for _, idx := range indices {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("geometry: facet %d: vertex index %d out of range", xf.ID, idx)
			}
		}

		f := &m.Facets[i]
		f.GlobalID = i
		f.CDFID = -1
		f.Indices = indices
		frame := buildFacetGeometry(vertices, indices)
		vertices2, area, center := projectVertices2(vertices, indices, &frame)
		f.Frame, f.Vertices2, f.Area, f.Center = frame, vertices2, area, center

		f.Sticking, f.StickingParamID = xf.Sticking.Constant, paramIDOrDefault(xf.Sticking.ParamID)
		f.Opacity, f.OpacityParamID = xf.Opacity.Constant, paramIDOrDefault(xf.Opacity.ParamID)
		f.Outgassing, f.OutgassingParamID = xf.Outgassing.Constant, paramIDOrDefault(xf.Outgassing.ParamID)
		f.Temperature = xf.Temperature.Value
		f.AccommodationFactor = xf.Temperature.AccommodationFactor
		f.Reflect = model.ReflectType{DiffusePart: xf.Reflection.Diffuse, SpecularPart: xf.Reflection.Specular, CosineExponent: xf.Reflection.CosineN}
		f.SuperIdx = xf.Structure.SuperIdx
		f.SuperDest = xf.Structure.SuperDest
		f.Is2Sided = xf.Structure.Is2Sided
		f.TeleportDest = xf.Teleport.Dest
		f.IsMoving = xf.Motion.IsMoving
		f.TexWidth, f.TexHeight = xf.Recordings.Texture.Width, xf.Recordings.Texture.Height
		f.IsTextured = f.TexWidth > 0 && f.TexHeight > 0
		f.TexWidthD, f.TexHeightD = frame.Ulen, frame.Vlen
		f.CountDes = xf.Recordings.Texture.CountDes
		f.CountAbs = xf.Recordings.Texture.CountAbs
		f.CountRefl = xf.Recordings.Texture.CountRefl
		f.CountTrans = xf.Recordings.Texture.CountTrans
		f.ProfileType = model.ProfileType(xf.Recordings.Profile.Type)

		if xf.Outgassing.MapFile != "" {
			om, err := LoadOutgassingMapCSV(xf.Outgassing.MapFile)
			if err != nil {
				return nil, fmt.Errorf("geometry: facet %d outgassing map: %w", xf.ID, err)
			}
			om.BuildCDF()
			f.OutgassingMap = om
		}
		if f.SuperIdx+1 > maxSuper {
			maxSuper = f.SuperIdx + 1
		}
	}
	assignStructures(m, maxSuper)

	cat := newRawParamCatalog()
	for _, p := range doc.Geometry.Parameters.Parameter {
		for _, pt := range p.Point {
			cat.addPoint(p.Kind, p.ID, pt.X, pt.Y)
		}
	}
	finalizeParams(m, cat)

	return m, nil
}

func paramIDOrDefault(id int) int {
	if id == 0 {
		return -1
	}
	return id
}

// WriteXML serializes m back to the XML geometry format.
func WriteXML(w io.Writer, m *model.Model) error {
	doc := xmlDoc{}
	doc.Geometry.Vertices.Indice = make([]xmlVertex, len(m.Vertices))
	for i, v := range m.Vertices {
		doc.Geometry.Vertices.Indice[i] = xmlVertex{ID: i, X: v.X, Y: v.Y, Z: v.Z}
	}
	doc.Geometry.Facets.Facet = make([]xmlFacet, len(m.Facets))
	for i := range m.Facets {
		f := &m.Facets[i]
		xf := xmlFacet{ID: i}
		xf.Indices.Indice = make([]xmlIndice, len(f.Indices))
		for j, idx := range f.Indices {
			xf.Indices.Indice[j] = xmlIndice{Vertex: idx}
		}
		xf.Sticking = xmlParam{Constant: f.Sticking, ParamID: zeroIfNegative(f.StickingParamID)}
		xf.Opacity = xmlParam{Constant: f.Opacity, ParamID: zeroIfNegative(f.OpacityParamID)}
		xf.Outgassing = xmlOutgas{Constant: f.Outgassing, ParamID: zeroIfNegative(f.OutgassingParamID)}
		xf.Temperature = xmlTemp{Value: f.Temperature, AccommodationFactor: f.AccommodationFactor}
		xf.Reflection = xmlReflect{Diffuse: f.Reflect.DiffusePart, Specular: f.Reflect.SpecularPart, CosineN: f.Reflect.CosineExponent}
		xf.Structure = xmlStruct{SuperIdx: f.SuperIdx, SuperDest: f.SuperDest, Is2Sided: f.Is2Sided}
		xf.Teleport = xmlTeleport{Dest: f.TeleportDest}
		xf.Motion = xmlMotion{IsMoving: f.IsMoving}
		xf.Recordings.Profile.Type = int(f.ProfileType)
		xf.Recordings.Texture = xmlTexture{
			Width: f.TexWidth, Height: f.TexHeight,
			CountDes: f.CountDes, CountAbs: f.CountAbs, CountRefl: f.CountRefl, CountTrans: f.CountTrans,
		}
		doc.Geometry.Facets.Facet[i] = xf
	}
	doc.Geometry.Parameters.Parameter = append(doc.Geometry.Parameters.Parameter, xmlParamCatalog("sticking", m.Params.Sticking)...)
	doc.Geometry.Parameters.Parameter = append(doc.Geometry.Parameters.Parameter, xmlParamCatalog("opacity", m.Params.Opacity)...)
	doc.Geometry.Parameters.Parameter = append(doc.Geometry.Parameters.Parameter, xmlParamCatalog("outgassing", m.Params.Outgassing)...)

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("geometry: writing xml: %w", err)
	}
	return nil
}

// xmlParamCatalog converts one non-empty-curve catalog into its XML
// Parameter elements, the write-side mirror of ParseXML's Parameters read.
func xmlParamCatalog(kind string, curves []model.Curve) []xmlParameter {
	var out []xmlParameter
	for id, c := range curves {
		if len(c.X) == 0 {
			continue
		}
		p := xmlParameter{ID: id, Kind: kind, Point: make([]xmlPoint, len(c.X))}
		for i := range c.X {
			p.Point[i] = xmlPoint{X: c.X[i], Y: c.Y[i]}
		}
		out = append(out, p)
	}
	return out
}

func zeroIfNegative(id int) int {
	if id < 0 {
		return 0
	}
	return id
}
