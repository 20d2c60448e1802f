package geometry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/iBaer/molflow-core/model"
)

// momentRow is one row of a moments file: a simulation time in seconds and
// the half-window width used to bucket hits into it (model.Model.MomentTimes
// only needs the time; Window is kept for round-tripping a file produced by
// an external tool that also records it).
type momentRow struct {
	Time   float64 `csv:"time"`
	Window float64 `csv:"window"`
}

// LoadMomentsCSV reads a moments file (--moments flag, spec §6) into a
// sorted list of simulation times.
func LoadMomentsCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geometry: opening moments file: %w", err)
	}
	defer f.Close()

	var rows []*momentRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("geometry: parsing moments file: %w", err)
	}
	times := make([]float64, len(rows))
	for i, r := range rows {
		times[i] = r.Time
	}
	return times, nil
}

// SaveMomentsCSV writes a moments file back out, windowHalfWidth applied to
// every row (the core itself uses a single fixed window, model.Model's
// LookupMomentIndex halfWindow constant).
func SaveMomentsCSV(path string, times []float64, windowHalfWidth float64) error {
	rows := make([]*momentRow, len(times))
	for i, t := range times {
		rows[i] = &momentRow{Time: t, Window: windowHalfWidth}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geometry: creating moments file: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("geometry: writing moments file: %w", err)
	}
	return nil
}

// outgassingCell is one row of a facet's outgassing-map CSV: a flattened
// cell index and its per-cell outgassing rate in Pa*m^3/s.
type outgassingCell struct {
	Cell int     `csv:"cell"`
	Rate float64 `csv:"rate"`
}

// LoadOutgassingMapCSV reads a facet's outgassingMapFile: the grid's W/H
// come from a sidecar CSV at path+".dims" (columns w,h), and the cell rates
// from the (cell,rate) table at path, so each file stays a single flat table
// gocsv can read directly.
type outgassingDims struct {
	W int `csv:"w"`
	H int `csv:"h"`
}

func LoadOutgassingMapCSV(path string) (*model.OutgassingMap, error) {
	dimsFile, err := os.Open(path + ".dims")
	if err != nil {
		return nil, fmt.Errorf("geometry: opening outgassing map dims %q: %w", path+".dims", err)
	}
	var dims []*outgassingDims
	derr := gocsv.Unmarshal(dimsFile, &dims)
	dimsFile.Close()
	if derr != nil || len(dims) == 0 {
		return nil, fmt.Errorf("geometry: reading outgassing map dims: %w", derr)
	}
	w, h := dims[0].W, dims[0].H

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geometry: opening outgassing map %q: %w", path, err)
	}
	defer f.Close()
	var rows []*outgassingCell
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("geometry: parsing outgassing map: %w", err)
	}

	rates := make([]float64, w*h)
	for _, r := range rows {
		if r.Cell < 0 || r.Cell >= len(rates) {
			return nil, fmt.Errorf("geometry: outgassing map cell %d out of range for %dx%d grid", r.Cell, w, h)
		}
		rates[r.Cell] = r.Rate
	}
	return &model.OutgassingMap{W: w, H: h, Rates: rates}, nil
}

// SaveOutgassingMapCSV writes a facet's outgassing map back to its flat CSV
// plus its dims sidecar.
func SaveOutgassingMapCSV(path string, om *model.OutgassingMap) error {
	dimsFile, err := os.Create(path + ".dims")
	if err != nil {
		return fmt.Errorf("geometry: creating outgassing map dims: %w", err)
	}
	err = gocsv.Marshal([]*outgassingDims{{W: om.W, H: om.H}}, dimsFile)
	dimsFile.Close()
	if err != nil {
		return fmt.Errorf("geometry: writing outgassing map dims: %w", err)
	}

	rows := make([]*outgassingCell, len(om.Rates))
	for i, rate := range om.Rates {
		rows[i] = &outgassingCell{Cell: i, Rate: rate}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geometry: creating outgassing map: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("geometry: writing outgassing map: %w", err)
	}
	return nil
}
