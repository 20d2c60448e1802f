// Command genmap synthesizes an outgassing map CSV (facet outgassing map,
// the grid consumed by geometry.LoadOutgassingMapCSV / model.OutgassingMap)
// from 2D OpenSimplex noise, for building test geometries without a real
// experimental outgassing measurement to hand.
package main

import (
	"flag"
	"log"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/iBaer/molflow-core/geometry"
	"github.com/iBaer/molflow-core/model"
)

func main() {
	width := flag.Int("width", 32, "grid cells across U")
	height := flag.Int("height", 32, "grid cells across V")
	seed := flag.Int64("seed", 1, "noise seed")
	scale := flag.Float64("scale", 0.08, "noise sampling scale")
	meanRate := flag.Float64("mean-rate", 1e-4, "mean per-cell outgassing rate, Pa*m^3/s")
	contrast := flag.Float64("contrast", 1.0, "exponent applied to the normalized noise field before scaling")
	out := flag.String("out", "outgassing.map", "output path (writes <out> and <out>.dims)")
	flag.Parse()

	if *width <= 0 || *height <= 0 {
		log.Fatal("genmap: width and height must be positive")
	}

	noise := opensimplex.New(*seed)
	rates := make([]float64, *width**height)
	for j := 0; j < *height; j++ {
		for i := 0; i < *width; i++ {
			nx, ny := float64(i)**scale, float64(j)**scale
			n := (noise.Eval2(nx, ny) + 1) * 0.5
			if *contrast != 1.0 {
				n = math.Pow(n, *contrast)
			}
			rates[j**width+i] = n * 2 * *meanRate
		}
	}

	om := &model.OutgassingMap{W: *width, H: *height, Rates: rates}
	if err := geometry.SaveOutgassingMapCSV(*out, om); err != nil {
		log.Fatalf("genmap: %v", err)
	}
	log.Printf("genmap: wrote %dx%d outgassing map to %s (+.dims)", *width, *height, *out)
}
