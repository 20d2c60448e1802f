// Command validate runs the sanity check a simulation load would perform
// (sim.SanityCheckModel) against a geometry file, without starting a run, so
// malformed geometries can be caught in a CI step before they are ever
// handed to `run`.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/iBaer/molflow-core/geometry"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/sim"
)

func main() {
	path := flag.String("geometry", "", "path to a .geo or .xml geometry file")
	strict := flag.Bool("strict", true, "treat downgradable warnings as errors")
	flag.Parse()

	if *path == "" {
		log.Fatal("validate: --geometry is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("validate: %v", err)
	}
	defer f.Close()

	var m *model.Model
	if strings.HasSuffix(strings.ToLower(*path), ".xml") {
		m, err = geometry.ParseXML(f)
	} else {
		m, err = geometry.ParseGEO(f)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: load failed: %v\n", err)
		os.Exit(1)
	}

	errCount, entries := sim.SanityCheckModel(m, *strict)
	for _, e := range entries {
		fmt.Println(e)
	}
	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "validate: %d error(s)\n", errCount)
		os.Exit(1)
	}
	fmt.Printf("validate: %s OK (%d facets, %d vertices)\n", *path, len(m.Facets), len(m.Vertices))
}
