/*
Copyright © 2019 the NICHE authors.
This file is part of NICHE.

NICHE is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

NICHE is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with NICHE.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package validation compares modelled vegetation with a map of observed
// habitats.
package validation

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/niche"
)

// Habitat is a mapped habitat polygon and the vegetation types observed
// in it.
type Habitat struct {
	geom.Polygonal

	// ID is the row of the polygon in its shapefile.
	ID int

	VegCodes []int
}

// HabitatMap is a set of habitat polygons.
type HabitatMap struct {
	habitats []*Habitat
	index    *rtree.Rtree
}

// NewHabitatMap indexes a set of habitats.
func NewHabitatMap(habitats []*Habitat) *HabitatMap {
	m := &HabitatMap{index: rtree.NewTree(25, 50)}
	for _, h := range habitats {
		m.habitats = append(m.habitats, h)
		m.index.Insert(h)
	}
	return m
}

// LoadHabitatMap reads a polygon shapefile. field is the attribute
// holding the comma-separated vegetation codes observed in each polygon.
func LoadHabitatMap(path, field string) (*HabitatMap, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("validation: opening habitat map: %w", err)
	}
	defer d.Close()

	var habitats []*Habitat
	for {
		g, fields, more := d.DecodeRowFields(field)
		if !more {
			break
		}
		if err := d.Error(); err != nil {
			return nil, fmt.Errorf("validation: reading habitat map: %w", err)
		}
		id := len(habitats)
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("validation: habitat map record %d has geometry type %T; want polygon", id, g)
		}
		codes, err := parseCodes(fields[field])
		if err != nil {
			return nil, fmt.Errorf("validation: habitat map record %d: %w", id, err)
		}
		habitats = append(habitats, &Habitat{Polygonal: p, ID: id, VegCodes: codes})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("validation: reading habitat map: %w", err)
	}
	return NewHabitatMap(habitats), nil
}

// parseCodes parses a list such as "7, 8,12". Blank and repeated entries
// are skipped. dBase pads text fields, so NUL bytes are trimmed as well as
// spaces.
func parseCodes(s string) ([]int, error) {
	var codes []int
	seen := make(map[int]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.Trim(f, " \t\x00")
		if f == "" {
			continue
		}
		c, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid vegetation code %q", f)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	return codes, nil
}

// Habitats returns the habitats in the order they were read.
func (m *HabitatMap) Habitats() []*Habitat { return m.habitats }

// PolygonScore is the agreement between one habitat polygon and the
// modelled suitability of one of the vegetation types observed in it.
type PolygonScore struct {
	Polygon int
	VegCode int

	// Cells is the number of valid cells whose centre lies in the
	// polygon, and Suitable the number of those where the type is
	// suitable.
	Cells, Suitable int
}

// Fraction returns the suitable share of the cells in the polygon, or 0
// if the polygon covers no cells.
func (s PolygonScore) Fraction() float64 {
	if s.Cells == 0 {
		return 0
	}
	return float64(s.Suitable) / float64(s.Cells)
}

// Validate scores every habitat polygon against the suitability rasters
// veg, keyed by vegetation code. All rasters must share one frame, and
// every code listed in the map must be present in veg.
func (m *HabitatMap) Validate(veg map[int]*niche.Raster) ([]PolygonScore, error) {
	var f niche.GridFrame
	first := true
	for code, r := range veg {
		if first {
			f, first = r.Frame, false
		} else if !r.Frame.Equal(f) {
			return nil, &niche.MisalignedGridError{Layer: fmt.Sprintf("V%02d", code), Reason: "frames of the vegetation results differ"}
		}
	}

	type key struct{ polygon, code int }
	scores := make(map[key]*PolygonScore)
	var order []key
	// Codes of each habitat, without repeats.
	codes := make(map[*Habitat][]int, len(m.habitats))
	for _, h := range m.habitats {
		for _, c := range h.VegCodes {
			if _, ok := veg[c]; !ok {
				return nil, fmt.Errorf("validation: polygon %d lists vegetation type %d, which has no result", h.ID, c)
			}
			k := key{h.ID, c}
			if _, ok := scores[k]; !ok {
				scores[k] = &PolygonScore{Polygon: h.ID, VegCode: c}
				order = append(order, k)
				codes[h] = append(codes[h], c)
			}
		}
	}
	if first {
		return nil, nil
	}

	for i := 0; i < f.Len(); i++ {
		c := f.CellCenter(i/f.Width, i%f.Width)
		for _, hI := range m.index.SearchIntersect(c.Bounds()) {
			h := hI.(*Habitat)
			if c.Within(h.Polygonal) == geom.Outside {
				continue
			}
			for _, code := range codes[h] {
				v, ok := veg[code].At(i)
				if !ok {
					continue
				}
				s := scores[key{h.ID, code}]
				s.Cells++
				if v == 1 {
					s.Suitable++
				}
			}
		}
	}

	o := make([]PolygonScore, len(order))
	for i, k := range order {
		o[i] = *scores[k]
	}
	return o, nil
}

// CodeSummary summarises the scores of one vegetation type.
type CodeSummary struct {
	VegCode int

	// Polygons is the number of polygons in which the type was observed
	// and WithPotential the number of those containing at least one
	// suitable cell.
	Polygons, WithPotential int
}

// Share returns the fraction of polygons with potential.
func (s CodeSummary) Share() float64 {
	if s.Polygons == 0 {
		return 0
	}
	return float64(s.WithPotential) / float64(s.Polygons)
}

// Summary aggregates scores by vegetation type, in ascending order of
// code.
func Summary(scores []PolygonScore) []CodeSummary {
	byCode := make(map[int]*CodeSummary)
	for _, s := range scores {
		cs, ok := byCode[s.VegCode]
		if !ok {
			cs = &CodeSummary{VegCode: s.VegCode}
			byCode[s.VegCode] = cs
		}
		cs.Polygons++
		if s.Suitable > 0 {
			cs.WithPotential++
		}
	}
	o := make([]CodeSummary, 0, len(byCode))
	for _, cs := range byCode {
		o = append(o, *cs)
	}
	sort.Slice(o, func(i, j int) bool { return o[i].VegCode < o[j].VegCode })
	return o
}

// WriteScores writes scores as CSV.
func WriteScores(w io.Writer, scores []PolygonScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"polygon", "veg_code", "cells", "suitable", "fraction"}); err != nil {
		return err
	}
	for _, s := range scores {
		err := cw.Write([]string{
			strconv.Itoa(s.Polygon),
			strconv.Itoa(s.VegCode),
			strconv.Itoa(s.Cells),
			strconv.Itoa(s.Suitable),
			strconv.FormatFloat(s.Fraction(), 'g', 6, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
