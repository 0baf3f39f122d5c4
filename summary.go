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

package niche

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// AreaRow is the area covered by one class of an output layer.
type AreaRow struct {
	// Layer is "vegetation", "nutrient_level" or "acidity".
	Layer string

	// VegCode is the vegetation type for vegetation rows and 0 otherwise.
	VegCode int
	Class   int
	Cells   int

	// Area is in squared map units.
	Area float64

	// Share is the fraction of the layer's valid area covered by the class.
	Share float64
}

// cellAreas returns the area each cell of r contributes: the cell area
// for valid cells and 0 for missing ones.
func cellAreas(r *Raster) []float64 {
	w := make([]float64, r.Len())
	a := r.Frame.CellArea()
	for i, ok := range r.Valid {
		if ok {
			w[i] = a
		}
	}
	return w
}

// classAreas returns the number of cells and the area of each class of r,
// ordered by class.
func classAreas(r *Raster) (classes []int, cells []int, area []float64) {
	w := cellAreas(r)
	counts := make(map[int]int)
	for i, ok := range r.Valid {
		if ok {
			counts[int(r.Data.Elements[i])]++
		}
	}
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	in := make([]float64, len(w))
	area = make([]float64, len(classes))
	for i, c := range classes {
		cells = append(cells, counts[c])
		for j, ok := range r.Valid {
			in[j] = 0
			if ok && int(r.Data.Elements[j]) == c {
				in[j] = 1
			}
		}
		area[i] = floats.Dot(in, w)
	}
	return classes, cells, area
}

// AreaSummary returns the area of every class of the vegetation and
// abiotic layers. Vegetation types come first, in ascending order of
// code.
func (r *Result) AreaSummary() []AreaRow {
	var rows []AreaRow
	add := func(layer string, code int, ras *Raster) {
		classes, cells, area := classAreas(ras)
		total := floats.Sum(area)
		for i, c := range classes {
			rows = append(rows, AreaRow{
				Layer: layer, VegCode: code, Class: c,
				Cells: cells[i], Area: area[i], Share: area[i] / total,
			})
		}
	}
	for _, code := range sortedCodes(r.Vegetation) {
		add("vegetation", code, r.Vegetation[code])
	}
	if r.NutrientLevel != nil {
		add(NutrientLevelInput, 0, r.NutrientLevel)
	}
	if r.Acidity != nil {
		add(AcidityInput, 0, r.Acidity)
	}
	return rows
}

// SuitableArea returns the suitable area of each vegetation type.
// Suitability is 1 or 0, so the area is the dot product of suitability
// and cell area.
func (r *Result) SuitableArea() map[int]float64 {
	o := make(map[int]float64, len(r.Vegetation))
	for code, ras := range r.Vegetation {
		suitable := make([]float64, ras.Len())
		for i, ok := range ras.Valid {
			if ok {
				suitable[i] = ras.Data.Elements[i]
			}
		}
		o[code] = floats.Dot(suitable, cellAreas(ras))
	}
	return o
}

func sortedCodes(m map[int]*Raster) []int {
	o := make([]int, 0, len(m))
	for c := range m {
		o = append(o, c)
	}
	sort.Ints(o)
	return o
}
