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

import "fmt"

// Classes of a delta raster.
const (
	DeltaNeither = iota
	DeltaOnlyFirst
	DeltaOnlySecond
	DeltaBoth
)

// DeltaResult compares the vegetation results of two runs.
type DeltaResult struct {
	// Rasters holds the delta class of each cell by vegetation code.
	Rasters map[int]*Raster

	// Counts holds the number of cells in each delta class by
	// vegetation code.
	Counts map[int][4]int
}

// Delta compares two sets of suitability rasters. Both must hold the same
// vegetation types on equal frames.
func Delta(a, b map[int]*Raster) (*DeltaResult, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("niche: delta: %d vegetation types in the first result but %d in the second", len(a), len(b))
	}
	d := &DeltaResult{Rasters: make(map[int]*Raster), Counts: make(map[int][4]int)}
	for _, code := range sortedCodes(a) {
		ra := a[code]
		rb, ok := b[code]
		if !ok {
			return nil, fmt.Errorf("niche: delta: vegetation type %d missing from the second result", code)
		}
		if !ra.Frame.Equal(rb.Frame) {
			return nil, &MisalignedGridError{Layer: fmt.Sprintf("V%02d", code), Reason: "frames of the compared results differ"}
		}
		out := NewRaster(ra.Frame, Categorical)
		var counts [4]int
		for i := range out.Valid {
			va, okA := ra.At(i)
			vb, okB := rb.At(i)
			if !okA || !okB {
				continue
			}
			c := DeltaNeither
			if va == 1 {
				c |= DeltaOnlyFirst
			}
			if vb == 1 {
				c |= DeltaOnlySecond
			}
			out.Set(i, float64(c))
			counts[c]++
		}
		d.Rasters[code] = out
		d.Counts[code] = counts
	}
	return d, nil
}
