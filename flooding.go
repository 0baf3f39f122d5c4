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

// FloodNotCombinable marks cells where a flooding value exists but the
// vegetation type is not suitable.
const FloodNotCombinable = -1

// CombineFlooding masks a flooding potential map by the suitability of a
// vegetation type. The result holds the flooding value where the type is
// suitable and FloodNotCombinable where it is not; cells missing in
// either input are missing. Both rasters must have equal frames.
func CombineFlooding(veg, flood *Raster) (*Raster, error) {
	if !veg.Frame.Equal(flood.Frame) {
		return nil, &MisalignedGridError{Layer: "flooding", Reason: "frame differs from the vegetation result"}
	}
	out := NewRaster(veg.Frame, SignedCategorical)
	for i := range out.Valid {
		v, ok := veg.At(i)
		if !ok {
			continue
		}
		f, ok := flood.At(i)
		if !ok {
			continue
		}
		if v == 1 {
			out.Set(i, f)
		} else {
			out.Set(i, FloodNotCombinable)
		}
	}
	return out, nil
}

// CombineFlooding combines the flooding potential maps, keyed by
// vegetation code, with the vegetation results. Every key must be a
// vegetation type of the result.
func (r *Result) CombineFlooding(flood map[int]*Raster) (map[int]*Raster, error) {
	o := make(map[int]*Raster, len(flood))
	for _, code := range sortedCodes(flood) {
		veg, ok := r.Vegetation[code]
		if !ok {
			return nil, fmt.Errorf("niche: flooding map for unknown vegetation type %d", code)
		}
		c, err := CombineFlooding(veg, flood[code])
		if err != nil {
			return nil, fmt.Errorf("niche: combining flooding for vegetation type %d: %w", code, err)
		}
		o[code] = c
	}
	return o, nil
}
