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

// Water level bounds of a deviation.
const (
	BoundMHW = "mhw"
	BoundMLW = "mlw"
)

// DeviationKey identifies a deviation raster.
type DeviationKey struct {
	Bound   string
	VegCode int
}

// String returns the output name of the deviation raster, for example
// "mhw_07".
func (k DeviationKey) String() string {
	return fmt.Sprintf("%s_%02d", k.Bound, k.VegCode)
}

type waterWindow struct {
	mhwMin, mhwMax, mlwMin, mlwMax float64
}

// deviation returns the signed distance of depth v from the window
// [shallow, deep]: positive when v is deeper, negative when it is
// shallower and zero inside.
func deviation(v, deep, shallow float64) float64 {
	switch {
	case v > deep:
		return v - deep
	case v < shallow:
		return v - shallow
	}
	return 0
}

// Deviation returns, for every vegetation type and for both the mean
// highest and mean lowest water level, how far the water level of each
// cell is from the window the type tolerates on the cell's soil. Cells
// whose soil has no rule for the type are missing.
func Deviation(t *CodeTables, soil, mhw, mlw *Raster) (map[DeviationKey]*Raster, error) {
	f := soil.Frame
	if err := aligned(f, map[string]*Raster{MHW: mhw, MLW: mlw}); err != nil {
		return nil, err
	}
	names := make([]string, f.Len())
	unknown := make(map[float64]struct{})
	for i := range names {
		s, ok := soil.At(i)
		if !ok {
			continue
		}
		n, ok := t.SoilName(int(s))
		if !ok {
			unknown[s] = struct{}{}
			continue
		}
		names[i] = n
	}
	if len(unknown) > 0 {
		return nil, newUnknownCodeError(SoilCode, unknown)
	}

	out := make(map[DeviationKey]*Raster)
	for _, code := range t.VegCodes() {
		windows := make(map[string]waterWindow)
		for _, r := range t.vegRules[code] {
			windows[r.SoilName] = waterWindow{r.MHWMin, r.MHWMax, r.MLWMin, r.MLWMax}
		}
		dHigh := NewRaster(f, Continuous)
		dLow := NewRaster(f, Continuous)
		for i, n := range names {
			w, ok := windows[n]
			if n == "" || !ok {
				continue
			}
			if v, ok := mhw.At(i); ok {
				dHigh.Set(i, deviation(v, w.mhwMin, w.mhwMax))
			}
			if v, ok := mlw.At(i); ok {
				dLow.Set(i, deviation(v, w.mlwMin, w.mlwMax))
			}
		}
		out[DeviationKey{BoundMHW, code}] = dHigh
		out[DeviationKey{BoundMLW, code}] = dLow
	}
	return out, nil
}
