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

// SoilMLWClass classifies the mean lowest water depth of each cell using
// the bins of the cell's soil group.
func SoilMLWClass(t *CodeTables, soil, mlw *Raster) (*Raster, error) {
	if err := aligned(soil.Frame, map[string]*Raster{MLW: mlw}); err != nil {
		return nil, err
	}
	out := NewRaster(soil.Frame, Categorical)
	unknown := make(map[float64]struct{})
	for i := range out.Valid {
		s, ok := soil.At(i)
		if !ok {
			continue
		}
		group, ok := t.SoilGroup(int(s))
		if !ok {
			unknown[s] = struct{}{}
			continue
		}
		v, ok := mlw.At(i)
		if !ok {
			continue
		}
		if c, ok := t.SoilMLWClass(group, v); ok {
			out.Set(i, float64(c))
		}
	}
	if len(unknown) > 0 {
		return nil, newUnknownCodeError(SoilCode, unknown)
	}
	return out, nil
}

// SeepageClass classifies the seepage flux of each cell.
func SeepageClass(t *CodeTables, seepage *Raster) (*Raster, error) {
	out := NewRaster(seepage.Frame, Categorical)
	for i := range out.Valid {
		v, ok := seepage.At(i)
		if !ok {
			continue
		}
		if c, ok := t.SeepageClass(v); ok {
			out.Set(i, float64(c))
		}
	}
	return out, nil
}

// AcidityInputs holds the layers used to compute the acidity.
type AcidityInputs struct {
	Soil, MLW, Seepage *Raster
	Rainwater          *Raster
	Minerality         *Raster
	Inundation         *Raster
}

// checkDomain returns an *UnknownCodeError listing the valid values of r
// that are not in allowed.
func checkDomain(layer string, r *Raster, allowed map[int]bool) error {
	unknown := make(map[float64]struct{})
	for v := range r.codes() {
		if !allowed[int(v)] {
			unknown[v] = struct{}{}
		}
	}
	if len(unknown) > 0 {
		return newUnknownCodeError(layer, unknown)
	}
	return nil
}

// Acidity determines the acidity class of each cell from the rainwater,
// minerality, inundation, seepage class and soil-MLW class.
func Acidity(t *CodeTables, in AcidityInputs) (*Raster, error) {
	f := in.Soil.Frame
	if err := aligned(f, map[string]*Raster{
		MLW:               in.MLW,
		Seepage:           in.Seepage,
		Rainwater:         in.Rainwater,
		Minerality:        in.Minerality,
		InundationAcidity: in.Inundation,
	}); err != nil {
		return nil, err
	}
	if err := checkDomain(Rainwater, in.Rainwater, map[int]bool{0: true, 1: true}); err != nil {
		return nil, err
	}
	if err := checkDomain(Minerality, in.Minerality, t.mineralityKeys); err != nil {
		return nil, err
	}
	if err := checkDomain(InundationAcidity, in.Inundation, t.inundationKeys); err != nil {
		return nil, err
	}
	mlwClass, err := SoilMLWClass(t, in.Soil, in.MLW)
	if err != nil {
		return nil, err
	}
	seepage, err := SeepageClass(t, in.Seepage)
	if err != nil {
		return nil, err
	}
	layers := []*Raster{in.Rainwater, in.Minerality, in.Inundation, seepage, mlwClass}
	v := make([]int, len(layers))
	out := NewRaster(f, Categorical)
cells:
	for i := range out.Valid {
		for j, r := range layers {
			x, ok := r.At(i)
			if !ok {
				continue cells
			}
			v[j] = int(x)
		}
		k := AcidityKey{Rainwater: v[0], Minerality: v[1], Inundation: v[2], Seepage: v[3], SoilMLWClass: v[4]}
		a, ok := t.Acidity(k)
		if !ok {
			return nil, &UnknownCodeError{
				Layer:  "rainwater, minerality, inundation_acidity, seepage class, soil-MLW class combination",
				Values: []float64{float64(k.Rainwater), float64(k.Minerality), float64(k.Inundation), float64(k.Seepage), float64(k.SoilMLWClass)},
			}
		}
		out.Set(i, float64(a))
	}
	return out, nil
}
