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

// Mineralisation returns the nitrogen mineralisation (kg/ha/yr) for each
// cell from the soil code and the mean spring water depth. Cells whose
// depth is outside the tabulated bins of their soil are missing.
func Mineralisation(t *CodeTables, soil, msw *Raster) (*Raster, error) {
	if err := aligned(soil.Frame, map[string]*Raster{MSW: msw}); err != nil {
		return nil, err
	}
	out := NewRaster(soil.Frame, Continuous)
	unknown := make(map[float64]struct{})
	for i := range out.Valid {
		s, ok := soil.At(i)
		if !ok {
			continue
		}
		name, ok := t.SoilName(int(s))
		if !ok {
			unknown[s] = struct{}{}
			continue
		}
		m, ok := msw.At(i)
		if !ok {
			continue
		}
		if v, ok := t.Mineralisation(name, m); ok {
			out.Set(i, v)
		}
	}
	if len(unknown) > 0 {
		return nil, newUnknownCodeError(SoilCode, unknown)
	}
	return out, nil
}

// NutrientInputs holds the layers used to compute the nutrient level.
// Inundation may be nil, in which case no cell is treated as inundated.
type NutrientInputs struct {
	Soil                *Raster
	MSW                 *Raster
	NitrogenAtmospheric *Raster
	NitrogenAnimal      *Raster
	NitrogenFertilizer  *Raster
	Management          *Raster
	Inundation          *Raster
}

// inundationBumpBelow is the level under which inundation raises the
// nutrient level by one.
const inundationBumpBelow = 4

// NutrientLevel classifies the total nitrogen load of each cell into a
// nutrient level. Total nitrogen is the mineralisation plus the three
// external loads; it is binned per soil and management influence.
// Inundated cells with a level below 4 move up one level, capped at the
// highest level in the tables.
func NutrientLevel(t *CodeTables, in NutrientInputs) (*Raster, error) {
	f := in.Soil.Frame
	if err := aligned(f, map[string]*Raster{
		MSW:                 in.MSW,
		NitrogenAtmospheric: in.NitrogenAtmospheric,
		NitrogenAnimal:      in.NitrogenAnimal,
		NitrogenFertilizer:  in.NitrogenFertilizer,
		Management:          in.Management,
		InundationNutrient:  in.Inundation,
	}); err != nil {
		return nil, err
	}
	mineralisation, err := Mineralisation(t, in.Soil, in.MSW)
	if err != nil {
		return nil, err
	}
	maxLevel := t.MaxNutrientLevel()
	out := NewRaster(f, Categorical)
	unknownManagement := make(map[float64]struct{})
	nitrogen := []*Raster{mineralisation, in.NitrogenAtmospheric, in.NitrogenAnimal, in.NitrogenFertilizer}
cells:
	for i := range out.Valid {
		m, ok := in.Management.At(i)
		if !ok {
			continue
		}
		influence, ok := t.Influence(int(m))
		if !ok {
			unknownManagement[m] = struct{}{}
			continue
		}
		var total float64
		for _, r := range nitrogen {
			v, ok := r.At(i)
			if !ok {
				continue cells
			}
			total += v
		}
		s, _ := in.Soil.At(i)
		level, ok := t.NutrientLevelFor(int(s), influence, total)
		if !ok {
			continue
		}
		if in.Inundation != nil {
			flooded, ok := in.Inundation.At(i)
			if !ok {
				continue
			}
			if level < inundationBumpBelow && flooded > 0 {
				level = minInt(level+1, maxLevel)
			}
		}
		out.Set(i, float64(level))
	}
	if len(unknownManagement) > 0 {
		return nil, newUnknownCodeError(Management, unknownManagement)
	}
	return out, nil
}
