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
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Bits of a vegetation detail code. Each bit is set when the
// corresponding condition of the best matching rule is satisfied.
const (
	DetailSoil uint8 = 1 << iota
	DetailNutrientLevel
	DetailAcidity
	DetailMHW
	DetailMLW
	DetailManagementInundation

	// DetailSuitable is the detail code of a cell where every condition
	// of a rule is satisfied.
	DetailSuitable = 1<<iota - 1
)

var detailNames = []string{"soil", "nutrient level", "acidity", "mhw", "mlw", "management/inundation"}

// VegetationInputs holds the layers used to determine where each
// vegetation type can occur. NutrientLevel and Acidity are required for
// the full model and ignored otherwise. Inundation and Management are
// optional; when nil, rules are not filtered on them.
type VegetationInputs struct {
	Soil, MHW, MLW *Raster
	NutrientLevel  *Raster
	Acidity        *Raster
	Inundation     *Raster
	Management     *Raster
}

// VegetationOutput is the result of the vegetation classification, keyed
// by vegetation code.
type VegetationOutput struct {
	// Suitability is 1 where the type can occur, 0 where it cannot.
	Suitability map[int]*Raster

	// Detail holds the detail code of each cell.
	Detail map[int]*Raster

	// Occurrence is the fraction of valid cells that are suitable.
	Occurrence map[int]float64
}

// vegCell is the combination of inputs at one cell.
type vegCell struct {
	soil                         string
	mhw, mlw                     float64
	nutrient, acidity            int
	inundation, management       int
	hasInundation, hasManagement bool
}

// Vegetation determines for every vegetation type in the tables where it
// can occur. A cell is suitable when at least one of the type's rules
// matches all inputs. When full is false only the soil and water level
// conditions are used.
func Vegetation(t *CodeTables, in VegetationInputs, full bool) (*VegetationOutput, error) {
	f := in.Soil.Frame
	layers := map[string]*Raster{
		MHW:                  in.MHW,
		MLW:                  in.MLW,
		InundationVegetation: in.Inundation,
		ManagementVegetation: in.Management,
	}
	var used []*Raster
	if full {
		if in.NutrientLevel == nil || in.Acidity == nil {
			return nil, fmt.Errorf("niche: the full vegetation model requires nutrient level and acidity")
		}
		layers[NutrientLevelInput] = in.NutrientLevel
		layers[AcidityInput] = in.Acidity
		used = []*Raster{in.NutrientLevel, in.Acidity, in.Inundation, in.Management}
	}
	if err := aligned(f, layers); err != nil {
		return nil, err
	}
	if full {
		if err := checkDomain(NutrientLevelInput, in.NutrientLevel, keySet(t.nutrientLevels)); err != nil {
			return nil, err
		}
		if err := checkDomain(AcidityInput, in.Acidity, keySet(t.acidity)); err != nil {
			return nil, err
		}
	}

	// Resolve the inputs of every cell once; invalid cells are nil.
	cells := make([]*vegCell, f.Len())
	unknown := make(map[float64]struct{})
	base := []*Raster{in.Soil, in.MHW, in.MLW}
	for i := range cells {
		if !allValid(i, base) || !allValid(i, used) {
			continue
		}
		s, _ := in.Soil.At(i)
		name, ok := t.SoilName(int(s))
		if !ok {
			unknown[s] = struct{}{}
			continue
		}
		c := &vegCell{soil: name}
		c.mhw, _ = in.MHW.At(i)
		c.mlw, _ = in.MLW.At(i)
		if full {
			c.nutrient = intAt(in.NutrientLevel, i)
			c.acidity = intAt(in.Acidity, i)
			if in.Inundation != nil {
				c.inundation, c.hasInundation = intAt(in.Inundation, i), true
			}
			if in.Management != nil {
				c.management, c.hasManagement = intAt(in.Management, i), true
			}
		}
		cells[i] = c
	}
	if len(unknown) > 0 {
		return nil, newUnknownCodeError(SoilCode, unknown)
	}

	out := &VegetationOutput{
		Suitability: make(map[int]*Raster),
		Detail:      make(map[int]*Raster),
		Occurrence:  make(map[int]float64),
	}
	for _, code := range t.VegCodes() {
		rules := t.vegRules[code]
		suit := NewRaster(f, Categorical)
		detail := NewRaster(f, Categorical)
		memo := make(map[vegCell]uint8)
		var valid, suitable int
		for i, c := range cells {
			if c == nil {
				continue
			}
			d, ok := memo[*c]
			if !ok {
				d = bestMatch(rules, c, full)
				memo[*c] = d
			}
			detail.Set(i, float64(d))
			valid++
			if d == DetailSuitable {
				suit.Set(i, 1)
				suitable++
			} else {
				suit.Set(i, 0)
			}
		}
		out.Suitability[code] = suit
		out.Detail[code] = detail
		out.Occurrence[code] = 0
		if valid > 0 {
			out.Occurrence[code] = float64(suitable) / float64(valid)
		}
	}
	return out, nil
}

func allValid(i int, rasters []*Raster) bool {
	for _, r := range rasters {
		if r != nil && !r.Valid[i] {
			return false
		}
	}
	return true
}

func intAt(r *Raster, i int) int {
	v, _ := r.At(i)
	return int(v)
}

func keySet(m map[int]string) map[int]bool {
	o := make(map[int]bool, len(m))
	for k := range m {
		o[k] = true
	}
	return o
}

// match returns the detail code of rule r at cell c. Conditions that are
// not used are satisfied.
func (r VegetationRule) match(c *vegCell, full bool) uint8 {
	var d uint8
	if r.SoilName == c.soil {
		d |= DetailSoil
	}
	if r.MHWMin >= c.mhw && c.mhw >= r.MHWMax {
		d |= DetailMHW
	}
	if r.MLWMin >= c.mlw && c.mlw >= r.MLWMax {
		d |= DetailMLW
	}
	if !full {
		return d | DetailNutrientLevel | DetailAcidity | DetailManagementInundation
	}
	if r.NutrientLevel == c.nutrient {
		d |= DetailNutrientLevel
	}
	if r.Acidity == c.acidity {
		d |= DetailAcidity
	}
	if (!c.hasInundation || r.Inundation == c.inundation) &&
		(!c.hasManagement || r.Management == c.management) {
		d |= DetailManagementInundation
	}
	return d
}

// bestMatch returns the detail code of the rule that satisfies the most
// conditions at c. Ties go to the first rule in table order.
func bestMatch(rules []VegetationRule, c *vegCell, full bool) uint8 {
	var best uint8
	bestN := -1
	for _, r := range rules {
		d := r.match(c, full)
		if d == DetailSuitable {
			return d
		}
		if n := bits.OnesCount8(d); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// DetailEntry describes one detail code.
type DetailEntry struct {
	Code        uint8
	Description string
}

// DetailDescription describes which conditions are not met for a detail
// code.
func DetailDescription(code uint8) string {
	if code == DetailSuitable {
		return "suitable"
	}
	var failed []string
	for i, n := range detailNames {
		if code&(1<<uint(i)) == 0 {
			failed = append(failed, n)
		}
	}
	return "unsuitable: " + strings.Join(failed, ", ")
}

// DetailLegend returns the entries for the detail codes present in any
// of the given detail rasters, in ascending order of code.
func DetailLegend(details map[int]*Raster) []DetailEntry {
	seen := make(map[uint8]bool)
	for _, r := range details {
		for v := range r.codes() {
			seen[uint8(v)] = true
		}
	}
	o := make([]DetailEntry, 0, len(seen))
	for c := range seen {
		o = append(o, DetailEntry{Code: c, Description: DetailDescription(c)})
	}
	sort.Slice(o, func(i, j int) bool { return o[i].Code < o[j].Code })
	return o
}
