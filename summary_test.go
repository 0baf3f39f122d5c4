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
	"testing"

	"github.com/kr/pretty"
)

func TestAreaSummary(t *testing.T) {
	r := &Result{
		Vegetation: map[int]*Raster{
			8: cells(Categorical, 1, 1, 0, 255),
			7: cells(Categorical, 0, 1, 0, 0),
		},
		NutrientLevel: cells(Categorical, 2, 2, 3, 255),
	}
	want := []AreaRow{
		{Layer: "vegetation", VegCode: 7, Class: 0, Cells: 3, Area: 75, Share: 0.75},
		{Layer: "vegetation", VegCode: 7, Class: 1, Cells: 1, Area: 25, Share: 0.25},
		{Layer: "vegetation", VegCode: 8, Class: 0, Cells: 1, Area: 25, Share: 25.0 / 75},
		{Layer: "vegetation", VegCode: 8, Class: 1, Cells: 2, Area: 50, Share: 50.0 / 75},
		{Layer: "nutrient_level", Class: 2, Cells: 2, Area: 50, Share: 50.0 / 75},
		{Layer: "nutrient_level", Class: 3, Cells: 1, Area: 25, Share: 25.0 / 75},
	}
	if diff := pretty.Diff(r.AreaSummary(), want); len(diff) > 0 {
		t.Errorf("area summary:\n%s", diff)
	}
	area := r.SuitableArea()
	if area[7] != 25 || area[8] != 50 {
		t.Errorf("suitable area %v", area)
	}
}

func TestAreaSummaryMissing(t *testing.T) {
	r := &Result{
		Vegetation: map[int]*Raster{
			7: cells(Categorical, 255, 255),
			8: cells(Categorical, 1, 255),
		},
	}
	want := []AreaRow{
		{Layer: "vegetation", VegCode: 8, Class: 1, Cells: 1, Area: 25, Share: 1},
	}
	if diff := pretty.Diff(r.AreaSummary(), want); len(diff) > 0 {
		t.Errorf("area summary:\n%s", diff)
	}
	area := r.SuitableArea()
	if a, ok := area[7]; !ok || a != 0 {
		t.Errorf("suitable area of a type without valid cells: %g, %v", a, ok)
	}
	if area[8] != 25 {
		t.Errorf("suitable area of type 8: %g", area[8])
	}
}
