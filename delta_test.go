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
	"reflect"
	"testing"
)

func TestDelta(t *testing.T) {
	a := map[int]*Raster{
		7: cells(Categorical, 0, 1, 0, 1, 255),
		8: cells(Categorical, 1, 1, 1, 1, 1),
	}
	b := map[int]*Raster{
		7: cells(Categorical, 0, 0, 1, 1, 1),
		8: cells(Categorical, 1, 1, 1, 1, 1),
	}
	d, err := Delta(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{DeltaNeither, DeltaOnlyFirst, DeltaOnlySecond, DeltaBoth, 255}; !reflect.DeepEqual(values(d.Rasters[7]), want) {
		t.Errorf("delta %v, want %v", values(d.Rasters[7]), want)
	}
	if want := [4]int{1, 1, 1, 1}; d.Counts[7] != want {
		t.Errorf("counts %v, want %v", d.Counts[7], want)
	}
	if want := [4]int{0, 0, 0, 5}; d.Counts[8] != want {
		t.Errorf("counts %v, want %v", d.Counts[8], want)
	}
}

func TestDeltaMismatch(t *testing.T) {
	a := map[int]*Raster{7: cells(Categorical, 1)}
	for name, b := range map[string]map[int]*Raster{
		"count":  {7: cells(Categorical, 1), 8: cells(Categorical, 1)},
		"code":   {8: cells(Categorical, 1)},
		"frames": {7: cells(Categorical, 1, 0)},
	} {
		if _, err := Delta(a, b); err == nil {
			t.Errorf("%s: want an error", name)
		}
	}
}
