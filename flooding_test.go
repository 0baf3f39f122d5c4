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
	"errors"
	"reflect"
	"testing"
)

func TestCombineFlooding(t *testing.T) {
	veg := cells(Categorical, 1, 1, 0, 0, 255, 1)
	flood := cells(SignedCategorical, 1, 3, 2, -99, 1, -99)
	got, err := CombineFlooding(veg, flood)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 3, FloodNotCombinable, -99, -99, -99}; !reflect.DeepEqual(values(got), want) {
		t.Errorf("%v != %v", values(got), want)
	}

	f := testFrame(6, 1)
	f.Affine[2] += 5
	_, err = CombineFlooding(veg, Uniform(f, SignedCategorical, 1))
	var me *MisalignedGridError
	if !errors.As(err, &me) {
		t.Errorf("want misaligned grid, got %v", err)
	}
}

func TestResultCombineFlooding(t *testing.T) {
	r := &Result{Vegetation: map[int]*Raster{
		7: cells(Categorical, 1, 0),
		8: cells(Categorical, 0, 0),
	}}
	o, err := r.CombineFlooding(map[int]*Raster{7: cells(SignedCategorical, 2, 2)})
	if err != nil {
		t.Fatal(err)
	}
	if len(o) != 1 || !reflect.DeepEqual(values(o[7]), []float64{2, FloodNotCombinable}) {
		t.Errorf("combined %v", o)
	}
	if _, err := r.CombineFlooding(map[int]*Raster{9: cells(SignedCategorical, 2, 2)}); err == nil {
		t.Error("want an error for a type without vegetation result")
	}
}
