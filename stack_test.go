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

func TestRasterStackSentinels(t *testing.T) {
	s := NewRasterStack()
	// Layers read without a fill value carry the sentinels as data.
	for name, r := range map[string]*Raster{
		AcidityInput: cells(Continuous, 3, 255, 1),
		SoilCode:     cells(Continuous, 14, -99, 255),
		MHW:          cells(Continuous, 10, 255, -99),
	} {
		if err := s.Set(name, r); err != nil {
			t.Fatal(err)
		}
	}
	for name, want := range map[string][]bool{
		AcidityInput: {true, false, true},
		SoilCode:     {true, false, true},
		MHW:          {true, true, true},
	} {
		r, err := s.Get(name)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(r.Valid, want) {
			t.Errorf("%s: valid %v, want %v", name, r.Valid, want)
		}
	}
	r, err := s.Get(AcidityInput)
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != Categorical {
		t.Errorf("kind %v", r.Kind)
	}
	if want := []float64{3, 255, 1}; !reflect.DeepEqual(r.Sentinel(), want) {
		t.Errorf("%v != %v", r.Sentinel(), want)
	}
}
