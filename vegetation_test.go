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

// docInputs returns one cell with soil V, MHW 10 cm, MLW 50 cm, nutrient
// level 4 and acidity 3.
func docInputs() VegetationInputs {
	return VegetationInputs{
		Soil:          cells(SignedCategorical, 14),
		MHW:           cells(Continuous, 10),
		MLW:           cells(Continuous, 50),
		NutrientLevel: cells(Categorical, 4),
		Acidity:       cells(Categorical, 3),
	}
}

func TestVegetation(t *testing.T) {
	ct := loadTables(t)
	t.Run("full", func(t *testing.T) {
		v, err := Vegetation(ct, docInputs(), true)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := suitable(v.Suitability, 0), []int{7, 8, 12, 16}; !reflect.DeepEqual(got, want) {
			t.Errorf("suitable types %v, want %v", got, want)
		}
		if len(v.Suitability) != 28 || len(v.Detail) != 28 {
			t.Errorf("%d suitability and %d detail rasters, want 28", len(v.Suitability), len(v.Detail))
		}
		for code, r := range v.Suitability {
			if val, ok := r.At(0); !ok || (val != 0 && val != 1) {
				t.Errorf("type %d: invalid suitability %g, %v", code, val, ok)
			}
		}
		if d, _ := v.Detail[7].At(0); d != DetailSuitable {
			t.Errorf("detail of type 7 = %g, want %d", d, DetailSuitable)
		}
		if d, _ := v.Detail[3].At(0); d != float64(DetailManagementInundation) {
			t.Errorf("detail of type 3 = %g, want %d", d, DetailManagementInundation)
		}
		if v.Occurrence[7] != 1 || v.Occurrence[1] != 0 {
			t.Errorf("occurrence %v", v.Occurrence)
		}
	})
	t.Run("inundation restricts", func(t *testing.T) {
		in := docInputs()
		in.Inundation = cells(SignedCategorical, 1)
		v, err := Vegetation(ct, in, true)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := suitable(v.Suitability, 0), []int{7, 12, 16}; !reflect.DeepEqual(got, want) {
			t.Errorf("suitable types %v, want %v", got, want)
		}
		want := DetailSuitable &^ DetailManagementInundation
		if d, _ := v.Detail[8].At(0); d != float64(want) {
			t.Errorf("detail of type 8 = %g, want %d", d, want)
		}
	})
	t.Run("simple", func(t *testing.T) {
		v, err := Vegetation(ct, VegetationInputs{
			Soil: cells(SignedCategorical, 14),
			MHW:  cells(Continuous, 10),
			MLW:  cells(Continuous, 50),
		}, false)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := suitable(v.Suitability, 0), []int{7, 8, 11, 12, 16, 19, 21}; !reflect.DeepEqual(got, want) {
			t.Errorf("suitable types %v, want %v", got, want)
		}
	})
	t.Run("nodata", func(t *testing.T) {
		in := VegetationInputs{
			Soil:          cells(SignedCategorical, 14, 14, 14, -99, 14),
			MHW:           cells(Continuous, 10, 10, 10, 10, 10),
			MLW:           cells(Continuous, 50, 50, 50, 50, 50),
			NutrientLevel: cells(Categorical, 4, 255, 4, 4, 4),
			Acidity:       cells(Categorical, 3, 3, 255, 3, 3),
			Management:    cells(SignedCategorical, 1, 1, 1, 1, -99),
		}
		v, err := Vegetation(ct, in, true)
		if err != nil {
			t.Fatal(err)
		}
		for code, r := range v.Suitability {
			for _, i := range []int{1, 2, 3, 4} {
				if _, ok := r.At(i); ok {
					t.Errorf("type %d: cell %d should be missing", code, i)
				}
				if _, ok := v.Detail[code].At(i); ok {
					t.Errorf("type %d: detail of cell %d should be missing", code, i)
				}
			}
		}
		if got, want := suitable(v.Suitability, 0), []int{7, 8, 12, 16}; !reflect.DeepEqual(got, want) {
			t.Errorf("suitable types %v, want %v", got, want)
		}
	})
	t.Run("unknown soil", func(t *testing.T) {
		in := docInputs()
		in.Soil = cells(SignedCategorical, 77)
		_, err := Vegetation(ct, in, true)
		var e *UnknownCodeError
		if !errors.As(err, &e) || e.Layer != SoilCode {
			t.Errorf("want unknown soil, got %v", err)
		}
	})
	t.Run("unknown acidity", func(t *testing.T) {
		in := docInputs()
		in.Acidity = cells(Categorical, 9)
		_, err := Vegetation(ct, in, true)
		var e *UnknownCodeError
		if !errors.As(err, &e) || e.Layer != AcidityInput {
			t.Errorf("want unknown acidity, got %v", err)
		}
	})
}

// gridInputs returns a row of cells covering many combinations of water
// levels, nutrient levels and acidities on soil V.
func gridInputs() VegetationInputs {
	var soil, mhw, mlw, nl, ac []float64
	for _, h := range []float64{-20, 0, 10, 30} {
		for _, l := range []float64{20, 50, 90} {
			for n := 1.; n <= 5; n++ {
				for a := 1.; a <= 4; a++ {
					soil = append(soil, 14)
					mhw = append(mhw, h)
					mlw = append(mlw, l)
					nl = append(nl, n)
					ac = append(ac, a)
				}
			}
		}
	}
	return VegetationInputs{
		Soil:          cells(SignedCategorical, soil...),
		MHW:           cells(Continuous, mhw...),
		MLW:           cells(Continuous, mlw...),
		NutrientLevel: cells(Categorical, nl...),
		Acidity:       cells(Categorical, ac...),
	}
}

func TestVegetationMonotone(t *testing.T) {
	ct := loadTables(t)
	in := gridInputs()
	n := in.Soil.Len()
	base, err := Vegetation(ct, in, true)
	if err != nil {
		t.Fatal(err)
	}
	simple, err := Vegetation(ct, in, false)
	if err != nil {
		t.Fatal(err)
	}
	for name, set := range map[string]func(*VegetationInputs){
		"inundation": func(in *VegetationInputs) { in.Inundation = fill(SignedCategorical, n, 1) },
		"management": func(in *VegetationInputs) { in.Management = fill(SignedCategorical, n, 2) },
	} {
		t.Run(name, func(t *testing.T) {
			restricted := in
			set(&restricted)
			r, err := Vegetation(ct, restricted, true)
			if err != nil {
				t.Fatal(err)
			}
			for code, ras := range r.Suitability {
				for i := 0; i < n; i++ {
					v, _ := ras.At(i)
					b, _ := base.Suitability[code].At(i)
					if v > b {
						t.Fatalf("type %d cell %d: suitable only with %s", code, i, name)
					}
				}
			}
		})
	}
	t.Run("simple is superset", func(t *testing.T) {
		for code, ras := range base.Suitability {
			for i := 0; i < n; i++ {
				v, _ := ras.At(i)
				s, _ := simple.Suitability[code].At(i)
				if v > s {
					t.Fatalf("type %d cell %d: suitable in the full but not the simple model", code, i)
				}
			}
		}
	})
}

func TestVegetationNoValidCells(t *testing.T) {
	ct := loadTables(t)
	in := docInputs()
	in.MHW.SetNoData(0)
	v, err := Vegetation(ct, in, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Occurrence) != len(ct.VegCodes()) {
		t.Fatalf("occurrence of %d types, want %d", len(v.Occurrence), len(ct.VegCodes()))
	}
	for _, code := range ct.VegCodes() {
		occ, ok := v.Occurrence[code]
		if !ok || occ != 0 {
			t.Errorf("type %d: occurrence %g, %v; want 0", code, occ, ok)
		}
		if _, ok := v.Suitability[code].At(0); ok {
			t.Errorf("type %d: missing cell has a suitability", code)
		}
	}
}

func TestVegetationDeterministic(t *testing.T) {
	ct := loadTables(t)
	a, err := Vegetation(ct, gridInputs(), true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Vegetation(ct, gridInputs(), true)
	if err != nil {
		t.Fatal(err)
	}
	for code := range a.Suitability {
		if !a.Suitability[code].Equal(b.Suitability[code]) || !a.Detail[code].Equal(b.Detail[code]) {
			t.Errorf("type %d differs between runs", code)
		}
	}
}

func TestDetailLegend(t *testing.T) {
	ct := loadTables(t)
	v, err := Vegetation(ct, docInputs(), true)
	if err != nil {
		t.Fatal(err)
	}
	legend := DetailLegend(v.Detail)
	if len(legend) == 0 || legend[len(legend)-1].Code != DetailSuitable {
		t.Fatalf("legend %v should end with the suitable code", legend)
	}
	for i := 1; i < len(legend); i++ {
		if legend[i-1].Code >= legend[i].Code {
			t.Errorf("legend not sorted: %v", legend)
		}
	}
	if d := DetailDescription(DetailSuitable &^ (DetailAcidity | DetailMHW)); d != "unsuitable: acidity, mhw" {
		t.Errorf("description %q", d)
	}
}
