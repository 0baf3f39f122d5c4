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
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestLoadCodeTables(t *testing.T) {
	ct := loadTables(t)
	if n, ok := ct.SoilName(14); !ok || n != "V" {
		t.Errorf("soil 14 = %q, %v", n, ok)
	}
	if g, ok := ct.SoilGroup(14); !ok || g != 3 {
		t.Errorf("group of soil 14 = %d, %v", g, ok)
	}
	if _, ok := ct.SoilName(99); ok {
		t.Error("soil 99 should be unknown")
	}
	if i, ok := ct.Influence(2); !ok || i != 2 {
		t.Errorf("influence of management 2 = %d, %v", i, ok)
	}
	if m := ct.MaxNutrientLevel(); m != 5 {
		t.Errorf("max nutrient level %d, want 5", m)
	}
	if n := len(ct.VegCodes()); n != 28 {
		t.Errorf("%d vegetation types, want 28", n)
	}
	if a, ok := ct.Acidity(AcidityKey{Rainwater: 0, Minerality: 1, Inundation: 1, Seepage: 1, SoilMLWClass: 1}); !ok || a != 3 {
		t.Errorf("acidity = %d, %v; want 3", a, ok)
	}
	if n := ct.VegetationName(3); n != "Oligotrophic pool vegetation" {
		t.Errorf("name of type 3 = %q", n)
	}
	rules := ct.VegetationRules(8)
	rules[0].SoilName = "changed"
	if ct.VegetationRules(8)[0].SoilName == "changed" {
		t.Error("rules are not immutable")
	}
}

func TestCodeTablesIdempotent(t *testing.T) {
	a, b := loadTables(t), loadTables(t)
	if !a.Equal(b) {
		t.Error("loading the tables twice gives different results")
	}
}

func TestBinLookup(t *testing.T) {
	ct := loadTables(t)
	t.Run("mineralisation left closed", func(t *testing.T) {
		for _, test := range []struct{ msw, want float64 }{
			{4, 50}, {5.99, 50}, {6, 55}, {10, 55}, {11, 76}, {-30, 50}, {1000, 110},
		} {
			if v, ok := ct.Mineralisation("K2", test.msw); !ok || v != test.want {
				t.Errorf("msw %g: got %g, %v; want %g", test.msw, v, ok, test.want)
			}
		}
		if _, ok := ct.Mineralisation("K2", math.NaN()); ok {
			t.Error("NaN should not be classified")
		}
	})
	t.Run("nutrient right closed", func(t *testing.T) {
		for _, test := range []struct {
			n    float64
			want int
		}{{100, 1}, {100.5, 2}, {156, 2}, {293, 3}, {294, 4}} {
			if l, ok := ct.NutrientLevelFor(7, 2, test.n); !ok || l != test.want {
				t.Errorf("total N %g: got %d, %v; want %d", test.n, l, ok, test.want)
			}
		}
	})
	t.Run("totality", func(t *testing.T) {
		for _, s := range ct.Soils() {
			for mlw := -500.; mlw <= 500; mlw += 0.5 {
				if _, ok := ct.SoilMLWClass(s.Group, mlw); !ok {
					t.Fatalf("group %d: mlw %g not classified", s.Group, mlw)
				}
			}
			for msw := -500.; msw <= 500; msw += 0.5 {
				if _, ok := ct.Mineralisation(s.Name, msw); !ok {
					t.Fatalf("soil %s: msw %g not classified", s.Name, msw)
				}
			}
		}
		for s := -5.; s <= 5; s += 0.01 {
			if _, ok := ct.SeepageClass(s); !ok {
				t.Fatalf("seepage %g not classified", s)
			}
		}
	})
}

func TestCodeTablesInvalid(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		csv     string
		lenient bool
		problem string
	}{
		{
			name:    "gap",
			table:   TableSeepage,
			csv:     "seepage,seepage_min,seepage_max\n3,-inf,-1\n2,-0.9,-0.1\n1,-0.1,inf\n",
			problem: "gap between -1 and -0.9",
		},
		{
			name:    "overlap",
			table:   TableSeepage,
			csv:     "seepage,seepage_min,seepage_max\n3,-inf,-1\n2,-1.5,-0.1\n1,-0.1,inf\n",
			problem: "overlap",
		},
		{
			name:    "duplicate soil code",
			table:   TableSoilCodes,
			csv:     "soil_code,soil_name,soil_group\n1,Z1,1\n1,Z2,1\n",
			problem: "duplicate soil_code 1",
		},
		{
			name:    "missing column",
			table:   TableManagement,
			csv:     "management,description\n1,x\n",
			problem: "missing column influence",
		},
		{
			name:    "malformed number",
			table:   TableManagement,
			csv:     "management,influence\n1,one\n",
			problem: "column influence",
		},
		{
			name:  "inconsistent water levels",
			table: TableVegetation,
			csv: "veg_code,soil_name,mhw_min,mhw_max,mlw_min,mlw_max,nutrient_level,acidity,management,inundation\n" +
				"7,V,20,-10,60,10,2,3,1,0\n7,V,25,-10,60,10,3,3,1,0\n",
			lenient: true,
			problem: "water level window",
		},
		{
			name:  "unknown vegetation type",
			table: TableVegetation,
			csv: "veg_code,soil_name,mhw_min,mhw_max,mlw_min,mlw_max,nutrient_level,acidity,management,inundation\n" +
				"99,V,20,-10,60,10,2,3,1,0\n",
			lenient: true,
			problem: "column veg_code has values without a matching key: 99",
		},
		{
			name:    "unused key",
			table:   TableNutrientLevel,
			csv:     "nutrient_level,description\n1,a\n2,b\n3,c\n4,d\n5,e\n6,f\n",
			problem: "does not use keys: 6",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), test.table+".csv", test.csv)
			opts := []TableOption{OverrideTable(test.table, path)}
			if test.lenient {
				log, _ := logtest.NewNullLogger()
				opts = append(opts, Lenient(log))
			}
			_, err := LoadCodeTables(opts...)
			var e *TableInvalidError
			if !errors.As(err, &e) {
				t.Fatalf("want TableInvalidError, got %v", err)
			}
			if !strings.Contains(e.Error(), test.problem) {
				t.Errorf("error %q does not mention %q", e.Error(), test.problem)
			}
		})
	}
}

func TestCodeTablesLenient(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nutrient_level.csv",
		"nutrient_level,description\n1,a\n2,b\n3,c\n4,d\n5,e\n6,f\n")
	log, hook := logtest.NewNullLogger()
	ct, err := LoadCodeTables(OverrideTable(TableNutrientLevel, path), Lenient(log))
	if err != nil {
		t.Fatal(err)
	}
	if ct.MaxNutrientLevel() != 6 {
		t.Errorf("max nutrient level %d, want 6", ct.MaxNutrientLevel())
	}
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["unused"] == "6" {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no warning about unused nutrient level 6 in %d log entries", len(hook.AllEntries()))
	}
}

func TestOverrideUnknownTable(t *testing.T) {
	_, err := LoadCodeTables(OverrideTable("nutrient_levels", "x.csv"))
	if err == nil || !strings.Contains(err.Error(), `did you mean "nutrient_level"`) {
		t.Errorf("unexpected error %v", err)
	}
}
