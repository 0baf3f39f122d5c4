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
	"os"
	"path/filepath"
	"testing"
)

// testFrame returns a frame of 5 m cells with its upper left corner at
// (1000, 2000).
func testFrame(w, h int) GridFrame {
	return GridFrame{Width: w, Height: h, Affine: [6]float64{5, 0, 1000, 0, -5, 2000}, CRS: "EPSG:31370"}
}

// cells returns a one-row raster holding vals.
func cells(k Kind, vals ...float64) *Raster {
	r, err := FromValues(testFrame(len(vals), 1), k, vals)
	if err != nil {
		panic(err)
	}
	return r
}

// fill returns a one-row raster of n cells set to v.
func fill(k Kind, n int, v float64) *Raster {
	return Uniform(testFrame(n, 1), k, v)
}

func loadTables(t *testing.T) *CodeTables {
	t.Helper()
	ct, err := LoadCodeTables()
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

// writeFile writes contents to name in dir and returns the path.
func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

// suitable returns the vegetation codes that are suitable at cell i.
func suitable(veg map[int]*Raster, i int) []int {
	var o []int
	for _, code := range sortedCodes(veg) {
		if v, ok := veg[code].At(i); ok && v == 1 {
			o = append(o, code)
		}
	}
	return o
}

// values returns the values of r with missing cells set to the sentinel.
func values(r *Raster) []float64 { return r.Sentinel() }
