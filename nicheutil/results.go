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

package nicheutil

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spatialmodel/niche"
	"github.com/spatialmodel/niche/codetables"
	"github.com/spatialmodel/niche/validation"
)

var vegFile = regexp.MustCompile(`^V(\d{2})\.nc$`)

// ReadVegetation reads the suitability rasters V{nn}.nc written by a
// run to dir.
func ReadVegetation(dir string) (map[int]*niche.Raster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("nicheutil: reading results: %v", err)
	}
	o := make(map[int]*niche.Raster)
	for _, e := range entries {
		m := vegFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		code, _ := strconv.Atoi(m[1])
		src := niche.NetCDFSource{Path: filepath.Join(dir, e.Name()), Variable: vegName(code)}
		f, err := src.GridFrame()
		if err != nil {
			return nil, err
		}
		r, err := src.Read(niche.Window{Rows: f.Height, Cols: f.Width})
		if err != nil {
			return nil, err
		}
		o[code] = r
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("nicheutil: no vegetation results in %s", dir)
	}
	return o, nil
}

// Delta compares the vegetation results in dirs a and b and writes a
// delta raster per vegetation type and the cell counts of each delta
// class to out.
func Delta(a, b, out string, overwrite bool) error {
	va, err := ReadVegetation(a)
	if err != nil {
		return err
	}
	vb, err := ReadVegetation(b)
	if err != nil {
		return err
	}
	d, err := niche.Delta(va, vb)
	if err != nil {
		return err
	}
	w := niche.NetCDFWriter{Dir: out, Overwrite: overwrite}
	for _, code := range sortedCodes(d.Rasters) {
		if err := w.WriteRaster("delta_"+vegName(code), d.Rasters[code]); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(out, "delta.csv"), overwrite, func(p string) error {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		cw := csv.NewWriter(f)
		cw.Write([]string{"veg_code", "neither", "only_first", "only_second", "both"})
		for _, code := range sortedCodes(d.Rasters) {
			c := d.Counts[code]
			cw.Write([]string{strconv.Itoa(code), strconv.Itoa(c[niche.DeltaNeither]),
				strconv.Itoa(c[niche.DeltaOnlyFirst]), strconv.Itoa(c[niche.DeltaOnlySecond]),
				strconv.Itoa(c[niche.DeltaBoth])})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// Validate scores the vegetation results in dir against a habitat map
// and writes the scores to dir.
func Validate(dir, habitatMap, field string, overwrite bool) ([]validation.CodeSummary, error) {
	veg, err := ReadVegetation(dir)
	if err != nil {
		return nil, err
	}
	m, err := validation.LoadHabitatMap(habitatMap, field)
	if err != nil {
		return nil, err
	}
	scores, err := m.Validate(veg)
	if err != nil {
		return nil, err
	}
	err = writeScores(filepath.Join(dir, validationFile), overwrite, scores)
	return validation.Summary(scores), err
}

func writeScores(path string, overwrite bool, scores []validation.PolygonScore) error {
	return writeFile(path, overwrite, func(p string) error {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		if err := validation.WriteScores(f, scores); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// Plot writes a PNG map next to every vegetation result in dir.
func Plot(dir string, overwrite bool) error {
	veg, err := ReadVegetation(dir)
	if err != nil {
		return err
	}
	t, err := niche.LoadCodeTables()
	if err != nil {
		return err
	}
	for _, code := range sortedCodes(veg) {
		title := fmt.Sprintf("%s: %s", vegName(code), t.VegetationName(code))
		err := writeFile(filepath.Join(dir, vegName(code)+".png"), overwrite, func(p string) error {
			return plotRaster(p, veg[code], title)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportTables writes the default rule tables to dir as CSV files that
// can be edited and passed back through the code_tables configuration.
func ExportTables(dir string, overwrite bool) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	return fs.WalkDir(codetables.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(codetables.FS, path)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dir, path), overwrite, func(p string) error {
			return os.WriteFile(p, b, 0644)
		})
	})
}
