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
	"os"
	"strconv"

	"github.com/spatialmodel/niche"
	"github.com/tealeg/xlsx"
)

var summaryHeader = []string{"layer", "veg_code", "class", "cells", "area", "share"}

func summaryRecord(row niche.AreaRow) []string {
	return []string{
		row.Layer,
		strconv.Itoa(row.VegCode),
		strconv.Itoa(row.Class),
		strconv.Itoa(row.Cells),
		strconv.FormatFloat(row.Area, 'f', -1, 64),
		strconv.FormatFloat(row.Share, 'f', -1, 64),
	}
}

// writeSummaryCSV writes the area of every class of the output layers.
func writeSummaryCSV(path string, r *niche.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Write(summaryHeader)
	for _, row := range r.AreaSummary() {
		w.Write(summaryRecord(row))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSummaryXLSX writes a workbook with the area summary and the
// occurrence of each vegetation type.
func writeSummaryXLSX(path string, r *niche.Result, t *niche.CodeTables) error {
	file := xlsx.NewFile()
	area, err := file.AddSheet("area")
	if err != nil {
		return err
	}
	addHeader(area, summaryHeader)
	for _, row := range r.AreaSummary() {
		xr := area.AddRow()
		xr.AddCell().SetString(row.Layer)
		xr.AddCell().SetInt(row.VegCode)
		xr.AddCell().SetInt(row.Class)
		xr.AddCell().SetInt(row.Cells)
		xr.AddCell().SetFloat(row.Area)
		xr.AddCell().SetFloat(row.Share)
	}

	occ, err := file.AddSheet("occurrence")
	if err != nil {
		return err
	}
	addHeader(occ, []string{"veg_code", "name", "occurrence", "suitable_area"})
	suitable := r.SuitableArea()
	for _, code := range sortedCodes(r.Vegetation) {
		xr := occ.AddRow()
		xr.AddCell().SetInt(code)
		xr.AddCell().SetString(t.VegetationName(code))
		xr.AddCell().SetFloat(r.Occurrence[code])
		xr.AddCell().SetFloat(suitable[code])
	}
	return file.Save(path)
}

func addHeader(s *xlsx.Sheet, names []string) {
	r := s.AddRow()
	for _, n := range names {
		r.AddCell().SetString(n)
	}
}
