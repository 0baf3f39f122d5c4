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
	"image/color"
	"math"

	"github.com/spatialmodel/niche"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// rasterGrid presents a raster as a heat map grid with north up. Missing
// cells are NaN.
type rasterGrid struct {
	r *niche.Raster
}

func (g rasterGrid) Dims() (c, r int) { return g.r.Frame.Width, g.r.Frame.Height }

func (g rasterGrid) Z(c, r int) float64 {
	v, ok := g.r.Get(g.r.Frame.Height-1-r, c)
	if !ok {
		return math.NaN()
	}
	return v
}

func (g rasterGrid) X(c int) float64 { return g.r.Frame.CellCenter(0, c).X }

func (g rasterGrid) Y(r int) float64 { return g.r.Frame.CellCenter(g.r.Frame.Height-1-r, 0).Y }

// plotWidth is the width of raster plots.
const plotWidth = 16 * vg.Centimeter

// plotRaster saves a map of r to path; the format follows from the file
// extension.
func plotRaster(path string, r *niche.Raster, title string) error {
	cm := moreland.ExtendedBlackBody()
	lo, hi := valueRange(r)
	if hi <= lo {
		hi = lo + 1
	}
	cm.SetMin(lo)
	cm.SetMax(hi)
	colors := 255
	if r.Kind != niche.Continuous {
		colors = int(hi-lo) + 1
	}
	h := plotter.NewHeatMap(rasterGrid{r}, cm.Palette(colors))
	h.Min, h.Max = lo, hi
	h.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = title
	p.Add(h)
	p.HideAxes()

	height := plotWidth * vg.Length(r.Frame.Height) / vg.Length(r.Frame.Width)
	return p.Save(plotWidth, height+vg.Centimeter, path)
}

// valueRange returns the smallest and largest valid value of r.
func valueRange(r *niche.Raster) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < r.Len(); i++ {
		if v, ok := r.At(i); ok {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	return lo, hi
}
