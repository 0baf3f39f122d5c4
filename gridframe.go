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
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

const (
	// linearTolerance is the tolerance in map units (1 cm for metric
	// reference systems) used when comparing cell sizes and origins.
	linearTolerance = 0.01

	// rotationTolerance is the tolerance used when comparing the
	// rotational affine terms.
	rotationTolerance = 1e-9
)

// GridFrame is the georeferencing of a raster: the size of the cell grid,
// the affine transform from cell (col, row) to world (x, y) and an
// identifier for the coordinate reference system.
//
// The affine coefficients (a, b, c, d, e, f) give
//
//	x = a*col + b*row + c
//	y = d*col + e*row + f
//
// GridFrame is a value type; operations never modify the receiver.
type GridFrame struct {
	Width, Height int
	Affine        [6]float64
	CRS           string
}

// Window is a rectangular block of cells within a GridFrame.
type Window struct {
	Row0, Col0 int
	Rows, Cols int
}

// NewGridFrame returns a new GridFrame after checking that it is valid.
func NewGridFrame(width, height int, affine [6]float64, crs string) (GridFrame, error) {
	g := GridFrame{Width: width, Height: height, Affine: affine, CRS: crs}
	return g, g.Validate()
}

// Validate checks the GridFrame invariants.
func (g GridFrame) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("niche: invalid grid size %dx%d", g.Width, g.Height)
	}
	if g.det() == 0 {
		return fmt.Errorf("niche: degenerate affine transform %v", g.Affine)
	}
	return nil
}

// Len returns the number of cells in the frame.
func (g GridFrame) Len() int { return g.Width * g.Height }

func (g GridFrame) det() float64 {
	a := g.Affine
	return a[0]*a[4] - a[1]*a[3]
}

// CellArea returns the area of one cell in squared map units.
func (g GridFrame) CellArea() float64 { return math.Abs(g.det()) }

// world returns the world coordinates of the (possibly fractional)
// cell position (col, row).
func (g GridFrame) world(col, row float64) geom.Point {
	a := g.Affine
	return geom.Point{X: a[0]*col + a[1]*row + a[2], Y: a[3]*col + a[4]*row + a[5]}
}

// cell returns the fractional cell position of world point p.
func (g GridFrame) cell(p geom.Point) (col, row float64) {
	a := g.Affine
	dx, dy := p.X-a[2], p.Y-a[5]
	det := g.det()
	return (a[4]*dx - a[1]*dy) / det, (-a[3]*dx + a[0]*dy) / det
}

// CellCenter returns the world coordinates of the centre of a cell.
func (g GridFrame) CellCenter(row, col int) geom.Point {
	return g.world(float64(col)+0.5, float64(row)+0.5)
}

// Extent returns the world bounding box of the frame.
func (g GridFrame) Extent() *geom.Bounds {
	b := geom.NewBounds()
	for _, c := range [][2]float64{{0, 0}, {float64(g.Width), 0},
		{0, float64(g.Height)}, {float64(g.Width), float64(g.Height)}} {
		p := g.world(c[0], c[1])
		b.Extend(geom.NewBoundsPoint(p))
	}
	return b
}

func within(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// Equal returns whether two frames describe the same cell grid: same
// size and reference system, and affine coefficients equal within 1 cm
// for the linear terms and negligibly different for the rotational terms.
func (g GridFrame) Equal(o GridFrame) bool {
	if g.Width != o.Width || g.Height != o.Height || g.CRS != o.CRS {
		return false
	}
	for i := range g.Affine {
		tol := linearTolerance
		if i == 1 || i == 3 {
			tol = rotationTolerance
		}
		if !within(g.Affine[i], o.Affine[i], tol) {
			return false
		}
	}
	return true
}

// sameCells returns whether both frames have the same cell size and
// orientation and the same reference system.
func (g GridFrame) sameCells(o GridFrame) bool {
	if g.CRS != o.CRS {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if !within(g.Affine[i], o.Affine[i], rotationTolerance) {
			return false
		}
	}
	return true
}

// offset returns the position of the origin of o in the cell
// coordinates of g, and whether that position is a whole number of cells
// within 1 cm.
func (g GridFrame) offset(o GridFrame) (col, row int, ok bool) {
	origin := geom.Point{X: o.Affine[2], Y: o.Affine[5]}
	fc, fr := g.cell(origin)
	col, row = int(math.Round(fc)), int(math.Round(fr))
	snapped := g.world(float64(col), float64(row))
	ok = within(snapped.X, origin.X, linearTolerance) && within(snapped.Y, origin.Y, linearTolerance)
	return col, row, ok
}

// Overlaps returns whether the cells of g and o line up: same cell size
// and orientation, and origins that differ by a whole number of cells.
// It does not check whether the extents intersect.
func (g GridFrame) Overlaps(o GridFrame) bool {
	if !g.sameCells(o) {
		return false
	}
	_, _, ok := g.offset(o)
	return ok
}

// Intersect returns g shrunk to the part that is also covered by o.
func (g GridFrame) Intersect(o GridFrame) (GridFrame, error) {
	if !g.sameCells(o) {
		return GridFrame{}, &MisalignedGridError{Reason: "cell size, orientation or reference system differ"}
	}
	dc, dr, ok := g.offset(o)
	if !ok {
		return GridFrame{}, &MisalignedGridError{Reason: "origins are not a whole number of cells apart"}
	}
	c0, c1 := maxInt(0, dc), minInt(g.Width, dc+o.Width)
	r0, r1 := maxInt(0, dr), minInt(g.Height, dr+o.Height)
	if c1 <= c0 || r1 <= r0 {
		return GridFrame{}, &MisalignedGridError{Reason: "extents do not intersect"}
	}
	out := g
	out.Width, out.Height = c1-c0, r1-r0
	origin := g.world(float64(c0), float64(r0))
	out.Affine[2], out.Affine[5] = origin.X, origin.Y
	return out, nil
}

// ReadWindow returns the block of cells of other that is covered by g.
// It fails if g is not aligned with other or extends beyond it.
func (g GridFrame) ReadWindow(other GridFrame) (Window, error) {
	if !other.sameCells(g) {
		return Window{}, &MisalignedGridError{Reason: "cell size, orientation or reference system differ"}
	}
	c0, r0, ok := other.offset(g)
	if !ok {
		return Window{}, &MisalignedGridError{Reason: "origins are not a whole number of cells apart"}
	}
	if c0 < 0 || r0 < 0 || c0+g.Width > other.Width || r0+g.Height > other.Height {
		return Window{}, &MisalignedGridError{Reason: fmt.Sprintf(
			"frame of %dx%d cells at offset (%d, %d) exceeds source of %dx%d cells",
			g.Width, g.Height, c0, r0, other.Width, other.Height)}
	}
	return Window{Row0: r0, Col0: c0, Rows: g.Height, Cols: g.Width}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
