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
	"sort"

	"github.com/ctessum/sparse"
)

// Kind specifies how the values of a raster are interpreted and which
// sentinel marks missing cells when the raster leaves the model.
type Kind int

const (
	// Categorical rasters hold small non-negative codes (0..254).
	Categorical Kind = iota
	// SignedCategorical rasters hold codes from a closed set that may
	// include negative values.
	SignedCategorical
	// Continuous rasters hold real values.
	Continuous
)

// Sentinel values used for missing cells outside of the model.
const (
	CategoricalNoData       = 255
	SignedCategoricalNoData = -99
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case SignedCategorical:
		return "signed categorical"
	case Continuous:
		return "continuous"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel returns the value that marks missing cells of kind k.
func (k Kind) Sentinel() float64 {
	switch k {
	case Categorical:
		return CategoricalNoData
	case SignedCategorical:
		return SignedCategoricalNoData
	}
	return math.NaN()
}

// IsNoData returns whether v is the sentinel for kind k.
func (k Kind) IsNoData(v float64) bool {
	if k == Continuous {
		return math.IsNaN(v)
	}
	return v == k.Sentinel()
}

// Raster is a grid of values placed on a GridFrame. Data has shape
// [Height, Width]. Valid marks the cells that carry a value; the
// contents of Data at invalid cells are undefined.
type Raster struct {
	Frame GridFrame
	Kind  Kind
	Data  *sparse.DenseArray
	Valid []bool
}

// NewRaster returns a raster on frame f in which every cell is missing.
func NewRaster(f GridFrame, k Kind) *Raster {
	return &Raster{
		Frame: f,
		Kind:  k,
		Data:  sparse.ZerosDense(f.Height, f.Width),
		Valid: make([]bool, f.Len()),
	}
}

// Uniform returns a raster on frame f with every cell set to v.
func Uniform(f GridFrame, k Kind, v float64) *Raster {
	r := NewRaster(f, k)
	for i := range r.Data.Elements {
		r.Data.Elements[i] = v
		r.Valid[i] = true
	}
	return r
}

// FromValues creates a raster from row-major values in which cells equal
// to the sentinel of kind k are missing.
func FromValues(f GridFrame, k Kind, vals []float64) (*Raster, error) {
	if len(vals) != f.Len() {
		return nil, fmt.Errorf("niche: %d values for a %dx%d grid", len(vals), f.Width, f.Height)
	}
	r := NewRaster(f, k)
	for i, v := range vals {
		if k.IsNoData(v) {
			continue
		}
		r.Data.Elements[i] = v
		r.Valid[i] = true
	}
	return r, nil
}

// Len returns the number of cells.
func (r *Raster) Len() int { return len(r.Valid) }

// At returns the value of cell i (row-major) and whether it is valid.
func (r *Raster) At(i int) (float64, bool) {
	return r.Data.Elements[i], r.Valid[i]
}

// Get returns the value at (row, col) and whether it is valid.
func (r *Raster) Get(row, col int) (float64, bool) {
	i := row*r.Frame.Width + col
	return r.Data.Elements[i], r.Valid[i]
}

// Set sets cell i to v and marks it valid.
func (r *Raster) Set(i int, v float64) {
	r.Data.Elements[i] = v
	r.Valid[i] = true
}

// SetNoData marks cell i missing.
func (r *Raster) SetNoData(i int) {
	r.Data.Elements[i] = 0
	r.Valid[i] = false
}

// CountValid returns the number of valid cells.
func (r *Raster) CountValid() int {
	n := 0
	for _, ok := range r.Valid {
		if ok {
			n++
		}
	}
	return n
}

// Sentinel returns the values of r in row-major order with missing
// cells replaced by the sentinel of the raster's kind.
func (r *Raster) Sentinel() []float64 {
	out := make([]float64, r.Len())
	s := r.Kind.Sentinel()
	for i, v := range r.Data.Elements {
		if r.Valid[i] {
			out[i] = v
		} else {
			out[i] = s
		}
	}
	return out
}

// Copy returns a deep copy of r.
func (r *Raster) Copy() *Raster {
	o := &Raster{
		Frame: r.Frame,
		Kind:  r.Kind,
		Data:  r.Data.Copy(),
		Valid: make([]bool, len(r.Valid)),
	}
	copy(o.Valid, r.Valid)
	return o
}

// Equal returns whether two rasters have equal frames and kinds and
// identical values at identical valid cells.
func (r *Raster) Equal(o *Raster) bool {
	if r.Kind != o.Kind || !r.Frame.Equal(o.Frame) || len(r.Valid) != len(o.Valid) {
		return false
	}
	for i, ok := range r.Valid {
		if ok != o.Valid[i] {
			return false
		}
		if ok && r.Data.Elements[i] != o.Data.Elements[i] {
			return false
		}
	}
	return true
}

// GridFrame implements RasterSource.
func (r *Raster) GridFrame() (GridFrame, error) { return r.Frame, nil }

// Read implements RasterSource by copying the cells in w.
func (r *Raster) Read(w Window) (*Raster, error) {
	if w.Row0 < 0 || w.Col0 < 0 || w.Row0+w.Rows > r.Frame.Height || w.Col0+w.Cols > r.Frame.Width {
		return nil, fmt.Errorf("niche: window %+v outside of %dx%d raster", w, r.Frame.Width, r.Frame.Height)
	}
	f := r.Frame
	f.Width, f.Height = w.Cols, w.Rows
	origin := r.Frame.world(float64(w.Col0), float64(w.Row0))
	f.Affine[2], f.Affine[5] = origin.X, origin.Y
	o := NewRaster(f, r.Kind)
	for row := 0; row < w.Rows; row++ {
		src := (w.Row0+row)*r.Frame.Width + w.Col0
		dst := row * w.Cols
		copy(o.Data.Elements[dst:dst+w.Cols], r.Data.Elements[src:src+w.Cols])
		copy(o.Valid[dst:dst+w.Cols], r.Valid[src:src+w.Cols])
	}
	return o, nil
}

// RasterSource is a readable raster, such as a file.
type RasterSource interface {
	// GridFrame returns the georeferencing of the whole source.
	GridFrame() (GridFrame, error)

	// Read reads the cells in w.
	Read(w Window) (*Raster, error)
}

// RasterWriter persists rasters.
type RasterWriter interface {
	WriteRaster(name string, r *Raster) error
}

// codes returns the distinct valid values of r.
func (r *Raster) codes() map[float64]struct{} {
	o := make(map[float64]struct{})
	for i, ok := range r.Valid {
		if ok {
			o[r.Data.Elements[i]] = struct{}{}
		}
	}
	return o
}

// aligned returns an error if any non-nil raster in layers is not on
// frame f.
func aligned(f GridFrame, layers map[string]*Raster) error {
	names := make([]string, 0, len(layers))
	for n := range layers {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if r := layers[n]; r != nil && !r.Frame.Equal(f) {
			return &MisalignedGridError{Layer: n, Reason: "frame differs from the other inputs"}
		}
	}
	return nil
}
