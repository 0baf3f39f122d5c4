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
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
)

// Dimension and attribute names of raster netCDF files.
const (
	ncRows   = "y"
	ncCols   = "x"
	ncAffine = "affine"
	ncCRS    = "crs"
	ncKind   = "kind"
	ncFill   = "_FillValue"
)

// NetCDFSource is a raster stored as a two-dimensional (y, x) variable
// in a netCDF file. The georeferencing is taken from the global
// "affine" and "crs" attributes.
type NetCDFSource struct {
	Path     string
	Variable string
}

func (s NetCDFSource) open() (*os.File, *cdf.File, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("niche: opening raster: %w", err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("niche: reading netCDF header of %s: %w", s.Path, err)
	}
	return f, cf, nil
}

// GridFrame implements RasterSource.
func (s NetCDFSource) GridFrame() (GridFrame, error) {
	f, cf, err := s.open()
	if err != nil {
		return GridFrame{}, err
	}
	defer f.Close()
	return s.frame(cf)
}

func (s NetCDFSource) frame(cf *cdf.File) (GridFrame, error) {
	dims := cf.Header.Lengths(s.Variable)
	if len(dims) != 2 {
		return GridFrame{}, fmt.Errorf("niche: variable %s in %s has %d dimensions; want 2", s.Variable, s.Path, len(dims))
	}
	a, ok := cf.Header.GetAttribute("", ncAffine).([]float64)
	if !ok || len(a) != 6 {
		return GridFrame{}, fmt.Errorf("niche: %s lacks a 6-element %q attribute", s.Path, ncAffine)
	}
	g := GridFrame{Width: dims[1], Height: dims[0]}
	copy(g.Affine[:], a)
	if crs, ok := cf.Header.GetAttribute("", ncCRS).(string); ok {
		g.CRS = crs
	}
	return g, g.Validate()
}

// Read implements RasterSource.
func (s NetCDFSource) Read(w Window) (*Raster, error) {
	f, cf, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := s.frame(cf)
	if err != nil {
		return nil, err
	}
	kind := Continuous
	if k, ok := cf.Header.GetAttribute(s.Variable, ncKind).(string); ok {
		if kind, err = parseKind(k); err != nil {
			return nil, fmt.Errorf("niche: %s: %w", s.Path, err)
		}
	}
	fill, hasFill := toFloats(cf.Header.GetAttribute(s.Variable, ncFill))

	r := cf.Reader(s.Variable, nil, nil)
	buf := r.Zero(g.Len())
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("niche: reading %s from %s: %w", s.Variable, s.Path, err)
	}
	vals, ok := toFloats(buf)
	if !ok {
		return nil, fmt.Errorf("niche: unsupported data type %T of %s in %s", buf, s.Variable, s.Path)
	}
	whole := NewRaster(g, kind)
	for i, v := range vals {
		if math.IsNaN(v) || (hasFill && len(fill) > 0 && v == fill[0]) || (kind != Continuous && kind.IsNoData(v)) {
			continue
		}
		whole.Set(i, v)
	}
	return whole.Read(w)
}

func toFloats(v interface{}) ([]float64, bool) {
	var o []float64
	switch vv := v.(type) {
	case []uint8:
		for _, x := range vv {
			o = append(o, float64(x))
		}
	case []int16:
		for _, x := range vv {
			o = append(o, float64(x))
		}
	case []int32:
		for _, x := range vv {
			o = append(o, float64(x))
		}
	case []float32:
		for _, x := range vv {
			o = append(o, float64(x))
		}
	case []float64:
		o = append(o, vv...)
	default:
		return nil, false
	}
	return o, true
}

func parseKind(s string) (Kind, error) {
	for _, k := range []Kind{Categorical, SignedCategorical, Continuous} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown raster kind %q", s)
}

// NetCDFWriter writes each raster to its own netCDF file, named after the
// raster, in directory Dir. Categorical rasters are stored as 16-bit
// integers with 255 (or -99 for signed categorical rasters) marking
// missing cells; continuous rasters as 32-bit floats with NaN.
type NetCDFWriter struct {
	Dir string

	// Overwrite allows existing files to be replaced.
	Overwrite bool
}

// Path returns the path of the file raster name is written to.
func (w NetCDFWriter) Path(name string) string {
	return filepath.Join(w.Dir, name+".nc")
}

// WriteRaster implements RasterWriter.
func (w NetCDFWriter) WriteRaster(name string, r *Raster) error {
	path := w.Path(name)
	if !w.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("niche: %s already exists and overwriting is disabled", path)
		}
	}
	if err := os.MkdirAll(w.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("niche: creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("niche: creating %s: %w", path, err)
	}
	if err = writeNetCDF(f, name, r); err != nil {
		f.Close()
		return fmt.Errorf("niche: writing %s: %w", path, err)
	}
	return f.Close()
}

func writeNetCDF(f *os.File, name string, r *Raster) error {
	h := cdf.NewHeader([]string{ncRows, ncCols}, []int{r.Frame.Height, r.Frame.Width})
	h.AddAttribute("", "comment", "NICHE vegetation model raster")
	h.AddAttribute("", ncAffine, r.Frame.Affine[:])
	if r.Frame.CRS != "" {
		h.AddAttribute("", ncCRS, r.Frame.CRS)
	}

	vals := r.Sentinel()
	var data interface{}
	if r.Kind == Continuous {
		h.AddVariable(name, []string{ncRows, ncCols}, []float32{0})
		h.AddAttribute(name, ncFill, []float32{float32(math.NaN())})
		d := make([]float32, len(vals))
		for i, v := range vals {
			d[i] = float32(v)
		}
		data = d
	} else {
		h.AddVariable(name, []string{ncRows, ncCols}, []int16{0})
		h.AddAttribute(name, ncFill, []int16{int16(r.Kind.Sentinel())})
		d := make([]int16, len(vals))
		for i, v := range vals {
			d[i] = int16(v)
		}
		data = d
	}
	h.AddAttribute(name, ncKind, r.Kind.String())
	h.Define()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return err
	}
	end := h.Lengths(name)
	start := make([]int, len(end))
	if _, err = cf.Writer(name, start, end).Write(data); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(f)
}
