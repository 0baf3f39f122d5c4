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
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ctessum/geom"
	"github.com/golang/groupcache/lru"
	"github.com/sirupsen/logrus"
)

// Names of the model inputs.
const (
	SoilCode             = "soil_code"
	MHW                  = "mhw"
	MLW                  = "mlw"
	MSW                  = "msw"
	Seepage              = "seepage"
	InundationAcidity    = "inundation_acidity"
	InundationNutrient   = "inundation_nutrient"
	NitrogenAtmospheric  = "nitrogen_atmospheric"
	NitrogenAnimal       = "nitrogen_animal"
	NitrogenFertilizer   = "nitrogen_fertilizer"
	Management           = "management"
	Minerality           = "minerality"
	Rainwater            = "rainwater"
	InundationVegetation = "inundation_vegetation"
	ManagementVegetation = "management_vegetation"
	AcidityInput         = "acidity"
	NutrientLevelInput   = "nutrient_level"
)

// inputKinds holds the kind each input is coerced to.
var inputKinds = map[string]Kind{
	SoilCode:             SignedCategorical,
	MHW:                  Continuous,
	MLW:                  Continuous,
	MSW:                  Continuous,
	Seepage:              Continuous,
	InundationAcidity:    SignedCategorical,
	InundationNutrient:   SignedCategorical,
	NitrogenAtmospheric:  Continuous,
	NitrogenAnimal:       Continuous,
	NitrogenFertilizer:   Continuous,
	Management:           SignedCategorical,
	Minerality:           SignedCategorical,
	Rainwater:            SignedCategorical,
	InundationVegetation: SignedCategorical,
	ManagementVegetation: SignedCategorical,
	AcidityInput:         Categorical,
	NutrientLevelInput:   Categorical,
}

// nitrogenInputs are the nitrogen deposition and fertilisation layers.
var nitrogenInputs = []string{NitrogenAtmospheric, NitrogenAnimal, NitrogenFertilizer}

// maxNitrogen is the largest plausible nitrogen load in kg/ha/yr.
const maxNitrogen = 10000

// legacySoilFactor is the multiplier of soil codes in legacy soil maps.
const legacySoilFactor = 10000

// maxSamples is the number of offending cells reported by Check.
const maxSamples = 10

// InputNames returns the recognised input names in sorted order.
func InputNames() []string {
	o := make([]string, 0, len(inputKinds))
	for n := range inputKinds {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// closestName returns the candidate with the smallest edit distance to
// name, or "" if none is reasonably close.
func closestName(name string, candidates []string) string {
	best, bestD := "", math.MaxInt32
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(strings.ToLower(name), c); d < bestD {
			best, bestD = c, d
		}
	}
	if bestD > len(best)/2 {
		return ""
	}
	return best
}

func checkInputName(name string) error {
	if _, ok := inputKinds[name]; ok {
		return nil
	}
	return &UnknownInputError{Name: name, Suggestion: closestName(name, InputNames())}
}

// RasterStack is a set of named, co-registered model inputs. Each input is
// either a raster source or a scalar that is expanded to a uniform raster
// over the frame of the stack.
type RasterStack struct {
	sources map[string]RasterSource
	frames  map[string]GridFrame
	order   []string
	scalars map[string]float64

	frame    GridFrame
	hasFrame bool

	cache *lru.Cache
}

// NewRasterStack returns an empty stack.
func NewRasterStack() *RasterStack {
	return &RasterStack{
		sources: make(map[string]RasterSource),
		frames:  make(map[string]GridFrame),
		scalars: make(map[string]float64),
		cache:   lru.New(len(inputKinds)),
	}
}

// Set sets input name to src. The frame of the stack becomes the
// intersection of the frames of all raster inputs; src must be aligned
// with the others.
func (s *RasterStack) Set(name string, src RasterSource) error {
	if err := checkInputName(name); err != nil {
		return err
	}
	f, err := src.GridFrame()
	if err != nil {
		return fmt.Errorf("niche: reading frame of %s: %w", name, err)
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("niche: input %s: %w", name, err)
	}
	order := make([]string, 0, len(s.order)+1)
	for _, n := range s.order {
		if n != name {
			order = append(order, n)
		}
	}
	order = append(order, name)
	frames := make(map[string]GridFrame, len(s.frames)+1)
	for n, ff := range s.frames {
		frames[n] = ff
	}
	frames[name] = f

	frame, err := intersectFrames(order, frames)
	if err != nil {
		return err
	}
	s.order, s.frames, s.frame, s.hasFrame = order, frames, frame, true
	s.sources[name] = src
	delete(s.scalars, name)
	s.cache.Clear()
	return nil
}

// intersectFrames narrows the first frame by each of the following ones.
func intersectFrames(order []string, frames map[string]GridFrame) (GridFrame, error) {
	f := frames[order[0]]
	for _, n := range order[1:] {
		var err error
		f, err = f.Intersect(frames[n])
		if err != nil {
			if e, ok := err.(*MisalignedGridError); ok {
				e.Layer = n
			}
			return GridFrame{}, err
		}
	}
	return f, nil
}

// SetScalar sets input name to the uniform value v.
func (s *RasterStack) SetScalar(name string, v float64) error {
	if err := checkInputName(name); err != nil {
		return err
	}
	if _, ok := s.sources[name]; ok {
		s.remove(name)
	}
	s.scalars[name] = v
	s.cache.Clear()
	return nil
}

// remove drops the raster input name and recomputes the frame.
func (s *RasterStack) remove(name string) {
	delete(s.sources, name)
	delete(s.frames, name)
	order := s.order[:0]
	for _, n := range s.order {
		if n != name {
			order = append(order, n)
		}
	}
	s.order = order
	if len(order) == 0 {
		s.frame, s.hasFrame = GridFrame{}, false
		return
	}
	// Removing a frame can only widen the intersection, so this cannot fail.
	s.frame, _ = intersectFrames(order, s.frames)
}

// Has returns whether input name is set.
func (s *RasterStack) Has(name string) bool {
	_, r := s.sources[name]
	_, v := s.scalars[name]
	return r || v
}

// Names returns the names of the inputs that are set, in sorted order.
func (s *RasterStack) Names() []string {
	o := make([]string, 0, len(s.sources)+len(s.scalars))
	for n := range s.sources {
		o = append(o, n)
	}
	for n := range s.scalars {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// Frame returns the current frame of the stack and whether any raster
// input has been set.
func (s *RasterStack) Frame() (GridFrame, bool) { return s.frame, s.hasFrame }

// Source returns the raster source of input name, if it was set as a
// raster.
func (s *RasterStack) Source(name string) (RasterSource, bool) {
	src, ok := s.sources[name]
	return src, ok
}

// Scalar returns the value of input name, if it was set as a scalar.
func (s *RasterStack) Scalar(name string) (float64, bool) {
	v, ok := s.scalars[name]
	return v, ok
}

// Get returns input name on the frame of the stack, coerced to the kind
// of the input. Legacy soil maps, in which every valid code is a
// multiple of 10000, are converted to plain soil codes. The returned
// raster is shared and must not be modified.
func (s *RasterStack) Get(name string) (*Raster, error) {
	if v, ok := s.cache.Get(name); ok {
		return v.(*Raster), nil
	}
	if !s.hasFrame {
		return nil, fmt.Errorf("niche: no raster inputs set; cannot determine the grid for %s", name)
	}
	kind, ok := inputKinds[name]
	if !ok {
		return nil, checkInputName(name)
	}
	var r *Raster
	if v, ok := s.scalars[name]; ok {
		r = Uniform(s.frame, kind, v)
		if math.IsNaN(v) {
			r = NewRaster(s.frame, kind)
		}
	} else if src, ok := s.sources[name]; ok {
		w, err := s.frame.ReadWindow(s.frames[name])
		if err != nil {
			return nil, err
		}
		if r, err = src.Read(w); err != nil {
			return nil, fmt.Errorf("niche: reading %s: %w", name, err)
		}
		if r.Frame.Width != s.frame.Width || r.Frame.Height != s.frame.Height {
			return nil, fmt.Errorf("niche: reading %s: got %dx%d cells, want %dx%d",
				name, r.Frame.Width, r.Frame.Height, s.frame.Width, s.frame.Height)
		}
		r = r.Copy()
		r.Frame = s.frame
	} else {
		return nil, &MissingInputsError{Names: []string{name}}
	}
	coerce(name, kind, r)
	s.cache.Add(name, r)
	return r, nil
}

// coerce converts r in place to the kind of input name. Cells holding
// the sentinel of that kind become missing.
func coerce(name string, kind Kind, r *Raster) {
	r.Kind = kind
	if kind != Continuous {
		for i, ok := range r.Valid {
			if !ok {
				continue
			}
			v := math.Round(r.Data.Elements[i])
			if kind.IsNoData(v) {
				r.SetNoData(i)
				continue
			}
			r.Data.Elements[i] = v
		}
	}
	if name != SoilCode {
		return
	}
	legacy, n := true, 0
	for i, ok := range r.Valid {
		if !ok {
			continue
		}
		n++
		if r.Data.Elements[i] < legacySoilFactor {
			legacy = false
			break
		}
	}
	if legacy && n > 0 {
		for i, ok := range r.Valid {
			if ok {
				r.Data.Elements[i] = math.Round(r.Data.Elements[i] / legacySoilFactor)
			}
		}
	}
}

// Check runs sanity checks on the water levels and nitrogen loads. When
// strict, the first failing check is returned as an
// *InconsistentInputsError; otherwise failures are logged as warnings.
func (s *RasterStack) Check(strict bool, log logrus.FieldLogger) error {
	type check struct {
		name   string
		inputs []string
		ok     func(v []float64) bool
	}
	checks := []check{
		{"mhw <= mlw", []string{MHW, MLW}, func(v []float64) bool { return v[0] <= v[1] }},
		{"mhw <= msw <= mlw", []string{MHW, MSW, MLW}, func(v []float64) bool { return v[0] <= v[1] && v[1] <= v[2] }},
	}
	for _, n := range nitrogenInputs {
		checks = append(checks, check{fmt.Sprintf("0 <= %s <= %d", n, maxNitrogen), []string{n},
			func(v []float64) bool { return v[0] >= 0 && v[0] <= maxNitrogen }})
	}
	for _, c := range checks {
		rasters := make([]*Raster, 0, len(c.inputs))
		for _, n := range c.inputs {
			if !s.Has(n) {
				break
			}
			r, err := s.Get(n)
			if err != nil {
				return err
			}
			rasters = append(rasters, r)
		}
		if len(rasters) != len(c.inputs) {
			continue
		}
		count, samples := failingCells(rasters, c.ok)
		if count == 0 {
			continue
		}
		if strict {
			return &InconsistentInputsError{Check: c.name, Count: count, Samples: samples}
		}
		log.WithFields(logrus.Fields{
			"check":   c.name,
			"cells":   count,
			"samples": (&InconsistentInputsError{Samples: samples}).samples(),
		}).Warn("niche: inconsistent inputs")
	}
	return nil
}

// failingCells returns the number of cells valid in all rasters for which
// ok returns false, and the centres of the first few of them.
func failingCells(rasters []*Raster, ok func([]float64) bool) (int, []geom.Point) {
	f := rasters[0].Frame
	v := make([]float64, len(rasters))
	var count int
	var samples []geom.Point
cells:
	for i := 0; i < f.Len(); i++ {
		for j, r := range rasters {
			val, valid := r.At(i)
			if !valid {
				continue cells
			}
			v[j] = val
		}
		if ok(v) {
			continue
		}
		count++
		if len(samples) < maxSamples {
			samples = append(samples, f.CellCenter(i/f.Width, i%f.Width))
		}
	}
	return count, samples
}
