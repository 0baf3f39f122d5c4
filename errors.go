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
	"fmt"
	"sort"
	"strings"

	"github.com/ctessum/geom"
)

// ErrNoRunYet is returned when results are requested from an Engine
// that has not completed a run since its inputs last changed.
var ErrNoRunYet = errors.New("niche: no results available; call Run first")

// TableInvalidError is returned when the rule tables fail validation.
type TableInvalidError struct {
	Table    string
	Problems []string
}

func (e *TableInvalidError) Error() string {
	return fmt.Sprintf("niche: invalid code table %s: %s", e.Table, strings.Join(e.Problems, "; "))
}

// MisalignedGridError is returned when two rasters do not share a
// compatible cell grid.
type MisalignedGridError struct {
	Layer  string
	Reason string
}

func (e *MisalignedGridError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("niche: misaligned grid: %s", e.Reason)
	}
	return fmt.Sprintf("niche: misaligned grid for layer %s: %s", e.Layer, e.Reason)
}

// MissingInputsError lists the inputs a run requires but that were not set.
type MissingInputsError struct {
	Names []string
}

func (e *MissingInputsError) Error() string {
	return fmt.Sprintf("niche: missing required inputs: %s", strings.Join(e.Names, ", "))
}

// UnknownCodeError is returned when a raster carries a value outside the
// set of codes allowed for its layer.
type UnknownCodeError struct {
	Layer  string
	Values []float64
}

func (e *UnknownCodeError) Error() string {
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("niche: layer %s contains unknown codes: %s", e.Layer, strings.Join(vals, ", "))
}

// newUnknownCodeError builds an UnknownCodeError from a set of offending
// values, sorted so that the message is deterministic.
func newUnknownCodeError(layer string, vals map[float64]struct{}) *UnknownCodeError {
	e := &UnknownCodeError{Layer: layer}
	for v := range vals {
		e.Values = append(e.Values, v)
	}
	sort.Float64s(e.Values)
	return e
}

// InconsistentInputsError is returned in strict mode when the input layers
// contradict each other. Samples holds the world coordinates of up to
// maxSamples offending cells.
type InconsistentInputsError struct {
	Check   string
	Count   int
	Samples []geom.Point
}

func (e *InconsistentInputsError) Error() string {
	return fmt.Sprintf("niche: inconsistent inputs: %s fails in %d cells, e.g. at %s",
		e.Check, e.Count, e.samples())
}

func (e *InconsistentInputsError) samples() string {
	pts := make([]string, len(e.Samples))
	for i, p := range e.Samples {
		pts[i] = fmt.Sprintf("(%g, %g)", p.X, p.Y)
	}
	return strings.Join(pts, " ")
}

// UnknownInputError is returned when an input name is not recognised.
type UnknownInputError struct {
	Name       string
	Suggestion string
}

func (e *UnknownInputError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("niche: unknown input %q; did you mean %q?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("niche: unknown input %q", e.Name)
}
