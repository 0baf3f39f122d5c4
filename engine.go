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
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of an Engine.
type State int

// Engine states. An Engine is Configuring until Run is called, Ready
// while a run that passed its input checks is in progress and Completed
// once results are available.
const (
	Configuring State = iota
	Ready
	Completed
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Ready:
		return "ready"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RunOptions specifies how a model run is carried out.
type RunOptions struct {
	// FullModel uses the nutrient level, acidity, inundation and
	// management in addition to soil and water levels.
	FullModel bool

	// Deviation additionally calculates the deviation of the water
	// levels from the windows tolerated by each vegetation type.
	Deviation bool

	// Lenient reports inconsistent inputs as warnings instead of
	// failing the run.
	Lenient bool
}

// Result holds the outputs of a model run.
type Result struct {
	Frame   GridFrame
	Options RunOptions

	// NutrientLevel and Acidity are the abiotic layers used by the
	// vegetation model. They are nil for the simple model.
	NutrientLevel, Acidity *Raster

	// ComputedNutrientLevel and ComputedAcidity report whether the
	// abiotic layers were calculated rather than supplied as input.
	ComputedNutrientLevel, ComputedAcidity bool

	// Vegetation holds the suitability (0 or 1) of each vegetation type.
	Vegetation map[int]*Raster

	// Detail holds the detail code of each vegetation type.
	Detail map[int]*Raster

	// Occurrence is the fraction of valid cells in which each vegetation
	// type is suitable.
	Occurrence map[int]float64

	// Deviation is only set when RunOptions.Deviation is true.
	Deviation map[DeviationKey]*Raster
}

// Stage is one step of a model run. Stages read their inputs from the
// Engine and add their outputs to the Result.
type Stage func(e *Engine, r *Result) error

// Engine runs the model for one study area. An Engine is not safe for
// concurrent use; separate Engines can run concurrently.
type Engine struct {
	// Log receives warnings and progress messages. It defaults to the
	// standard logrus logger.
	Log logrus.FieldLogger

	tables *CodeTables
	stack  *RasterStack
	state  State
	result *Result
}

// NewEngine returns an Engine using the rule tables t.
func NewEngine(t *CodeTables) *Engine {
	return &Engine{
		Log:    logrus.StandardLogger(),
		tables: t,
		stack:  NewRasterStack(),
	}
}

// CodeTables returns the rule tables in use.
func (e *Engine) CodeTables() *CodeTables { return e.tables }

// SetCodeTables replaces the rule tables.
func (e *Engine) SetCodeTables(t *CodeTables) {
	e.reset("code tables")
	e.tables = t
}

// SetInput sets input name to a raster source.
func (e *Engine) SetInput(name string, src RasterSource) error {
	if err := e.stack.Set(name, src); err != nil {
		return err
	}
	e.reset(name)
	return nil
}

// SetInputValue sets input name to a value that applies to every cell.
func (e *Engine) SetInputValue(name string, v float64) error {
	if err := e.stack.SetScalar(name, v); err != nil {
		return err
	}
	e.reset(name)
	return nil
}

// reset discards results after a change of configuration.
func (e *Engine) reset(changed string) {
	if e.state == Completed {
		e.Log.WithField("changed", changed).Warn("niche: configuration changed; discarding results")
	}
	e.state = Configuring
	e.result = nil
}

// Inputs returns the names of the inputs that are set, in sorted order.
func (e *Engine) Inputs() []string { return e.stack.Names() }

// Input returns input name on the current frame.
func (e *Engine) Input(name string) (*Raster, error) { return e.stack.Get(name) }

// InputSource returns the raster source of input name, if it was set as
// a raster.
func (e *Engine) InputSource(name string) (RasterSource, bool) { return e.stack.Source(name) }

// InputValue returns the value of input name, if it was set as a scalar.
func (e *Engine) InputValue(name string) (float64, bool) { return e.stack.Scalar(name) }

// Frame returns the current frame and whether any raster input was set.
func (e *Engine) Frame() (GridFrame, bool) { return e.stack.Frame() }

// State returns the lifecycle state of the Engine.
func (e *Engine) State() State { return e.state }

var (
	nutrientStageInputs = []string{SoilCode, MSW, NitrogenAtmospheric, NitrogenAnimal,
		NitrogenFertilizer, Management, InundationNutrient}
	acidityStageInputs = []string{SoilCode, MLW, Seepage, Rainwater, Minerality, InundationAcidity}
)

// RequiredInputs returns the inputs a run with options o needs given
// the inputs that are currently set.
func (e *Engine) RequiredInputs(o RunOptions) []string {
	req := map[string]bool{SoilCode: true, MHW: true, MLW: true}
	if o.FullModel {
		if !e.stack.Has(NutrientLevelInput) {
			for _, n := range nutrientStageInputs {
				req[n] = true
			}
		}
		if !e.stack.Has(AcidityInput) {
			for _, n := range acidityStageInputs {
				req[n] = true
			}
		}
	}
	names := make([]string, 0, len(req))
	for n := range req {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stages returns the steps of a run with options o in execution order.
func (e *Engine) Stages(o RunOptions) []Stage {
	var s []Stage
	if o.FullModel {
		s = append(s, NutrientLevelStage, AcidityStage)
	}
	s = append(s, VegetationStage)
	if o.Deviation {
		s = append(s, DeviationStage)
	}
	return s
}

// Run runs the model. On failure the Engine returns to Configuring and no
// results are available.
func (e *Engine) Run(o RunOptions) error {
	e.result = nil
	e.state = Configuring
	if e.tables == nil {
		return fmt.Errorf("niche: no code tables set")
	}
	var missing []string
	for _, n := range e.RequiredInputs(o) {
		if !e.stack.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingInputsError{Names: missing}
	}
	frame, ok := e.stack.Frame()
	if !ok {
		return fmt.Errorf("niche: at least one input must be a raster to define the grid")
	}
	if err := e.stack.Check(!o.Lenient, e.Log); err != nil {
		return err
	}
	e.state = Ready

	start := time.Now()
	r := &Result{Frame: frame, Options: o}
	for _, s := range e.Stages(o) {
		if err := s(e, r); err != nil {
			e.state = Configuring
			return err
		}
	}
	e.result = r
	e.state = Completed
	e.Log.WithFields(logrus.Fields{
		"full_model": o.FullModel,
		"deviation":  o.Deviation,
		"cells":      frame.Len(),
		"duration":   time.Since(start).String(),
	}).Info("niche: run completed")
	return nil
}

// NutrientLevelStage sets the nutrient level, calculating it unless it
// was supplied as input.
func NutrientLevelStage(e *Engine, r *Result) error {
	if e.stack.Has(NutrientLevelInput) {
		l, err := e.stack.Get(NutrientLevelInput)
		r.NutrientLevel = l
		return err
	}
	in, err := e.inputs(nutrientStageInputs)
	if err != nil {
		return err
	}
	l, err := NutrientLevel(e.tables, NutrientInputs{
		Soil:                in[SoilCode],
		MSW:                 in[MSW],
		NitrogenAtmospheric: in[NitrogenAtmospheric],
		NitrogenAnimal:      in[NitrogenAnimal],
		NitrogenFertilizer:  in[NitrogenFertilizer],
		Management:          in[Management],
		Inundation:          in[InundationNutrient],
	})
	if err != nil {
		return fmt.Errorf("niche: calculating nutrient level: %w", err)
	}
	r.NutrientLevel, r.ComputedNutrientLevel = l, true
	return nil
}

// AcidityStage sets the acidity, calculating it unless it was supplied
// as input.
func AcidityStage(e *Engine, r *Result) error {
	if e.stack.Has(AcidityInput) {
		a, err := e.stack.Get(AcidityInput)
		r.Acidity = a
		return err
	}
	in, err := e.inputs(acidityStageInputs)
	if err != nil {
		return err
	}
	a, err := Acidity(e.tables, AcidityInputs{
		Soil:       in[SoilCode],
		MLW:        in[MLW],
		Seepage:    in[Seepage],
		Rainwater:  in[Rainwater],
		Minerality: in[Minerality],
		Inundation: in[InundationAcidity],
	})
	if err != nil {
		return fmt.Errorf("niche: calculating acidity: %w", err)
	}
	r.Acidity, r.ComputedAcidity = a, true
	return nil
}

// VegetationStage determines the suitability of each vegetation type.
func VegetationStage(e *Engine, r *Result) error {
	in, err := e.inputs([]string{SoilCode, MHW, MLW})
	if err != nil {
		return err
	}
	vi := VegetationInputs{Soil: in[SoilCode], MHW: in[MHW], MLW: in[MLW]}
	if r.Options.FullModel {
		vi.NutrientLevel, vi.Acidity = r.NutrientLevel, r.Acidity
		if e.stack.Has(InundationVegetation) {
			if vi.Inundation, err = e.stack.Get(InundationVegetation); err != nil {
				return err
			}
		}
		if e.stack.Has(ManagementVegetation) {
			if vi.Management, err = e.stack.Get(ManagementVegetation); err != nil {
				return err
			}
		}
	}
	v, err := Vegetation(e.tables, vi, r.Options.FullModel)
	if err != nil {
		return fmt.Errorf("niche: calculating vegetation: %w", err)
	}
	r.Vegetation, r.Detail, r.Occurrence = v.Suitability, v.Detail, v.Occurrence
	return nil
}

// DeviationStage calculates the water level deviations.
func DeviationStage(e *Engine, r *Result) error {
	in, err := e.inputs([]string{SoilCode, MHW, MLW})
	if err != nil {
		return err
	}
	d, err := Deviation(e.tables, in[SoilCode], in[MHW], in[MLW])
	if err != nil {
		return fmt.Errorf("niche: calculating deviation: %w", err)
	}
	r.Deviation = d
	return nil
}

func (e *Engine) inputs(names []string) (map[string]*Raster, error) {
	o := make(map[string]*Raster, len(names))
	for _, n := range names {
		r, err := e.stack.Get(n)
		if err != nil {
			return nil, err
		}
		o[n] = r
	}
	return o, nil
}

// Result returns the results of the last run.
func (e *Engine) Result() (*Result, error) {
	if e.state != Completed || e.result == nil {
		return nil, ErrNoRunYet
	}
	return e.result, nil
}

// Occurrence returns the fraction of valid cells in which each vegetation
// type is suitable.
func (e *Engine) Occurrence() (map[int]float64, error) {
	r, err := e.Result()
	if err != nil {
		return nil, err
	}
	return r.Occurrence, nil
}

// AreaSummary returns the area of each class of the output layers.
func (e *Engine) AreaSummary() ([]AreaRow, error) {
	r, err := e.Result()
	if err != nil {
		return nil, err
	}
	return r.AreaSummary(), nil
}

// DetailLegend returns the detail codes that occur in the results.
func (e *Engine) DetailLegend() ([]DetailEntry, error) {
	r, err := e.Result()
	if err != nil {
		return nil, err
	}
	return DetailLegend(r.Detail), nil
}
