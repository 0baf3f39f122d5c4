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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/niche"
	"github.com/spatialmodel/niche/validation"
	"golang.org/x/sync/errgroup"
)

// Names of files written to the output directory in addition to the
// rasters.
const (
	logFile        = "niche.log"
	runLogFile     = "log.yaml"
	summaryCSV     = "summary.csv"
	summaryXLSX    = "summary.xlsx"
	validationFile = "validation.csv"
)

// RunAll runs the study areas configured in files, at most jobs at a
// time. Each study area has its own Engine and log; the first failure
// cancels the runs that have not started yet.
func RunAll(ctx context.Context, files []string, jobs int, stdout io.Writer) error {
	cfgs := make([]*Config, len(files))
	dirs := make(map[string]string)
	for i, f := range files {
		c, err := LoadConfig(f)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(c.OutputDir)
		if err != nil {
			return err
		}
		if other, ok := dirs[abs]; ok {
			return fmt.Errorf("nicheutil: %s and %s write to the same output directory %s", other, f, c.OutputDir)
		}
		dirs[abs] = f
		cfgs[i] = c
	}
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, c := range cfgs {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := Run(ctx, c, stdout); err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Run runs the model for the study area configured in cfg and writes
// the results to cfg.OutputDir. Log messages go to stdout and to a log
// file in the output directory.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) error {
	start := time.Now()
	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return fmt.Errorf("nicheutil: creating output directory: %v", err)
	}
	logPath := filepath.Join(cfg.OutputDir, logFile)
	if _, err := os.Stat(logPath); err == nil && !cfg.Overwrite {
		return fmt.Errorf("nicheutil: %s already exists and overwriting is disabled", logPath)
	}
	logfile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("nicheutil: problem creating log file: %v", err)
	}
	defer logfile.Close()
	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(stdout, logfile))
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	log := logger.WithField("study_area", cfg.Name)

	tables, err := loadTables(cfg, log)
	if err != nil {
		return err
	}
	e := niche.NewEngine(tables)
	e.Log = log
	if err := setInputs(e, cfg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info("running model")
	if err := e.Run(cfg.RunOptions()); err != nil {
		return err
	}
	r, err := e.Result()
	if err != nil {
		return err
	}

	w := niche.NetCDFWriter{Dir: cfg.OutputDir, Overwrite: cfg.Overwrite}
	outputs, err := writeResult(w, r)
	if err != nil {
		return err
	}
	for _, s := range sortedKeys(cfg.Flooding) {
		o, err := writeFlooding(w, cfg, s, r, log)
		if err != nil {
			return err
		}
		outputs = append(outputs, o...)
	}
	for _, f := range []struct {
		name  string
		write func(path string) error
	}{
		{summaryCSV, func(p string) error { return writeSummaryCSV(p, r) }},
		{summaryXLSX, func(p string) error { return writeSummaryXLSX(p, r, tables) }},
	} {
		if err := writeFile(filepath.Join(cfg.OutputDir, f.name), cfg.Overwrite, f.write); err != nil {
			return err
		}
		outputs = append(outputs, f.name)
	}
	if cfg.HabitatMap != "" {
		if err := validate(cfg, r, log); err != nil {
			return err
		}
		outputs = append(outputs, validationFile)
	}
	if cfg.Plot {
		for _, code := range sortedCodes(r.Vegetation) {
			name := vegName(code) + ".png"
			title := fmt.Sprintf("%s: %s", vegName(code), tables.VegetationName(code))
			err := writeFile(filepath.Join(cfg.OutputDir, name), cfg.Overwrite, func(p string) error {
				return plotRaster(p, r.Vegetation[code], title)
			})
			if err != nil {
				return err
			}
			outputs = append(outputs, name)
		}
	}

	rl := newRunLog(cfg, e, start, outputs)
	err = writeFile(filepath.Join(cfg.OutputDir, runLogFile), cfg.Overwrite, func(p string) error {
		return rl.write(p)
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"outputs":  len(outputs),
		"duration": time.Since(start).String(),
	}).Info("study area completed")
	return nil
}

// loadTables loads the default rule tables with the overrides of cfg.
// Outside of strict mode the foreign key checks are lenient.
func loadTables(cfg *Config, log logrus.FieldLogger) (*niche.CodeTables, error) {
	var opts []niche.TableOption
	for _, name := range sortedKeys(cfg.CodeTables) {
		opts = append(opts, niche.OverrideTable(name, cfg.CodeTables[name]))
	}
	if !cfg.Strict {
		opts = append(opts, niche.Lenient(log))
	}
	return niche.LoadCodeTables(opts...)
}

func setInputs(e *niche.Engine, cfg *Config) error {
	for _, name := range sortedKeys(cfg.Inputs) {
		l := cfg.Inputs[name]
		var err error
		if l.IsValue {
			err = e.SetInputValue(name, l.Value)
		} else {
			err = e.SetInput(name, niche.NetCDFSource{Path: l.Path, Variable: l.Variable})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func vegName(code int) string { return fmt.Sprintf("V%02d", code) }

// writeResult writes the rasters of r and returns the names of the files
// written.
func writeResult(w niche.RasterWriter, r *niche.Result) ([]string, error) {
	var names []string
	write := func(name string, ras *niche.Raster) error {
		if err := w.WriteRaster(name, ras); err != nil {
			return err
		}
		names = append(names, name+".nc")
		return nil
	}
	for _, code := range sortedCodes(r.Vegetation) {
		if err := write(vegName(code), r.Vegetation[code]); err != nil {
			return nil, err
		}
	}
	if r.ComputedNutrientLevel {
		if err := write(niche.NutrientLevelInput, r.NutrientLevel); err != nil {
			return nil, err
		}
	}
	if r.ComputedAcidity {
		if err := write(niche.AcidityInput, r.Acidity); err != nil {
			return nil, err
		}
	}
	keys := make([]niche.DeviationKey, 0, len(r.Deviation))
	for k := range r.Deviation {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		if err := write(k.String(), r.Deviation[k]); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// writeFlooding combines the flooding maps of scenario with the
// vegetation result. Vegetation types without a flooding map are
// skipped.
func writeFlooding(w niche.RasterWriter, cfg *Config, scenario string, r *niche.Result, log logrus.FieldLogger) ([]string, error) {
	flood := make(map[int]*niche.Raster)
	for _, code := range sortedCodes(r.Vegetation) {
		path := cfg.floodingPath(scenario, code)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.WithFields(logrus.Fields{"scenario": scenario, "veg_code": code}).Debug("no flooding map")
			continue
		}
		ras, err := readAligned(niche.NetCDFSource{Path: path, Variable: "flooding"}, r.Frame)
		if err != nil {
			return nil, fmt.Errorf("nicheutil: flooding scenario %s: %w", scenario, err)
		}
		flood[code] = ras
	}
	combined, err := r.CombineFlooding(flood)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, code := range sortedCodes(combined) {
		name := fmt.Sprintf("flood_%s_%s", scenario, vegName(code))
		if err := w.WriteRaster(name, combined[code]); err != nil {
			return nil, err
		}
		names = append(names, name+".nc")
	}
	return names, nil
}

// readAligned reads the part of src covered by frame f.
func readAligned(src niche.RasterSource, f niche.GridFrame) (*niche.Raster, error) {
	sf, err := src.GridFrame()
	if err != nil {
		return nil, err
	}
	win, err := f.ReadWindow(sf)
	if err != nil {
		return nil, err
	}
	r, err := src.Read(win)
	if err != nil {
		return nil, err
	}
	if r.Frame.Width != f.Width || r.Frame.Height != f.Height {
		return nil, &niche.MisalignedGridError{Reason: "raster does not cover the study area"}
	}
	r.Frame = f
	return r, nil
}

func validate(cfg *Config, r *niche.Result, log logrus.FieldLogger) error {
	m, err := validation.LoadHabitatMap(cfg.HabitatMap, cfg.HabitatField)
	if err != nil {
		return err
	}
	scores, err := m.Validate(r.Vegetation)
	if err != nil {
		return err
	}
	for _, s := range validation.Summary(scores) {
		log.WithFields(logrus.Fields{
			"veg_code":       s.VegCode,
			"polygons":       s.Polygons,
			"with_potential": s.WithPotential,
		}).Info("validation")
	}
	return writeScores(filepath.Join(cfg.OutputDir, validationFile), cfg.Overwrite, scores)
}

// writeFile calls write unless path exists and overwrite is false.
func writeFile(path string, overwrite bool, write func(path string) error) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("nicheutil: %s already exists and overwriting is disabled", path)
		}
	}
	if err := write(path); err != nil {
		return fmt.Errorf("nicheutil: writing %s: %w", path, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

func sortedCodes(m map[int]*niche.Raster) []int {
	o := make([]int, 0, len(m))
	for c := range m {
		o = append(o, c)
	}
	sort.Ints(o)
	return o
}
