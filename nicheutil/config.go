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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/niche"
	"github.com/spf13/cast"
)

// Config is the configuration of one study area.
type Config struct {
	// File is the configuration file the settings were read from.
	File string

	// Name identifies the study area in logs and output.
	Name string

	OutputDir  string
	Strict     bool
	Overwrite  bool
	FullModel  bool
	Deviation  bool
	Plot       bool
	CodeTables map[string]string
	Inputs     map[string]Layer

	// Flooding maps a scenario name to a path template in which {code}
	// is replaced by the two-digit vegetation code.
	Flooding map[string]string

	HabitatMap   string
	HabitatField string
}

// Layer is an input given either as a raster variable in a file or as a
// value that applies everywhere.
type Layer struct {
	Path     string
	Variable string

	Value   float64
	IsValue bool
}

func (l Layer) String() string {
	if l.IsValue {
		return fmt.Sprintf("%g", l.Value)
	}
	return l.Path + ":" + l.Variable
}

// parseLayer interprets the configuration value v of input name: a
// number, or a path optionally followed by ":variable". Relative paths
// are relative to dir.
func parseLayer(name string, v interface{}, dir string) (Layer, error) {
	if f, err := cast.ToFloat64E(v); err == nil {
		return Layer{Value: f, IsValue: true}, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil || strings.TrimSpace(s) == "" {
		return Layer{}, fmt.Errorf("nicheutil: input %s must be a number or a file path, not %#v", name, v)
	}
	l := Layer{Path: os.ExpandEnv(strings.TrimSpace(s)), Variable: name}
	// A colon after the last path separator starts the variable name;
	// drive letters like C: are never split off.
	if i := strings.LastIndex(l.Path, ":"); i > 1 && !strings.ContainsAny(l.Path[i:], `/\`) {
		l.Path, l.Variable = l.Path[:i], l.Path[i+1:]
	}
	l.Path = resolve(dir, l.Path)
	return l, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// LoadConfig reads the study area configuration in file. Options given
// on the command line take precedence over the file, which takes
// precedence over NICHE_ environment variables.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NICHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("nicheutil: problem reading configuration file: %v", err)
	}
	for _, o := range options {
		for _, set := range o.flagsets {
			if f := set.Lookup(o.name); f != nil && f.Changed {
				v.Set(o.name, Cfg.Get(o.name))
			}
		}
	}
	return configFrom(v, file)
}

// configFrom unmarshals a study area configuration.
func configFrom(v *viper.Viper, file string) (*Config, error) {
	dir := filepath.Dir(file)
	name := v.GetString("model_options.name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	c := &Config{
		File:         file,
		Name:         name,
		OutputDir:    resolve(dir, os.ExpandEnv(v.GetString("model_options.output_dir"))),
		Strict:       true,
		Overwrite:    v.GetBool("model_options.overwrite_files"),
		FullModel:    true,
		Deviation:    v.GetBool("model_options.deviation"),
		Plot:         v.GetBool("plot"),
		CodeTables:   make(map[string]string),
		Inputs:       make(map[string]Layer),
		Flooding:     make(map[string]string),
		HabitatMap:   resolve(dir, os.ExpandEnv(v.GetString("validation.habitat_map"))),
		HabitatField: v.GetString("validation.field"),
	}
	if v.IsSet("model_options.strict_checks") {
		c.Strict = v.GetBool("model_options.strict_checks")
	}
	if v.IsSet("model_options.full_model") {
		c.FullModel = v.GetBool("model_options.full_model")
	}
	if c.OutputDir == "" {
		return nil, fmt.Errorf("nicheutil: %s: model_options.output_dir is not specified", file)
	}

	for k, p := range cast.ToStringMapString(v.Get("code_tables")) {
		c.CodeTables[k] = resolve(dir, os.ExpandEnv(p))
	}
	layers := cast.ToStringMap(v.Get("input_layers"))
	if len(layers) == 0 {
		return nil, fmt.Errorf("nicheutil: %s: no input_layers are specified", file)
	}
	var problems []string
	for k, val := range layers {
		l, err := parseLayer(k, val, dir)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		c.Inputs[k] = l
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	for k, p := range cast.ToStringMapString(v.Get("flooding")) {
		if !strings.Contains(p, "{code}") {
			return nil, fmt.Errorf("nicheutil: %s: flooding scenario %s: path %q lacks a {code} placeholder", file, k, p)
		}
		c.Flooding[k] = resolve(dir, os.ExpandEnv(p))
	}
	if c.HabitatMap != "" && c.HabitatField == "" {
		return nil, fmt.Errorf("nicheutil: %s: validation.habitat_map is set but validation.field is not", file)
	}
	return c, nil
}

// RunOptions returns the engine options of c.
func (c *Config) RunOptions() niche.RunOptions {
	return niche.RunOptions{FullModel: c.FullModel, Deviation: c.Deviation, Lenient: !c.Strict}
}

// floodingPath returns the flooding map of scenario for vegetation type
// code.
func (c *Config) floodingPath(scenario string, code int) string {
	return strings.Replace(c.Flooding[scenario], "{code}", fmt.Sprintf("%02d", code), -1)
}
