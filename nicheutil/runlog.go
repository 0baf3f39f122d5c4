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
	"os"
	"time"

	"github.com/spatialmodel/niche"
	"github.com/spatialmodel/niche/internal/hash"
	"gopkg.in/yaml.v3"
)

// runLog records what a run did, so that its results can be traced back
// to the inputs and settings that produced them.
type runLog struct {
	Version    string              `yaml:"version"`
	Name       string              `yaml:"name"`
	Config     string              `yaml:"config"`
	Started    time.Time           `yaml:"started"`
	Duration   string              `yaml:"duration"`
	Options    runOptionsLog       `yaml:"model_options"`
	CodeTables map[string]string   `yaml:"code_tables,omitempty"`
	Tables     string              `yaml:"code_tables_fingerprint"`
	Inputs     map[string]inputLog `yaml:"input_layers"`
	Outputs    []string            `yaml:"outputs"`
	Occurrence map[int]float64     `yaml:"occurrence"`
}

type runOptionsLog struct {
	FullModel bool `yaml:"full_model"`
	Deviation bool `yaml:"deviation"`
	Strict    bool `yaml:"strict_checks"`
	Overwrite bool `yaml:"overwrite_files"`
}

type inputLog struct {
	Source      string `yaml:"source"`
	Fingerprint string `yaml:"fingerprint,omitempty"`
}

func newRunLog(cfg *Config, e *niche.Engine, start time.Time, outputs []string) *runLog {
	l := &runLog{
		Version:  niche.Version,
		Name:     cfg.Name,
		Config:   cfg.File,
		Started:  start.UTC().Truncate(time.Second),
		Duration: time.Since(start).Round(time.Millisecond).String(),
		Options: runOptionsLog{
			FullModel: cfg.FullModel,
			Deviation: cfg.Deviation,
			Strict:    cfg.Strict,
			Overwrite: cfg.Overwrite,
		},
		CodeTables: cfg.CodeTables,
		Tables:     hash.Hash(e.CodeTables()),
		Inputs:     make(map[string]inputLog),
		Outputs:    outputs,
	}
	for name, in := range cfg.Inputs {
		il := inputLog{Source: in.String()}
		if !in.IsValue {
			// A failure here would have failed the run already.
			il.Fingerprint, _ = hash.File(in.Path)
		}
		l.Inputs[name] = il
	}
	if occ, err := e.Occurrence(); err == nil {
		l.Occurrence = occ
	}
	return l
}

func (l *runLog) write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
