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
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseLayer(t *testing.T) {
	dir := filepath.FromSlash("/data/area")
	for _, test := range []struct {
		name string
		in   interface{}
		want Layer
	}{
		{name: "int", in: 30, want: Layer{Value: 30, IsValue: true}},
		{name: "float", in: 0.5, want: Layer{Value: 0.5, IsValue: true}},
		{name: "numeric string", in: "12", want: Layer{Value: 12, IsValue: true}},
		{name: "relative", in: "mhw.nc", want: Layer{Path: filepath.Join(dir, "mhw.nc"), Variable: "mhw"}},
		{name: "variable", in: "grids.nc:ghg", want: Layer{Path: filepath.Join(dir, "grids.nc"), Variable: "ghg"}},
		{name: "absolute", in: "/other/mhw.nc", want: Layer{Path: "/other/mhw.nc", Variable: "mhw"}},
		{name: "drive letter", in: `C:\maps\mhw.nc`, want: Layer{Path: filepath.Join(dir, `C:\maps\mhw.nc`), Variable: "mhw"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			if test.name == "drive letter" && filepath.Separator == '\\' {
				test.want.Path = `C:\maps\mhw.nc`
			}
			got, err := parseLayer("mhw", test.in, dir)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("%+v != %+v", got, test.want)
			}
		})
	}
	t.Run("empty", func(t *testing.T) {
		if _, err := parseLayer("mhw", " ", dir); err == nil {
			t.Error("want an error")
		}
	})
}

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	p := filepath.Join(dir, "area.yml")
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := writeConfig(t, dir, `
model_options:
  output_dir: out
  deviation: true
input_layers:
  soil_code: soil.nc:soil_code
  mhw: mhw.nc
  msw: 30
code_tables:
  vegetation: tables/vegetation.csv
flooding:
  t25: flood/F{code}.nc
`)
	c, err := LoadConfig(file)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "area" {
		t.Errorf("name %q", c.Name)
	}
	if c.OutputDir != filepath.Join(dir, "out") {
		t.Errorf("output dir %s", c.OutputDir)
	}
	if !c.FullModel || !c.Deviation || !c.Strict || c.Overwrite {
		t.Errorf("options %+v", c.RunOptions())
	}
	want := map[string]Layer{
		"soil_code": {Path: filepath.Join(dir, "soil.nc"), Variable: "soil_code"},
		"mhw":       {Path: filepath.Join(dir, "mhw.nc"), Variable: "mhw"},
		"msw":       {Value: 30, IsValue: true},
	}
	if !reflect.DeepEqual(c.Inputs, want) {
		t.Errorf("inputs %+v", c.Inputs)
	}
	if c.CodeTables["vegetation"] != filepath.Join(dir, "tables", "vegetation.csv") {
		t.Errorf("code tables %v", c.CodeTables)
	}
	if p := c.floodingPath("t25", 7); p != filepath.Join(dir, "flood", "F07.nc") {
		t.Errorf("flooding path %s", p)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, test := range []struct {
		name, config, msg string
	}{
		{
			name:   "no output",
			config: "input_layers:\n  msw: 30\n",
			msg:    "output_dir is not specified",
		},
		{
			name:   "no inputs",
			config: "model_options:\n  output_dir: out\n",
			msg:    "no input_layers",
		},
		{
			name:   "flooding placeholder",
			config: "model_options:\n  output_dir: out\ninput_layers:\n  msw: 30\nflooding:\n  t25: flood.nc\n",
			msg:    "lacks a {code} placeholder",
		},
		{
			name:   "validation field",
			config: "model_options:\n  output_dir: out\ninput_layers:\n  msw: 30\nvalidation:\n  habitat_map: bwk.shp\n",
			msg:    "validation.field is not",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, t.TempDir(), test.config))
			if err == nil || !strings.Contains(err.Error(), test.msg) {
				t.Errorf("want error containing %q, got %v", test.msg, err)
			}
		})
	}
}

func TestLoadConfigLenient(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, t.TempDir(),
		"model_options:\n  output_dir: out\n  strict_checks: false\ninput_layers:\n  msw: 30\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Strict || !c.RunOptions().Lenient {
		t.Errorf("options %+v", c.RunOptions())
	}
}
