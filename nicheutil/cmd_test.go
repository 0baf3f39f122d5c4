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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/niche"
)

// resetFlags returns the command line flags to their defaults so that
// they no longer override configuration files.
func resetFlags() {
	for _, o := range options {
		for _, set := range o.flagsets {
			if f := set.Lookup(o.name); f != nil {
				f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
	}
}

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	Root.SetOut(&b)
	defer Root.SetOut(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "NICHE v" + niche.Version + "\n"; b.String() != want {
		t.Errorf("%q != %q", b.String(), want)
	}
}

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()
	file := writeStudyArea(t, dir, "")
	var b bytes.Buffer
	Root.SetOut(&b)
	defer Root.SetOut(nil)

	Root.SetArgs([]string{"run", file})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "study area completed") {
		t.Errorf("output: %s", b.String())
	}

	// The command line overrides the configuration file.
	Root.SetArgs([]string{"run", "--model_options.overwrite_files", "--model_options.output_dir", filepath.Join(dir, "other"), file})
	t.Cleanup(resetFlags)
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "other", "V07.nc")); err != nil {
		t.Error(err)
	}
}

func TestTablesCmd(t *testing.T) {
	dir := t.TempDir()
	Root.SetArgs([]string{"tables", "-o", dir})
	t.Cleanup(resetFlags)
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, niche.TableVegetation+".csv")); err != nil {
		t.Error(err)
	}
}

func TestConfigFiles(t *testing.T) {
	if f, err := configFiles([]string{"a.yml", "b.yml"}); err != nil || len(f) != 2 {
		t.Errorf("%v, %v", f, err)
	}
	Cfg.Set("config", "")
	if _, err := configFiles(nil); err == nil {
		t.Error("want an error without configuration files")
	}
}
