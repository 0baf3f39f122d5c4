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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sort"
	"testing"
)

func getStudyArea(t *testing.T, file string) (*httptest.ResponseRecorder, studyArea) {
	t.Helper()
	t.Cleanup(resetFlags)
	req := httptest.NewRequest("GET", "/studyArea?config="+url.QueryEscape(file), nil)
	w := httptest.NewRecorder()
	studyAreaHandler(w, req)
	var a studyArea
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&a); err != nil {
			t.Fatal(err)
		}
	}
	return w, a
}

func TestStudyAreaHandler(t *testing.T) {
	dir := t.TempDir()
	file := writeStudyArea(t, dir, "")

	w, a := getStudyArea(t, file)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if a.Name != "test_area" {
		t.Errorf("name %q", a.Name)
	}
	if got, want := a.Inputs["mhw"], filepath.Join(dir, "inputs", "mhw.nc")+":mhw"; got != want {
		t.Errorf("mhw input %q, want %q", got, want)
	}
	if a.Inputs["msw"] != "30" {
		t.Errorf("msw input %q", a.Inputs["msw"])
	}
	if a.Options["model_options.output_dir"] != "out" {
		t.Errorf("output_dir option %v", a.Options["model_options.output_dir"])
	}
	if len(a.Outputs) != 0 {
		t.Errorf("results before running: %v", a.Outputs)
	}

	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := Run(context.Background(), cfg, io.Discard); err != nil {
		t.Fatal(err)
	}
	_, a = getStudyArea(t, file)
	var found bool
	for _, f := range a.Outputs {
		if f == "V07.nc" {
			found = true
		}
		if filepath.Ext(f) == ".log" {
			t.Errorf("log file %s listed as a result", f)
		}
	}
	if !found {
		t.Errorf("results %v do not include V07.nc", a.Outputs)
	}
}

func TestStudyAreaHandlerErrors(t *testing.T) {
	for name, test := range map[string]struct {
		file string
		code int
	}{
		"missing":  {file: filepath.Join(t.TempDir(), "none.yml"), code: http.StatusNoContent},
		"no value": {file: "", code: http.StatusBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			if w, _ := getStudyArea(t, test.file); w.Code != test.code {
				t.Errorf("status %d, want %d", w.Code, test.code)
			}
		})
	}
}

func TestResultFiles(t *testing.T) {
	files, err := resultFiles(runStudyArea(t))
	if err != nil {
		t.Fatal(err)
	}
	if !sort.StringsAreSorted(files) {
		t.Errorf("unsorted results %v", files)
	}
	listed := make(map[string]bool)
	for _, f := range files {
		listed[f] = true
	}
	for f, want := range map[string]bool{
		"V01.nc": true, summaryCSV: true,
		summaryXLSX: true, logFile: false, runLogFile: false,
	} {
		if listed[f] != want {
			t.Errorf("%s listed: %v, want %v", f, listed[f], want)
		}
	}

	if files, err := resultFiles(filepath.Join(t.TempDir(), "none")); err != nil || len(files) != 0 {
		t.Errorf("missing directory: %v, %v", files, err)
	}
}
