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
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/ctessum/gobra"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// WebAddress is the address the browser interface listens on.
const WebAddress = "localhost:7272"

// studyArea is the browser interface's view of a configuration file.
type studyArea struct {
	Name    string                 `json:"name"`
	Inputs  map[string]string      `json:"inputs"`
	Outputs []string               `json:"outputs"`
	Options map[string]interface{} `json:"options"`
}

// studyAreaHandler loads the configuration file given in the "config"
// form value. It responds with the study area's inputs, the results
// already in its output directory and the option values the commands
// will use.
func studyAreaHandler(w http.ResponseWriter, r *http.Request) {
	file := r.FormValue("config")
	if file == "" {
		http.Error(w, "nicheutil: no configuration file given", http.StatusBadRequest)
		return
	}
	Root.PersistentFlags().Set("config", file)
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	cfg, err := LoadConfig(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	a := studyArea{
		Name:    cfg.Name,
		Inputs:  make(map[string]string, len(cfg.Inputs)),
		Options: make(map[string]interface{}, len(options)),
	}
	for name, l := range cfg.Inputs {
		a.Inputs[name] = l.String()
	}
	for _, o := range options {
		a.Options[o.name] = Cfg.Get(o.name)
	}
	if a.Outputs, err = resultFiles(cfg.OutputDir); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a); err != nil {
		logrus.WithError(err).Warn("writing study area")
	}
}

// resultFiles lists the rasters, tables and plots in dir. A missing
// directory has no results.
func resultFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("nicheutil: listing results: %w", err)
	}
	files := []string{}
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".nc", ".csv", ".xlsx", ".png":
			if !e.IsDir() {
				files = append(files, e.Name())
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

var webPage = template.Must(template.New("niche").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>NICHE</title>
	<style>
		body { font-family: sans-serif; max-width: 720px; margin: 2em auto; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] input { font-family: monospace; width: 50%; }
		#study-area { font-size: 85%; }
		.bad { border: 1px solid #c35; }
		.loaded { border: 1px solid #3c5; }
	</style>
</head>
<body>
	<h1>NICHE</h1>
	<p>Give the study area configuration file, then run the model.</p>
	<pre id="study-area"></pre>
	{{.}}
<script>
const flags = [...document.querySelectorAll('[data-name]')];
const config = flags.find(f => f.dataset.name == "config").children[0];
const summary = document.getElementById("study-area");
config.addEventListener("change", async () => {
	const res = await fetch("/studyArea?config=" + encodeURIComponent(config.value));
	if (res.status !== 200) {
		config.classList.add("bad");
		summary.textContent = "";
		return;
	}
	config.classList.remove("bad");
	const area = await res.json();
	for (const f of flags) {
		if (!(f.dataset.name in area.options)) continue;
		const input = f.children[0];
		const v = String(area.options[f.dataset.name]);
		if (input.value != v) {
			input.value = v;
			input.classList.add("loaded");
		}
	}
	summary.textContent = area.name + "\n" +
		Object.entries(area.inputs).map(([k, v]) => "  " + k + ": " + v).join("\n") +
		"\nresults: " + (area.outputs.join(", ") || "none");
});
</script>
</body>
</html>`))

// StartWebServer opens a browser interface for configuring a study area
// and running the commands.
func StartWebServer() {
	if err := setConfig(); err != nil {
		logrus.WithError(err).Warn("ignoring configuration")
	}
	http.HandleFunc("/studyArea", studyAreaHandler)

	for _, cmd := range Root.Commands() {
		cmd.SilenceUsage = true
	}
	Root.SilenceUsage = true

	server := gobra.Server{Root: Root, ServerAddress: WebAddress, HTML: webPage}
	url := "http://" + WebAddress
	log := logrus.WithField("address", url)
	if err := open.Run(url); err != nil {
		log.WithError(err).Info("could not open a browser")
	}
	log.Info("browser interface started")
	server.Start()
}
