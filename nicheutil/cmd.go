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

// Package nicheutil holds the NICHE command-line interface and the
// routines it uses to run study areas from configuration files.
package nicheutil

import (
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/niche"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to NICHE. Options
	// given on the command line override the study area configuration
	// files.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "model_options.output_dir",
			usage: `
              model_options.output_dir is the directory the results are
              written to. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deltaCmd.Flags(), tablesCmd.Flags()},
		},
		{
			name: "model_options.strict_checks",
			usage: `
              model_options.strict_checks specifies whether inconsistent
              input layers and rule tables stop the run instead of
              producing warnings.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "model_options.overwrite_files",
			usage: `
              model_options.overwrite_files specifies whether existing
              output files may be replaced.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deltaCmd.Flags(), validateCmd.Flags(), plotCmd.Flags(), tablesCmd.Flags()},
		},
		{
			name: "model_options.full_model",
			usage: `
              model_options.full_model specifies whether the nutrient level
              and acidity are computed and used to predict vegetation. If
              false, only the soil and water level rules are applied.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "model_options.deviation",
			usage: `
              model_options.deviation specifies whether the distance of the
              water levels to the range each vegetation type needs is
              written out.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "plot",
			usage: `
              plot specifies whether a PNG map is written for every
              vegetation type.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "jobs",
			usage: `
              jobs is the number of study areas run at the same time. If
              < 1, all study areas run at once.`,
			shorthand:  "j",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "validation.habitat_map",
			usage: `
              validation.habitat_map is the path to a shapefile of mapped
              habitat polygons the results are compared to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), validateCmd.Flags()},
		},
		{
			name: "validation.field",
			usage: `
              validation.field is the attribute of validation.habitat_map
              holding the comma separated vegetation codes of each polygon.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), validateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("NICHE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(deltaCmd)
	Root.AddCommand(validateCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(tablesCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("niche: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "niche",
	Short: "A vegetation suitability model for wetlands.",
	Long: `NICHE predicts which wetland vegetation types can grow at a site from
its soil, ground water levels, seepage, rainwater lenses, management and
nitrogen deposition. Use the subcommands specified below to access the model
functionality.

Each study area is described by a YAML configuration file giving the input
layers and model options. Options can also be set on the command line, which
takes precedence over the configuration file, or through environment
variables in the format 'NICHE_var' where 'var' is the name of the variable
with dots replaced by underscores.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of NICHE.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("NICHE v%s\n", niche.Version)
	},
	DisableAutoGenTag: true,
}

// configFiles returns the configuration files given as arguments, or the
// one given by --config.
func configFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if f := Cfg.GetString("config"); f != "" {
		return []string{f}, nil
	}
	return nil, fmt.Errorf("niche: no configuration file specified")
}

var runCmd = &cobra.Command{
	Use:   "run [config.yml...]",
	Short: "Run the model.",
	Long: `run runs the model for each study area configuration file given and
writes the predicted vegetation, the area summaries and a log of the run to
the output directory of each study area. Study areas are independent and
run --jobs at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := configFiles(args)
		if err != nil {
			return err
		}
		return RunAll(context.Background(), files, Cfg.GetInt("jobs"), cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

var deltaCmd = &cobra.Command{
	Use:   "delta first_dir second_dir",
	Short: "Compare the results of two runs.",
	Long: `delta compares the vegetation predicted by two runs over the same study
area. For each vegetation type a raster is written to --model_options.output_dir
classifying each cell as suitable in neither, only the first, only the second,
or both runs, along with delta.csv holding the number of cells in each class.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.ExpandEnv(Cfg.GetString("model_options.output_dir"))
		if out == "" {
			return fmt.Errorf("niche: delta: --model_options.output_dir is not specified")
		}
		return Delta(args[0], args[1], out, Cfg.GetBool("model_options.overwrite_files"))
	},
	DisableAutoGenTag: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate result_dir",
	Short: "Compare a result to a habitat map.",
	Long: `validate compares the vegetation predicted by a run to the mapped
habitat polygons in --validation.habitat_map. Each polygon is scored by the
share of its cells in which its vegetation types were predicted, and the
scores are written to validation.csv in the result directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := Validate(args[0], os.ExpandEnv(Cfg.GetString("validation.habitat_map")),
			Cfg.GetString("validation.field"), Cfg.GetBool("model_options.overwrite_files"))
		if err != nil {
			return err
		}
		for _, c := range s {
			cmd.Printf("V%02d: potential in %d of %d polygons (%.1f%%)\n",
				c.VegCode, c.WithPotential, c.Polygons, c.Share()*100)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot result_dir",
	Short: "Map the results of a run.",
	Long:  `plot writes a PNG map for each vegetation type in a result directory.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Plot(args[0], Cfg.GetBool("model_options.overwrite_files"))
	},
	DisableAutoGenTag: true,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Export the default rule tables.",
	Long: `tables writes the default rule tables to --model_options.output_dir.
Edited copies can be used in a study area through its code_tables setting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.ExpandEnv(Cfg.GetString("model_options.output_dir"))
		if out == "" {
			out = "."
		}
		return ExportTables(out, Cfg.GetBool("model_options.overwrite_files"))
	},
	DisableAutoGenTag: true,
}
