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
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/niche/codetables"
)

// Names of the rule tables.
const (
	TableSoilCodes              = "soil_codes"
	TableSeepage                = "seepage"
	TableSoilMLWClass           = "soil_mlw_class"
	TableLnkAcidity             = "lnk_acidity"
	TableAcidity                = "acidity"
	TableNitrogenMineralisation = "nitrogen_mineralisation"
	TableManagement             = "management"
	TableLnkSoilNutrientLevel   = "lnk_soil_nutrient_level"
	TableNutrientLevel          = "nutrient_level"
	TableVegetation             = "vegetation"
	TableVegetationTypes        = "vegetation_types"
)

// tableColumns holds the columns each table must have. Additional
// columns are ignored.
var tableColumns = map[string][]string{
	TableSoilCodes:              {"soil_code", "soil_name", "soil_group"},
	TableSeepage:                {"seepage", "seepage_min", "seepage_max"},
	TableSoilMLWClass:           {"soil_group", "mlw_min", "mlw_max", "soil_mlw_class"},
	TableLnkAcidity:             {"rainwater", "mineral_richness", "inundation", "seepage", "soil_mlw_class", "acidity"},
	TableAcidity:                {"acidity"},
	TableNitrogenMineralisation: {"soil_name", "msw_min", "msw_max", "nitrogen_mineralisation"},
	TableManagement:             {"management", "influence"},
	TableLnkSoilNutrientLevel:   {"soil_code", "influence", "total_nitrogen_min", "total_nitrogen_max", "nutrient_level"},
	TableNutrientLevel:          {"nutrient_level"},
	TableVegetation:             {"veg_code", "soil_name", "mhw_min", "mhw_max", "mlw_min", "mlw_max", "nutrient_level", "acidity", "management", "inundation"},
	TableVegetationTypes:        {"veg_code", "name"},
}

// TableNames returns the names of all rule tables in sorted order.
func TableNames() []string {
	o := make([]string, 0, len(tableColumns))
	for n := range tableColumns {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// Soil is an entry of the soil dictionary.
type Soil struct {
	Code  int
	Name  string
	Group int
}

// VegetationRule is one allowable combination of conditions for a
// vegetation type. The Min water levels are the deeper bounds, so a
// level v lies in the window when Min >= v >= Max.
type VegetationRule struct {
	VegCode        int
	SoilName       string
	MHWMin, MHWMax float64
	MLWMin, MLWMax float64
	NutrientLevel  int
	Acidity        int
	Management     int
	Inundation     int
}

// AcidityKey is the combination of conditions that determines the
// acidity class.
type AcidityKey struct {
	Rainwater, Minerality, Inundation, Seepage, SoilMLWClass int
}

type bin struct {
	Min, Max float64
	Value    float64
}

// binTable is a sorted set of abutting intervals.
type binTable []bin

// lookup returns the value of the bin holding v. Bins are (min, max]
// unless leftClosed is set, in which case they are [min, max).
func (b binTable) lookup(v float64, leftClosed bool) (float64, bool) {
	i := sort.Search(len(b), func(i int) bool {
		if leftClosed {
			return b[i].Max > v
		}
		return b[i].Max >= v
	})
	if i == len(b) {
		return 0, false
	}
	if (leftClosed && v < b[i].Min) || (!leftClosed && v <= b[i].Min) {
		return 0, false
	}
	return b[i].Value, true
}

// check sorts b and reports gaps, overlaps and empty bins.
func (b binTable) check(group string) []string {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Min < b[j].Min })
	var problems []string
	for i, bb := range b {
		if !(bb.Min < bb.Max) {
			problems = append(problems, fmt.Sprintf("%s: empty interval [%g, %g]", group, bb.Min, bb.Max))
		}
		if i == 0 {
			continue
		}
		prev := b[i-1].Max
		switch {
		case prev < bb.Min:
			problems = append(problems, fmt.Sprintf("%s: gap between %g and %g", group, prev, bb.Min))
		case prev > bb.Min:
			problems = append(problems, fmt.Sprintf("%s: overlap between %g and %g", group, bb.Min, prev))
		}
	}
	return problems
}

type nutrientKey struct{ soilCode, influence int }

// CodeTables is the validated, immutable set of rule tables that drive
// the classification. It is safe for concurrent use.
type CodeTables struct {
	soils      []Soil
	soilByCode map[int]Soil
	soilByName map[string]Soil

	seepage        binTable
	soilMLW        map[int]binTable
	mineralisation map[string]binTable
	nutrient       map[nutrientKey]binTable

	acidityLink map[AcidityKey]int
	acidity     map[int]string

	// Key sets of lnk_acidity used to check input domains.
	mineralityKeys, inundationKeys map[int]bool

	influence      map[int]int
	nutrientLevels map[int]string

	vegRules map[int][]VegetationRule
	vegNames map[int]string
}

type tableConfig struct {
	fsys      fs.FS
	overrides map[string]string
	lenient   bool
	log       logrus.FieldLogger
}

// TableOption configures LoadCodeTables.
type TableOption func(*tableConfig)

// OverrideTable replaces the default table name with the CSV file at path.
func OverrideTable(name, path string) TableOption {
	return func(c *tableConfig) {
		c.overrides[name] = path
	}
}

// TablesFrom reads the default tables from fsys instead of the embedded
// defaults. Files must be named after the tables with a ".csv" extension.
func TablesFrom(fsys fs.FS) TableOption {
	return func(c *tableConfig) {
		c.fsys = fsys
	}
}

// Lenient relaxes the foreign key checks: values used in a table need to be
// a subset of the referenced keys rather than all of them. Keys that are
// never used are reported as warnings to log.
func Lenient(log logrus.FieldLogger) TableOption {
	return func(c *tableConfig) {
		c.lenient = true
		if log != nil {
			c.log = log
		}
	}
}

// LoadCodeTables reads and validates the rule tables.
func LoadCodeTables(opts ...TableOption) (*CodeTables, error) {
	c := &tableConfig{
		fsys:      codetables.FS,
		overrides: make(map[string]string),
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	for name := range c.overrides {
		if _, ok := tableColumns[name]; !ok {
			p := "unknown table"
			if s := closestName(name, TableNames()); s != "" {
				p += fmt.Sprintf("; did you mean %q?", s)
			}
			return nil, &TableInvalidError{Table: name, Problems: []string{p}}
		}
	}

	raw := make(map[string]*csvTable)
	for _, name := range TableNames() {
		t, err := c.open(name)
		if err != nil {
			return nil, err
		}
		raw[name] = t
	}

	t := new(CodeTables)
	for _, f := range []func(map[string]*csvTable) error{
		t.parseSoils,
		t.parseSeepage,
		t.parseSoilMLW,
		t.parseAcidity,
		t.parseMineralisation,
		t.parseManagement,
		t.parseNutrient,
		t.parseVegetation,
	} {
		if err := f(raw); err != nil {
			return nil, err
		}
	}
	if err := t.checkForeignKeys(c); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *tableConfig) open(name string) (*csvTable, error) {
	var r io.ReadCloser
	var err error
	if path, ok := c.overrides[name]; ok {
		r, err = os.Open(path)
	} else {
		r, err = c.fsys.Open(name + ".csv")
	}
	if err != nil {
		return nil, &TableInvalidError{Table: name, Problems: []string{err.Error()}}
	}
	defer r.Close()
	return readCSVTable(name, r)
}

// csvTable is a table read from a CSV file.
type csvTable struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readCSVTable(name string, r io.Reader) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, &TableInvalidError{Table: name, Problems: []string{err.Error()}}
	}
	if len(lines) == 0 {
		return nil, &TableInvalidError{Table: name, Problems: []string{"missing header"}}
	}
	t := &csvTable{name: name, columns: make(map[string]int), rows: lines[1:]}
	for i, h := range lines[0] {
		t.columns[strings.TrimSpace(h)] = i
	}
	var problems []string
	for _, col := range tableColumns[name] {
		if _, ok := t.columns[col]; !ok {
			problems = append(problems, fmt.Sprintf("missing column %s", col))
		}
	}
	if len(problems) > 0 {
		return nil, &TableInvalidError{Table: name, Problems: problems}
	}
	return t, nil
}

// parser extracts typed fields from the rows of a table, collecting
// problems as it goes.
type parser struct {
	t        *csvTable
	line     int
	row      []string
	problems []string
}

func (p *parser) next(i int) {
	p.line = i + 2 // one-based, after the header
	p.row = p.t.rows[i]
}

func (p *parser) addf(format string, args ...interface{}) {
	p.problems = append(p.problems, fmt.Sprintf("line %d: ", p.line)+fmt.Sprintf(format, args...))
}

func (p *parser) str(col string) string {
	return strings.TrimSpace(p.row[p.t.columns[col]])
}

func (p *parser) int(col string) int {
	v, err := strconv.Atoi(p.str(col))
	if err != nil {
		p.addf("column %s: %v", col, err)
	}
	return v
}

func (p *parser) float(col string) float64 {
	v, err := strconv.ParseFloat(p.str(col), 64)
	if err != nil {
		p.addf("column %s: %v", col, err)
	}
	return v
}

func (p *parser) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return &TableInvalidError{Table: p.t.name, Problems: p.problems}
}

// each calls f for every row of table name.
func each(raw map[string]*csvTable, name string, f func(p *parser)) error {
	p := &parser{t: raw[name]}
	for i := range p.t.rows {
		p.next(i)
		f(p)
	}
	return p.err()
}

func (t *CodeTables) parseSoils(raw map[string]*csvTable) error {
	t.soilByCode = make(map[int]Soil)
	t.soilByName = make(map[string]Soil)
	return each(raw, TableSoilCodes, func(p *parser) {
		s := Soil{Code: p.int("soil_code"), Name: p.str("soil_name"), Group: p.int("soil_group")}
		if _, ok := t.soilByCode[s.Code]; ok {
			p.addf("duplicate soil_code %d", s.Code)
		}
		if _, ok := t.soilByName[s.Name]; ok {
			p.addf("duplicate soil_name %s", s.Name)
		}
		if s.Code <= 0 || s.Code >= CategoricalNoData {
			p.addf("soil_code %d out of range 1..254", s.Code)
		}
		t.soilByCode[s.Code] = s
		t.soilByName[s.Name] = s
		t.soils = append(t.soils, s)
	})
}

// enum reads a dictionary keyed by the integer column key.
func enum(raw map[string]*csvTable, name, key string) (map[int]string, error) {
	o := make(map[int]string)
	err := each(raw, name, func(p *parser) {
		k := p.int(key)
		if _, ok := o[k]; ok {
			p.addf("duplicate %s %d", key, k)
		}
		if k < 0 || k >= CategoricalNoData {
			p.addf("%s %d out of range 0..254", key, k)
		}
		var desc string
		if _, ok := p.t.columns["description"]; ok {
			desc = p.str("description")
		} else if _, ok := p.t.columns["name"]; ok {
			desc = p.str("name")
		}
		o[k] = desc
	})
	return o, err
}

// binGroups checks every group of bins and returns a TableInvalidError
// listing all problems.
func binGroups(name string, groups map[string]binTable) error {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var problems []string
	for _, k := range keys {
		problems = append(problems, groups[k].check(k)...)
	}
	if len(problems) > 0 {
		return &TableInvalidError{Table: name, Problems: problems}
	}
	return nil
}

func (t *CodeTables) parseSeepage(raw map[string]*csvTable) error {
	seen := make(map[int]bool)
	err := each(raw, TableSeepage, func(p *parser) {
		class := p.int("seepage")
		if seen[class] {
			p.addf("duplicate seepage class %d", class)
		}
		seen[class] = true
		t.seepage = append(t.seepage, bin{Min: p.float("seepage_min"), Max: p.float("seepage_max"), Value: float64(class)})
	})
	if err != nil {
		return err
	}
	return binGroups(TableSeepage, map[string]binTable{"seepage": t.seepage})
}

func (t *CodeTables) parseSoilMLW(raw map[string]*csvTable) error {
	t.soilMLW = make(map[int]binTable)
	err := each(raw, TableSoilMLWClass, func(p *parser) {
		g := p.int("soil_group")
		t.soilMLW[g] = append(t.soilMLW[g], bin{Min: p.float("mlw_min"), Max: p.float("mlw_max"),
			Value: float64(p.int("soil_mlw_class"))})
	})
	if err != nil {
		return err
	}
	groups := make(map[string]binTable, len(t.soilMLW))
	for g, b := range t.soilMLW {
		groups[fmt.Sprintf("soil_group %d", g)] = b
	}
	return binGroups(TableSoilMLWClass, groups)
}

func (t *CodeTables) parseAcidity(raw map[string]*csvTable) error {
	var err error
	if t.acidity, err = enum(raw, TableAcidity, "acidity"); err != nil {
		return err
	}
	t.acidityLink = make(map[AcidityKey]int)
	t.mineralityKeys = make(map[int]bool)
	t.inundationKeys = make(map[int]bool)
	return each(raw, TableLnkAcidity, func(p *parser) {
		k := AcidityKey{
			Rainwater:    p.int("rainwater"),
			Minerality:   p.int("mineral_richness"),
			Inundation:   p.int("inundation"),
			Seepage:      p.int("seepage"),
			SoilMLWClass: p.int("soil_mlw_class"),
		}
		if _, ok := t.acidityLink[k]; ok {
			p.addf("duplicate combination %+v", k)
		}
		t.acidityLink[k] = p.int("acidity")
		t.mineralityKeys[k.Minerality] = true
		t.inundationKeys[k.Inundation] = true
	})
}

func (t *CodeTables) parseMineralisation(raw map[string]*csvTable) error {
	t.mineralisation = make(map[string]binTable)
	err := each(raw, TableNitrogenMineralisation, func(p *parser) {
		s := p.str("soil_name")
		t.mineralisation[s] = append(t.mineralisation[s], bin{Min: p.float("msw_min"), Max: p.float("msw_max"),
			Value: p.float("nitrogen_mineralisation")})
	})
	if err != nil {
		return err
	}
	groups := make(map[string]binTable, len(t.mineralisation))
	for s, b := range t.mineralisation {
		groups["soil_name "+s] = b
	}
	return binGroups(TableNitrogenMineralisation, groups)
}

func (t *CodeTables) parseManagement(raw map[string]*csvTable) error {
	t.influence = make(map[int]int)
	return each(raw, TableManagement, func(p *parser) {
		m := p.int("management")
		if _, ok := t.influence[m]; ok {
			p.addf("duplicate management %d", m)
		}
		t.influence[m] = p.int("influence")
	})
}

func (t *CodeTables) parseNutrient(raw map[string]*csvTable) error {
	var err error
	if t.nutrientLevels, err = enum(raw, TableNutrientLevel, "nutrient_level"); err != nil {
		return err
	}
	t.nutrient = make(map[nutrientKey]binTable)
	err = each(raw, TableLnkSoilNutrientLevel, func(p *parser) {
		k := nutrientKey{soilCode: p.int("soil_code"), influence: p.int("influence")}
		t.nutrient[k] = append(t.nutrient[k], bin{Min: p.float("total_nitrogen_min"),
			Max: p.float("total_nitrogen_max"), Value: float64(p.int("nutrient_level"))})
	})
	if err != nil {
		return err
	}
	groups := make(map[string]binTable, len(t.nutrient))
	for k, b := range t.nutrient {
		groups[fmt.Sprintf("soil_code %d influence %d", k.soilCode, k.influence)] = b
	}
	return binGroups(TableLnkSoilNutrientLevel, groups)
}

func (t *CodeTables) parseVegetation(raw map[string]*csvTable) error {
	var err error
	if t.vegNames, err = enum(raw, TableVegetationTypes, "veg_code"); err != nil {
		return err
	}
	type pair struct {
		veg  int
		soil string
	}
	windows := make(map[pair][4]float64)
	seen := make(map[VegetationRule]bool)
	t.vegRules = make(map[int][]VegetationRule)
	return each(raw, TableVegetation, func(p *parser) {
		r := VegetationRule{
			VegCode:       p.int("veg_code"),
			SoilName:      p.str("soil_name"),
			MHWMin:        p.float("mhw_min"),
			MHWMax:        p.float("mhw_max"),
			MLWMin:        p.float("mlw_min"),
			MLWMax:        p.float("mlw_max"),
			NutrientLevel: p.int("nutrient_level"),
			Acidity:       p.int("acidity"),
			Management:    p.int("management"),
			Inundation:    p.int("inundation"),
		}
		if r.MHWMin < r.MHWMax || r.MLWMin < r.MLWMax {
			p.addf("veg_code %d soil %s: min water level must be the deeper (larger) bound", r.VegCode, r.SoilName)
		}
		w := [4]float64{r.MHWMin, r.MHWMax, r.MLWMin, r.MLWMax}
		k := pair{r.VegCode, r.SoilName}
		if prev, ok := windows[k]; ok && prev != w {
			p.addf("veg_code %d soil %s: water level window %v differs from %v", r.VegCode, r.SoilName, w, prev)
		}
		windows[k] = w
		if seen[r] {
			p.addf("duplicate rule %+v", r)
		}
		seen[r] = true
		t.vegRules[r.VegCode] = append(t.vegRules[r.VegCode], r)
	})
}

// foreignKey is a set of values used in one table column that must
// refer to the keys of another table.
type foreignKey struct {
	table, column string
	used, keys    map[string]bool
}

func intSet(m map[int]bool) map[string]bool {
	o := make(map[string]bool, len(m))
	for k := range m {
		o[strconv.Itoa(k)] = true
	}
	return o
}

func sortedKeys(m map[string]bool) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Slice(o, func(i, j int) bool {
		a, errA := strconv.Atoi(o[i])
		b, errB := strconv.Atoi(o[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return o[i] < o[j]
	})
	return o
}

func (t *CodeTables) foreignKeys() []foreignKey {
	soilGroups, soilCodes, soilNames := map[int]bool{}, map[int]bool{}, map[string]bool{}
	for _, s := range t.soils {
		soilGroups[s.Group] = true
		soilCodes[s.Code] = true
		soilNames[s.Name] = true
	}
	influences, managements := map[int]bool{}, map[int]bool{}
	for m, i := range t.influence {
		managements[m] = true
		influences[i] = true
	}
	enumKeys := func(m map[int]string) map[int]bool {
		o := make(map[int]bool, len(m))
		for k := range m {
			o[k] = true
		}
		return o
	}
	seepageClasses, mlwClasses := map[int]bool{}, map[int]bool{}
	for _, b := range t.seepage {
		seepageClasses[int(b.Value)] = true
	}
	usedGroups := map[int]bool{}
	for g, bins := range t.soilMLW {
		usedGroups[g] = true
		for _, b := range bins {
			mlwClasses[int(b.Value)] = true
		}
	}
	usedMinSoils := map[string]bool{}
	for s := range t.mineralisation {
		usedMinSoils[s] = true
	}
	nSoils, nInfluence, nLevels := map[int]bool{}, map[int]bool{}, map[int]bool{}
	for k, bins := range t.nutrient {
		nSoils[k.soilCode] = true
		nInfluence[k.influence] = true
		for _, b := range bins {
			nLevels[int(b.Value)] = true
		}
	}
	aSeepage, aMLW, aAcidity := map[int]bool{}, map[int]bool{}, map[int]bool{}
	for k, a := range t.acidityLink {
		aSeepage[k.Seepage] = true
		aMLW[k.SoilMLWClass] = true
		aAcidity[a] = true
	}
	vCodes, vSoils, vLevels, vAcidity, vManagement := map[int]bool{}, map[string]bool{}, map[int]bool{}, map[int]bool{}, map[int]bool{}
	for code, rules := range t.vegRules {
		vCodes[code] = true
		for _, r := range rules {
			vSoils[r.SoilName] = true
			vLevels[r.NutrientLevel] = true
			vAcidity[r.Acidity] = true
			vManagement[r.Management] = true
		}
	}
	levels, acidities := enumKeys(t.nutrientLevels), enumKeys(t.acidity)
	return []foreignKey{
		{TableSoilMLWClass, "soil_group", intSet(usedGroups), intSet(soilGroups)},
		{TableNitrogenMineralisation, "soil_name", usedMinSoils, soilNames},
		{TableLnkSoilNutrientLevel, "soil_code", intSet(nSoils), intSet(soilCodes)},
		{TableLnkSoilNutrientLevel, "influence", intSet(nInfluence), intSet(influences)},
		{TableLnkSoilNutrientLevel, "nutrient_level", intSet(nLevels), intSet(levels)},
		{TableLnkAcidity, "seepage", intSet(aSeepage), intSet(seepageClasses)},
		{TableLnkAcidity, "soil_mlw_class", intSet(aMLW), intSet(mlwClasses)},
		{TableLnkAcidity, "acidity", intSet(aAcidity), intSet(acidities)},
		{TableVegetation, "veg_code", intSet(vCodes), intSet(enumKeys(t.vegNames))},
		{TableVegetation, "soil_name", vSoils, soilNames},
		{TableVegetation, "nutrient_level", intSet(vLevels), intSet(levels)},
		{TableVegetation, "acidity", intSet(vAcidity), intSet(acidities)},
		{TableVegetation, "management", intSet(vManagement), intSet(managements)},
	}
}

// checkForeignKeys requires every used value to be a key of the
// referenced table and, unless the tables are lenient, every key to be
// used.
func (t *CodeTables) checkForeignKeys(c *tableConfig) error {
	var tables, problems []string
	add := func(table, p string) {
		if len(tables) == 0 || tables[len(tables)-1] != table {
			tables = append(tables, table)
		}
		problems = append(problems, table+": "+p)
	}
	for _, fk := range t.foreignKeys() {
		var missing, unused []string
		for _, v := range sortedKeys(fk.used) {
			if !fk.keys[v] {
				missing = append(missing, v)
			}
		}
		for _, v := range sortedKeys(fk.keys) {
			if !fk.used[v] {
				unused = append(unused, v)
			}
		}
		if len(missing) > 0 {
			add(fk.table, fmt.Sprintf("column %s has values without a matching key: %s",
				fk.column, strings.Join(missing, ", ")))
		}
		if len(unused) == 0 {
			continue
		}
		if c.lenient {
			c.log.WithFields(logrus.Fields{
				"table":  fk.table,
				"column": fk.column,
				"unused": strings.Join(unused, ","),
			}).Warn("niche: code table does not use every referenced key")
		} else {
			add(fk.table, fmt.Sprintf("column %s does not use keys: %s", fk.column, strings.Join(unused, ", ")))
		}
	}
	if len(problems) > 0 {
		return &TableInvalidError{Table: strings.Join(tables, ", "), Problems: problems}
	}
	return nil
}

// Equal returns whether t and o hold the same rules.
func (t *CodeTables) Equal(o *CodeTables) bool {
	return reflect.DeepEqual(t, o)
}

// Soils returns the soil dictionary in table order.
func (t *CodeTables) Soils() []Soil {
	return append([]Soil(nil), t.soils...)
}

// SoilName returns the name of the soil with the given code.
func (t *CodeTables) SoilName(code int) (string, bool) {
	s, ok := t.soilByCode[code]
	return s.Name, ok
}

// SoilGroup returns the group of the soil with the given code.
func (t *CodeTables) SoilGroup(code int) (int, bool) {
	s, ok := t.soilByCode[code]
	return s.Group, ok
}

// Influence returns the influence category of a management code.
func (t *CodeTables) Influence(management int) (int, bool) {
	i, ok := t.influence[management]
	return i, ok
}

// Mineralisation returns the nitrogen mineralisation (kg/ha/yr) of soil
// soilName at mean spring water depth msw. Bins are left-closed.
func (t *CodeTables) Mineralisation(soilName string, msw float64) (float64, bool) {
	b, ok := t.mineralisation[soilName]
	if !ok {
		return 0, false
	}
	return b.lookup(msw, true)
}

// NutrientLevelFor returns the nutrient level for total nitrogen n on a
// soil under the given management influence. Bins are right-closed.
func (t *CodeTables) NutrientLevelFor(soilCode, influence int, n float64) (int, bool) {
	b, ok := t.nutrient[nutrientKey{soilCode, influence}]
	if !ok {
		return 0, false
	}
	v, ok := b.lookup(n, false)
	return int(v), ok
}

// SoilMLWClass returns the soil-MLW class of a soil group at mean lowest
// water depth mlw. Bins are right-closed.
func (t *CodeTables) SoilMLWClass(group int, mlw float64) (int, bool) {
	b, ok := t.soilMLW[group]
	if !ok {
		return 0, false
	}
	v, ok := b.lookup(mlw, false)
	return int(v), ok
}

// SeepageClass returns the class of seepage flux v. Bins are right-closed.
func (t *CodeTables) SeepageClass(v float64) (int, bool) {
	c, ok := t.seepage.lookup(v, false)
	return int(c), ok
}

// Acidity returns the acidity class for k.
func (t *CodeTables) Acidity(k AcidityKey) (int, bool) {
	a, ok := t.acidityLink[k]
	return a, ok
}

// AcidityClasses returns the acidity classes in ascending order.
func (t *CodeTables) AcidityClasses() []int { return sortedInts(t.acidity) }

// NutrientLevels returns the nutrient levels in ascending order.
func (t *CodeTables) NutrientLevels() []int { return sortedInts(t.nutrientLevels) }

// MaxNutrientLevel returns the highest nutrient level in the tables.
func (t *CodeTables) MaxNutrientLevel() int {
	l := t.NutrientLevels()
	return l[len(l)-1]
}

// VegCodes returns the codes of all vegetation types in ascending order.
func (t *CodeTables) VegCodes() []int {
	o := make([]int, 0, len(t.vegRules))
	for c := range t.vegRules {
		o = append(o, c)
	}
	sort.Ints(o)
	return o
}

// VegetationName returns the name of a vegetation type.
func (t *CodeTables) VegetationName(code int) string { return t.vegNames[code] }

// VegetationRules returns the rules of a vegetation type in table order.
func (t *CodeTables) VegetationRules(code int) []VegetationRule {
	return append([]VegetationRule(nil), t.vegRules[code]...)
}

func sortedInts(m map[int]string) []int {
	o := make([]int, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Ints(o)
	return o
}
