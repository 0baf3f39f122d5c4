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

// Package codetables holds the default NICHE rule tables as CSV files.
package codetables

import "embed"

// FS contains one CSV file per rule table, named after the table.
//
//go:embed *.csv
var FS embed.FS
