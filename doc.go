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

// Package niche predicts where wetland vegetation types can occur, given
// rasters of soil, ground water levels, nitrogen loads and land
// management.
//
// The model is a chain of table-driven reclassifications. The nitrogen
// mineralisation of the soil and the external nitrogen loads give the
// nutrient level; the soil, lowest water level, seepage, rainwater,
// minerality and inundation give the acidity. Together with the
// water levels these determine, for every vegetation type in the rule
// tables, whether a cell is suitable.
//
// Water levels are depths in centimetres, positive below the soil
// surface. Missing cells are tracked with an explicit mask and
// propagate through every derived raster.
package niche
