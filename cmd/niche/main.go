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

// Command niche is a command-line interface for the NICHE vegetation model.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/niche/nicheutil"
)

func main() {
	if len(os.Args) == 1 { // Without a command, start the browser interface.
		nicheutil.StartWebServer()
		return
	}
	if err := nicheutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
