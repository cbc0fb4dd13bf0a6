/*
 * pdb.go, part of protein-transformer.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package protein

import (
	"fmt"
	"io"
)

// WritePDB writes a reconstructed structure as a single-chain PDB fragment,
// one ATOM record per placed heavy atom, so any molecular viewer can display
// it. Padding slots are skipped. Occupancies are set to one and b-factors to
// zero.
func WritePDB(out io.Writer, s *Structure) error {
	coords := s.Coords()
	id := 1
	for j, code := range s.Seq {
		names, err := AtomNames(code)
		if err != nil {
			return errDecorate(err, "WritePDB")
		}
		resname, err := ThreeLetter(code)
		if err != nil {
			return errDecorate(err, "WritePDB")
		}
		base := j * NumCoordsPerRes
		for k, name := range names {
			row := base + k
			x := coords.At(row, 0)
			y := coords.At(row, 1)
			z := coords.At(row, 2)
			// Heavy-atom names are at most 3 characters, so the
			// short-name layout always applies. The element is the
			// name's first letter.
			_, err := fmt.Fprintf(out, "%-6s%5d  %-3s %3s %1c%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n",
				"ATOM", id, name, resname, 'A', j+1, x, y, z, 1.0, 0.0, name[:1])
			if err != nil {
				return CError{"Failed to write PDB record: " + err.Error(), []string{"WritePDB"}}
			}
			id++
		}
	}
	if _, err := fmt.Fprintln(out, "TER"); err != nil {
		return CError{"Failed to write PDB record: " + err.Error(), []string{"WritePDB"}}
	}
	if _, err := fmt.Fprintln(out, "END"); err != nil {
		return CError{"Failed to write PDB record: " + err.Error(), []string{"WritePDB"}}
	}
	return nil
}
