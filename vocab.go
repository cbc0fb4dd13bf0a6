/*
 * vocab.go, part of protein-transformer.
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
	"math"
)

// Sequences are lists of small integer codes. The first three codes are
// reserved sentinels; the 20 standard residues follow in alphabetical order
// of their one-letter names. Codes at or above FirstAA index into the build
// table.
const (
	PadID = iota // batch padding
	SosID        // start of sequence
	EosID        // end of sequence
	FirstAA
)

// NumAAs is the number of standard residue types.
const NumAAs = 20

// one-letter name, three-letter name, full name. Order defines the codes.
var residueNames = [NumAAs][3]string{
	{"A", "ALA", "Alanine"},
	{"C", "CYS", "Cysteine"},
	{"D", "ASP", "Aspartate"},
	{"E", "GLU", "Glutamate"},
	{"F", "PHE", "Phenylalanine"},
	{"G", "GLY", "Glycine"},
	{"H", "HIS", "Histidine"},
	{"I", "ILE", "Isoleucine"},
	{"K", "LYS", "Lysine"},
	{"L", "LEU", "Leucine"},
	{"M", "MET", "Methionine"},
	{"N", "ASN", "Asparagine"},
	{"P", "PRO", "Proline"},
	{"Q", "GLN", "Glutamine"},
	{"R", "ARG", "Arginine"},
	{"S", "SER", "Serine"},
	{"T", "THR", "Threonine"},
	{"V", "VAL", "Valine"},
	{"W", "TRP", "Tryptophan"},
	{"Y", "TYR", "Tyrosine"},
}

// IsSentinel returns whether code is one of the reserved pad/start/end codes.
func IsSentinel(code int) bool {
	return code == PadID || code == SosID || code == EosID
}

// ValidAA returns whether code denotes one of the 20 standard residues.
func ValidAA(code int) bool {
	return code >= FirstAA && code < FirstAA+NumAAs
}

// OneLetter returns the one-letter name for a residue code.
func OneLetter(code int) (string, error) {
	if !ValidAA(code) {
		return "", CError{fmt.Sprintf("Invalid residue code: %d", code), []string{"OneLetter"}}
	}
	return residueNames[code-FirstAA][0], nil
}

// ThreeLetter returns the three-letter name for a residue code.
func ThreeLetter(code int) (string, error) {
	if !ValidAA(code) {
		return "", CError{fmt.Sprintf("Invalid residue code: %d", code), []string{"ThreeLetter"}}
	}
	return residueNames[code-FirstAA][1], nil
}

// AACode returns the residue code for a one-letter name.
func AACode(oneletter string) (int, error) {
	for i, v := range residueNames {
		if v[0] == oneletter {
			return FirstAA + i, nil
		}
	}
	return -1, CError{fmt.Sprintf("Unknown residue: %s", oneletter), []string{"AACode"}}
}

// AACode3 returns the residue code for a three-letter name.
func AACode3(threeletter string) (int, error) {
	for i, v := range residueNames {
		if v[1] == threeletter {
			return FirstAA + i, nil
		}
	}
	return -1, CError{fmt.Sprintf("Unknown residue: %s", threeletter), []string{"AACode3"}}
}

// SeqFromString converts a string of one-letter residue names into a code
// sequence, without sentinels.
func SeqFromString(s string) ([]int, error) {
	seq := make([]int, 0, len(s))
	for _, r := range s {
		code, err := AACode(string(r))
		if err != nil {
			return nil, errDecorate(err, "SeqFromString")
		}
		seq = append(seq, code)
	}
	return seq, nil
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(f float64) float64 {
	return f * 180 / math.Pi
}
