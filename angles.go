/*
 * angles.go, part of protein-transformer.
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

	"gonum.org/v1/gonum/mat"
)

// Angle-row layout. Each residue carries NumAngles angles: three backbone
// dihedrals (phi, psi, omega), three backbone bond angles (n-ca-c, ca-c-n,
// c-n-ca), and up to six side-chain torsions consumed in placement order.
// Rows may instead carry the sin/cos encoding, SinCosWidth values laid out
// as (cos0, sin0, cos1, sin1, ...).
const (
	NumAngles    = 12
	NumBBAngles  = 6
	ScAngleStart = 6
	NumScSlots   = 6
	SinCosWidth  = 2 * NumAngles
)

// Backbone dihedral and bond-angle positions within an angle row.
const (
	IdxPhi = iota
	IdxPsi
	IdxOmega
	IdxNCaC
	IdxCaCN
	IdxCNCa
)

// NumCoordsPerRes is the number of coordinate rows reserved per residue:
// N, CA, C plus up to ten side-chain heavy atoms (tryptophan).
const NumCoordsPerRes = 13

// CanonicalAngles returns a width-NumAngles row with every dihedral at zero
// and the backbone bond angles at their canonical values.
func CanonicalAngles() []float64 {
	row := make([]float64, NumAngles)
	row[IdxNCaC] = BondAngles["n-ca-c"]
	row[IdxCaCN] = BondAngles["ca-c-n"]
	row[IdxCNCa] = BondAngles["c-n-ca"]
	return row
}

// EncodeSinCos expands a width-NumAngles row into the interleaved
// (cos, sin) encoding.
func EncodeSinCos(row []float64) ([]float64, error) {
	if len(row) != NumAngles {
		return nil, CError{fmt.Sprintf("Angle row has %d values, want %d", len(row), NumAngles), []string{"EncodeSinCos"}}
	}
	enc := make([]float64, SinCosWidth)
	for i, a := range row {
		enc[2*i] = math.Cos(a)
		enc[2*i+1] = math.Sin(a)
	}
	return enc, nil
}

// DecodeSinCos recovers angles in (-pi, pi] from an interleaved (cos, sin)
// row via atan2.
func DecodeSinCos(enc []float64) ([]float64, error) {
	if len(enc) != SinCosWidth {
		return nil, CError{fmt.Sprintf("Encoded row has %d values, want %d", len(enc), SinCosWidth), []string{"DecodeSinCos"}}
	}
	row := make([]float64, NumAngles)
	for i := range row {
		row[i] = math.Atan2(enc[2*i+1], enc[2*i])
	}
	return row, nil
}

// paddingRow reports whether every value of a row is exactly zero. Batched
// angle matrices pad missing residues with zero rows.
func paddingRow(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}
	return true
}

// MaskedAngleMSE computes the mean squared error between predicted and
// reference angle matrices, skipping zero-padded reference rows. Rows may be
// raw (NumAngles wide) or sin/cos encoded (SinCosWidth wide); both matrices
// must use the same layout. With bb set only the backbone positions enter
// the mean, with sc only the side-chain positions; setting both is an error,
// clear both to use every position.
func MaskedAngleMSE(pred, ref *mat.Dense, bb, sc bool) (float64, error) {
	if bb && sc {
		return 0, CError{"bb and sc are exclusive; clear both to use all angles", []string{"MaskedAngleMSE"}}
	}
	pr, pc := pred.Dims()
	rr, rc := ref.Dims()
	if pr != rr || pc != rc {
		return 0, CError{fmt.Sprintf("Dimension mismatch: %dx%d vs %dx%d", pr, pc, rr, rc), []string{"MaskedAngleMSE"}}
	}
	if pc != NumAngles && pc != SinCosWidth {
		return 0, CError{fmt.Sprintf("Angle matrix is %d wide, want %d or %d", pc, NumAngles, SinCosWidth), []string{"MaskedAngleMSE"}}
	}
	lo, hi := 0, pc
	if bb {
		hi = pc / 2
	}
	if sc {
		lo = pc / 2
	}
	var sum float64
	var n int
	for i := 0; i < pr; i++ {
		if paddingRow(ref.RawRowView(i)) {
			continue
		}
		for j := lo; j < hi; j++ {
			e := pred.At(i, j) - ref.At(i, j)
			sum += e * e
			n++
		}
	}
	if n == 0 {
		return 0, CError{"No unpadded rows in reference angles", []string{"MaskedAngleMSE"}}
	}
	return sum / float64(n), nil
}

// CombineLosses mixes a distance-space loss with an angle-space loss,
// weight w on the distance term and 1-w on the angle term.
func CombineLosses(dloss, aloss, w float64) (float64, error) {
	if w < 0 || w > 1 {
		return 0, CError{fmt.Sprintf("Weight %v outside [0,1]", w), []string{"CombineLosses"}}
	}
	return w*dloss + (1-w)*aloss, nil
}
