/*
 * geometry.go, part of protein-transformer.
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

	"github.com/hengwei-chan/protein-transformer/v3"
)

// used to correct floating point errors when an arccosine argument falls
// barely outside [-1,1].
const appzero float64 = 0.0000001

// Angle returns the angle in radians between two vectors.
// It does not check for correctness or return errors!
func Angle(v1, v2 *v3.Matrix) float64 {
	normproduct := v1.Norm() * v2.Norm()
	argument := v1.Dot(v2) / normproduct
	if math.Abs(argument-1) <= appzero {
		argument = 1
	} else if math.Abs(argument+1) <= appzero {
		argument = -1
	}
	angle := math.Acos(argument)
	if math.Abs(angle) <= appzero {
		return 0.00
	}
	return angle
}

// BondAngle returns the angle at b formed by the bonds b-a and b-c, in
// radians.
func BondAngle(a, b, c *v3.Matrix) float64 {
	ba := v3.Zeros(1)
	bc := v3.Zeros(1)
	ba.Sub(a, b)
	bc.Sub(c, b)
	return Angle(ba, bc)
}

// Dihedral returns the dihedral angle, in radians and within (-pi, pi],
// defined by the points a, b, c and d around the b-c axis. It panics if any
// point is nil or not a single vector.
func Dihedral(a, b, c, d *v3.Matrix) float64 {
	all := []*v3.Matrix{a, b, c, d}
	for number, point := range all {
		if point == nil {
			panic(fmt.Sprintf("Dihedral: vector %d is nil", number))
		}
		pr, pc := point.Dims()
		if pr != 1 || pc != 3 {
			panic(fmt.Sprintf("Dihedral: vector %d has invalid shape", number))
		}
	}
	bma := v3.Zeros(1)
	cmb := v3.Zeros(1)
	dmc := v3.Zeros(1)
	bma.Sub(b, a)
	cmb.Sub(c, b)
	dmc.Sub(d, c)
	bmascaled := v3.Zeros(1)
	bmascaled.Scale(cmb.Norm(), bma)
	v2 := v3.Zeros(1)
	v2.Cross(cmb, dmc)
	first := bmascaled.Dot(v2)
	v1 := v3.Zeros(1)
	v1.Cross(bma, cmb)
	second := v1.Dot(v2)
	return math.Atan2(first, second)
}

// RamaAngles extracts the (phi, psi) backbone dihedral pair of every residue
// from a coordinate set laid out in NumCoordsPerRes blocks. The first
// residue's phi and the last one's psi are undefined and come back as NaN.
func RamaAngles(coords *v3.Matrix, nres int) ([][2]float64, error) {
	if nres < 1 {
		return nil, CError{fmt.Sprintf("Need at least one residue, got %d", nres), []string{"RamaAngles"}}
	}
	if rows := coords.NVecs(); rows < nres*NumCoordsPerRes {
		return nil, CError{fmt.Sprintf("Coordinates have %d rows, need %d", rows, nres*NumCoordsPerRes), []string{"RamaAngles"}}
	}
	n := func(i int) *v3.Matrix { return coords.VecView(i * NumCoordsPerRes) }
	ca := func(i int) *v3.Matrix { return coords.VecView(i*NumCoordsPerRes + 1) }
	c := func(i int) *v3.Matrix { return coords.VecView(i*NumCoordsPerRes + 2) }
	out := make([][2]float64, nres)
	for i := 0; i < nres; i++ {
		phi, psi := math.NaN(), math.NaN()
		if i > 0 {
			phi = Dihedral(c(i-1), n(i), ca(i), c(i))
		}
		if i < nres-1 {
			psi = Dihedral(n(i), ca(i), c(i), n(i+1))
		}
		out[i] = [2]float64{phi, psi}
	}
	return out, nil
}
