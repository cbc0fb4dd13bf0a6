/*
 * superpose.go, part of protein-transformer.
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

	matrix "github.com/skelterjohn/go.matrix"

	"github.com/hengwei-chan/protein-transformer/v3"
)

// Superpose computes the coordinate RMSD between two equally sized
// conformations after optimal rigid superposition, with the Kabsch
// algorithm: center both sets, build the 3xN coordinate matrices X and Y,
// take the SVD of the covariance C = X Yt, and assemble the rotation from
// the singular vectors, flipping the last axis when det(C) < 0 to avoid an
// improper rotation.
func Superpose(test, templa *v3.Matrix) (float64, error) {
	n := test.NVecs()
	if n != templa.NVecs() {
		return 0, CError{fmt.Sprintf("Conformations differ in size: %d vs %d atoms", n, templa.NVecs()), []string{"Superpose"}}
	}
	if n < 3 {
		return 0, CError{fmt.Sprintf("Need at least 3 atoms to superpose, got %d", n), []string{"Superpose"}}
	}
	var ctest, ctempla [3]float64
	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			ctest[k] += test.At(i, k)
			ctempla[k] += templa.At(i, k)
		}
	}
	for k := 0; k < 3; k++ {
		ctest[k] /= float64(n)
		ctempla[k] /= float64(n)
	}
	elsX := make([]float64, 3*n)
	elsY := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			elsX[i+k*n] = test.At(i, k) - ctest[k]
			elsY[i+k*n] = templa.At(i, k) - ctempla[k]
		}
	}
	X := matrix.MakeDenseMatrix(elsX, 3, n)
	Y := matrix.MakeDenseMatrix(elsY, 3, n)

	C, err := X.TimesDense(Y.Transpose())
	if err != nil {
		return 0, CError{"Covariance product failed: " + err.Error(), []string{"Superpose"}}
	}
	V, _, Wt, err := C.SVD()
	if err != nil {
		return 0, CError{"SVD failed: " + err.Error(), []string{"Superpose"}}
	}
	Vt := V.Transpose()
	var U *matrix.DenseMatrix
	if C.Det() < 0 {
		flip := matrix.MakeDenseMatrix([]float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, -1,
		}, 3, 3)
		Wflip, err := Wt.TimesDense(flip)
		if err != nil {
			return 0, CError{"Rotation assembly failed: " + err.Error(), []string{"Superpose"}}
		}
		U, err = Wflip.TimesDense(Vt)
		if err != nil {
			return 0, CError{"Rotation assembly failed: " + err.Error(), []string{"Superpose"}}
		}
	} else {
		U, err = Wt.TimesDense(Vt)
		if err != nil {
			return 0, CError{"Rotation assembly failed: " + err.Error(), []string{"Superpose"}}
		}
	}
	Xbest, err := U.TimesDense(X)
	if err != nil {
		return 0, CError{"Rotation failed: " + err.Error(), []string{"Superpose"}}
	}
	var rmsd float64
	for r := 0; r < 3; r++ {
		for c := 0; c < n; c++ {
			d := Xbest.Get(r, c) - Y.Get(r, c)
			rmsd += d * d
		}
	}
	return math.Sqrt(rmsd / float64(n)), nil
}
