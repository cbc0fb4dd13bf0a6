/*
 * builder.go, part of protein-transformer.
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

	"github.com/hengwei-chan/protein-transformer/ad"
	"github.com/hengwei-chan/protein-transformer/v3"
)

// A Structure is one conformation reconstructed from torsion angles,
// together with the tape that produced it. Coordinate rows come in blocks of
// NumCoordsPerRes per residue: N, CA, C, then the side chain in placement
// order, with unused slots left as zero padding.
type Structure struct {
	Seq      []int // residue codes, sentinels stripped
	atoms    []vec3
	mask     []bool
	leaves   [][]*ad.Value // per input angle row; nil where the row was skipped
	width    int
	backdone bool
}

// Reconstruct builds Cartesian coordinates for a sequence from its angle
// rows. Sentinel codes (padding, start, end) are dropped from seq; angles
// must then carry either one row per entry of seq, from which the sentinel
// rows are discarded, or exactly one row per remaining residue. Rows are
// either NumAngles wide, or SinCosWidth wide in the interleaved (cos, sin)
// encoding, which is decoded on the tape so gradients reach the encoded
// values.
//
// The first residue's backbone is seeded near the origin; every later atom
// comes from a single placement primitive, so the whole conformation is
// differentiable with respect to every angle that was consumed.
func Reconstruct(seq []int, angles [][]float64) (*Structure, error) {
	if len(angles) == 0 {
		return nil, CError{"Empty angle matrix", []string{"Reconstruct"}}
	}
	width := len(angles[0])
	if width != NumAngles && width != SinCosWidth {
		return nil, CError{fmt.Sprintf("Angle rows are %d wide, want %d or %d", width, NumAngles, SinCosWidth), []string{"Reconstruct"}}
	}
	for i, row := range angles {
		if len(row) != width {
			return nil, CError{fmt.Sprintf("Angle row %d is %d wide, row 0 is %d", i, len(row), width), []string{"Reconstruct"}}
		}
	}
	resIdx := make([]int, 0, len(seq))
	for i, code := range seq {
		if IsSentinel(code) {
			continue
		}
		if !ValidAA(code) {
			return nil, CError{fmt.Sprintf("Invalid residue code %d at position %d", code, i), []string{"Reconstruct"}}
		}
		resIdx = append(resIdx, i)
	}
	if len(resIdx) == 0 {
		return nil, CError{"Sequence has no residues", []string{"Reconstruct"}}
	}
	rowFor := make([]int, len(resIdx))
	switch len(angles) {
	case len(seq):
		copy(rowFor, resIdx)
	case len(resIdx):
		for j := range rowFor {
			rowFor[j] = j
		}
	default:
		return nil, CError{fmt.Sprintf("%d angle rows for a sequence of %d (%d residues)", len(angles), len(seq), len(resIdx)), []string{"Reconstruct"}}
	}

	s := &Structure{
		Seq:    make([]int, len(resIdx)),
		leaves: make([][]*ad.Value, len(angles)),
		width:  width,
	}
	for j, i := range resIdx {
		s.Seq[j] = seq[i]
	}

	// Put every consumed input value on the tape, then decode the sin/cos
	// layout in-graph if present.
	dec := make([][]*ad.Value, len(resIdx))
	for j, r := range rowFor {
		leaves := make([]*ad.Value, width)
		for k, v := range angles[r] {
			leaves[k] = ad.V(v)
		}
		s.leaves[r] = leaves
		if width == NumAngles {
			dec[j] = leaves
			continue
		}
		d := make([]*ad.Value, NumAngles)
		for k := 0; k < NumAngles; k++ {
			d[k] = ad.Atan2(leaves[2*k+1], leaves[2*k])
		}
		dec[j] = d
	}

	nres := len(resIdx)
	s.atoms = make([]vec3, nres*NumCoordsPerRes)
	s.mask = make([]bool, nres*NumCoordsPerRes)
	var prevN, prevCA, prevC vec3
	for j := 0; j < nres; j++ {
		ang := dec[j]
		var n, ca, c vec3
		if j == 0 {
			// Seed off the exact origin so the first placement frame
			// is well conditioned.
			n = vconst(0.001, 0, 0)
			ca = vconst(0.001+BondLens["n-ca"], 0, 0)
			l := BondLens["ca-c"]
			theta := ang[IdxNCaC]
			c = vec3{
				ad.Add(ca[0], ad.Scale(ad.Cos(theta), -l)),
				ad.Add(ca[1], ad.Scale(ad.Sin(theta), l)),
				ad.V(0),
			}
		} else {
			pang := dec[j-1]
			n = place(prevN, prevCA, prevC, BondLens["c-n"], pang[IdxCaCN], pang[IdxPsi])
			ca = place(prevCA, prevC, n, BondLens["n-ca"], pang[IdxCNCa], pang[IdxOmega])
			c = place(prevC, n, ca, BondLens["ca-c"], ang[IdxNCaC], ang[IdxPhi])
		}
		base := j * NumCoordsPerRes
		s.atoms[base], s.atoms[base+1], s.atoms[base+2] = n, ca, c
		s.mask[base], s.mask[base+1], s.mask[base+2] = true, true, true

		steps := buildTable[s.Seq[j]-FirstAA]
		arena := make([]vec3, arenaSc+len(steps))
		if j == 0 {
			arena[arenaPrevC] = c
		} else {
			arena[arenaPrevC] = prevC
		}
		arena[arenaN], arena[arenaCA] = n, ca
		next := ScAngleStart
		var prevChi *ad.Value
		for k, st := range steps {
			var chi *ad.Value
			switch st.Tors {
			case TorsionPredicted:
				chi = ang[next]
				next++
			case TorsionInferred:
				chi = ad.AddConst(prevChi, math.Pi)
			case TorsionFixed:
				chi = ad.V(st.TorsVal)
			}
			prevChi = chi
			at := place(arena[st.Parents[0]], arena[st.Parents[1]], arena[st.Parents[2]], st.Bond, ad.V(st.Angle), chi)
			arena[arenaSc+k] = at
			s.atoms[base+3+k] = at
			s.mask[base+3+k] = true
		}
		prevN, prevCA, prevC = n, ca, c
	}
	return s, nil
}

// NumRes returns the number of residues in the structure.
func (s *Structure) NumRes() int {
	return len(s.Seq)
}

// Coords extracts the current coordinates as an (NumRes*NumCoordsPerRes)x3
// matrix. Padding rows are zero.
func (s *Structure) Coords() *v3.Matrix {
	data := make([]float64, len(s.atoms)*3)
	for i, at := range s.atoms {
		if !s.mask[i] {
			continue
		}
		data[3*i], data[3*i+1], data[3*i+2] = at.data()
	}
	m, _ := v3.NewMatrix(data)
	return m
}

// Present reports whether coordinate row i holds an atom rather than
// side-chain padding.
func (s *Structure) Present(i int) bool {
	return s.mask[i]
}

// Grads collects the gradient accumulated on every input angle row after a
// backward pass. Rows that were skipped as sentinels come back as zeros, so
// the result has exactly the shape of the angle matrix given to Reconstruct.
func (s *Structure) Grads() [][]float64 {
	out := make([][]float64, len(s.leaves))
	for i, row := range s.leaves {
		g := make([]float64, s.width)
		for k, v := range row {
			g[k] = v.Grad
		}
		out[i] = g
	}
	return out
}
