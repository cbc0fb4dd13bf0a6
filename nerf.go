/*
 * nerf.go, part of protein-transformer.
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
	"github.com/hengwei-chan/protein-transformer/ad"
)

// vec3 is a 3D point whose coordinates live on an ad tape, so positions stay
// differentiable with respect to the angles that produced them.
type vec3 [3]*ad.Value

// vconst lifts plain coordinates onto the tape.
func vconst(x, y, z float64) vec3 {
	return vec3{ad.V(x), ad.V(y), ad.V(z)}
}

func (v vec3) data() (x, y, z float64) {
	return v[0].Data, v[1].Data, v[2].Data
}

func vAdd(a, b vec3) vec3 {
	return vec3{ad.Add(a[0], b[0]), ad.Add(a[1], b[1]), ad.Add(a[2], b[2])}
}

func vSub(a, b vec3) vec3 {
	return vec3{ad.Sub(a[0], b[0]), ad.Sub(a[1], b[1]), ad.Sub(a[2], b[2])}
}

func vDot(a, b vec3) *ad.Value {
	return ad.Sum(ad.Mul(a[0], b[0]), ad.Mul(a[1], b[1]), ad.Mul(a[2], b[2]))
}

func vCross(a, b vec3) vec3 {
	return vec3{
		ad.Sub(ad.Mul(a[1], b[2]), ad.Mul(a[2], b[1])),
		ad.Sub(ad.Mul(a[2], b[0]), ad.Mul(a[0], b[2])),
		ad.Sub(ad.Mul(a[0], b[1]), ad.Mul(a[1], b[0])),
	}
}

// vUnit scales a to length one. Zero vectors produce NaNs, as they would in
// any normalization; callers guarantee non-degenerate parents.
func vUnit(a vec3) vec3 {
	norm := ad.Sqrt(vDot(a, a))
	return vec3{ad.Div(a[0], norm), ad.Div(a[1], norm), ad.Div(a[2], norm)}
}

// place extends a chain of three known atoms a-b-c by one atom: the new
// position sits at distance bond from c, forms the angle theta with b and c,
// and the dihedral chi with a around the b-c axis. This is the natural
// extension reference frame construction; theta and chi stay on the tape so
// gradients reach the angles that placed every atom.
func place(a, b, c vec3, bond float64, theta, chi *ad.Value) vec3 {
	ab := vSub(b, a)
	bc := vUnit(vSub(c, b))
	n := vUnit(vCross(ab, bc))
	p := vCross(n, bc)

	sinTheta := ad.Sin(theta)
	d0 := ad.Neg(ad.Scale(ad.Cos(theta), bond))
	d1 := ad.Mul(ad.Scale(sinTheta, bond), ad.Cos(chi))
	d2 := ad.Mul(ad.Scale(sinTheta, bond), ad.Sin(chi))

	var out vec3
	for i := 0; i < 3; i++ {
		out[i] = ad.Sum(c[i], ad.Mul(bc[i], d0), ad.Mul(p[i], d1), ad.Mul(n[i], d2))
	}
	return out
}
