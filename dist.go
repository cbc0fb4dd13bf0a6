/*
 * dist.go, part of protein-transformer.
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
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hengwei-chan/protein-transformer/ad"
)

// distFloor keeps squared distances away from zero before the square root.
// Coincident atoms then yield a tiny constant distance with zero gradient
// instead of poisoning the whole tape with NaNs.
const distFloor = 1e-30

// tapeDist is the distance between two tape points.
func tapeDist(a, b vec3) *ad.Value {
	d := vSub(a, b)
	return ad.Sqrt(ad.ClampMin(vDot(d, d), distFloor))
}

// pairTerms builds the distance error for every unordered atom pair, in
// row-major (i<j) order: reconstructed distance on the tape minus reference
// distance as a constant.
func pairTerms(pred []vec3, ref [][]float64) []*ad.Value {
	n := len(pred)
	terms := make([]*ad.Value, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dr := floats.Distance(ref[i], ref[j], 2)
			terms = append(terms, ad.AddConst(tapeDist(pred[i], pred[j]), -dr))
		}
	}
	return terms
}

// rmsOfTerms is the root mean square of the pair errors.
func rmsOfTerms(terms []*ad.Value) *ad.Value {
	sq := make([]*ad.Value, len(terms))
	for i, e := range terms {
		sq[i] = ad.Mul(e, e)
	}
	return ad.Sqrt(ad.Scale(ad.Sum(sq...), 1/float64(len(terms))))
}

// huberOfTerms is the mean pseudo-Huber penalty with transition point d:
// quadratic in e/d near zero, linear beyond. The modified form drops one
// factor of d, which keeps the linear tail's slope at one regardless of d.
func huberOfTerms(terms []*ad.Value, d float64, modified bool) *ad.Value {
	k := d * d
	if modified {
		k = d
	}
	hs := make([]*ad.Value, len(terms))
	for i, e := range terms {
		u := ad.Scale(e, 1/d)
		r := ad.AddConst(ad.Sqrt(ad.AddConst(ad.Mul(u, u), 1)), -1)
		hs[i] = ad.Scale(r, k)
	}
	return ad.Scale(ad.Sum(hs...), 1/float64(len(hs)))
}

// Plain float64 twins of the above, for companion scores that never need a
// backward pass.

func floatPairLoss(pred, ref [][]float64, method Method, d float64) float64 {
	n := len(pred)
	var sum float64
	var npairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dp := floats.Distance(pred[i], pred[j], 2)
			if dp*dp < distFloor {
				dp = math.Sqrt(distFloor)
			}
			e := dp - floats.Distance(ref[i], ref[j], 2)
			switch method {
			case DRMSD:
				sum += e * e
			case Huber:
				u := e / d
				sum += d * d * (math.Sqrt(1+u*u) - 1)
			case HuberMod:
				u := e / d
				sum += d * (math.Sqrt(1+u*u) - 1)
			}
			npairs++
		}
	}
	mean := sum / float64(npairs)
	if method == DRMSD {
		return math.Sqrt(mean)
	}
	return mean
}
