/*
 * loss.go, part of protein-transformer.
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
	"runtime"

	"github.com/hengwei-chan/protein-transformer/ad"
	"github.com/hengwei-chan/protein-transformer/v3"
)

// Method selects the penalty applied to pairwise distance errors.
type Method int

const (
	// DRMSD is the root mean square of the pair errors.
	DRMSD Method = iota
	// Huber is the mean pseudo-Huber penalty, quadratic near zero and
	// linear beyond the transition point.
	Huber
	// HuberMod is Huber scaled down by the transition point, so the
	// linear tail has unit slope.
	HuberMod
)

// Options controls scoring. The zero value is not usable; start from
// DefaultOptions and adjust.
type Options struct {
	Method       Method
	Scale        float64 // Huber transition point, in A
	BackboneOnly bool    // score N, CA, C only
	RMSD         bool    // also superpose and report coordinate RMSD
	Gradients    bool    // run the backward pass
	Cpus         int     // concurrent workers for batches
}

// DefaultOptions returns scoring options with the distance RMS penalty, a
// Huber transition point of 1 A, gradients on, and one worker per CPU.
func DefaultOptions() *Options {
	return &Options{
		Method:    DRMSD,
		Scale:     1,
		Gradients: true,
		Cpus:      runtime.NumCPU(),
	}
}

// A Result carries the scores of one conformation against its reference.
type Result struct {
	// Loss is the selected penalty over all surviving atom pairs,
	// divided by the number of surviving atoms. It is the quantity the
	// backward pass differentiates.
	Loss float64
	// Raw is Loss before the division.
	Raw float64
	// Backbone is the same penalty restricted to backbone atoms,
	// divided by the number of surviving backbone atoms. NaN if fewer
	// than two survive.
	Backbone float64
	// RMSD is the coordinate RMSD after optimal superposition, when
	// requested.
	RMSD float64
	// Grads has one row per input angle row when gradients were
	// requested: the derivative of Loss with respect to that row.
	Grads [][]float64
}

// Score compares a reconstructed structure against reference coordinates.
// The reference must have at least NumRes*NumCoordsPerRes rows laid out like
// the reconstruction; excess rows at the end are ignored. Atom rows drop out
// of the comparison when the reconstruction has no atom there, when
// BackboneOnly excludes them, or when the reference holds NaN. The remaining
// atoms keep their pairing on both sides.
//
// With Gradients set the backward pass runs on the normalized loss and the
// angle gradients are collected into the result. A structure's tape supports
// one backward pass; scoring the same Structure twice with gradients is an
// error.
func Score(s *Structure, ref *v3.Matrix, o *Options) (*Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if o.Method != DRMSD && o.Scale <= 0 {
		return nil, CError{fmt.Sprintf("Huber transition point must be positive, got %v", o.Scale), []string{"Score"}}
	}
	want := s.NumRes() * NumCoordsPerRes
	if rows := ref.NVecs(); rows < want {
		return nil, CError{fmt.Sprintf("Reference has %d rows, need %d", rows, want), []string{"Score"}}
	}
	sel := make([]int, 0, want)
	for i := 0; i < want; i++ {
		if !s.mask[i] {
			continue
		}
		if o.BackboneOnly && i%NumCoordsPerRes >= 3 {
			continue
		}
		r := ref.RawRowView(i)
		if math.IsNaN(r[0]) || math.IsNaN(r[1]) || math.IsNaN(r[2]) {
			continue
		}
		sel = append(sel, i)
	}
	if len(sel) < 2 {
		return nil, CError{fmt.Sprintf("Only %d atoms survive masking, need at least 2", len(sel)), []string{"Score"}}
	}
	pred := make([]vec3, len(sel))
	predF := make([][]float64, len(sel))
	refF := make([][]float64, len(sel))
	for k, i := range sel {
		pred[k] = s.atoms[i]
		x, y, z := s.atoms[i].data()
		predF[k] = []float64{x, y, z}
		refF[k] = ref.RawRowView(i)
	}

	terms := pairTerms(pred, refF)
	var raw *ad.Value
	switch o.Method {
	case DRMSD:
		raw = rmsOfTerms(terms)
	case Huber:
		raw = huberOfTerms(terms, o.Scale, false)
	case HuberMod:
		raw = huberOfTerms(terms, o.Scale, true)
	default:
		return nil, CError{fmt.Sprintf("Unknown scoring method %d", o.Method), []string{"Score"}}
	}
	norm := ad.Scale(raw, 1/float64(len(sel)))
	res := &Result{Loss: norm.Data, Raw: raw.Data}

	if o.BackboneOnly {
		res.Backbone = res.Loss
	} else {
		bbP := make([][]float64, 0, len(sel))
		bbR := make([][]float64, 0, len(sel))
		for k, i := range sel {
			if i%NumCoordsPerRes < 3 {
				bbP = append(bbP, predF[k])
				bbR = append(bbR, refF[k])
			}
		}
		if len(bbP) < 2 {
			res.Backbone = math.NaN()
		} else {
			res.Backbone = floatPairLoss(bbP, bbR, o.Method, o.Scale) / float64(len(bbP))
		}
	}

	if o.RMSD {
		pm, err := matrixFromRows(predF)
		if err != nil {
			return nil, errDecorate(err, "Score")
		}
		rm, err := matrixFromRows(refF)
		if err != nil {
			return nil, errDecorate(err, "Score")
		}
		rmsd, err := Superpose(pm, rm)
		if err != nil {
			return nil, errDecorate(err, "Score")
		}
		res.RMSD = rmsd
	}

	if o.Gradients {
		if s.backdone {
			return nil, CError{"Structure tape already consumed by a backward pass", []string{"Score"}}
		}
		s.backdone = true
		ad.Backward(norm)
		res.Grads = s.Grads()
	}
	return res, nil
}

func matrixFromRows(rows [][]float64) (*v3.Matrix, error) {
	data := make([]float64, 0, 3*len(rows))
	for _, r := range rows {
		data = append(data, r...)
	}
	return v3.NewMatrix(data)
}
