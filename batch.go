/*
 * batch.go, part of protein-transformer.
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

	"gonum.org/v1/gonum/stat"

	"github.com/hengwei-chan/protein-transformer/v3"
)

// A WorkError reports which batch entry failed, and during which stage.
type WorkError struct {
	Index int
	Stage string // "reconstruct" or "score"
	Err   error
	deco  []string
}

func (e *WorkError) Error() string {
	return fmt.Sprintf("Batch entry %d failed during %s: %v", e.Index, e.Stage, e.Err)
}

func (e *WorkError) Decorate(dec string) []string {
	if dec != "" {
		e.deco = append(e.deco, dec)
	}
	return e.deco
}

func (e *WorkError) Unwrap() error {
	return e.Err
}

// A GradFunc carries a batch loss together with the gradient rows to hand
// back to whatever produced the angles. Backward scales every row by the
// upstream gradient and returns the stacks in batch order. Note that with
// upstream 1 each protein's rows are exactly the gradient of its own
// normalized loss; they are not divided by the batch size.
type GradFunc struct {
	Out   float64
	grads [][][]float64
}

// Value returns the forward value, the mean normalized loss of the batch.
func (g *GradFunc) Value() float64 {
	return g.Out
}

// Backward returns one gradient stack per batch entry, every row scaled by
// upstream. The returned rows are copies.
func (g *GradFunc) Backward(upstream float64) [][][]float64 {
	out := make([][][]float64, len(g.grads))
	for i, rows := range g.grads {
		or := make([][]float64, len(rows))
		for j, row := range rows {
			o := make([]float64, len(row))
			for k, v := range row {
				o[k] = v * upstream
			}
			or[j] = o
		}
		out[i] = or
	}
	return out
}

// A BatchResult aggregates the scores of a batch. The scalar fields are
// arithmetic means over the batch entries.
type BatchResult struct {
	Loss     float64
	Raw      float64
	Backbone float64
	RMSD     float64
	// PerProtein holds each entry's full result, in input order.
	PerProtein []*Result
	// Grad is non-nil when gradients were requested.
	Grad *GradFunc
}

// DefaultBatchOptions returns DefaultOptions with the Huber transition point
// widened to 10 A, the customary setting when scoring whole batches.
func DefaultBatchOptions() *Options {
	o := DefaultOptions()
	o.Scale = 10
	return o
}

type workOut struct {
	res *Result
	err error
}

func scoreproc(seq []int, ang [][]float64, ref *v3.Matrix, o *Options, idx int, r chan *workOut) {
	s, err := Reconstruct(seq, ang)
	if err != nil {
		r <- &workOut{nil, &WorkError{Index: idx, Stage: "reconstruct", Err: err}}
		return
	}
	res, err := Score(s, ref, o)
	if err != nil {
		r <- &workOut{nil, &WorkError{Index: idx, Stage: "score", Err: err}}
		return
	}
	r <- &workOut{res, nil}
}

// ScoreBatch reconstructs and scores a batch of proteins, up to o.Cpus of
// them concurrently. Entry i is seqs[i] with angle matrix angles[i] against
// reference refs[i]; each runs on its own tape, so batch size never changes
// a protein's scores or gradients. Results are collected in input order and
// the first failing entry aborts the whole batch with a *WorkError.
//
// A nil o means DefaultBatchOptions.
func ScoreBatch(seqs [][]int, angles [][][]float64, refs []*v3.Matrix, o *Options) (*BatchResult, error) {
	if o == nil {
		o = DefaultBatchOptions()
	}
	nprot := len(seqs)
	if nprot == 0 {
		return nil, CError{"Empty batch", []string{"ScoreBatch"}}
	}
	if len(angles) != nprot || len(refs) != nprot {
		return nil, CError{fmt.Sprintf("Batch size mismatch: %d sequences, %d angle matrices, %d references", nprot, len(angles), len(refs)), []string{"ScoreBatch"}}
	}
	cpus := o.Cpus
	if cpus < 1 {
		cpus = 1
	}
	if cpus > nprot {
		cpus = nprot
	}
	results := make([]chan *workOut, cpus)
	for i := range results {
		results[i] = make(chan *workOut, 1)
	}
	all := make([]*Result, nprot)
	for start := 0; start < nprot; start += cpus {
		n := cpus
		if start+n > nprot {
			n = nprot - start
		}
		for i := 0; i < n; i++ {
			go scoreproc(seqs[start+i], angles[start+i], refs[start+i], o, start+i, results[i])
		}
		for i := 0; i < n; i++ {
			w := <-results[i]
			if w.err != nil {
				return nil, w.err
			}
			all[start+i] = w.res
		}
	}

	br := &BatchResult{PerProtein: all}
	losses := make([]float64, nprot)
	raws := make([]float64, nprot)
	bbs := make([]float64, nprot)
	for i, r := range all {
		losses[i] = r.Loss
		raws[i] = r.Raw
		bbs[i] = r.Backbone
	}
	br.Loss = stat.Mean(losses, nil)
	br.Raw = stat.Mean(raws, nil)
	br.Backbone = stat.Mean(bbs, nil)
	if o.RMSD {
		rmsds := make([]float64, nprot)
		for i, r := range all {
			rmsds[i] = r.RMSD
		}
		br.RMSD = stat.Mean(rmsds, nil)
	}
	if o.Gradients {
		grads := make([][][]float64, nprot)
		for i, r := range all {
			grads[i] = r.Grads
		}
		br.Grad = &GradFunc{Out: br.Loss, grads: grads}
	}
	return br, nil
}
