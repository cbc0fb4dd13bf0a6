package protein

import (
	"fmt"
	"math"
	"testing"

	"github.com/hengwei-chan/protein-transformer/ad"
	"github.com/hengwei-chan/protein-transformer/v3"
)

func reconstructOrDie(Te *testing.T, seq []int, rows [][]float64) *Structure {
	s, err := Reconstruct(seq, rows)
	if err != nil {
		Te.Fatal(err)
	}
	return s
}

func TestExactMatchZeroLoss(Te *testing.T) {
	seq, err := SeqFromString("AGS")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(3, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	s := reconstructOrDie(Te, seq, rows)
	ref := s.Coords()
	for _, m := range []Method{DRMSD, Huber, HuberMod} {
		s2 := reconstructOrDie(Te, seq, rows)
		o := DefaultOptions()
		o.Method = m
		o.Gradients = false
		o.RMSD = true
		res, err := Score(s2, ref, o)
		if err != nil {
			Te.Fatal(err)
		}
		fmt.Println("method", m, "loss", res.Loss, "raw", res.Raw, "bb", res.Backbone, "rmsd", res.RMSD)
		if res.Loss > 1e-12 || res.Raw > 1e-12 {
			Te.Errorf("method %d: exact match should give zero loss, got %g (raw %g)", m, res.Loss, res.Raw)
		}
		if res.Backbone > 1e-12 {
			Te.Errorf("method %d: backbone companion should be zero, got %g", m, res.Backbone)
		}
		if res.RMSD > 1e-5 {
			Te.Errorf("method %d: RMSD should be zero, got %g", m, res.RMSD)
		}
	}
}

func TestRigidInvariance(Te *testing.T) {
	seq, err := SeqFromString("AGSLK")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(5, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	s := reconstructOrDie(Te, seq, rows)
	coords := s.Coords()
	n := coords.NVecs()
	ref := v3.Zeros(n)
	a := Deg2Rad(30)
	cosA, sinA := math.Cos(a), math.Sin(a)
	for i := 0; i < n; i++ {
		x, y, z := coords.At(i, 0), coords.At(i, 1), coords.At(i, 2)
		ref.Set(i, 0, cosA*x-sinA*y+1.0)
		ref.Set(i, 1, sinA*x+cosA*y-2.0)
		ref.Set(i, 2, z+3.0)
	}
	o := DefaultOptions()
	o.Gradients = false
	o.RMSD = true
	res, err := Score(s, ref, o)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("rigid motion loss", res.Loss, "rmsd", res.RMSD)
	if res.Loss > 1e-9 {
		Te.Error("distance loss should ignore rigid motion, got", res.Loss)
	}
	if res.RMSD > 1e-4 {
		Te.Error("superposition should undo rigid motion, got RMSD", res.RMSD)
	}
}

func TestNaNMasking(Te *testing.T) {
	seq, err := SeqFromString("AG")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(2, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	s := reconstructOrDie(Te, seq, rows)
	ref := s.Coords()
	o := DefaultOptions()
	o.Gradients = false

	// a NaN row is dropped from both sides, so the rest still matches
	for k := 0; k < 3; k++ {
		ref.Set(3, k, math.NaN())
	}
	res, err := Score(s, ref, o)
	if err != nil {
		Te.Fatal(err)
	}
	if res.Loss > 1e-12 {
		Te.Error("NaN-masked atom should not contribute, got", res.Loss)
	}

	// the same row holding garbage instead of NaN must contribute
	for k := 0; k < 3; k++ {
		ref.Set(3, k, 50.0)
	}
	res, err = Score(s, ref, o)
	if err != nil {
		Te.Fatal(err)
	}
	if res.Loss < 1e-3 {
		Te.Error("corrupted atom should raise the loss, got", res.Loss)
	}
}

func TestBackboneCompanion(Te *testing.T) {
	gly := mustCode(Te, "G")
	rows := canonicalRows(4, Deg2Rad(-80), Deg2Rad(70), math.Pi, 0)
	refRows := canonicalRows(4, Deg2Rad(-75), Deg2Rad(65), math.Pi, 0)
	ref := reconstructOrDie(Te, polySeq(gly, 4), refRows).Coords()

	o := DefaultOptions()
	o.Gradients = false
	full, err := Score(reconstructOrDie(Te, polySeq(gly, 4), rows), ref, o)
	if err != nil {
		Te.Fatal(err)
	}
	ob := DefaultOptions()
	ob.Gradients = false
	ob.BackboneOnly = true
	bb, err := Score(reconstructOrDie(Te, polySeq(gly, 4), rows), ref, ob)
	if err != nil {
		Te.Fatal(err)
	}
	// glycine has no side chain, so restricting to the backbone changes
	// nothing
	if math.Abs(full.Loss-bb.Loss) > 1e-12 {
		Te.Error("GLY full and backbone-only losses differ:", full.Loss, bb.Loss)
	}
	if math.Abs(full.Backbone-full.Loss) > 1e-12 {
		Te.Error("GLY companion should equal the loss:", full.Backbone, full.Loss)
	}

	// with side chains present the companion matches an explicit
	// backbone-only score, not the full loss
	ser := mustCode(Te, "S")
	refS := reconstructOrDie(Te, polySeq(ser, 4), refRows).Coords()
	fullS, err := Score(reconstructOrDie(Te, polySeq(ser, 4), rows), refS, o)
	if err != nil {
		Te.Fatal(err)
	}
	bbS, err := Score(reconstructOrDie(Te, polySeq(ser, 4), rows), refS, ob)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(fullS.Backbone-bbS.Loss) > 1e-12 {
		Te.Error("companion disagrees with explicit backbone-only score:", fullS.Backbone, bbS.Loss)
	}
	if math.Abs(fullS.Backbone-fullS.Loss) < 1e-15 {
		Te.Error("full and backbone-only losses should differ for SER")
	}
}

func TestZeroDistanceFloor(Te *testing.T) {
	// two coincident atoms must not put NaNs on the tape or into the
	// gradients
	pred := []vec3{vconst(1, 2, 3), vconst(1, 2, 3), vconst(2, 2, 3)}
	ref := [][]float64{{1, 2, 3}, {1, 2, 3}, {2, 2, 3}}
	terms := pairTerms(pred, ref)
	if len(terms) != 3 {
		Te.Fatal("3 atoms should give 3 pairs, got", len(terms))
	}
	for i, term := range terms {
		if math.IsNaN(term.Data) {
			Te.Fatal("pair", i, "came out NaN")
		}
		if math.Abs(term.Data) > 1e-12 {
			Te.Error("pair", i, "error should be negligible, got", term.Data)
		}
	}
	loss := huberOfTerms(terms, 1, false)
	ad.Backward(loss)
	for i, p := range pred {
		for k := 0; k < 3; k++ {
			if math.IsNaN(p[k].Grad) {
				Te.Error("atom", i, "coordinate", k, "has a NaN gradient")
			}
		}
	}
}

func TestHuberRegimes(Te *testing.T) {
	small := huberOfTerms([]*ad.Value{ad.V(0.01)}, 1, false)
	wantq := 0.01 * 0.01 / 2
	if r := small.Data / wantq; math.Abs(r-1) > 1e-3 {
		Te.Error("near zero the penalty should be quadratic, ratio", r)
	}
	big := huberOfTerms([]*ad.Value{ad.V(100)}, 1, false)
	if r := big.Data / 100; r < 0.98 || r > 1 {
		Te.Error("far out the penalty should be linear, ratio", r)
	}
	terms := []*ad.Value{ad.V(3), ad.V(-0.4)}
	h := huberOfTerms(terms, 2, false)
	m := huberOfTerms(terms, 2, true)
	if math.Abs(m.Data-h.Data/2) > 1e-12 {
		Te.Error("modified form should be the plain one over d:", m.Data, h.Data/2)
	}
}

func TestGradientsMatchFiniteDifferences(Te *testing.T) {
	seq, err := SeqFromString("AG")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(2, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	refRows := canonicalRows(2, Deg2Rad(-50), Deg2Rad(-55), Deg2Rad(175), Deg2Rad(-75))
	ref := reconstructOrDie(Te, seq, refRows).Coords()

	o := DefaultOptions()
	o.Method = Huber
	res, err := Score(reconstructOrDie(Te, seq, rows), ref, o)
	if err != nil {
		Te.Fatal(err)
	}
	lossAt := func(per [][]float64) float64 {
		oo := DefaultOptions()
		oo.Method = Huber
		oo.Gradients = false
		r, err := Score(reconstructOrDie(Te, seq, per), ref, oo)
		if err != nil {
			Te.Fatal(err)
		}
		return r.Loss
	}
	const eps = 1e-5
	for i := range rows {
		for k := 0; k < NumAngles; k++ {
			up := copyRows(rows)
			up[i][k] += eps
			down := copyRows(rows)
			down[i][k] -= eps
			fd := (lossAt(up) - lossAt(down)) / (2 * eps)
			g := res.Grads[i][k]
			if math.Abs(fd-g) > 1e-6+1e-4*math.Abs(g) {
				Te.Errorf("row %d angle %d: backward %g vs finite difference %g", i, k, g, fd)
			}
		}
	}
}

func TestGradientsSinCosEncoding(Te *testing.T) {
	seq, err := SeqFromString("AG")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(2, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	enc := make([][]float64, len(rows))
	for i, r := range rows {
		e, err := EncodeSinCos(r)
		if err != nil {
			Te.Fatal(err)
		}
		enc[i] = e
	}
	refRows := canonicalRows(2, Deg2Rad(-50), Deg2Rad(-55), Deg2Rad(175), Deg2Rad(-75))
	ref := reconstructOrDie(Te, seq, refRows).Coords()

	o := DefaultOptions()
	o.Method = Huber
	res, err := Score(reconstructOrDie(Te, seq, enc), ref, o)
	if err != nil {
		Te.Fatal(err)
	}
	if len(res.Grads[0]) != SinCosWidth {
		Te.Fatal("gradient width should match the encoding, got", len(res.Grads[0]))
	}
	lossAt := func(per [][]float64) float64 {
		oo := DefaultOptions()
		oo.Method = Huber
		oo.Gradients = false
		r, err := Score(reconstructOrDie(Te, seq, per), ref, oo)
		if err != nil {
			Te.Fatal(err)
		}
		return r.Loss
	}
	const eps = 1e-5
	checks := [][2]int{{0, 6}, {0, 7}, {1, 0}, {1, 1}, {0, 12}, {0, 13}}
	for _, c := range checks {
		i, k := c[0], c[1]
		up := copyRows(enc)
		up[i][k] += eps
		down := copyRows(enc)
		down[i][k] -= eps
		fd := (lossAt(up) - lossAt(down)) / (2 * eps)
		g := res.Grads[i][k]
		if math.Abs(fd-g) > 1e-6+1e-4*math.Abs(g) {
			Te.Errorf("row %d col %d: backward %g vs finite difference %g", i, k, g, fd)
		}
	}
}

func TestSecondBackwardRefused(Te *testing.T) {
	seq, err := SeqFromString("AG")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(2, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	refRows := canonicalRows(2, Deg2Rad(-50), Deg2Rad(-55), math.Pi, Deg2Rad(-75))
	ref := reconstructOrDie(Te, seq, refRows).Coords()
	s := reconstructOrDie(Te, seq, rows)
	if _, err := Score(s, ref, nil); err != nil {
		Te.Fatal(err)
	}
	if _, err := Score(s, ref, nil); err == nil {
		Te.Error("a second backward pass over the same tape should be refused")
	}
}

func TestScoreValidation(Te *testing.T) {
	seq, err := SeqFromString("AG")
	if err != nil {
		Te.Fatal(err)
	}
	rows := canonicalRows(2, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	s := reconstructOrDie(Te, seq, rows)
	if _, err := Score(s, v3.Zeros(3), nil); err == nil {
		Te.Error("short reference should be refused")
	}
	o := DefaultOptions()
	o.Method = Huber
	o.Scale = 0
	if _, err := Score(s, s.Coords(), o); err == nil {
		Te.Error("non-positive transition point should be refused")
	}
	o = DefaultOptions()
	o.Method = Method(99)
	if _, err := Score(s, s.Coords(), o); err == nil {
		Te.Error("unknown method should be refused")
	}
	ref := s.Coords()
	for i := 0; i < ref.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			ref.Set(i, k, math.NaN())
		}
	}
	if _, err := Score(s, ref, nil); err == nil {
		Te.Error("a fully masked reference should be refused")
	}
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
