package ad

import (
	"fmt"
	"math"
	"testing"
)

func TestBasicOps(Te *testing.T) {
	a := V(2)
	b := V(3)
	c := V(1)
	out := Pow(Add(Mul(a, b), c), 2) // (a*b+c)^2
	if out.Data != 49 {
		Te.Errorf("expected 49, got %f", out.Data)
	}
	Backward(out)
	// d/da = 2(ab+c)*b, d/db = 2(ab+c)*a, d/dc = 2(ab+c)
	if a.Grad != 42 || b.Grad != 28 || c.Grad != 14 {
		Te.Errorf("wrong gradients: %f %f %f", a.Grad, b.Grad, c.Grad)
	}
	fmt.Println("grads", a.Grad, b.Grad, c.Grad)
}

func TestSharedSubexpression(Te *testing.T) {
	a := V(3)
	b := Mul(a, a)
	out := Add(b, b) // 2a^2, so d/da = 4a
	Backward(out)
	if a.Grad != 12 {
		Te.Errorf("gradient through a shared node should accumulate: expected 12, got %f", a.Grad)
	}
}

func TestAtan2Decode(Te *testing.T) {
	// Decoding an angle from its sin/cos pair must recover the angle and
	// give the analytic partials cos(t) and -sin(t) on the unit circle.
	for _, t := range []float64{0.3, 2.5, -1.2, -3.0} {
		s := V(math.Sin(t))
		c := V(math.Cos(t))
		ang := Atan2(s, c)
		if math.Abs(ang.Data-t) > 1e-12 {
			Te.Errorf("atan2(sin t, cos t) should be t: expected %f, got %f", t, ang.Data)
		}
		Backward(ang)
		if math.Abs(s.Grad-math.Cos(t)) > 1e-12 || math.Abs(c.Grad+math.Sin(t)) > 1e-12 {
			Te.Errorf("wrong atan2 partials at t=%f: %f %f", t, s.Grad, c.Grad)
		}
	}
}

func TestClampMin(Te *testing.T) {
	lo := V(1e-40)
	cl := ClampMin(lo, 1e-30)
	if cl.Data != 1e-30 {
		Te.Errorf("expected the floor, got %g", cl.Data)
	}
	out := Sqrt(cl)
	Backward(out)
	if lo.Grad != 0 {
		Te.Errorf("no gradient should flow below the floor, got %f", lo.Grad)
	}
	hi := V(4.0)
	out2 := Sqrt(ClampMin(hi, 1e-30))
	Backward(out2)
	if math.Abs(hi.Grad-0.25) > 1e-12 {
		Te.Errorf("expected d sqrt(x)/dx = 0.25 at x=4, got %f", hi.Grad)
	}
}

func TestSum(Te *testing.T) {
	vs := make([]*Value, 10)
	for i := range vs {
		vs[i] = V(float64(i))
	}
	out := Sum(vs...)
	if out.Data != 45 {
		Te.Errorf("expected 45, got %f", out.Data)
	}
	Backward(out)
	for i, v := range vs {
		if v.Grad != 1 {
			Te.Errorf("summand %d should have gradient 1, got %f", i, v.Grad)
		}
	}
}

// numGrad estimates df/dx at x by central differences.
func numGrad(f func(float64) float64, x float64) float64 {
	const h = 1e-6
	return (f(x+h) - f(x-h)) / (2 * h)
}

func TestAgainstFiniteDifferences(Te *testing.T) {
	f := func(x float64) float64 {
		return math.Sqrt(1+x*x) * math.Sin(x)
	}
	for _, x := range []float64{0.5, 1.7, -2.3} {
		v := V(x)
		out := Mul(Sqrt(AddConst(Mul(v, v), 1)), Sin(v))
		Backward(out)
		want := numGrad(f, x)
		if math.Abs(v.Grad-want) > 1e-5 {
			Te.Errorf("at x=%f expected %f, got %f", x, want, v.Grad)
		}
	}
}

func TestDeepChain(Te *testing.T) {
	// A long dependency chain must not blow the stack during Backward.
	v := V(1)
	out := v
	const n = 200000
	for i := 0; i < n; i++ {
		out = AddConst(out, 1)
	}
	Backward(out)
	if v.Grad != 1 {
		Te.Errorf("expected 1, got %f", v.Grad)
	}
	if out.Data != float64(n+1) {
		Te.Errorf("expected %d, got %f", n+1, out.Data)
	}
}
