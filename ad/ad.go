/*
 * ad.go, part of protein-transformer.
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

/*Package ad provides scalar reverse-mode automatic differentiation.
A Value records the result of an arithmetic operation together with its
operands and the local derivatives with respect to them; Backward replays
the recorded graph in reverse topological order and accumulates gradients
into every Value reached, in particular the leaves created with V.

The package covers exactly the operations the reconstruction and loss code
needs. All operations allocate a new node; nothing is mutated in place
except the Grad fields during Backward.
*/
package ad

import "math"

//Value is one node of the computation graph: a scalar, the nodes it was
//computed from, and the derivative of this node with respect to each of them.
type Value struct {
	Data       float64
	Grad       float64
	Children   []*Value
	LocalGrads []float64
}

//V returns a new leaf node holding x.
func V(x float64) *Value {
	return &Value{Data: x}
}

func Add(a, b *Value) *Value {
	return &Value{Data: a.Data + b.Data, Children: []*Value{a, b}, LocalGrads: []float64{1, 1}}
}

func Sub(a, b *Value) *Value {
	return Add(a, Neg(b))
}

func Mul(a, b *Value) *Value {
	return &Value{Data: a.Data * b.Data, Children: []*Value{a, b}, LocalGrads: []float64{b.Data, a.Data}}
}

func Div(a, b *Value) *Value {
	return Mul(a, Pow(b, -1))
}

//Scale multiplies a by the constant k. No gradient flows into k.
func Scale(a *Value, k float64) *Value {
	return &Value{Data: a.Data * k, Children: []*Value{a}, LocalGrads: []float64{k}}
}

//AddConst adds the constant c to a.
func AddConst(a *Value, c float64) *Value {
	return &Value{Data: a.Data + c, Children: []*Value{a}, LocalGrads: []float64{1}}
}

func Neg(a *Value) *Value {
	return Scale(a, -1)
}

func Pow(a *Value, p float64) *Value {
	return &Value{Data: math.Pow(a.Data, p), Children: []*Value{a}, LocalGrads: []float64{p * math.Pow(a.Data, p-1)}}
}

func Sqrt(a *Value) *Value {
	s := math.Sqrt(a.Data)
	return &Value{Data: s, Children: []*Value{a}, LocalGrads: []float64{1 / (2 * s)}}
}

func Sin(a *Value) *Value {
	return &Value{Data: math.Sin(a.Data), Children: []*Value{a}, LocalGrads: []float64{math.Cos(a.Data)}}
}

func Cos(a *Value) *Value {
	return &Value{Data: math.Cos(a.Data), Children: []*Value{a}, LocalGrads: []float64{-math.Sin(a.Data)}}
}

//Atan2 is the four-quadrant arctangent of y/x.
func Atan2(y, x *Value) *Value {
	r := x.Data*x.Data + y.Data*y.Data
	return &Value{
		Data:       math.Atan2(y.Data, x.Data),
		Children:   []*Value{y, x},
		LocalGrads: []float64{x.Data / r, -y.Data / r},
	}
}

//ClampMin clamps a to be at least floor. Below the floor the output is
//constant, so no gradient flows; this matches the clamping semantics of the
//usual tensor libraries and keeps Sqrt gradients finite at zero distances.
func ClampMin(a *Value, floor float64) *Value {
	if a.Data > floor {
		return &Value{Data: a.Data, Children: []*Value{a}, LocalGrads: []float64{1}}
	}
	return &Value{Data: floor, Children: []*Value{a}, LocalGrads: []float64{0}}
}

//Sum adds any number of nodes in a single n-ary node, which keeps the graph
//shallow for the long reductions in the distance losses.
func Sum(vs ...*Value) *Value {
	data := 0.0
	lgs := make([]float64, len(vs))
	for i, v := range vs {
		data += v.Data
		lgs[i] = 1
	}
	return &Value{Data: data, Children: vs, LocalGrads: lgs}
}

//Backward accumulates into v.Grad, for every node v in the graph below out,
//the derivative of out with respect to v. The graphs built by the distance
//losses can reach millions of nodes, so the topological sort is iterative
//rather than recursive.
func Backward(out *Value) {
	type frame struct {
		v    *Value
		next int
	}
	topo := make([]*Value, 0, 1024)
	visited := make(map[*Value]bool)
	stack := make([]frame, 0, 256)
	stack = append(stack, frame{out, 0})
	visited[out] = true
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next < len(f.v.Children) {
			ch := f.v.Children[f.next]
			f.next++
			if !visited[ch] {
				visited[ch] = true
				stack = append(stack, frame{ch, 0})
			}
			continue
		}
		topo = append(topo, f.v)
		stack = stack[:len(stack)-1]
	}
	out.Grad = 1
	for i := len(topo) - 1; i >= 0; i-- {
		v := topo[i]
		for j, ch := range v.Children {
			ch.Grad += v.LocalGrads[j] * v.Grad
		}
	}
}
