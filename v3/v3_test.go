package v3

import (
	"fmt"
	"math"
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Error(err)
	}
	if A.NVecs() != 3 {
		Te.Errorf("expected 3 vecs, got %d", A.NVecs())
	}
	_, err = NewMatrix([]float64{1, 2, 3, 4})
	if err == nil {
		Te.Error("expected an error for a slice not divisible by 3")
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Error("views should write through to the viewed matrix")
	}
	fmt.Println("View\n", A, "\n", View)
}

func TestSomeVecs(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Error(err)
	}
	B := Zeros(3)
	cind := []int{1, 3, 5}
	B.SomeVecs(A, cind)
	for key, val := range cind {
		for j := 0; j < 3; j++ {
			if B.At(key, j) != A.At(val, j) {
				Te.Errorf("SomeVecs mismatch at %d,%d", key, j)
			}
		}
	}
	fmt.Println(A, "\n", B)
}

func TestVecOps(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Error(err)
	}
	Row, err := NewMatrix([]float64{10, 20, 30})
	if err != nil {
		Te.Error(err)
	}
	B := Zeros(6)
	B.AddVec(A, Row)
	if B.At(0, 0) != 11 || B.At(5, 2) != 48 {
		Te.Error("AddVec gave wrong values", B)
	}
	B.SubVec(B, Row)
	for i := 0; i < 6; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(B.At(i, j)-A.At(i, j)) > appzero {
				Te.Error("SubVec should undo AddVec", A, B)
			}
		}
	}
	fmt.Println("Additions", B)
}

func TestCrossAndUnit(Te *testing.T) {
	x, _ := NewMatrix([]float64{1, 0, 0})
	y, _ := NewMatrix([]float64{0, 1, 0})
	z := Zeros(1)
	z.Cross(x, y)
	if z.At(0, 0) != 0 || z.At(0, 1) != 0 || z.At(0, 2) != 1 {
		Te.Error("x cross y should be z, got", z)
	}
	row, _ := NewMatrix([]float64{2, 2, 3})
	fmt.Println("Original vector", row)
	row.Unit(row)
	fmt.Println("Unitarized", row)
	if math.Abs(row.Norm()-1) > appzero {
		Te.Errorf("unit vector norm should be 1, got %f", row.Norm())
	}
	if math.Abs(x.Dot(y)) > appzero {
		Te.Error("orthogonal vectors should have zero dot product")
	}
}

func TestSetMatrix(Te *testing.T) {
	A := Zeros(4)
	b, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	A.SetMatrix(2, 0, b)
	if A.At(2, 0) != 1 || A.At(3, 2) != 6 {
		Te.Error("SetMatrix placed values wrong", A)
	}
	fmt.Println(A)
}
