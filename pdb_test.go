package protein

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestWritePDB(t *testing.T) {
	seq, err := SeqFromString("AG")
	if err != nil {
		t.Fatal(err)
	}
	rows := canonicalRows(2, Deg2Rad(-60), Deg2Rad(-45), math.Pi, Deg2Rad(-65))
	s, err := Reconstruct(seq, rows)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePDB(&buf, s); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	var atoms, ter, end int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "ATOM"):
			atoms++
		case l == "TER":
			ter++
		case l == "END":
			end++
		default:
			t.Error("unexpected line:", l)
		}
	}
	// ALA has four heavy atoms, GLY three
	if atoms != 7 {
		t.Error("want 7 ATOM records, got", atoms)
	}
	if ter != 1 || end != 1 {
		t.Error("missing TER or END")
	}
	if !strings.HasPrefix(lines[0], "ATOM      1  N   ALA A   1") {
		t.Errorf("bad first record: %q", lines[0])
	}
	if !strings.Contains(lines[0], "   0.001") {
		t.Errorf("first nitrogen should sit at the seed: %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "ATOM      4  CB  ALA A   1") {
		t.Errorf("bad CB record: %q", lines[3])
	}
	if !strings.Contains(lines[4], "GLY A   2") {
		t.Errorf("second residue should be GLY 2: %q", lines[4])
	}
	for _, l := range lines[:atoms] {
		if len(l) < 78 {
			t.Errorf("short ATOM record: %q", l)
		}
	}
}
