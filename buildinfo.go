/*
 * buildinfo.go, part of protein-transformer.
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
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// BondLens contains the canonical backbone bond lengths, in A.
var BondLens = map[string]float64{
	"n-ca": 1.442,
	"ca-c": 1.498,
	"c-n":  1.379,
}

// BondAngles contains the canonical backbone bond angles, in radians.
// Predicted angles take precedence during reconstruction; these values seed
// synthetic data and tests.
var BondAngles = map[string]float64{
	"n-ca-c": 1.941,
	"ca-c-n": 2.028,
	"c-n-ca": 2.124,
}

// TorsionKind tells where the dihedral for a side-chain placement comes from.
type TorsionKind int

const (
	// TorsionPredicted consumes the next free side-chain slot of the
	// residue's angle row.
	TorsionPredicted TorsionKind = iota
	// TorsionInferred is the previous step's dihedral plus pi. It covers
	// the second branch of planar groups (carboxylates, amides,
	// guanidinium).
	TorsionInferred
	// TorsionFixed is a constant, 0 or pi. It closes rings.
	TorsionFixed
)

// A BuildStep places one side-chain atom. Parents are indices into the
// per-residue atom arena: 0 is the preceding residue's C, 1 is N, 2 is CA,
// and 3+k is the k-th side-chain atom placed so far. The new atom goes at
// distance Bond from Parents[2], at bond angle Angle to Parents[1] and
// Parents[2], and at the step's dihedral around the Parents[1]-Parents[2]
// axis relative to Parents[0].
type BuildStep struct {
	Name    string
	Parents [3]int
	Bond    float64 // A
	Angle   float64 // radians
	Tors    TorsionKind
	TorsVal float64 // only read for TorsionFixed
}

// arena slots shared by every residue type.
const (
	arenaPrevC = iota
	arenaN
	arenaCA
	arenaSc // first side-chain slot
)

// rawStep is the table form of a placement: a dash-separated chain of three
// parent names plus the new atom's name, the bond length, the bond angle,
// and the torsion source ('p' predicted, 'i' inferred, 'f' fixed at torsval).
type rawStep struct {
	chain   string
	bond    float64
	angle   float64
	tors    byte
	torsval float64
}

// Side-chain geometry per residue type, in placement order. Bond lengths and
// angles follow the AMBER heavy-atom equilibrium values. The parent chains
// reference backbone atoms by name (C is the preceding residue's carbonyl
// carbon) and side-chain atoms by their PDB names.
var sidechains = map[string][]rawStep{
	"ALA": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
	},
	"ARG": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD", 1.526, 1.911135530933791, 'p', 0},
		{"CB-CG-CD-NE", 1.463, 1.9408061282176945, 'p', 0},
		{"CG-CD-NE-CZ", 1.34, 2.150245638457014, 'p', 0},
		{"CD-NE-CZ-NH1", 1.34, 2.0943951023931953, 'p', 0},
		{"CD-NE-CZ-NH2", 1.34, 2.0943951023931953, 'i', 0},
	},
	"ASN": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.522, 1.9390607989657006, 'p', 0},
		{"CA-CB-CG-OD1", 1.229, 2.101376419401173, 'p', 0},
		{"CA-CB-CG-ND2", 1.335, 2.035053907825388, 'i', 0},
	},
	"ASP": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.522, 1.9390607989657006, 'p', 0},
		{"CA-CB-CG-OD1", 1.25, 2.0420352248333655, 'p', 0},
		{"CA-CB-CG-OD2", 1.25, 2.0420352248333655, 'i', 0},
	},
	"CYS": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-SG", 1.81, 1.8954275676658419, 'p', 0},
	},
	"GLN": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD", 1.522, 1.9390607989657006, 'p', 0},
		{"CB-CG-CD-OE1", 1.229, 2.101376419401173, 'p', 0},
		{"CB-CG-CD-NE2", 1.335, 2.035053907825388, 'i', 0},
	},
	"GLU": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD", 1.522, 1.9390607989657006, 'p', 0},
		{"CB-CG-CD-OE1", 1.25, 2.0420352248333655, 'p', 0},
		{"CB-CG-CD-OE2", 1.25, 2.0420352248333655, 'i', 0},
	},
	"GLY": {},
	"HIS": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.504, 1.9896753472735356, 'p', 0},
		{"CA-CB-CG-ND1", 1.385, 2.129301687433082, 'p', 0},
		{"CB-CG-ND1-CE1", 1.343, 1.8849555921538759, 'f', pi},
		{"CG-ND1-CE1-NE2", 1.335, 1.8849555921538759, 'f', 0},
		{"ND1-CE1-NE2-CD2", 1.394, 1.8849555921538759, 'f', 0},
	},
	"ILE": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG1", 1.526, 1.911135530933791, 'p', 0},
		{"N-CA-CB-CG2", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG1-CD1", 1.526, 1.911135530933791, 'p', 0},
	},
	"LEU": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD1", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD2", 1.526, 1.911135530933791, 'p', 0},
	},
	"LYS": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD", 1.526, 1.911135530933791, 'p', 0},
		{"CB-CG-CD-CE", 1.526, 1.911135530933791, 'p', 0},
		{"CG-CD-CE-NZ", 1.471, 1.9408061282176945, 'p', 0},
	},
	"MET": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-SD", 1.81, 2.0018926520374962, 'p', 0},
		{"CB-CG-SD-CE", 1.81, 1.726130630222392, 'p', 0},
	},
	"PHE": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.51, 1.9896753472735356, 'p', 0},
		{"CA-CB-CG-CD1", 1.4, 2.0943951023931953, 'p', 0},
		{"CB-CG-CD1-CE1", 1.4, 2.0943951023931953, 'f', pi},
		{"CG-CD1-CE1-CZ", 1.4, 2.0943951023931953, 'f', 0},
		{"CD1-CE1-CZ-CE2", 1.4, 2.0943951023931953, 'f', 0},
		{"CE1-CZ-CE2-CD2", 1.4, 2.0943951023931953, 'f', 0},
	},
	"PRO": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.526, 1.911135530933791, 'p', 0},
		{"CA-CB-CG-CD", 1.526, 1.911135530933791, 'p', 0},
	},
	"SER": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-OG", 1.41, 1.911135530933791, 'p', 0},
	},
	"THR": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-OG1", 1.41, 1.911135530933791, 'p', 0},
		{"N-CA-CB-CG2", 1.526, 1.911135530933791, 'p', 0},
	},
	"TRP": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.498, 1.9896753472735356, 'p', 0},
		{"CA-CB-CG-CD1", 1.365, 2.2165681500327987, 'p', 0},
		{"CB-CG-CD1-NE1", 1.374, 1.9198621771937625, 'f', pi},
		{"CG-CD1-NE1-CE2", 1.37, 1.9024088846738192, 'f', 0},
		{"CD1-NE1-CE2-CZ2", 1.394, 2.2776546738526, 'f', pi},
		{"NE1-CE2-CZ2-CH2", 1.4, 2.0507618710933527, 'f', pi},
		{"CE2-CZ2-CH2-CZ3", 1.4, 2.1205750411731104, 'f', 0},
		{"CZ2-CH2-CZ3-CE3", 1.4, 2.1170795000210706, 'f', 0},
		{"CH2-CZ3-CE3-CD2", 1.404, 2.070028171889571, 'f', 0},
	},
	"TYR": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG", 1.51, 1.9896753472735356, 'p', 0},
		{"CA-CB-CG-CD1", 1.4, 2.0943951023931953, 'p', 0},
		{"CB-CG-CD1-CE1", 1.4, 2.0943951023931953, 'f', pi},
		{"CG-CD1-CE1-CZ", 1.4, 2.0943951023931953, 'f', 0},
		{"CD1-CE1-CZ-OH", 1.364, 2.0943951023931953, 'f', pi},
		{"CD1-CE1-CZ-CE2", 1.4, 2.0943951023931953, 'f', 0},
		{"CE1-CZ-CE2-CD2", 1.4, 2.0943951023931953, 'f', 0},
	},
	"VAL": {
		{"C-N-CA-CB", 1.526, 1.9146261894377796, 'p', 0},
		{"N-CA-CB-CG1", 1.526, 1.911135530933791, 'p', 0},
		{"N-CA-CB-CG2", 1.526, 1.911135530933791, 'p', 0},
	},
}

const pi = 3.141592653589793

var buildTable [NumAAs][]BuildStep

func init() {
	for i, names := range residueNames {
		raw, ok := sidechains[names[1]]
		if !ok {
			panic(fmt.Sprintf("buildinfo: no side-chain table for %s", names[1]))
		}
		steps, err := compileSteps(names[1], raw)
		if err != nil {
			panic(err.Error())
		}
		buildTable[i] = steps
	}
}

// compileSteps resolves the parent-name chains of a raw side-chain table into
// arena indices.
func compileSteps(resname string, raw []rawStep) ([]BuildStep, error) {
	arena := map[string]int{"C": arenaPrevC, "N": arenaN, "CA": arenaCA}
	steps := make([]BuildStep, 0, len(raw))
	for i, r := range raw {
		names := strings.Split(r.chain, "-")
		if len(names) != 4 {
			return nil, CError{fmt.Sprintf("%s step %d: malformed chain %q", resname, i, r.chain), []string{"compileSteps"}}
		}
		s := BuildStep{Name: names[3], Bond: r.bond, Angle: r.angle}
		for j := 0; j < 3; j++ {
			id, ok := arena[names[j]]
			if !ok {
				return nil, CError{fmt.Sprintf("%s step %d: parent %s not yet placed", resname, i, names[j]), []string{"compileSteps"}}
			}
			s.Parents[j] = id
		}
		switch r.tors {
		case 'p':
			s.Tors = TorsionPredicted
		case 'i':
			if i == 0 {
				return nil, CError{fmt.Sprintf("%s step 0: inferred torsion has no predecessor", resname), []string{"compileSteps"}}
			}
			s.Tors = TorsionInferred
		case 'f':
			s.Tors = TorsionFixed
			s.TorsVal = r.torsval
		default:
			return nil, CError{fmt.Sprintf("%s step %d: unknown torsion source %q", resname, i, r.tors), []string{"compileSteps"}}
		}
		if _, taken := arena[s.Name]; taken {
			return nil, CError{fmt.Sprintf("%s step %d: duplicate atom %s", resname, i, s.Name), []string{"compileSteps"}}
		}
		arena[s.Name] = arenaSc + i
		steps = append(steps, s)
	}
	return steps, nil
}

// BuildSteps returns the compiled side-chain placement steps for a residue
// code, in placement order. The returned slice is shared; callers must not
// modify it.
func BuildSteps(code int) ([]BuildStep, error) {
	if !ValidAA(code) {
		return nil, CError{fmt.Sprintf("Invalid residue code: %d", code), []string{"BuildSteps"}}
	}
	return buildTable[code-FirstAA], nil
}

// NumScAtoms returns how many side-chain heavy atoms a residue type has.
func NumScAtoms(code int) (int, error) {
	steps, err := BuildSteps(code)
	if err != nil {
		return 0, errDecorate(err, "NumScAtoms")
	}
	return len(steps), nil
}

// NumPredictedTorsions returns how many side-chain torsion slots a residue
// type consumes from its angle row.
func NumPredictedTorsions(code int) (int, error) {
	steps, err := BuildSteps(code)
	if err != nil {
		return 0, errDecorate(err, "NumPredictedTorsions")
	}
	n := 0
	for _, s := range steps {
		if s.Tors == TorsionPredicted {
			n++
		}
	}
	return n, nil
}

// AtomNames returns the PDB names of a residue's heavy atoms in coordinate
// order: N, CA, C, then the side chain in placement order.
func AtomNames(code int) ([]string, error) {
	steps, err := BuildSteps(code)
	if err != nil {
		return nil, errDecorate(err, "AtomNames")
	}
	names := make([]string, 0, 3+len(steps))
	names = append(names, "N", "CA", "C")
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names, nil
}

// ValidateBuildTable checks every residue's placement steps for dependency
// errors: each parent must be placed before its children and the placement
// graph must be acyclic. It returns nil if the table is usable.
func ValidateBuildTable() error {
	for code := FirstAA; code < FirstAA+NumAAs; code++ {
		steps := buildTable[code-FirstAA]
		g := simple.NewDirectedGraph()
		for i := 0; i <= arenaCA+len(steps); i++ {
			g.AddNode(simple.Node(i))
		}
		for i, s := range steps {
			child := int64(arenaSc + i)
			for _, p := range s.Parents {
				if p >= arenaSc+i {
					name, _ := ThreeLetter(code)
					return CError{fmt.Sprintf("%s: step %d uses parent slot %d before placement", name, i, p), []string{"ValidateBuildTable"}}
				}
				g.SetEdge(g.NewEdge(simple.Node(p), simple.Node(child)))
			}
		}
		if _, err := topo.Sort(g); err != nil {
			name, _ := ThreeLetter(code)
			return CError{fmt.Sprintf("%s: placement graph has cycles: %v", name, err), []string{"ValidateBuildTable"}}
		}
	}
	return nil
}
