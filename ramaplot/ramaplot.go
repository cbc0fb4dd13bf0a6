/*
 * ramaplot.go, part of protein-transformer.
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

// Package ramaplot draws Ramachandran scatter plots of backbone dihedrals,
// a quick visual check of whether reconstructed conformations occupy
// plausible regions of the phi/psi plane.
package ramaplot

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	protein "github.com/hengwei-chan/protein-transformer"
)

func basicRamaPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = vg.Millimeter * 3
	p.Title.Text = title
	p.X.Label.Text = "Phi"
	p.Y.Label.Text = "Psi"
	//Constant axes
	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = -180
	p.Y.Max = 180
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, plotname string) error {
	filename := fmt.Sprintf("%s.png", plotname)
	if err := p.Save(5*vg.Inch, 5*vg.Inch, filename); err != nil {
		return Error{"Can't save plot: " + err.Error(), []string{"save"}}
	}
	return nil
}

// Plot writes a png Ramachandran plot of the given (phi, psi) pairs, in
// radians. Pairs containing NaN, the undefined dihedrals of chain ends, are
// skipped. The extension is appended to plotname.
func Plot(data [][2]float64, title, plotname string) error {
	if data == nil {
		panic("Given nil data")
	}
	p := basicRamaPlot(title)
	pts := make(plotter.XYs, 0, len(data))
	for _, d := range data {
		if math.IsNaN(d[0]) || math.IsNaN(d[1]) {
			continue
		}
		pts = append(pts, plotter.XY{X: protein.Rad2Deg(d[0]), Y: protein.Rad2Deg(d[1])})
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return Error{"Can't build scatter: " + err.Error(), []string{"Plot"}}
	}
	s.GlyphStyle.Color = color.RGBA{R: 30, G: 80, B: 255, A: 255}
	p.Add(s)
	return save(p, plotname)
}

// PlotByResidue writes a png Ramachandran plot with one color per residue
// type present in seq, which must have one code per data entry. Proline and
// glycine occupy regions of their own, so separating types tells at a
// glance whether the model has learned that.
func PlotByResidue(data [][2]float64, seq []int, title, plotname string) error {
	if data == nil {
		panic("Given nil data")
	}
	if len(seq) != len(data) {
		return Error{fmt.Sprintf("%d dihedral pairs for %d residues", len(data), len(seq)), []string{"PlotByResidue"}}
	}
	groups := make(map[int]plotter.XYs)
	for i, d := range data {
		if math.IsNaN(d[0]) || math.IsNaN(d[1]) {
			continue
		}
		groups[seq[i]] = append(groups[seq[i]], plotter.XY{X: protein.Rad2Deg(d[0]), Y: protein.Rad2Deg(d[1])})
	}
	present := make([]int, 0, len(groups))
	for code := range groups {
		present = append(present, code)
	}
	sort.Ints(present)
	p := basicRamaPlot(title)
	for key, code := range present {
		s, err := plotter.NewScatter(groups[code])
		if err != nil {
			return Error{"Can't build scatter: " + err.Error(), []string{"PlotByResidue"}}
		}
		r, g, b := colors(key, len(present))
		s.GlyphStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		p.Add(s)
		name, err2 := protein.ThreeLetter(code)
		if err2 != nil {
			return Error{err2.Error(), []string{"PlotByResidue"}}
		}
		p.Legend.Add(name, s)
	}
	return save(p, plotname)
}

// hsv2rgb takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func hsv2rgb(h, v, s float64) (uint8, uint8, uint8) {
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors spreads the used part of the hue wheel over the number of groups,
// skipping the yellows that read poorly on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return hsv2rgb(h, 1.0, 1.0)
}

// Error is the error type for plotting failures. It fulfills protein.Error.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string { return err.message }

// Decorate adds new information to the error
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
