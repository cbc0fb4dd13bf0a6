/*
 * doc.go, part of protein-transformer.
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

/*Package protein turns predicted torsion angles into full-atom protein
conformations and scores them against reference coordinates, keeping the
whole computation differentiable so the scores can drive the model that
predicted the angles.

	**Capabilities**

    Reconstructs backbone and side-chain heavy atoms from per-residue
	angle rows, either raw radians or the sin/cos encoding, via
	sequential natural-extension frame placement.

    Scores conformations on pairwise interatomic distances with a
	RMS, pseudo-Huber, or scaled pseudo-Huber penalty, masking padded
	atoms and missing reference positions from both sides.

    Runs the backward pass over the reconstruction tape and hands back
	per-angle gradients shaped like the input, ready to inject into
	whatever produced the angles.

    Scores whole padded batches concurrently, one isolated tape per
	protein, with deterministic per-protein results and batch means.

    Compares angle tensors directly with a padding-masked mean squared
	error, full width, backbone only, or side chain only, and blends it
	with the distance loss for joint objectives.

    Superimposes conformations and reports the rigid-body RMSD.

    Measures angles and dihedrals on reconstructed coordinates and
	extracts phi/psi pairs for Ramachandran analysis.

    Writes reconstructions as PDB fragments for any molecular viewer.

The subpackage ad holds the scalar reverse-mode tape; v3 the 3-column
coordinate matrices; traj/snap a compressed snapshot trajectory format;
ramaplot the Ramachandran plotting.
*/
package protein
