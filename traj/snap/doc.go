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

// Package snap implements a compressed text trajectory for reconstruction
// snapshots. Writing the conformation a model produces for a protein after
// every training epoch gives a small file that plays back the whole
// trajectory of the optimization, from random coil to folded chain, in any
// molecular viewer after conversion.
//
// The format is plain ASCII under a general-purpose compressor. A header of
// key=value lines stores the sequence (key "seq", one-letter names) and the
// coordinate precision (key "prec", a positive decimal exponent); the line
// "** N" ends the header and fixes the atoms per frame. Every frame is then
// N lines of three integers, the coordinates in Angstrom scaled by
// 10^prec and rounded, followed by a line holding "*". The compressor is
// chosen from the file name suffix, zstd unless the name ends in 'z' (gzip)
// or 'r' (flate).
package snap
