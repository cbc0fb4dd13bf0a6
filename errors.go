/*
 * errors.go, part of protein-transformer.
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

// Error is the interface for errors that all packages in this library implement.
// The Decorate method allows to add and retrieve info from the error, without
// changing its type or wrapping it around something else. The decoration slice
// should contain the names of the functions in the calling stack, plus, for
// each function, any relevant information, or nothing. If passed an empty
// string, Decorate should just return the current slice without adding to it.
type Error interface {
	Error() string
	Decorate(string) []string
}

// CError is the concrete error type of this package.
type CError struct {
	msg  string
	deco []string
}

func (err CError) Error() string { return err.msg }

// Decorate adds the dec string to the decoration slice of the error and
// returns the resulting slice.
func (err CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// errDecorate asserts that err implements Error, decorates it with the
// caller's name and returns it. It panics on a foreign error type.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}

// TrajError is the interface for errors returned by trajectory handles.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError is a TrajError that also signals that a trajectory ended
// normally. Readers return it from their frame-reading method on EOF;
// callers detect it with a type assertion and stop reading without treating
// the condition as a failure.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination()
}
