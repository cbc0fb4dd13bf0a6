/*
 * snap.go, part of protein-transformer.
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

package snap

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	protein "github.com/hengwei-chan/protein-transformer"
	v3 "github.com/hengwei-chan/protein-transformer/v3"
)

const defaultPrec = 3

// SnapW writes a snapshot trajectory.
type SnapW struct {
	f         *os.File
	h         io.WriteCloser
	natoms    int
	filename  string
	writeable bool
	prec      int
}

// NewWriter opens a snapshot trajectory for writing and stores the sequence
// in its header. The compressor is picked from the file name: gzip for
// names ending in 'z', flate for 'r', zstd otherwise. The optional
// compression level applies to gzip and flate only.
func NewWriter(name string, natoms int, seq []int, compressionLevel ...int) (*SnapW, error) {
	level := 9
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	S := new(SnapW)
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"NewWriter"}, true}
	}
	var anyNewWriter func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		anyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	case 'r':
		anyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	default:
		// snapshots get written every epoch, so favor speed over ratio
		anyNewWriter = func(a io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedDefault))
		}
	}
	S.h, err = anyNewWriter(S.f)
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't set up compressor: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.natoms = natoms
	S.filename = name
	S.writeable = true
	S.prec = defaultPrec
	if len(seq) > 0 {
		letters := make([]string, len(seq))
		for i, code := range seq {
			l, err := protein.OneLetter(code)
			if err != nil {
				S.h.Close()
				S.f.Close()
				return nil, Error{fmt.Sprintf("Sequence entry %d: %s", i, err.Error()), name, []string{"NewWriter"}, true}
			}
			letters[i] = l
		}
		if _, err := fmt.Fprintf(S.h, "seq=%s\n", strings.Join(letters, "")); err != nil {
			return nil, Error{err.Error(), name, []string{"NewWriter"}, true}
		}
	}
	fmt.Fprintf(S.h, "prec=%d\n", S.prec)
	fmt.Fprintf(S.h, "** %d\n", S.natoms)
	return S, nil
}

// WNext appends one frame. The coordinates are stored as integers scaled to
// the trajectory's precision.
func (S *SnapW) WNext(coord *v3.Matrix) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	var floats [3]float64
	for i := 0; i < v; i++ {
		floats[0] = coord.At(i, 0)
		floats[1] = coord.At(i, 1)
		floats[2] = coord.At(i, 2)
		if _, err := S.h.Write([]byte(coordsEncode(floats, S.prec))); err != nil {
			return Error{err.Error(), S.filename, []string{"WNext"}, true}
		}
	}
	if _, err := S.h.Write([]byte("*\n")); err != nil {
		return Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

// Close flushes and closes the trajectory. The handle is unusable afterwards.
func (S *SnapW) Close() {
	if S == nil {
		return
	}
	if S.writeable {
		S.h.Close()
		S.f.Close()
	}
	S.writeable = false
}

// Len returns the number of atoms per frame.
func (S *SnapW) Len() int {
	return S.natoms
}

func coordsEncode(f [3]float64, prec int) string {
	p := math.Pow(10.0, float64(prec))
	var temp [3]int
	for i, v := range f {
		temp[i] = int(math.RoundToEven(v * p))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

// SnapR reads a snapshot trajectory.
type SnapR struct {
	f        *os.File
	z        io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	seq      []int
	readable bool
}

// zstd's Decoder has a Close without an error return, so it does not satisfy
// io.ReadCloser on its own.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

func (s zstdql) Close() error {
	s.closeql()
	return nil
}

// New opens a snapshot trajectory for reading and returns the handle along
// with the sequence stored in the header, nil if there is none.
func New(name string) (*SnapR, []int, error) {
	S := new(SnapR)
	S.natoms = -1
	S.prec = defaultPrec
	S.filename = name
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{err.Error(), name, []string{"New"}, true}
	}
	var anyNewReader func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		anyNewReader = func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'r':
		anyNewReader = func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	default:
		anyNewReader = func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdql{r.Close, r}, nil
		}
	}
	S.z, err = anyNewReader(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't set up decompressor: " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.z)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			fields := strings.Fields(str)
			if len(fields) < 2 {
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from %q", str), name, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(fields[1])
			if err != nil {
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from %q: %s", fields[1], err.Error()), name, []string{"New"}, true}
			}
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			return nil, nil, Error{fmt.Sprintf("Malformed header line %q", str), name, []string{"New"}, true}
		}
		switch kv[0] {
		case "seq":
			S.seq, err = protein.SeqFromString(kv[1])
			if err != nil {
				return nil, nil, Error{"Bad sequence in header: " + err.Error(), name, []string{"New"}, true}
			}
		case "prec":
			p, err := strconv.Atoi(kv[1])
			if err != nil || p <= 0 {
				return nil, nil, Error{fmt.Sprintf("Bad precision in header: %q", kv[1]), name, []string{"New"}, true}
			}
			S.prec = p
		}
	}
	S.readable = true
	return S, S.seq, nil
}

// Next fills c with the coordinates of the next frame. A nil c skips the
// frame, still checking it for correctness. At the end of the trajectory the
// handle is closed and an error satisfying protein.LastFrameError is
// returned.
func (S *SnapR) Next(c *v3.Matrix) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && i == 0 {
				S.Close()
				return newlastFrameError(S.filename, "Next")
			}
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if err := coordsDecode(string(b[:len(b)-1]), &temp, S.prec); err != nil {
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		for j, v := range temp {
			c.Set(i, j, v)
		}
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return Error{"Can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if s[0] != '*' {
		return Error{"Wrong number of atoms in frame", S.filename, []string{"Next"}, true}
	}
	return nil
}

func coordsDecode(str string, temp *[3]float64, prec int) error {
	p := math.Pow(10.0, float64(prec))
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formatted coordinates line: %q", str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s): %s", i, v, err.Error())
		}
		temp[i] = float64(f) / p
	}
	return nil
}

// Seq returns the sequence stored in the trajectory header, nil if none.
func (S *SnapR) Seq() []int {
	return S.seq
}

// Readable returns true if it is possible to call Next on the handle.
func (S *SnapR) Readable() bool {
	return S.readable
}

// Close closes the handle and marks it as unreadable.
func (S *SnapR) Close() {
	if !S.readable {
		return
	}
	S.z.Close()
	S.f.Close()
	S.readable = false
}

// Len returns the number of atoms per frame.
func (S *SnapR) Len() int {
	return S.natoms
}

// Errors

// errDecorate asserts that the error implements protein.Error and decorates
// it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(protein.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for snapshot trajectory errors. It
// fulfills protein.Error and protein.TrajError.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("snap file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format associated to the error
func (err Error) Format() string { return "snap" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	NilCoordinates = "Given nil coordinates"
)

// lastFrameError implements protein.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "snap" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
