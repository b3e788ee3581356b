// Package export writes planning results to disk: plain-text path files, GeoJSON and PNG renderings.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/gridplan/motionplan"
)

// PathFileHeader is the first line of every path file.
const PathFileHeader = "Path coordinates (x, y)"

// WritePath writes the header followed by one "x, y" line per point.
func WritePath(w io.Writer, path motionplan.Path) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, PathFileHeader); err != nil {
		return err
	}
	for _, p := range path {
		if _, err := fmt.Fprintf(bw, "%s, %s\n", formatCoord(p.X), formatCoord(p.Y)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// SavePath writes path to filename, replacing any existing file.
func SavePath(filename string, path motionplan.Path) (err error) {
	//nolint:gosec
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WritePath(f, path)
}

// ReadPath parses a path file. Blank lines are skipped and the header is optional.
func ReadPath(r io.Reader) (motionplan.Path, error) {
	path := motionplan.Path{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || (lineNum == 1 && line == PathFileHeader) {
			continue
		}
		xStr, yStr, found := strings.Cut(line, ",")
		if !found {
			return nil, errors.Errorf("line %d: expected \"x, y\", got %q", lineNum, line)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xStr), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad x coordinate", lineNum)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(yStr), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad y coordinate", lineNum)
		}
		path = append(path, r2.Point{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return path, nil
}

// LoadPath reads a path file from disk.
func LoadPath(filename string) (motionplan.Path, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadPath(f)
}
