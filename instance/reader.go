// Package instance loads LP problem instances and hands the engine a ready
// tableau. Two input paths exist: a dense whitespace text format whose
// dimensions are encoded in the file name, and MPS files read through glpk.
package instance

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"q.log/parsimplex/tableau"
)

// Reader reads a dense text instance: one whitespace-separated tableau row
// per line, constraints first, objective row last, RHS in the last column.
// The file base name carries the dimensions as <constraints>x<variables>
// (separators 'x' and '_' both accepted, extension ignored), e.g. 2000x2000
// for a problem with 2000 constraints and 2000 structural variables, so the
// tableau is 2001 x 4001 including slacks.
type Reader struct {
	filename string
}

func NewReader(filename string) *Reader {
	return &Reader{
		filename: filename,
	}
}

// ReadTableau parses the file into a tableau sized from the file name.
func (r *Reader) ReadTableau() (*tableau.Tableau, error) {
	constraints, variables, err := dimensionsFromName(r.filename)
	if err != nil {
		return nil, err
	}
	rows := constraints + 1
	cols := constraints + variables + 1

	f, err := os.Open(r.filename)
	if err != nil {
		return nil, errors.Wrap(err, "instance: opening file")
	}
	defer f.Close()

	t := tableau.New(rows, cols)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<26)
	lin := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			break
		}
		if lin == rows {
			return nil, errors.Errorf("instance: %s: more than %d rows", r.filename, rows)
		}
		fields := strings.Fields(line)
		if len(fields) != cols {
			return nil, errors.Errorf("instance: %s: row %d has %d columns, want %d",
				r.filename, lin, len(fields), cols)
		}
		row := t.RawRow(lin)
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "instance: %s: row %d column %d", r.filename, lin, j)
			}
			row[j] = v
		}
		lin++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "instance: reading file")
	}
	if lin != rows {
		return nil, errors.Errorf("instance: %s: got %d rows, want %d", r.filename, lin, rows)
	}

	return t, nil
}

// dimensionsFromName extracts constraint and variable counts from the file
// base name. The first two integer tokens win, so prefixed names like
// dense_2000x1000.txt still parse.
func dimensionsFromName(filename string) (constraints, variables int, err error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == 'x' || r == '_'
	})
	dims := make([]int, 0, 2)
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			continue
		}
		dims = append(dims, n)
		if len(dims) == 2 {
			break
		}
	}
	if len(dims) != 2 {
		return 0, 0, errors.Errorf("instance: cannot read dimensions from file name %q, want <constraints>x<variables>", base)
	}
	return dims[0], dims[1], nil
}
