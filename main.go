// Command parsimplex solves a standard-form LP instance with the parallel
// tableau simplex engine.
//
// Usage:
//
//	parsimplex <file> <threads> <chunk>
//
// <file> is either a dense text instance (dimensions encoded in the file
// name as <constraints>x<variables>) or an MPS file (.mps extension).
// <threads> sizes the worker team and <chunk> sets the scheduling
// granularity of each parallel phase. On success one summary line goes to
// stdout: average iteration seconds, total seconds, iteration count, final
// objective value.
//
// Exit codes: 0 optimal, 1 input or allocation failure, 2 unbounded.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"q.log/parsimplex/instance"
	"q.log/parsimplex/simplex"
	"q.log/parsimplex/tableau"
)

const (
	exitOK        = 0
	exitInput     = 1
	exitUnbounded = 2
)

const logFile = "log_go"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := newLogger()

	if len(args) != 3 {
		logger.Error("usage: parsimplex <file> <threads> <chunk>")
		return exitInput
	}
	filename := args[0]
	threads, err := strconv.Atoi(args[1])
	if err != nil || threads <= 0 {
		logger.Error("threads must be a positive integer", "arg", args[1])
		return exitInput
	}
	chunk, err := strconv.Atoi(args[2])
	if err != nil || chunk <= 0 {
		logger.Error("chunk must be a positive integer", "arg", args[2])
		return exitInput
	}

	t, err := readTableau(filename)
	if err != nil {
		logger.Error("loading instance failed", "file", filename, "err", err)
		return exitInput
	}
	logger.Info("instance loaded",
		"file", filename,
		"rows", t.Rows(),
		"cols", t.Cols(),
		"threads", threads,
		"chunk", chunk)

	start := time.Now()
	res, err := simplex.Solve(t,
		simplex.WithWorkers(threads),
		simplex.WithChunkSize(chunk),
		simplex.WithLogger(logger))
	elapsed := time.Since(start).Seconds()
	if errors.Is(err, simplex.ErrUnbounded) {
		logger.Error("problem is unbounded, no finite objective exists", "iterations", res.Iterations)
		return exitUnbounded
	}
	if err != nil {
		logger.Error("solve failed", "err", err)
		return exitInput
	}

	avg := 0.0
	if res.Iterations > 0 {
		avg = elapsed / float64(res.Iterations)
	}
	fmt.Printf("%f %f %d %f\n", avg, elapsed, res.Iterations, res.Objective)
	return exitOK
}

// newLogger writes diagnostics to stderr and, when possible, appends them to
// the run log file as well.
func newLogger() *slog.Logger {
	var w io.Writer = os.Stderr
	if f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		w = io.MultiWriter(os.Stderr, f)
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func readTableau(path string) (*tableau.Tableau, error) {
	if strings.EqualFold(filepath.Ext(path), ".mps") {
		return instance.NewMPSReader(path).ReadTableau()
	}
	return instance.NewReader(path).ReadTableau()
}
