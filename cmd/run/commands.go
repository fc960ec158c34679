// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/dto"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/server/logger"
	"github.com/zintix-labs/quantlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================
// ** quantile **
// ============================================================

type quantileCmd struct {
	qf     queryFlags
	format string
}

func (*quantileCmd) Name() string     { return "quantile" }
func (*quantileCmd) Synopsis() string { return "evaluate one quantile" }
func (*quantileCmd) Usage() string {
	return `quantile (-preset <name> | -family <family> [params]) [-p <prob>] [-format table|json|yaml]:
  Evaluate the inverse CDF of one distribution at p.
`
}

func (c *quantileCmd) SetFlags(f *flag.FlagSet) {
	c.qf.bind(f, true)
	f.StringVar(&c.format, "format", "table", "output format: table|json|yaml")
}

func (c *quantileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	lab, err := newLab(logger.NewDefaultLogger(logMode), *presetsDir)
	if err != nil {
		return exitErr(err)
	}
	defer lab.Close()

	q, err := c.qf.query(lab, f)
	if err != nil {
		return exitErr(err)
	}
	res, err := lab.Eval(ctx, q)
	if err != nil {
		return exitErr(err)
	}

	if c.format == "table" {
		p := message.NewPrinter(language.English)
		value := p.Sprintf("%.6f", res.Value)
		if res.Discrete {
			value = p.Sprintf("%d", int64(res.Value))
		}
		if res.Label != "" {
			value = res.Label
		}
		p.Printf("%s[%s] [P:%g]%s %s\n", green, q.Describe(), res.P, reset, value)
		if res.Degenerate {
			fmt.Println("note: truncation interval carries no probability mass; result collapsed to an endpoint")
		}
		return subcommands.ExitSuccess
	}
	rd, err := stats.NewRender(c.format)
	if err != nil {
		return exitErr(err)
	}
	if err := rd.Write(os.Stdout, dto.NewQueryResponse(q, res)); err != nil {
		return exitErr(err)
	}
	return subcommands.ExitSuccess
}

// ============================================================
// ** batch **
// ============================================================

type batchCmd struct {
	file   string
	format string
}

func (*batchCmd) Name() string     { return "batch" }
func (*batchCmd) Synopsis() string { return "evaluate a batch file of preset or inline queries" }
func (*batchCmd) Usage() string {
	return `batch -f <batch.yaml|batch.json> [-format table|json|yaml]:
  Evaluate every item; a failing item is reported on its row and does not stop the batch.
`
}

func (c *batchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "batch file (yaml or json)")
	f.StringVar(&c.format, "format", "table", "output format: table|json|yaml")
}

func (c *batchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.file == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	lab, err := newLab(logger.NewDefaultLogger(logMode), *presetsDir)
	if err != nil {
		return exitErr(err)
	}
	defer lab.Close()

	b, err := readBatch(c.file)
	if err != nil {
		return exitErr(err)
	}
	start := time.Now()
	rep, err := lab.Batch(ctx, b)
	if err != nil {
		return exitErr(err)
	}
	used := time.Since(start)

	if c.format == "table" {
		rep.StdOut(used)
	} else {
		rd, err := stats.NewRender(c.format)
		if err != nil {
			return exitErr(err)
		}
		if err := rep.WriteWith(os.Stdout, rd); err != nil {
			return exitErr(err)
		}
	}
	if rep.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// ============================================================
// ** sweep **
// ============================================================

type sweepCmd struct {
	qf      queryFlags
	points  int
	ps      string
	workers int
	format  string
	out     string
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "quantile table over a probability grid" }
func (*sweepCmd) Usage() string {
	return `sweep (-preset <name> | -family <family> [params]) [-points n | -ps p1,p2,...] [-workers n] [-format table|json|yaml] [-o file]:
  Evaluate one distribution over a grid of probabilities in parallel.
  -o writes json/yaml; a .zst or .gz suffix compresses the file.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	c.qf.bind(f, false)
	f.IntVar(&c.points, "points", 99, "evenly spaced grid points i/(n+1)")
	f.StringVar(&c.ps, "ps", "", "explicit probabilities, comma separated (overrides -points)")
	f.IntVar(&c.workers, "workers", 4, "number of workers")
	f.StringVar(&c.format, "format", "table", "output format: table|json|yaml")
	f.StringVar(&c.out, "o", "", "output file (.json/.yaml, optional .zst/.gz)")
}

func (c *sweepCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	lab, err := newLab(logger.NewDefaultLogger(logMode), *presetsDir)
	if err != nil {
		return exitErr(err)
	}
	defer lab.Close()

	q, err := c.qf.query(lab, f)
	if err != nil {
		return exitErr(err)
	}
	grid := quantlab.Grid(c.points)
	if c.ps != "" {
		if grid, err = parseFloats(c.ps); err != nil {
			return exitErr(err)
		}
	}

	p := message.NewPrinter(language.English)
	p.Printf("%s[%s] [POINTS:%d] [WORKERS:%d]%s\n", green, q.Describe(), len(grid), c.workers, reset)
	tbl, used, err := lab.Sweep(ctx, q, grid, c.workers, true)
	if err != nil {
		return exitErr(err)
	}

	if c.out != "" {
		if err := c.writeFile(tbl); err != nil {
			return exitErr(err)
		}
		p.Printf("written: %s (%d rows, %v)\n", c.out, len(tbl.Rows), used)
		return subcommands.ExitSuccess
	}
	if c.format == "table" {
		tbl.StdOut(used)
		return subcommands.ExitSuccess
	}
	rd, err := stats.NewRender(c.format)
	if err != nil {
		return exitErr(err)
	}
	if err := tbl.WriteWith(os.Stdout, rd); err != nil {
		return exitErr(err)
	}
	return subcommands.ExitSuccess
}

func (c *sweepCmd) writeFile(tbl *stats.QuantileTable) error {
	format := c.format
	if format == "table" {
		format = outputFormat(c.out)
	}
	rd, err := stats.NewRender(format)
	if err != nil {
		return err
	}
	w, err := createOutput(c.out)
	if err != nil {
		return err
	}
	if err := tbl.WriteWith(w, rd); err != nil {
		w.Close()
		return errs.Wrap(err, "write sweep output")
	}
	if err := w.Close(); err != nil {
		return errs.Wrap(err, "close sweep output")
	}
	return nil
}

// ============================================================
// ** families / presets **
// ============================================================

type familiesCmd struct{}

func (*familiesCmd) Name() string             { return "families" }
func (*familiesCmd) Synopsis() string         { return "list supported distribution families" }
func (*familiesCmd) Usage() string            { return "families:\n  List families and their parameters.\n" }
func (*familiesCmd) SetFlags(_ *flag.FlagSet) {}

func (*familiesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	for _, fi := range dto.Families() {
		kind := "continuous"
		if fi.Discrete {
			kind = "discrete"
		}
		fmt.Printf("%-22s %-10s %s\n", fi.Name, kind, strings.Join(fi.Params, ", "))
	}
	return subcommands.ExitSuccess
}

type presetsCmd struct {
	format string
}

func (*presetsCmd) Name() string     { return "presets" }
func (*presetsCmd) Synopsis() string { return "list registered presets" }
func (*presetsCmd) Usage() string {
	return "presets [-format table|json|yaml]:\n  List built-in presets plus those under -presets.\n"
}

func (c *presetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "table", "output format: table|json|yaml")
}

func (c *presetsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	lab, err := newLab(logger.NewDefaultLogger(logMode), *presetsDir)
	if err != nil {
		return exitErr(err)
	}
	defer lab.Close()

	if c.format != "table" {
		rd, err := stats.NewRender(c.format)
		if err != nil {
			return exitErr(err)
		}
		if err := rd.Write(os.Stdout, lab.Presets()); err != nil {
			return exitErr(err)
		}
		return subcommands.ExitSuccess
	}
	for _, s := range lab.Presets() {
		fmt.Printf("%-14s p=%-6g %s  %s\n", s.Name, s.P, s.Params, s.Description)
	}
	return subcommands.ExitSuccess
}
