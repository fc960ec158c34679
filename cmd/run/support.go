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
	"flag"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/presets"
	"github.com/zintix-labs/quantlab/quantile"
	"github.com/zintix-labs/quantlab/setting"
)

const (
	green = "\033[1;32m"
	reset = "\033[0m"
)

// newLab 內建 presets 加上 -presets 指定的目錄
func newLab(log *slog.Logger, dir string) (*quantlab.Lab, error) {
	cfgs := quantlab.Configs(presets.FS)
	if dir != "" {
		cfgs = append(cfgs, os.DirFS(dir))
	}
	return quantlab.New(log, cfgs)
}

// ============================================================
// ** queryFlags **
// ============================================================

// queryFlags 分布族參數的旗標；-preset 與 -family 二擇一。
type queryFlags struct {
	preset  string
	family  string
	p       float64
	mean    float64
	sd      float64
	rate    float64
	success float64
	startAt int
	lambda  float64
	trials  int
	lower   float64
	upper   float64
	labels  string
	probs   string
}

func (qf *queryFlags) bind(f *flag.FlagSet, withP bool) {
	f.StringVar(&qf.preset, "preset", "", "preset name (see `run presets`)")
	f.StringVar(&qf.family, "family", "", "distribution family (see `run families`)")
	if withP {
		f.Float64Var(&qf.p, "p", 0.5, "target probability")
	}
	f.Float64Var(&qf.mean, "mean", 0, "normal mean")
	f.Float64Var(&qf.sd, "sd", 1, "normal standard deviation")
	f.Float64Var(&qf.rate, "rate", 1, "exponential rate")
	f.Float64Var(&qf.success, "success", 0.5, "success probability (geometric / binomial)")
	f.IntVar(&qf.startAt, "start-at", 1, "geometric first trial index")
	f.Float64Var(&qf.lambda, "lambda", 1, "poisson mean")
	f.IntVar(&qf.trials, "trials", 10, "binomial trials")
	f.Float64Var(&qf.lower, "lower", math.Inf(-1), "truncation lower bound")
	f.Float64Var(&qf.upper, "upper", math.Inf(1), "truncation upper bound")
	f.StringVar(&qf.labels, "labels", "", "empirical labels, comma separated")
	f.StringVar(&qf.probs, "probs", "", "empirical probabilities, comma separated")
}

// query 組出查詢；使用 preset 時只有明確給定的 -p 會覆寫預設機率。
func (qf *queryFlags) query(lab *quantlab.Lab, f *flag.FlagSet) (quantile.Query, error) {
	pSet := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "p" {
			pSet = true
		}
	})

	switch {
	case qf.preset != "" && qf.family != "":
		return quantile.Query{}, errs.Invalidf("-preset and -family are mutually exclusive")
	case qf.preset != "":
		ps, err := lab.Preset(qf.preset)
		if err != nil {
			return quantile.Query{}, err
		}
		if pSet {
			return ps.ToQuery(qf.p), nil
		}
		return ps.Default(), nil
	case qf.family == "":
		return quantile.Query{}, errs.Invalidf("either -preset or -family is required")
	}

	fam, err := quantile.ParseFamily(qf.family)
	if err != nil {
		return quantile.Query{}, err
	}
	probs, err := parseFloats(qf.probs)
	if err != nil {
		return quantile.Query{}, err
	}
	return quantile.Query{
		Family:        fam,
		P:             qf.p,
		Mean:          qf.mean,
		StdDev:        qf.sd,
		Rate:          qf.rate,
		Success:       qf.success,
		StartAt:       qf.startAt,
		Lambda:        qf.lambda,
		Trials:        qf.trials,
		Lower:         qf.lower,
		Upper:         qf.upper,
		Labels:        splitList(qf.labels),
		Probabilities: probs,
	}, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseFloats(s string) ([]float64, error) {
	parts := splitList(s)
	out := make([]float64, 0, len(parts))
	for _, v := range parts {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errs.Invalidf("invalid number %q", v)
		}
		out = append(out, f)
	}
	return out, nil
}

// ============================================================
// ** 檔案讀寫 **
// ============================================================

func readBatch(path string) (*setting.Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "read batch file")
	}
	return setting.GetBatchByExt(path, raw)
}

// createOutput 依副檔名決定壓縮：.zst → zstd，.gz → gzip，其餘原樣。
// 回傳的 Closer 會先收尾壓縮器再關檔。
func createOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(err, "create output")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			f.Close()
			return nil, errs.Wrap(err, "zstd writer")
		}
		return &stackedWriter{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case ".gz":
		gw := gzip.NewWriter(f)
		return &stackedWriter{Writer: gw, closers: []io.Closer{gw, f}}, nil
	default:
		return f, nil
	}
}

// outputFormat 未指定 -format 時依副檔名推斷（去掉壓縮副檔名後）
func outputFormat(path string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(path), ".zst"), ".gz")
	switch filepath.Ext(base) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriter) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
