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

// run 是 quantlab 的命令列工具：單點查詢、批次、網格掃描與清單。
//
//	go run ./cmd/run quantile -family poisson -lambda 4 -p 0.95
//	go run ./cmd/run -p cpu sweep -preset latency -points 999 -o latency.json.zst
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/perf"
	"github.com/zintix-labs/quantlab/server/logger"
)

var (
	pprofMode  = flag.String("p", "", "pprof: '', cpu, heap, allocs")
	presetsDir = flag.String("presets", "", "extra preset directory (flat, *.yaml|*.yml|*.json)")
	logMode    = logger.ModeSilence
)

func main() {
	flag.TextVar(&logMode, "log-mode", logger.ModeSilence, "log mode: dev|prod|silence")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&quantileCmd{}, "query")
	subcommands.Register(&batchCmd{}, "query")
	subcommands.Register(&sweepCmd{}, "query")
	subcommands.Register(&familiesCmd{}, "catalog")
	subcommands.Register(&presetsCmd{}, "catalog")

	flag.Parse()

	mode, err := perf.ParseMode(*pprofMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	status := subcommands.ExitSuccess
	if err := perf.Run(func() {
		status = subcommands.Execute(context.Background())
	}, mode, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(int(status))
}

// exitErr 印出錯誤；參數錯誤回 usage error，其餘回 failure。
func exitErr(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	if errs.CodeOf(err) == errs.InvalidArgument {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
