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
	"fmt"
	"os"

	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/presets"
	"github.com/zintix-labs/quantlab/server"
	"github.com/zintix-labs/quantlab/server/logger"
	"github.com/zintix-labs/quantlab/server/svrcfg"
)

// quantlab HTTP 服務入口。
// 設定優先序：命令列旗標 > 環境變數（QUANTLAB_*）> 預設值。
func main() {
	sCfg, closeLog, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*svrcfg.SvrCfg, func(), error) {
	envCfg, err := svrcfg.LoadEnv()
	if err != nil {
		return nil, nil, err
	}

	flag.StringVar(&envCfg.Addr, "addr", envCfg.Addr, "listen address")
	flag.TextVar(&envCfg.LogMode, "log-mode", envCfg.LogMode, "log mode: dev|prod|silence")
	flag.DurationVar(&envCfg.Timeout, "timeout", envCfg.Timeout, "per-request evaluation timeout")
	flag.IntVar(&envCfg.MaxBatch, "max-batch", envCfg.MaxBatch, "max items per batch request")
	flag.IntVar(&envCfg.MaxGrid, "max-grid", envCfg.MaxGrid, "max probabilities per sweep request")
	flag.IntVar(&envCfg.Workers, "workers", envCfg.Workers, "sweep workers per request")
	presetsDir := flag.String("presets", "", "extra preset directory (flat, *.yaml|*.yml|*.json)")
	flag.Parse()

	log, ah := logger.NewModeLogger(envCfg.LogMode, true)
	closeLog := func() {
		if ah != nil {
			ah.Close()
		}
	}

	cfgs := quantlab.Configs(presets.FS)
	if *presetsDir != "" {
		cfgs = append(cfgs, os.DirFS(*presetsDir))
	}
	lab, err := quantlab.New(log, cfgs)
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	sCfg := &svrcfg.SvrCfg{Log: log, Lab: lab}
	envCfg.Apply(sCfg)
	return sCfg, closeLog, nil
}
