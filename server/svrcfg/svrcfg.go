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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/server/logger"
)

const (
	DefaultAddr     = ":5808"
	DefaultTimeout  = 5 * time.Second
	DefaultMaxBatch = 1000
	DefaultMaxGrid  = 10001
)

type SvrCfg struct {
	Log      *slog.Logger
	Lab      *quantlab.Lab
	Addr     string
	Timeout  time.Duration // 單一請求的計算時限
	MaxBatch int           // 單次批次最多筆數
	MaxGrid  int           // 單次 sweep 最多機率點
	Workers  int           // sweep 並行數
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	// 100ms <= Timeout <= 60s
	if sc.Timeout <= 0 {
		sc.Timeout = DefaultTimeout
	}
	sc.Timeout = min(max(sc.Timeout, 100*time.Millisecond), 60*time.Second)
	if sc.MaxBatch <= 0 {
		sc.MaxBatch = DefaultMaxBatch
	}
	if sc.MaxGrid <= 0 {
		sc.MaxGrid = DefaultMaxGrid
	}
	// 1 <= Workers <= 64
	sc.Workers = min(64, max(1, sc.Workers))
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}

// Env 可由環境變數覆寫的設定
type Env struct {
	Addr     string         `env:"QUANTLAB_ADDR"      envDefault:":5808"`
	LogMode  logger.LogMode `env:"QUANTLAB_LOG_MODE"  envDefault:"dev"`
	Timeout  time.Duration  `env:"QUANTLAB_TIMEOUT"   envDefault:"5s"`
	MaxBatch int            `env:"QUANTLAB_MAX_BATCH" envDefault:"1000"`
	MaxGrid  int            `env:"QUANTLAB_MAX_GRID"  envDefault:"10001"`
	Workers  int            `env:"QUANTLAB_WORKERS"   envDefault:"4"`
}

// LoadEnv 讀取環境變數；未設定的欄位使用預設值
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errs.Wrap(err, "parse env")
	}
	return e, nil
}

// Apply 把環境設定套用到 SvrCfg（不含 Log / Lab）
func (e Env) Apply(sc *SvrCfg) {
	sc.Addr = e.Addr
	sc.Timeout = e.Timeout
	sc.MaxBatch = e.MaxBatch
	sc.MaxGrid = e.MaxGrid
	sc.Workers = e.Workers
}
