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

package quantile

import (
	"math"

	"github.com/zintix-labs/quantlab/errs"
)

var (
	// ErrInvalidArgument 參數錯誤的 sentinel，可用 errors.Is 判斷。
	ErrInvalidArgument = errs.NewCode(errs.Warn, errs.InvalidArgument, "invalid argument")
	// ErrNoConvergence 搜尋上界超過防護上限（MaxDoublings / MaxSearchBound）。
	ErrNoConvergence = errs.NewCode(errs.Fatal, errs.NonConvergent, "quantile search did not converge")
)

func invalidf(format string, a ...any) error {
	return errs.Invalidf(format, a...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalParams 常態分布參數
type NormalParams struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"sd" yaml:"sd"`
}

func (np NormalParams) Validate() error {
	if !isFinite(np.Mean) {
		return invalidf("normal: mean must be finite, got %v", np.Mean)
	}
	if !isFinite(np.StdDev) || np.StdDev <= 0 {
		return invalidf("normal: standard deviation must be > 0, got %v", np.StdDev)
	}
	return nil
}

// ExponentialParams 指數分布參數
type ExponentialParams struct {
	Rate float64 `json:"rate" yaml:"rate"`
}

func (ep ExponentialParams) Validate() error {
	if !isFinite(ep.Rate) || ep.Rate <= 0 {
		return invalidf("exponential: rate must be > 0, got %v", ep.Rate)
	}
	return nil
}

// GeometricParams 幾何分布參數；StartAt 為第一次試驗的編號（通常是 0 或 1）。
type GeometricParams struct {
	Success float64 `json:"success" yaml:"success"`
	StartAt int     `json:"start_at" yaml:"start_at"`
}

func (gp GeometricParams) Validate() error {
	return checkSuccess("geometric", gp.Success)
}

// PoissonParams 卜瓦松分布參數
type PoissonParams struct {
	Lambda float64 `json:"lambda" yaml:"lambda"`
}

func (pp PoissonParams) Validate() error {
	if !isFinite(pp.Lambda) || pp.Lambda <= 0 {
		return invalidf("poisson: lambda must be > 0, got %v", pp.Lambda)
	}
	return nil
}

// BinomialParams 二項分布參數
type BinomialParams struct {
	Trials  int     `json:"trials" yaml:"trials"`
	Success float64 `json:"success" yaml:"success"`
}

func (bp BinomialParams) Validate() error {
	if bp.Trials < 0 {
		return invalidf("binomial: trials must be >= 0, got %d", bp.Trials)
	}
	return checkSuccess("binomial", bp.Success)
}

// Bounds 截斷區間，必須 Lower < Upper。允許 ±Inf。
type Bounds struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

func (b Bounds) Validate() error {
	if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
		return invalidf("bounds must not be NaN")
	}
	if b.Lower >= b.Upper {
		return invalidf("lower bound must be less than upper bound, got [%v, %v]", b.Lower, b.Upper)
	}
	return nil
}

func checkSuccess(family string, q float64) error {
	// NaN 在兩個比較都會是 false，所以要寫成「不在區間內」
	if !(q > 0 && q < 1) {
		return invalidf("%s: success probability must be in (0,1), got %v", family, q)
	}
	return nil
}
