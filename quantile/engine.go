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

// Package quantile 是分位數引擎：給定分布族、參數與目標累積機率 p，求 x 使 CDF(x) ≈ p。
//
// 支援的分布族：
//   - 連續（封閉解）：Normal、Exponential
//   - 連續截斷（仿射轉換）：TruncatedNormal、TruncatedExponential
//   - 離散（封閉解）：Geometric
//   - 離散（單調二分搜尋）：Poisson、Binomial
//   - 經驗離散表：Empirical / Table
//
// 設計重點：
//   - 純函數、無副作用、無共享可變狀態：所有操作都可以在多個 goroutine 中直接並行呼叫。
//   - Engine 只持有一個唯讀的 dist.Provider（特殊函數能力），零值即可使用（預設 gonum）。
//   - 機率值一律「夾取」而非拒絕（NaN 除外）；分布參數不合法則立即回傳 ErrInvalidArgument 類錯誤。
//
// 典型使用：
//
//	x, err := quantile.Normal(0, 1, 0.975) // ≈ 1.96
//	k, err := quantile.Poisson(4, 0.5)     // 4
package quantile

import "github.com/zintix-labs/quantlab/dist"

// Engine 無狀態的分位數引擎。
type Engine struct {
	prov dist.Provider
}

// New 以指定的數值能力建立 Engine；p 為 nil 時使用 gonum。
func New(p dist.Provider) Engine {
	if p == nil {
		p = dist.Gonum{}
	}
	return Engine{prov: p}
}

var std = New(dist.Gonum{})

// Default 回傳以 gonum 為後端的預設引擎。
func Default() Engine { return std }

func (e Engine) provider() dist.Provider {
	if e.prov == nil {
		return dist.Gonum{}
	}
	return e.prov
}

// ============================================================
// ** 套件層級函數（預設引擎） **
// ============================================================

func Normal(mean, sd, p float64) (float64, error) {
	return std.Normal(mean, sd, p)
}

func Exponential(rate, p float64) (float64, error) {
	return std.Exponential(rate, p)
}

func TruncatedNormal(mean, sd, p float64, b Bounds) (float64, error) {
	return std.TruncatedNormal(mean, sd, p, b)
}

func TruncatedExponential(rate, p float64, b Bounds) (float64, error) {
	return std.TruncatedExponential(rate, p, b)
}

func Geometric(success, p float64, startAt int) (int, error) {
	return std.Geometric(success, p, startAt)
}

func Poisson(lambda, p float64) (int, error) {
	return std.Poisson(lambda, p)
}

func Binomial(trials int, success, p float64) (int, error) {
	return std.Binomial(trials, success, p)
}

func Eval(q Query) (Result, error) {
	return std.Eval(q)
}
