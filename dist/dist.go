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

// Package dist 定義分位數引擎所依賴的「特殊函數能力」（CDF / 反 CDF）。
//
// 引擎本身不綁定任何數值函式庫：它只面向 Provider 介面取得各分布族的 CDF 與反 CDF。
// 預設實作 Gonum 以 gonum.org/v1/gonum/stat/distuv 提供（誤差函數、不完全 Gamma / Beta）。
// 若要替換成其他數值後端，只需實作 Provider。
//
// 注意：Provider 回傳的分布值不做參數檢查，參數合法性由 quantile 套件在呼叫前負責。
package dist

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Continuous 連續分布：可計算 CDF 與其反函數。
type Continuous interface {
	CDF(x float64) float64
	Quantile(p float64) float64
}

// Discrete 離散分布：只需 CDF（x 取整數值，以 float64 傳入以對齊 distuv）。
type Discrete interface {
	CDF(x float64) float64
}

// Provider 依參數建立各分布族的數值能力。
type Provider interface {
	Normal(mu, sigma float64) Continuous
	Exponential(rate float64) Continuous
	Poisson(lambda float64) Discrete
	Binomial(n int, p float64) Discrete
}

// Gonum 以 gonum distuv 實作 Provider。零值即可使用。
type Gonum struct{}

var _ Provider = Gonum{}

func (Gonum) Normal(mu, sigma float64) Continuous {
	return distuv.Normal{Mu: mu, Sigma: sigma}
}

func (Gonum) Exponential(rate float64) Continuous {
	return exponential{distuv.Exponential{Rate: rate}}
}

func (Gonum) Poisson(lambda float64) Discrete {
	return distuv.Poisson{Lambda: lambda}
}

func (Gonum) Binomial(n int, p float64) Discrete {
	return distuv.Binomial{N: float64(n), P: p}
}

// UnitNormal 標準常態（mu=0, sigma=1）。
func UnitNormal(p Provider) Continuous {
	return p.Normal(0, 1)
}

// exponential 覆寫 distuv.Exponential 的 CDF / Quantile，改用 Expm1 / Log1p。
// distuv 以 -Log(1-p) 計算，p 很小時 1-p 會吃掉有效位數（p < 1e-16 直接得到 0）。
type exponential struct {
	distuv.Exponential
}

func (e exponential) CDF(x float64) float64 {
	if x < 0 {
		return 0
	}
	return -math.Expm1(-e.Rate * x)
}

func (e exponential) Quantile(p float64) float64 {
	if p < 0 || p > 1 {
		panic("dist: exponential quantile probability out of range")
	}
	return -math.Log1p(-p) / e.Rate
}
