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

import "github.com/zintix-labs/quantlab/dist"

// 截斷分布的做法：
//  1. 先算母分布在 lower / upper 的 CDF
//  2. 把 p 線性映射到 [CDF(lower), CDF(upper)]：adjusted = cl + p·(cu - cl)
//  3. 以母分布的反 CDF 求解
//
// 若 cl 與 cu 在數值上相等（區間極窄或落在極端尾部），結果會收斂到某一端點。
// 這是可接受的退化行為，不視為錯誤；Eval 會以 Result.Degenerate 標示。

// TruncatedNormal 截斷常態分布反 CDF。
func (e Engine) TruncatedNormal(mean, sd, p float64, b Bounds) (float64, error) {
	x, _, err := e.truncatedNormal(mean, sd, p, b)
	return x, err
}

// TruncatedExponential 截斷指數分布反 CDF。
func (e Engine) TruncatedExponential(rate, p float64, b Bounds) (float64, error) {
	x, _, err := e.truncatedExponential(rate, p, b)
	return x, err
}

func (e Engine) truncatedNormal(mean, sd, p float64, b Bounds) (float64, bool, error) {
	if err := b.Validate(); err != nil {
		return 0, false, err
	}
	if err := (NormalParams{Mean: mean, StdDev: sd}).Validate(); err != nil {
		return 0, false, err
	}
	if err := checkProb(p); err != nil {
		return 0, false, err
	}
	p = ClampOpen(p)

	// 標準化
	zl := (b.Lower - mean) / sd
	zu := (b.Upper - mean) / sd

	// 兩端都在右半邊時，CDF 都貼近 1，相減會吃掉有效位數。
	// 改在左尾鏡像計算：[-zu, -zl]、1-p，最後再取負號，數學上完全等價。
	mirror := zl > 0
	if mirror {
		zl, zu, p = -zu, -zl, 1-p
	}

	unit := dist.UnitNormal(e.provider())
	cl, cu := unit.CDF(zl), unit.CDF(zu)
	adjusted := cl + p*(cu-cl)
	z := unit.Quantile(ClampOpen(adjusted))
	if mirror {
		z = -z
	}
	return clampRange(mean+z*sd, b.Lower, b.Upper), cu <= cl, nil
}

func (e Engine) truncatedExponential(rate, p float64, b Bounds) (float64, bool, error) {
	if err := b.Validate(); err != nil {
		return 0, false, err
	}
	if err := (ExponentialParams{Rate: rate}).Validate(); err != nil {
		return 0, false, err
	}
	if err := checkProb(p); err != nil {
		return 0, false, err
	}
	p = ClampOpen(p)

	// 無記憶性：X | X ∈ [a,b] 與 a + (X | X ∈ [0,b-a]) 同分布（a > 0）。
	// 先平移到 0 再算，避免 a 很大時 CDF(a) 貼近 1 造成退化。
	shift := max(b.Lower, 0)
	lo, hi := b.Lower-shift, b.Upper-shift

	ex := e.provider().Exponential(rate)
	cl, cu := ex.CDF(lo), ex.CDF(hi)
	adjusted := cl + p*(cu-cl)
	x := ex.Quantile(min(adjusted, MaxProb))
	return clampRange(shift+x, b.Lower, b.Upper), cu <= cl, nil
}
