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

// Geometric 幾何分布反 CDF：回傳最小的 k ≥ startAt，使「在第 k 次試驗前（含）至少成功一次」的機率 ≥ p。
//
// 封閉解：n = ceil(ln(1-p) / ln(1-q))，結果為 n + (startAt - 1)。
// 小數一律無條件進位，確保 ≥ 門檻；n 至少為 1（第一次試驗本身）。
func (e Engine) Geometric(success, p float64, startAt int) (int, error) {
	if err := (GeometricParams{Success: success, StartAt: startAt}).Validate(); err != nil {
		return 0, err
	}
	if err := checkProb(p); err != nil {
		return 0, err
	}
	p = ClampOpen(p)

	lq := math.Log1p(-success)
	n := max(math.Ceil(math.Log1p(-p)/lq), 1)
	// 浮點誤差可能讓比值略大於整數而多進一位，退一格檢查是否已達標
	if n > 1 && geometricCDF(n-1, lq) >= p {
		n--
	}
	if n > MaxSearchBound {
		return 0, errs.WrapWithExtra(ErrNoConvergence, "geometric quantile exceeds integer range",
			"success probability too small for the requested p")
	}
	return int(n) + startAt - 1, nil
}

// geometricCDF 前 n 次試驗內至少成功一次的機率：1 - (1-q)^n
func geometricCDF(n, lq float64) float64 {
	return -math.Expm1(n * lq)
}
