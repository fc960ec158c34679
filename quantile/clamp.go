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

import "math"

var (
	// MinProb 開區間下界：float64 可表示的最小正數。
	MinProb = math.SmallestNonzeroFloat64
	// MaxProb 開區間上界：小於 1 的最大 float64（1 - 2^-53）。
	// 注意不能用 1 - SmallestNonzeroFloat64，那在 float64 下會直接等於 1。
	MaxProb = math.Nextafter(1, 0)
)

// ClampOpen 把 p 夾進 [MinProb, MaxProb]，保證結果嚴格落在 (0,1)。
// 用於邊界上反 CDF 為無限大或未定義的分布族。
func ClampOpen(p float64) float64 {
	return min(max(p, MinProb), MaxProb)
}

// ClampClosed 把 p 夾進 [0,1]。用於經驗離散分布（邊界機率有定義）。
func ClampClosed(p float64) float64 {
	return min(max(p, 0), 1)
}

// checkProb 機率一律夾取而非拒絕；唯一例外是 NaN（無法夾取）。
func checkProb(p float64) error {
	if math.IsNaN(p) {
		return invalidf("probability is NaN")
	}
	return nil
}

// clampRange 浮點誤差不可讓截斷結果落到界外。
func clampRange(x, lo, hi float64) float64 {
	return min(max(x, lo), hi)
}
