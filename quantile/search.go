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
	"fmt"
	"math"

	"github.com/zintix-labs/quantlab/errs"
)

const (
	// MaxDoublings Poisson 上界倍增的最多輪數
	MaxDoublings = 64
	// MaxSearchBound 搜尋上界的硬上限（2^53，float64 仍可精確表示的整數）
	MaxSearchBound = 1 << 53
)

// SearchLeftmost 在 [lo, hi] 中找最小的 k 使 pred(k) 為 true（pred 須單調：false...false true...true）。
// 若整段都是 false，回傳 hi（呼叫端須自行驗證）。
func SearchLeftmost(lo, hi int, pred func(int) bool) int {
	for lo < hi {
		mid := lo + (hi-lo)/2 // 避免 overflow
		if !pred(mid) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Poisson 卜瓦松分布反 CDF。
//
// 沒有封閉解，以二分搜尋求最小 k 使 CDF(k) ≥ p。
// 初始上界取 ceil(5·lambda)，搜尋後驗證 CDF(k) ≥ p；不成立代表上界不足，倍增後再搜。
// 因為已驗證過 [0, 舊上界] 全部 < p，下一輪從舊上界開始即可。
// 倍增超過 MaxDoublings 輪或上界超過 MaxSearchBound 時回傳 ErrNoConvergence，不回傳錯誤答案。
func (e Engine) Poisson(lambda, p float64) (int, error) {
	if err := (PoissonParams{Lambda: lambda}).Validate(); err != nil {
		return 0, err
	}
	if err := checkProb(p); err != nil {
		return 0, err
	}
	p = ClampOpen(p)

	d := e.provider().Poisson(lambda)
	reached := func(k int) bool { return d.CDF(float64(k)) >= p }

	lo, hi := 0, initialPoissonBound(lambda)
	for round := 0; ; round++ {
		k := SearchLeftmost(lo, hi, reached)
		if reached(k) {
			return k, nil
		}
		if round >= MaxDoublings || hi >= MaxSearchBound {
			return 0, errs.WrapWithExtra(ErrNoConvergence, "poisson upper bound discovery exhausted",
				fmt.Sprintf("lambda=%v p=%v bound=%d rounds=%d", lambda, p, hi, round+1))
		}
		lo, hi = hi, min(hi*2, MaxSearchBound)
	}
}

func initialPoissonBound(lambda float64) int {
	b := math.Ceil(5 * lambda)
	if b < 1 {
		return 1
	}
	if b > MaxSearchBound {
		return MaxSearchBound
	}
	return int(b)
}

// Binomial 二項分布反 CDF。上界固定為 trials（CDF(trials) = 1），一次搜尋即可。
func (e Engine) Binomial(trials int, success, p float64) (int, error) {
	if err := (BinomialParams{Trials: trials, Success: success}).Validate(); err != nil {
		return 0, err
	}
	if err := checkProb(p); err != nil {
		return 0, err
	}
	p = ClampOpen(p)

	d := e.provider().Binomial(trials, success)
	return SearchLeftmost(0, trials, func(k int) bool {
		return d.CDF(float64(k)) >= p
	}), nil
}
