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
	"slices"
	"sort"
)

// Table 經驗離散分布：labels 與 probabilities 平行對應。
//
// 建立時一次算好累積和 cdf（長度 n+1，cdf[0]=0），之後查詢不再配置記憶體，可重複且並行使用。
// 不要求機率總和為 1（不做正規化），只要求每一項非負，累積和因此單調不減。
type Table[T any] struct {
	labels []T
	cdf    []float64
}

// NewTable 檢查長度一致、非空、機率非負後建立查找表。
func NewTable[T any](labels []T, probabilities []float64) (*Table[T], error) {
	if len(labels) != len(probabilities) {
		return nil, invalidf("empirical: labels and probabilities length mismatch (%d != %d)", len(labels), len(probabilities))
	}
	if len(labels) == 0 {
		return nil, invalidf("empirical: empty table")
	}
	cdf := make([]float64, len(probabilities)+1)
	for i, w := range probabilities {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, invalidf("empirical: probability[%d] must be finite and >= 0, got %v", i, w)
		}
		cdf[i+1] = cdf[i] + w
	}
	return &Table[T]{labels: slices.Clone(labels), cdf: cdf}, nil
}

// Quantile 回傳第一個累積機率 ≥ p 的標籤。p 先夾進 [0,1]。
func (t *Table[T]) Quantile(p float64) (T, error) {
	i, err := t.Index(p)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.labels[i], nil
}

// Index 與 Quantile 相同，但回傳標籤的位置。
//
// 邊界：
//   - idx ≤ 0（p 落在 cdf[0]=0）→ 第一個標籤
//   - idx 超出 cdf（總和 < p）→ 最後一個標籤
func (t *Table[T]) Index(p float64) (int, error) {
	if err := checkProb(p); err != nil {
		return 0, err
	}
	p = ClampClosed(p)

	idx := sort.SearchFloat64s(t.cdf, p)
	switch {
	case idx <= 0:
		return 0, nil
	case idx >= len(t.cdf):
		return len(t.labels) - 1, nil
	}
	return idx - 1, nil
}

// Len 標籤數
func (t *Table[T]) Len() int { return len(t.labels) }

// Total 機率總和（不保證為 1）
func (t *Table[T]) Total() float64 { return t.cdf[len(t.cdf)-1] }

// Empirical 一次性查詢：每次呼叫都重新建表，重複查詢請改用 NewTable。
func Empirical[T any](labels []T, probabilities []float64, p float64) (T, error) {
	t, err := NewTable(labels, probabilities)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.Quantile(p)
}
