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

package setting

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/quantile"
)

// Batch 一次送出多筆查詢。每筆 Item 擇一指定 Preset（具名）或 Query（內嵌參數）。
type Batch struct {
	Name  string `yaml:"name"  json:"name,omitempty"`
	Items []Item `yaml:"items" json:"items"`
}

// Item 批次中的一筆查詢。
// P 未給時：Preset 用其預設機率、Query 用其自身的 p。
type Item struct {
	Preset string          `yaml:"preset,omitempty" json:"preset,omitempty"`
	Query  *quantile.Query `yaml:"query,omitempty"  json:"query,omitempty"`
	P      *float64        `yaml:"p,omitempty"      json:"p,omitempty"`
}

// IsPreset 是否以具名 preset 查詢
func (it Item) IsPreset() bool {
	return it.Preset != ""
}

// Resolve 對內嵌 Query 套用 P；Preset 類型的 Item 需由呼叫端查表。
func (it Item) Resolve() quantile.Query {
	q := *it.Query
	if it.P != nil {
		q.P = *it.P
	}
	return q
}

func (b *Batch) init() error {
	for i := range b.Items {
		it := &b.Items[i]
		it.Preset = strings.ToLower(strings.TrimSpace(it.Preset))
		if it.Query != nil {
			fam, err := quantile.ParseFamily(string(it.Query.Family))
			if err != nil {
				return errs.Wrap(err, fmt.Sprintf("batch item[%d]", i))
			}
			it.Query.Family = fam
		}
	}
	return b.valid()
}

// valid 只檢查結構（擇一、非空），參數錯誤留給逐筆求值時回報，不讓單筆錯誤擋下整批。
func (b *Batch) valid() error {
	if len(b.Items) == 0 {
		return errs.Invalidf("batch: empty items")
	}
	for i, it := range b.Items {
		switch {
		case it.Preset == "" && it.Query == nil:
			return errs.Invalidf("batch item[%d]: preset or query required", i)
		case it.Preset != "" && it.Query != nil:
			return errs.Invalidf("batch item[%d]: preset and query are mutually exclusive", i)
		}
	}
	return nil
}
