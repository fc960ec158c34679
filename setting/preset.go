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

// Preset 具名的分布設定。
//
// 參數欄位直接沿用 quantile.Query（inline 展開），設定檔中的 p 為預設機率：
// 呼叫端未指定 p 時（例如 GET /v1/presets/{name} 不帶 ?p=）使用。
type Preset struct {
	Name           string `yaml:"name"        json:"name"`
	Description    string `yaml:"description" json:"description,omitempty"`
	quantile.Query `yaml:",inline"`
}

// init 正規化名稱與分布族後做檢查
func (ps *Preset) init() error {
	ps.Name = strings.ToLower(strings.TrimSpace(ps.Name))
	fam, err := quantile.ParseFamily(string(ps.Family))
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("preset %q", ps.Name))
	}
	ps.Family = fam
	return ps.valid()
}

func (ps *Preset) valid() error {
	if ps.Name == "" {
		return errs.Invalidf("preset name required")
	}
	if err := ps.Query.Validate(); err != nil {
		return errs.Wrap(err, fmt.Sprintf("preset %q", ps.Name))
	}
	return nil
}

// ToQuery 以指定機率產生查詢
func (ps *Preset) ToQuery(p float64) quantile.Query {
	return ps.Query.WithP(p)
}

// Default 以設定檔中的預設機率產生查詢
func (ps *Preset) Default() quantile.Query {
	return ps.Query
}
