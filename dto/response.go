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

package dto

import (
	"github.com/zintix-labs/quantlab/quantile"
)

// QueryResponse 單筆查詢回應
type QueryResponse struct {
	quantile.Result
	Params string `json:"params"`
}

func NewQueryResponse(q quantile.Query, r quantile.Result) QueryResponse {
	return QueryResponse{Result: r, Params: q.Describe()}
}

// FamilyInfo 分布族說明
type FamilyInfo struct {
	Name     quantile.Family `json:"name"`
	Discrete bool            `json:"discrete"`
	Params   []string        `json:"params"`
}

var familyParams = map[quantile.Family][]string{
	quantile.FamilyNormal:               {"mean", "sd"},
	quantile.FamilyExponential:          {"rate"},
	quantile.FamilyTruncatedNormal:      {"mean", "sd", "lower", "upper"},
	quantile.FamilyTruncatedExponential: {"rate", "lower", "upper"},
	quantile.FamilyGeometric:            {"success", "start_at"},
	quantile.FamilyPoisson:              {"lambda"},
	quantile.FamilyBinomial:             {"trials", "success"},
	quantile.FamilyEmpirical:            {"labels", "probabilities"},
}

// Families 依固定順序列出所有分布族與其參數
func Families() []FamilyInfo {
	fams := quantile.Families()
	out := make([]FamilyInfo, 0, len(fams))
	for _, f := range fams {
		out = append(out, FamilyInfo{Name: f, Discrete: f.Discrete(), Params: familyParams[f]})
	}
	return out
}
