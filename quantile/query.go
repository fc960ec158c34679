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
	"slices"
	"strings"
)

// Family 分布族名稱
type Family string

const (
	FamilyNormal               Family = "normal"
	FamilyExponential          Family = "exponential"
	FamilyTruncatedNormal      Family = "truncated_normal"
	FamilyTruncatedExponential Family = "truncated_exponential"
	FamilyGeometric            Family = "geometric"
	FamilyPoisson              Family = "poisson"
	FamilyBinomial             Family = "binomial"
	FamilyEmpirical            Family = "empirical"
)

var families = []Family{
	FamilyNormal,
	FamilyExponential,
	FamilyTruncatedNormal,
	FamilyTruncatedExponential,
	FamilyGeometric,
	FamilyPoisson,
	FamilyBinomial,
	FamilyEmpirical,
}

// Families 回傳支援的分布族（固定順序）。
func Families() []Family {
	return slices.Clone(families)
}

// ParseFamily 大小寫不敏感，並接受 "-" 作為分隔（truncated-normal）。
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !slices.Contains(families, f) {
		return "", invalidf("unknown distribution family: %q", s)
	}
	return f, nil
}

// Discrete 是否為離散分布族
func (f Family) Discrete() bool {
	switch f {
	case FamilyGeometric, FamilyPoisson, FamilyBinomial, FamilyEmpirical:
		return true
	default:
		return false
	}
}

// Query 宣告式查詢：分布族 + 參數聯集 + 目標機率 P。
// 只有該分布族用得到的欄位會被讀取，其餘忽略。
type Query struct {
	Family Family  `json:"family" yaml:"family"`
	P      float64 `json:"p" yaml:"p"`

	Mean    float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev  float64 `json:"sd,omitempty" yaml:"sd,omitempty"`
	Rate    float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Success float64 `json:"success,omitempty" yaml:"success,omitempty"`
	StartAt int     `json:"start_at,omitempty" yaml:"start_at,omitempty"`
	Lambda  float64 `json:"lambda,omitempty" yaml:"lambda,omitempty"`
	Trials  int     `json:"trials,omitempty" yaml:"trials,omitempty"`
	Lower   float64 `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper   float64 `json:"upper,omitempty" yaml:"upper,omitempty"`

	Labels        []string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty" yaml:"probabilities,omitempty"`
}

// WithP 回傳換了目標機率的副本（Labels / Probabilities 共用底層陣列，唯讀）。
func (q Query) WithP(p float64) Query {
	q.P = p
	return q
}

func (q Query) bounds() Bounds {
	return Bounds{Lower: q.Lower, Upper: q.Upper}
}

// Validate 只檢查分布族與參數，不檢查 P（P 一律夾取）。
func (q Query) Validate() error {
	switch q.Family {
	case FamilyNormal:
		return NormalParams{Mean: q.Mean, StdDev: q.StdDev}.Validate()
	case FamilyExponential:
		return ExponentialParams{Rate: q.Rate}.Validate()
	case FamilyTruncatedNormal:
		if err := q.bounds().Validate(); err != nil {
			return err
		}
		return NormalParams{Mean: q.Mean, StdDev: q.StdDev}.Validate()
	case FamilyTruncatedExponential:
		if err := q.bounds().Validate(); err != nil {
			return err
		}
		return ExponentialParams{Rate: q.Rate}.Validate()
	case FamilyGeometric:
		return GeometricParams{Success: q.Success, StartAt: q.StartAt}.Validate()
	case FamilyPoisson:
		return PoissonParams{Lambda: q.Lambda}.Validate()
	case FamilyBinomial:
		return BinomialParams{Trials: q.Trials, Success: q.Success}.Validate()
	case FamilyEmpirical:
		_, err := NewTable(q.Labels, q.Probabilities)
		return err
	default:
		return invalidf("unknown distribution family: %q", q.Family)
	}
}

// Describe 參數摘要，例如 "poisson(lambda=4)"；報表標題用。
func (q Query) Describe() string {
	switch q.Family {
	case FamilyNormal:
		return fmt.Sprintf("normal(mean=%g, sd=%g)", q.Mean, q.StdDev)
	case FamilyExponential:
		return fmt.Sprintf("exponential(rate=%g)", q.Rate)
	case FamilyTruncatedNormal:
		return fmt.Sprintf("truncated_normal(mean=%g, sd=%g, [%g, %g])", q.Mean, q.StdDev, q.Lower, q.Upper)
	case FamilyTruncatedExponential:
		return fmt.Sprintf("truncated_exponential(rate=%g, [%g, %g])", q.Rate, q.Lower, q.Upper)
	case FamilyGeometric:
		return fmt.Sprintf("geometric(success=%g, start_at=%d)", q.Success, q.StartAt)
	case FamilyPoisson:
		return fmt.Sprintf("poisson(lambda=%g)", q.Lambda)
	case FamilyBinomial:
		return fmt.Sprintf("binomial(trials=%d, success=%g)", q.Trials, q.Success)
	case FamilyEmpirical:
		return fmt.Sprintf("empirical(n=%d)", len(q.Labels))
	default:
		return string(q.Family)
	}
}

// Result 查詢結果。離散分布族的 Value 為整數值；經驗分布另帶 Label。
type Result struct {
	Family     Family  `json:"family" yaml:"family"`
	P          float64 `json:"p" yaml:"p"`
	Value      float64 `json:"value" yaml:"value"`
	Label      string  `json:"label,omitempty" yaml:"label,omitempty"`
	Discrete   bool    `json:"discrete" yaml:"discrete"`
	Degenerate bool    `json:"degenerate,omitempty" yaml:"degenerate,omitempty"` // 截斷區間 CDF 質量為 0，結果塌縮到端點
}

// Eval 依 Family 分派到對應的分位數運算。
func (e Engine) Eval(q Query) (Result, error) {
	r := Result{Family: q.Family, P: q.P, Discrete: q.Family.Discrete()}
	var err error
	switch q.Family {
	case FamilyNormal:
		r.Value, err = e.Normal(q.Mean, q.StdDev, q.P)
	case FamilyExponential:
		r.Value, err = e.Exponential(q.Rate, q.P)
	case FamilyTruncatedNormal:
		r.Value, r.Degenerate, err = e.truncatedNormal(q.Mean, q.StdDev, q.P, q.bounds())
	case FamilyTruncatedExponential:
		r.Value, r.Degenerate, err = e.truncatedExponential(q.Rate, q.P, q.bounds())
	case FamilyGeometric:
		var k int
		k, err = e.Geometric(q.Success, q.P, q.StartAt)
		r.Value = float64(k)
	case FamilyPoisson:
		var k int
		k, err = e.Poisson(q.Lambda, q.P)
		r.Value = float64(k)
	case FamilyBinomial:
		var k int
		k, err = e.Binomial(q.Trials, q.Success, q.P)
		r.Value = float64(k)
	case FamilyEmpirical:
		var t *Table[string]
		if t, err = NewTable(q.Labels, q.Probabilities); err == nil {
			var i int
			if i, err = t.Index(q.P); err == nil {
				r.Label, r.Value = q.Labels[i], float64(i)
			}
		}
	default:
		err = invalidf("unknown distribution family: %q", q.Family)
	}
	if err != nil {
		return Result{}, err
	}
	return r, nil
}
