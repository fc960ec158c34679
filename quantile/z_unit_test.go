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
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zintix-labs/quantlab/dist"
	"github.com/zintix-labs/quantlab/errs"
)

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Fatalf("[%s] got %.15g, want %.15g (tol %g)", name, got, want, tol)
	}
}

func assertInvalid(t *testing.T, name string, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("[%s] expected invalid argument error, got nil", name)
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("[%s] expected ErrInvalidArgument, got %v", name, err)
	}
}

// poissonCDFTable 以 pmf 遞迴式獨立計算 Poisson CDF（不經 gonum）
func poissonCDFTable(lambda float64, n int) []float64 {
	cdf := make([]float64, n+1)
	pmf := math.Exp(-lambda)
	acc := pmf
	cdf[0] = acc
	for k := 1; k <= n; k++ {
		pmf *= lambda / float64(k)
		acc += pmf
		cdf[k] = acc
	}
	return cdf
}

// binomialCDFTable 以組合數獨立計算 Binomial CDF
func binomialCDFTable(n int, q float64) []float64 {
	cdf := make([]float64, n+1)
	acc := 0.0
	for k := 0; k <= n; k++ {
		lc, _ := math.Lgamma(float64(n + 1))
		lk, _ := math.Lgamma(float64(k + 1))
		lnk, _ := math.Lgamma(float64(n - k + 1))
		acc += math.Exp(lc - lk - lnk + float64(k)*math.Log(q) + float64(n-k)*math.Log1p(-q))
		cdf[k] = acc
	}
	return cdf
}

// leftmost 在表中找最小 k 使 cdf[k] >= p
func leftmost(cdf []float64, p float64) int {
	for k, c := range cdf {
		if c >= p {
			return k
		}
	}
	return -1
}

// countingProvider 包一層 gonum 並計算 CDF 呼叫次數，用來驗證 Provider 可替換
type countingProvider struct {
	dist.Gonum
	calls *atomic.Int64
}

type countingDiscrete struct {
	d     dist.Discrete
	calls *atomic.Int64
}

func (c countingDiscrete) CDF(x float64) float64 {
	c.calls.Add(1)
	return c.d.CDF(x)
}

func (c countingProvider) Poisson(lambda float64) dist.Discrete {
	return countingDiscrete{d: c.Gonum.Poisson(lambda), calls: c.calls}
}

// stuckProvider 的 Poisson CDF 永遠為 0，模擬上界倍增永遠不收斂
type stuckProvider struct{ dist.Gonum }

type zeroCDF struct{}

func (zeroCDF) CDF(float64) float64 { return 0 }

func (stuckProvider) Poisson(float64) dist.Discrete { return zeroCDF{} }

// -----------------------------------------------------------------------------
// Tests for Clamp
// -----------------------------------------------------------------------------

// TestClampOpen 任何輸入（含 0、1、負數、>1、±Inf）都必須嚴格落在 (0,1)
func TestClampOpen(t *testing.T) {
	inputs := []float64{-1, 0, 1e-320, 0.5, 1, 2, math.Inf(1), math.Inf(-1)}
	for _, p := range inputs {
		c := ClampOpen(p)
		if !(c > 0 && c < 1) {
			t.Fatalf("ClampOpen(%v) = %v, want strictly inside (0,1)", p, c)
		}
	}
	if ClampOpen(0.25) != 0.25 {
		t.Fatalf("ClampOpen must not alter interior values")
	}
}

// TestClampClosed 輸出落在 [0,1]，邊界值保留
func TestClampClosed(t *testing.T) {
	cases := map[float64]float64{-3: 0, 0: 0, 0.4: 0.4, 1: 1, 7: 1}
	for in, want := range cases {
		if got := ClampClosed(in); got != want {
			t.Fatalf("ClampClosed(%v) = %v, want %v", in, got, want)
		}
	}
}

// -----------------------------------------------------------------------------
// Tests for Normal / Exponential
// -----------------------------------------------------------------------------

func TestNormalKnownValues(t *testing.T) {
	x, err := Normal(0, 1, 0.975)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "z975", x, 1.959963984540054, 1e-9)

	x, _ = Normal(10, 2, 0.5)
	assertClose(t, "median", x, 10, 1e-12)

	x, _ = Normal(0, 1, 0.025)
	assertClose(t, "z025", x, -1.959963984540054, 1e-9)
}

// TestNormalBoundaryIsFinite p=0 / p=1 不可得到 ±Inf
func TestNormalBoundaryIsFinite(t *testing.T) {
	for _, p := range []float64{0, 1, -5, 5} {
		x, err := Normal(3, 2, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.IsInf(x, 0) || math.IsNaN(x) {
			t.Fatalf("Normal(p=%v) = %v, want finite", p, x)
		}
	}
	lo, _ := Normal(0, 1, 0)
	hi, _ := Normal(0, 1, 1)
	if !(lo < -8 && hi > 8) {
		t.Fatalf("extreme quantiles too narrow: lo=%v hi=%v", lo, hi)
	}
}

func TestExponential(t *testing.T) {
	x, err := Exponential(2, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "median", x, math.Ln2/2, 1e-12)

	x, _ = Exponential(1, 0)
	if x < 0 || x > 1e-300 {
		t.Fatalf("Exponential(p=0) = %v, want ~0", x)
	}
	x, _ = Exponential(1, 1)
	if math.IsInf(x, 0) || x < 30 {
		t.Fatalf("Exponential(p=1) = %v, want large finite", x)
	}
}

func assertRelClose(t *testing.T, name string, got, want, rel float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > rel*math.Abs(want) {
		t.Fatalf("[%s] got %.17g, want %.17g (rel %g)", name, got, want, rel)
	}
}

// TestNormalTailAccuracy 尾端相對誤差 ≤ 1e-6。
// 1-p 很小時以 Φ(-x) 對 1-p 回推（1-p 在 p > 0.5 時可精確相減）。
func TestNormalTailAccuracy(t *testing.T) {
	x, _ := Normal(0, 1, 1e-10)
	assertRelClose(t, "z(1e-10)", x, -6.361340902404056, 1e-9)
	x, _ = Normal(0, 1, 0.001)
	assertRelClose(t, "z(1e-3)", x, -3.090232306167813, 1e-10)

	unit := dist.UnitNormal(dist.Gonum{})
	for _, p := range []float64{1e-300, 1e-100, 1e-12, 1e-10} {
		x, err := Normal(0, 1, p)
		if err != nil || math.IsInf(x, 0) {
			t.Fatalf("p=%v: x=%v err=%v", p, x, err)
		}
		assertRelClose(t, "lower tail CDF roundtrip", unit.CDF(x), p, 1e-8)
	}
	for _, q := range []float64{1e-12, 1e-15} {
		p := 1 - q
		x, err := Normal(0, 1, p)
		if err != nil || math.IsInf(x, 0) || x < 7 {
			t.Fatalf("p=1-%v: x=%v err=%v", q, x, err)
		}
		assertRelClose(t, "upper tail CDF roundtrip", unit.CDF(-x), 1-p, 1e-8)
	}
	// 平移縮放不改變相對精度
	x, _ = Normal(100, 15, 1e-10)
	assertRelClose(t, "scaled", x, 100+15*-6.361340902404056, 1e-10)
}

// TestExponentialTailAccuracy 與 -Log1p(-p)/rate 比對：主體 1e-10，尾端 1e-6
func TestExponentialTailAccuracy(t *testing.T) {
	cases := []struct {
		rate, p, rel float64
	}{
		{1, 1e-300, 1e-6},
		{1, 1e-17, 1e-6},
		{1, 1e-12, 1e-6},
		{3, 1e-8, 1e-6},
		{2, 0.1, 1e-10},
		{2, 0.5, 1e-10},
		{0.5, 0.9, 1e-10},
		{1, 1 - 1e-12, 1e-6},
	}
	for _, c := range cases {
		x, err := Exponential(c.rate, c.p)
		if err != nil {
			t.Fatalf("rate=%v p=%v: %v", c.rate, c.p, err)
		}
		assertRelClose(t, "exponential", x, -math.Log1p(-c.p)/c.rate, c.rel)
	}
	// 1e-12 的分位數約為 1e-12，不可因 1-p 捨入而偏離
	x, _ := Exponential(1, 1e-12)
	assertRelClose(t, "Exponential(1,1e-12)", x, 1.0000000000005e-12, 1e-9)
}

// TestContinuousInvalidParams 非正的尺度參數要直接失敗（不可取絕對值）
func TestContinuousInvalidParams(t *testing.T) {
	_, err := Normal(0, 0, 0.5)
	assertInvalid(t, "sd=0", err)
	_, err = Normal(0, -1, 0.5)
	assertInvalid(t, "sd<0", err)
	_, err = Normal(math.NaN(), 1, 0.5)
	assertInvalid(t, "mean NaN", err)
	_, err = Normal(0, 1, math.NaN())
	assertInvalid(t, "p NaN", err)
	_, err = Exponential(0, 0.5)
	assertInvalid(t, "rate=0", err)
	_, err = Exponential(-2, 0.5)
	assertInvalid(t, "rate<0", err)
}

// -----------------------------------------------------------------------------
// Tests for Truncated
// -----------------------------------------------------------------------------

// TestTruncatedNormalEndpoints 端點機率必須映射回截斷邊界
func TestTruncatedNormalEndpoints(t *testing.T) {
	b := Bounds{Lower: -1, Upper: 1}
	lo, err := TruncatedNormal(0, 1, 0, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hi, _ := TruncatedNormal(0, 1, 1, b)
	mid, _ := TruncatedNormal(0, 1, 0.5, b)
	assertClose(t, "p=0", lo, -1, 1e-6)
	assertClose(t, "p=1", hi, 1, 1e-6)
	assertClose(t, "p=0.5", mid, 0, 1e-9)
}

func TestTruncatedNormalShifted(t *testing.T) {
	b := Bounds{Lower: 90, Upper: 130}
	for _, p := range []float64{0, 0.1, 0.5, 0.9, 1} {
		x, err := TruncatedNormal(100, 15, p, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if x < b.Lower || x > b.Upper {
			t.Fatalf("p=%v: %v outside bounds %v", p, x, b)
		}
	}
	// 區間涵蓋幾乎全部質量時，應接近未截斷的常態
	x, _ := TruncatedNormal(100, 15, 0.5, Bounds{Lower: -1e6, Upper: 1e6})
	assertClose(t, "wide bounds", x, 100, 1e-9)
}

// TestTruncatedNormalUpperTail 右尾區間以鏡像計算，不應退化成端點
func TestTruncatedNormalUpperTail(t *testing.T) {
	r, err := Default().Eval(Query{Family: FamilyTruncatedNormal, Mean: 0, StdDev: 1, Lower: 8, Upper: 9, P: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Degenerate {
		t.Fatalf("upper tail interval should not be degenerate")
	}
	if !(r.Value > 8.05 && r.Value < 8.15) {
		t.Fatalf("median of N(0,1) on [8,9] = %v, want ~8.087", r.Value)
	}
}

// TestTruncatedNormalDegenerate 兩端 CDF 都下溢為 0：結果塌縮到端點但不是錯誤
func TestTruncatedNormalDegenerate(t *testing.T) {
	r, err := Default().Eval(Query{Family: FamilyTruncatedNormal, Mean: 0, StdDev: 1, Lower: -60, Upper: -50, P: 0.5})
	if err != nil {
		t.Fatalf("degenerate bounds must not fail: %v", err)
	}
	if !r.Degenerate {
		t.Fatalf("expected degenerate flag")
	}
	if r.Value < -60 || r.Value > -50 {
		t.Fatalf("degenerate result %v outside bounds", r.Value)
	}
}

func TestTruncatedExponential(t *testing.T) {
	b := Bounds{Lower: 0, Upper: 1}
	x, err := TruncatedExponential(1, 0.5, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 封閉解：x = -ln(1 - p(1 - e^{-b}))
	assertClose(t, "closed form", x, -math.Log(1-0.5*(1-math.Exp(-1))), 1e-9)

	lo, _ := TruncatedExponential(1, 0, b)
	hi, _ := TruncatedExponential(1, 1, b)
	assertClose(t, "p=0", lo, 0, 1e-9)
	assertClose(t, "p=1", hi, 1, 1e-9)

	// 無記憶性：[5,6] 等於 5 + [0,1]
	shifted, _ := TruncatedExponential(1, 0.5, Bounds{Lower: 5, Upper: 6})
	assertClose(t, "memoryless", shifted, 5+x, 1e-9)

	// 遠尾區間仍可正確計算
	far, _ := TruncatedExponential(1, 0.5, Bounds{Lower: 100, Upper: 101})
	assertClose(t, "far tail", far, 100+x, 1e-9)

	// 無上界
	open, _ := TruncatedExponential(2, 1, Bounds{Lower: 0, Upper: math.Inf(1)})
	if math.IsInf(open, 0) {
		t.Fatalf("unbounded truncation must stay finite")
	}
}

// TestTruncatedExponentialNarrowInterval 貼近 0 的極窄區間仍落在區間中點附近，不塌縮到下界
func TestTruncatedExponentialNarrowInterval(t *testing.T) {
	for _, upper := range []float64{1e-12, 1e-17} {
		r, err := Default().Eval(Query{Family: FamilyTruncatedExponential, Rate: 1, Lower: 0, Upper: upper, P: 0.5})
		if err != nil {
			t.Fatalf("upper=%v: %v", upper, err)
		}
		if r.Degenerate {
			t.Fatalf("upper=%v: interval carries mass, must not be degenerate", upper)
		}
		assertRelClose(t, "narrow median", r.Value, upper/2, 1e-6)
	}
}

// TestTruncatedInvalidBounds lower >= upper 兩種截斷都要回 invalid-argument
func TestTruncatedInvalidBounds(t *testing.T) {
	bad := []Bounds{{Lower: 1, Upper: -1}, {Lower: 2, Upper: 2}, {Lower: math.NaN(), Upper: 1}}
	for _, b := range bad {
		_, err := TruncatedNormal(0, 1, 0.5, b)
		assertInvalid(t, "truncated normal", err)
		_, err = TruncatedExponential(1, 0.5, b)
		assertInvalid(t, "truncated exponential", err)
	}
	_, err := TruncatedNormal(0, 0, 0.5, Bounds{Lower: -1, Upper: 1})
	assertInvalid(t, "truncated normal sd=0", err)
}

// -----------------------------------------------------------------------------
// Tests for Geometric
// -----------------------------------------------------------------------------

// TestGeometricFairCoin 公平硬幣、從 1 開始計數，中位數為 1
func TestGeometricFairCoin(t *testing.T) {
	k, err := Geometric(0.5, 0.5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != 1 {
		t.Fatalf("Geometric(0.5, 0.5, 1) = %d, want 1", k)
	}
	k, _ = Geometric(0.5, 0.5, 0)
	if k != 0 {
		t.Fatalf("Geometric(0.5, 0.5, 0) = %d, want 0", k)
	}
	k, _ = Geometric(0.2, 0.9, 1)
	if k != 11 {
		t.Fatalf("Geometric(0.2, 0.9, 1) = %d, want 11", k)
	}
}

// TestGeometricMinimal 結果是滿足 CDF(k) >= p 的最小整數
func TestGeometricMinimal(t *testing.T) {
	for _, q := range []float64{0.05, 0.3, 0.77} {
		for p := 0.01; p < 1; p += 0.07 {
			k, err := Geometric(q, p, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			cdf := func(n int) float64 { return 1 - math.Pow(1-q, float64(n)) }
			if cdf(k) < p-1e-12 {
				t.Fatalf("q=%v p=%v: CDF(%d)=%v < p", q, p, k, cdf(k))
			}
			if k > 1 && cdf(k-1) >= p+1e-12 {
				t.Fatalf("q=%v p=%v: %d is not minimal (CDF(%d)=%v)", q, p, k, k-1, cdf(k-1))
			}
		}
	}
}

func TestGeometricBoundaries(t *testing.T) {
	k, _ := Geometric(0.3, 0, 1)
	if k != 1 {
		t.Fatalf("p=0 must give the first trial, got %d", k)
	}
	k, err := Geometric(0.3, 1, 1)
	if err != nil || k < 50 {
		t.Fatalf("p=1 must give a large finite trial count, got %d (%v)", k, err)
	}
	for _, q := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, err := Geometric(q, 0.5, 1)
		assertInvalid(t, "success", err)
	}
}

// -----------------------------------------------------------------------------
// Tests for Binary Search (Poisson / Binomial)
// -----------------------------------------------------------------------------

func TestSearchLeftmost(t *testing.T) {
	if got := SearchLeftmost(0, 100, func(k int) bool { return k >= 7 }); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if got := SearchLeftmost(0, 100, func(int) bool { return false }); got != 100 {
		t.Fatalf("all-false must return hi, got %d", got)
	}
	if got := SearchLeftmost(3, 100, func(int) bool { return true }); got != 3 {
		t.Fatalf("all-true must return lo, got %d", got)
	}
	if got := SearchLeftmost(5, 5, func(int) bool { return false }); got != 5 {
		t.Fatalf("empty range must return lo, got %d", got)
	}
}

// TestPoissonAgainstTable Poisson(4) 與獨立計算的 CDF 表（k=0..20）比對
func TestPoissonAgainstTable(t *testing.T) {
	table := poissonCDFTable(4, 20)
	k, err := Poisson(4, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := leftmost(table, 0.5); k != want || k != 4 {
		t.Fatalf("Poisson(4, 0.5) = %d, want %d", k, want)
	}
	for _, p := range []float64{0.01, 0.1, 0.3, 0.7, 0.9, 0.99} {
		k, _ := Poisson(4, p)
		if want := leftmost(table, p); k != want {
			t.Fatalf("Poisson(4, %v) = %d, want %d", p, k, want)
		}
	}
}

// TestPoissonBoundDiscovery 初始上界 ceil(5λ) 不足時需倍增重搜
func TestPoissonBoundDiscovery(t *testing.T) {
	p := 0.999999
	k, err := Poisson(0.1, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := poissonCDFTable(0.1, 20)
	if want := leftmost(table, p); k != want {
		t.Fatalf("Poisson(0.1, %v) = %d, want %d", p, k, want)
	}
	if k <= initialPoissonBound(0.1) {
		t.Fatalf("expected result beyond initial bound, got %d", k)
	}

	k, err = Poisson(4, 1)
	if err != nil {
		t.Fatalf("p=1 must terminate: %v", err)
	}
	if k < 10 {
		t.Fatalf("Poisson(4, 1) = %d, want far tail", k)
	}
}

// TestPoissonNoConvergence 倍增超過上限要回傳可辨識的錯誤，而不是錯誤答案
func TestPoissonNoConvergence(t *testing.T) {
	_, err := New(stuckProvider{}).Poisson(4, 0.5)
	if err == nil {
		t.Fatalf("expected non-convergence error")
	}
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("non-convergence must be distinguishable from invalid argument")
	}
	if errs.CodeOf(err) != errs.NonConvergent {
		t.Fatalf("unexpected code: %v", errs.CodeOf(err))
	}
}

func TestPoissonInvalid(t *testing.T) {
	for _, l := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Poisson(l, 0.5)
		assertInvalid(t, "lambda", err)
	}
}

// TestBinomialNeverExceedsTrials 高分位數不可超過試驗次數
func TestBinomialNeverExceedsTrials(t *testing.T) {
	k, err := Binomial(10, 0.3, 0.999999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k > 10 {
		t.Fatalf("Binomial(10, 0.3, 0.999999) = %d exceeds trials", k)
	}
	if k != 10 {
		t.Fatalf("Binomial(10, 0.3, 0.999999) = %d, want 10 (CDF(9) = 1-0.3^10 < p)", k)
	}
	k, _ = Binomial(10, 0.3, 1)
	if k != 10 {
		t.Fatalf("p=1 must return trials, got %d", k)
	}
}

func TestBinomialAgainstTable(t *testing.T) {
	table := binomialCDFTable(10, 0.3)
	for _, p := range []float64{0, 0.05, 0.2, 0.5, 0.8, 0.95} {
		k, err := Binomial(10, 0.3, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := leftmost(table, ClampOpen(p)); k != want {
			t.Fatalf("Binomial(10, 0.3, %v) = %d, want %d", p, k, want)
		}
	}
	k, _ := Binomial(0, 0.4, 0.9)
	if k != 0 {
		t.Fatalf("zero trials must give 0, got %d", k)
	}
	_, err := Binomial(-1, 0.3, 0.5)
	assertInvalid(t, "trials<0", err)
	_, err = Binomial(5, 1, 0.5)
	assertInvalid(t, "success=1", err)
}

// -----------------------------------------------------------------------------
// Tests for Empirical
// -----------------------------------------------------------------------------

func TestEmpirical(t *testing.T) {
	labels := []string{"A", "B", "C"}
	probs := []float64{0.2, 0.3, 0.5}
	cases := map[float64]string{
		0.1:  "A",
		0.2:  "A",
		0.25: "B",
		0.9:  "C",
		1.0:  "C",
		0:    "A",
		-1:   "A",
		2:    "C",
	}
	for p, want := range cases {
		got, err := Empirical(labels, probs, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("Empirical(%v) = %q, want %q", p, got, want)
		}
	}
}

// TestEmpiricalUnnormalized 總和不為 1 時不做正規化，也不會越界
func TestEmpiricalUnnormalized(t *testing.T) {
	got, err := Empirical([]int{10, 20}, []float64{0.1, 0.1}, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 20 {
		t.Fatalf("p beyond total mass must return last label, got %d", got)
	}
	tb, _ := NewTable([]int{1, 2, 3}, []float64{2, 3, 5})
	if tb.Total() != 10 || tb.Len() != 3 {
		t.Fatalf("unexpected table summary: total=%v len=%d", tb.Total(), tb.Len())
	}
}

func TestEmpiricalInvalid(t *testing.T) {
	_, err := Empirical([]string{"A", "B"}, []float64{1}, 0.5)
	assertInvalid(t, "length mismatch", err)
	_, err = Empirical([]string{}, []float64{}, 0.5)
	assertInvalid(t, "empty", err)
	_, err = Empirical([]string{"A", "B"}, []float64{0.5, -0.1}, 0.5)
	assertInvalid(t, "negative", err)
	_, err = Empirical([]string{"A"}, []float64{1}, math.NaN())
	assertInvalid(t, "p NaN", err)
}

// TestTableConcurrent 同一張表可被多個 goroutine 同時查詢
func TestTableConcurrent(t *testing.T) {
	tb, err := NewTable([]string{"A", "B", "C"}, []float64{0.2, 0.3, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var wg sync.WaitGroup
	var bad atomic.Int32
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if l, _ := tb.Quantile(0.9); l != "C" {
					bad.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	if bad.Load() != 0 {
		t.Fatalf("concurrent lookups returned wrong labels %d times", bad.Load())
	}
}

// -----------------------------------------------------------------------------
// Tests for Query / Engine
// -----------------------------------------------------------------------------

func allFamilyQueries() []Query {
	return []Query{
		{Family: FamilyNormal, Mean: 1, StdDev: 2},
		{Family: FamilyExponential, Rate: 0.5},
		{Family: FamilyTruncatedNormal, Mean: 0, StdDev: 1, Lower: -1, Upper: 2},
		{Family: FamilyTruncatedNormal, Mean: 0, StdDev: 1, Lower: 1, Upper: 3},
		{Family: FamilyTruncatedExponential, Rate: 1, Lower: 0.5, Upper: 4},
		{Family: FamilyGeometric, Success: 0.3, StartAt: 1},
		{Family: FamilyPoisson, Lambda: 6.5},
		{Family: FamilyBinomial, Trials: 20, Success: 0.4},
		{Family: FamilyEmpirical, Labels: []string{"x", "y", "z"}, Probabilities: []float64{0.5, 0.25, 0.25}},
	}
}

// TestMonotonicity 對所有分布族，p1 <= p2 ⇒ quantile(p1) <= quantile(p2)
func TestMonotonicity(t *testing.T) {
	for _, q := range allFamilyQueries() {
		prev := math.Inf(-1)
		for i := 0; i <= 50; i++ {
			r, err := Eval(q.WithP(float64(i) / 50))
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", q.Describe(), err)
			}
			if r.Value < prev {
				t.Fatalf("%s: not monotone at p=%v (%v < %v)", q.Describe(), r.P, r.Value, prev)
			}
			prev = r.Value
		}
	}
}

func TestEvalDispatch(t *testing.T) {
	r, err := Eval(Query{Family: FamilyPoisson, Lambda: 4, P: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Value != 4 || !r.Discrete {
		t.Fatalf("unexpected result: %+v", r)
	}
	r, _ = Eval(Query{Family: FamilyEmpirical, Labels: []string{"A", "A", "B"}, Probabilities: []float64{0.2, 0.3, 0.5}, P: 0.4})
	if r.Label != "A" || r.Value != 1 {
		t.Fatalf("empirical index must follow table position: %+v", r)
	}
	r, _ = Eval(Query{Family: FamilyNormal, Mean: 0, StdDev: 1, P: 0.5})
	if r.Discrete {
		t.Fatalf("normal must not be discrete")
	}
	_, err = Eval(Query{Family: "cauchy", P: 0.5})
	assertInvalid(t, "unknown family", err)
	if err := (Query{Family: FamilyBinomial, Trials: 3, Success: 2}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily(" Truncated-Normal ")
	if err != nil || f != FamilyTruncatedNormal {
		t.Fatalf("ParseFamily = %q, %v", f, err)
	}
	if _, err := ParseFamily("zipf"); err == nil {
		t.Fatalf("expected error for unknown family")
	}
	if len(Families()) != 8 {
		t.Fatalf("unexpected family count: %d", len(Families()))
	}
}

// TestProviderPluggable Engine 只透過 Provider 取得 CDF
func TestProviderPluggable(t *testing.T) {
	calls := new(atomic.Int64)
	e := New(countingProvider{calls: calls})
	k, err := e.Poisson(4, 0.5)
	if err != nil || k != 4 {
		t.Fatalf("Poisson via counting provider = %d, %v", k, err)
	}
	if calls.Load() == 0 {
		t.Fatalf("expected CDF calls through the injected provider")
	}
	var zero Engine
	if x, err := zero.Normal(0, 1, 0.5); err != nil || x != 0 {
		t.Fatalf("zero Engine must fall back to gonum: %v, %v", x, err)
	}
}

// TestEngineConcurrent 無狀態引擎可並行呼叫，結果與序列呼叫一致
func TestEngineConcurrent(t *testing.T) {
	qs := allFamilyQueries()
	want := make([]Result, len(qs))
	for i, q := range qs {
		want[i], _ = Eval(q.WithP(0.37))
	}
	var wg sync.WaitGroup
	var bad atomic.Int32
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, q := range qs {
				r, err := Eval(q.WithP(0.37))
				if err != nil || r != want[i] {
					bad.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	if bad.Load() != 0 {
		t.Fatalf("concurrent evaluation diverged %d times", bad.Load())
	}
}
