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

package quantlab

import (
	"context"
	"errors"
	"math"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/quantlab/dist"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/presets"
	"github.com/zintix-labs/quantlab/quantile"
	"github.com/zintix-labs/quantlab/setting"
)

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

func newTestLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := New(nil, Configs(presets.FS))
	if err != nil {
		t.Fatalf("new lab failed: %v", err)
	}
	return lab
}

func ptr(f float64) *float64 { return &f }

// panicProvider 模擬數值後端崩潰
type panicProvider struct{ dist.Gonum }

func (panicProvider) Poisson(float64) dist.Discrete { panic("backend exploded") }

// -----------------------------------------------------------------------------
// Tests for Assembly
// -----------------------------------------------------------------------------

// TestNewWithEmbeddedPresets 內建 presets 全部能解析並依名稱排序
func TestNewWithEmbeddedPresets(t *testing.T) {
	lab := newTestLab(t)
	sum := lab.Presets()
	if len(sum) != 8 {
		t.Fatalf("unexpected preset count: %d", len(sum))
	}
	for i := 1; i < len(sum); i++ {
		if sum[i-1].Name >= sum[i].Name {
			t.Fatalf("presets must be sorted by name: %q >= %q", sum[i-1].Name, sum[i].Name)
		}
	}
	ps, err := lab.Preset("Arrivals")
	if err != nil || ps.Family != quantile.FamilyPoisson {
		t.Fatalf("unexpected preset lookup: %+v, %v", ps, err)
	}
}

func TestNewRejectsBadConfigs(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatalf("expected error without configs")
	}
	bad := fstest.MapFS{"x.yaml": {Data: []byte("name: x\nfamily: normal\nsd: -1\n")}}
	if _, err := New(nil, Configs(bad)); err == nil {
		t.Fatalf("expected invalid preset error")
	}
	dup := fstest.MapFS{
		"a.yaml": {Data: []byte("name: same\nfamily: poisson\nlambda: 1\n")},
		"b.yaml": {Data: []byte("name: SAME\nfamily: poisson\nlambda: 2\n")},
	}
	if _, err := New(nil, Configs(dup)); err == nil {
		t.Fatalf("expected duplicate preset name error")
	}
	empty := fstest.MapFS{"readme.txt": {Data: []byte("nothing")}}
	if _, err := New(nil, Configs(empty)); err == nil {
		t.Fatalf("expected error when no preset files found")
	}
}

// -----------------------------------------------------------------------------
// Tests for Eval
// -----------------------------------------------------------------------------

func TestEvalAndPreset(t *testing.T) {
	lab := newTestLab(t)
	ctx := context.Background()
	r, err := lab.Eval(ctx, quantile.Query{Family: quantile.FamilyPoisson, Lambda: 4, P: 0.5})
	if err != nil || r.Value != 4 {
		t.Fatalf("Eval = %+v, %v", r, err)
	}
	r, err = lab.EvalPreset(ctx, "arrivals", 0.5)
	if err != nil || r.Value != 4 {
		t.Fatalf("EvalPreset = %+v, %v", r, err)
	}
	r, _ = lab.EvalPreset(ctx, "tier", 0.7)
	if r.Label != "pro" {
		t.Fatalf("tier at 0.7 = %+v, want pro", r)
	}
	_, err = lab.EvalPreset(ctx, "nope", 0.5)
	if errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEvalCanceled(t *testing.T) {
	lab := newTestLab(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lab.Eval(ctx, quantile.Query{Family: quantile.FamilyNormal, StdDev: 1, P: 0.5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestEvalAfterClose(t *testing.T) {
	lab := newTestLab(t)
	lab.Close()
	lab.Close()
	if !lab.Closed() || lab.ClosedReason() != "closed" {
		t.Fatalf("unexpected close state")
	}
	_, err := lab.Eval(context.Background(), quantile.Query{Family: quantile.FamilyNormal, StdDev: 1, P: 0.5})
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Fatal {
		t.Fatalf("expected fatal error after close, got %v", err)
	}
}

// TestEvalRecoversPanic 後端 panic 轉成 Internal 錯誤
func TestEvalRecoversPanic(t *testing.T) {
	lab, err := NewWithEngine(nil, quantile.New(panicProvider{}), Configs(presets.FS))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = lab.Eval(context.Background(), quantile.Query{Family: quantile.FamilyPoisson, Lambda: 4, P: 0.5})
	if errs.CodeOf(err) != errs.Internal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// Tests for Batch
// -----------------------------------------------------------------------------

// TestBatchIsolatesFailures 單筆失敗不影響其他筆
func TestBatchIsolatesFailures(t *testing.T) {
	lab := newTestLab(t)
	b := &setting.Batch{
		Name:  "mixed",
		Items: []setting.Item{
			{Preset: "arrivals", P: ptr(0.5)},
			{Query: &quantile.Query{Family: quantile.FamilyNormal, StdDev: 0, P: 0.5}},
			{Preset: "missing"},
			{Query: &quantile.Query{Family: quantile.FamilyBinomial, Trials: 10, Success: 0.3, P: 0.999999}},
			{Preset: "iq"},
		},
	}
	rep, err := lab.Batch(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Failed != 2 {
		t.Fatalf("expected 2 failures, got %d", rep.Failed)
	}
	if rep.Rows[0].Value != 4 || rep.Rows[0].Source != "arrivals" {
		t.Fatalf("unexpected row 0: %+v", rep.Rows[0])
	}
	if rep.Rows[1].Error == "" || rep.Rows[2].Error == "" {
		t.Fatalf("failed rows must carry errors: %+v", rep.Rows)
	}
	if rep.Rows[3].Value != 10 {
		t.Fatalf("unexpected row 3: %+v", rep.Rows[3])
	}
	// 未指定 p 時使用 preset 預設值（iq: p=0.975）
	if rep.Rows[4].P != 0.975 || math.Abs(rep.Rows[4].Value-129.3994597681) > 1e-6 {
		t.Fatalf("unexpected row 4: %+v", rep.Rows[4])
	}
	if _, err := lab.Batch(context.Background(), &setting.Batch{}); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

// -----------------------------------------------------------------------------
// Tests for Sweep
// -----------------------------------------------------------------------------

func TestGrid(t *testing.T) {
	g := Grid(3)
	if len(g) != 3 || g[0] != 0.25 || g[1] != 0.5 || g[2] != 0.75 {
		t.Fatalf("unexpected grid: %v", g)
	}
	if Grid(0) != nil {
		t.Fatalf("empty grid expected")
	}
	p := Percentiles()
	if len(p) != 99 || math.Abs(p[0]-0.01) > 1e-15 || math.Abs(p[98]-0.99) > 1e-15 {
		t.Fatalf("unexpected percentiles: %v .. %v", p[0], p[98])
	}
}

// TestSweepDeterministic 不同 workers 數量結果一致，且依網格順序排列
func TestSweepDeterministic(t *testing.T) {
	lab := newTestLab(t)
	q := quantile.Query{Family: quantile.FamilyPoisson, Lambda: 6.5}
	grid := Percentiles()
	one, _, err := lab.Sweep(context.Background(), q, grid, 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	many, _, err := lab.Sweep(context.Background(), q, grid, 8, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range grid {
		if one.Rows[i] != many.Rows[i] || one.Rows[i].P != grid[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, one.Rows[i], many.Rows[i])
		}
	}
	if !many.Monotone() || !many.Discrete {
		t.Fatalf("sweep table must be monotone and discrete")
	}
}

func TestSweepErrors(t *testing.T) {
	lab := newTestLab(t)
	q := quantile.Query{Family: quantile.FamilyNormal, StdDev: 1}
	if _, _, err := lab.Sweep(context.Background(), q, Grid(5), 0, false); err == nil {
		t.Fatalf("expected workers error")
	}
	if _, _, err := lab.Sweep(context.Background(), q, nil, 2, false); err == nil {
		t.Fatalf("expected empty grid error")
	}
	_, _, err := lab.Sweep(context.Background(), quantile.Query{Family: quantile.FamilyNormal}, Grid(5), 2, false)
	if !errors.Is(err, quantile.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := lab.Sweep(ctx, q, Grid(50), 4, false); err == nil {
		t.Fatalf("expected canceled sweep to fail")
	}
}
