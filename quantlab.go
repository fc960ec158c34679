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

// Package quantlab 提供分位數引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個地基組裝在一起：
//  1. Catalog：preset 目錄，定義有哪些具名分布設定、各自對應的設定檔名稱（ConfigName）。
//  2. quantile.Engine：無狀態的分位數引擎（預設以 gonum 為數值後端）。
//
// 設計重點：
//   - Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - 組裝完成後 catalog 即凍結，之後所有查詢只讀，可被多個 goroutine 並行使用。
//   - 單筆查詢（Eval）、批次（Batch）、網格掃描（Sweep）都接受 context，取消後不再計算。
//
// 典型使用情境：
//   - 後端服務（HTTP）：server/api 直接呼叫 Lab.Eval / Lab.Batch / Lab.Sweep。
//   - 命令列（cmd/run）：批次檔與網格掃描輸出報表。
package quantlab

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/quantlab/catalog"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/quantile"
	"github.com/zintix-labs/quantlab/setting"
	"github.com/zintix-labs/quantlab/stats"
)

// Configs 用來把一或多個 preset 來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 presets 直接編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 持有 catalog、引擎與已解析的 presets。
type Lab struct {
	cat     *catalog.Catalog
	eng     quantile.Engine
	log     *slog.Logger
	presets map[string]*setting.Preset // 凍結後唯讀
	sum     []catalog.Summary

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// New 以預設引擎建立 Lab，並直接註冊所有 preset、凍結目錄。
func New(log *slog.Logger, cfgs []fs.FS) (*Lab, error) {
	return NewWithEngine(log, quantile.Default(), cfgs)
}

// NewWithEngine 與 New 相同，但可指定引擎（例如替換數值後端的 Provider）。
func NewWithEngine(log *slog.Logger, eng quantile.Engine, cfgs []fs.FS) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat:     cata,
		eng:     eng,
		log:     log,
		presets: map[string]*setting.Preset{},
		done:    make(chan struct{}),
	}
	if err := lab.registerAll(); err != nil {
		return nil, err
	}
	lab.cat.Freeze()
	return lab, nil
}

// registerAll
//
// 依檔名排序掃描所有設定檔，解析成 *setting.Preset，以 preset 內宣告的名稱批次註冊。
//   - Fail-fast：任何一個檔案讀取/解析/檢查失敗都立即回傳 error。
//   - 原子性：全部成功才呼叫一次 Register，不會留下半完成的目錄。
func (l *Lab) registerAll() error {
	files := l.cat.Cfg().Files()
	if len(files) == 0 {
		return errs.NewFatal("no preset files found to register")
	}

	entries := make([]catalog.Entry, 0, len(files))
	parsed := make(map[string]*setting.Preset, len(files))
	seen := map[string]string{}

	for _, name := range files {
		ps, err := l.cat.LoadConfig(name)
		if err != nil {
			return errs.WrapWithExtra(err, "load preset failed", name)
		}
		if prev, ok := seen[ps.Name]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate preset name: %s (config=%s and %s)", ps.Name, prev, name))
		}
		seen[ps.Name] = name
		parsed[ps.Name] = ps
		entries = append(entries, catalog.Entry{Name: ps.Name, ConfigName: name})
	}

	if err := l.cat.Register(entries...); err != nil {
		return err
	}

	l.presets = parsed
	l.sum = make([]catalog.Summary, 0, len(entries))
	for _, e := range l.cat.All() {
		ps := parsed[e.Name]
		l.sum = append(l.sum, catalog.Summary{
			Name:        ps.Name,
			Family:      string(ps.Family),
			Params:      ps.Query.Describe(),
			P:           ps.P,
			Description: ps.Description,
			Config:      e.ConfigName,
		})
	}
	l.log.Debug("presets registered", slog.Int("count", len(entries)))
	return nil
}

// Engine 回傳 Lab 使用的引擎
func (l *Lab) Engine() quantile.Engine {
	return l.eng
}

// Presets 依名稱排序的 preset 摘要
func (l *Lab) Presets() []catalog.Summary {
	return append([]catalog.Summary(nil), l.sum...)
}

// Preset 依名稱（大小寫不敏感）取得已解析的 preset
func (l *Lab) Preset(name string) (*setting.Preset, error) {
	e, ok := l.cat.GetByName(name)
	if !ok {
		return nil, errs.NotFoundf("preset %q not found", name)
	}
	return l.presets[e.Name], nil
}

// Eval 單筆查詢。
//
// 先檢查 ctx 與 Lab 是否已關閉；數值後端若 panic，轉成 errs.Internal 錯誤回傳而不是讓呼叫端崩潰。
func (l *Lab) Eval(ctx context.Context, q quantile.Query) (res quantile.Result, err error) {
	if err := l.guard(ctx); err != nil {
		return quantile.Result{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("quantile eval panic", slog.String("query", q.Describe()), slog.Any("panic", r))
			res, err = quantile.Result{}, errs.NewCode(errs.Fatal, errs.Internal, fmt.Sprintf("quantile eval panic: %v", r))
		}
	}()
	res, err = l.eng.Eval(q)
	if err != nil {
		l.log.Debug("quantile eval failed", slog.String("query", q.Describe()), slog.Float64("p", q.P), slog.Any("err", err))
	}
	return res, err
}

// EvalPreset 以具名 preset 與指定機率查詢
func (l *Lab) EvalPreset(ctx context.Context, name string, p float64) (quantile.Result, error) {
	ps, err := l.Preset(name)
	if err != nil {
		return quantile.Result{}, err
	}
	return l.Eval(ctx, ps.ToQuery(p))
}

// Batch 逐筆求值。單筆失敗只記錄在該列，不中斷整批；ctx 取消時立即回傳錯誤。
func (l *Lab) Batch(ctx context.Context, b *setting.Batch) (*stats.BatchReport, error) {
	if b == nil || len(b.Items) == 0 {
		return nil, errs.Invalidf("batch: empty items")
	}
	rep := &stats.BatchReport{Name: b.Name, Rows: make([]stats.BatchRow, len(b.Items))}
	for i, it := range b.Items {
		if err := l.guard(ctx); err != nil {
			return nil, err
		}
		row := &rep.Rows[i]
		row.Index = i

		q, src, err := l.resolve(it)
		row.Source = src
		if err == nil {
			var r quantile.Result
			row.P = q.P
			if r, err = l.Eval(ctx, q); err == nil {
				row.Family = string(r.Family)
				row.Value, row.Label, row.Degenerate = r.Value, r.Label, r.Degenerate
			}
		}
		if err != nil {
			row.Error = err.Error()
			rep.Failed++
		}
	}
	return rep, nil
}

func (l *Lab) resolve(it setting.Item) (quantile.Query, string, error) {
	if !it.IsPreset() {
		if it.Query == nil {
			return quantile.Query{}, "", errs.Invalidf("batch item: preset or query required")
		}
		q := it.Resolve()
		return q, q.Describe(), nil
	}
	ps, err := l.Preset(it.Preset)
	if err != nil {
		return quantile.Query{}, it.Preset, err
	}
	q := ps.Default()
	if it.P != nil {
		q.P = *it.P
	}
	return q, ps.Name, nil
}

// Close 將 Lab 轉為關閉狀態，之後的查詢一律失敗。可重複呼叫。
func (l *Lab) Close() {
	l.closeWithReason("closed")
}

func (l *Lab) closeWithReason(reason string) {
	l.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		l.reason.Store(reason)
		l.closed.Store(true)
		close(l.done)
	})
}

// Closed reports whether the lab has been closed.
func (l *Lab) Closed() bool {
	return l.closed.Load()
}

func (l *Lab) ClosedReason() string {
	if v := l.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (l *Lab) guard(ctx context.Context) error {
	select {
	case <-ctx.Done():
		e := errs.NewWarn("evaluation canceled/timeout")
		e.Cause = ctx.Err()
		return e
	case <-l.done:
		return errs.NewFatal("lab closed: " + l.ClosedReason())
	default:
	}
	return nil
}
