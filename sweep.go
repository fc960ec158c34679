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
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/quantile"
	"github.com/zintix-labs/quantlab/stats"
)

// Grid 回傳 n 個等距、嚴格落在 (0,1) 內的機率點：i/(n+1)，i = 1..n
func Grid(n int) []float64 {
	if n < 1 {
		return nil
	}
	g := make([]float64, n)
	for i := range g {
		g[i] = float64(i+1) / float64(n+1)
	}
	return g
}

// Percentiles 標準百分位網格 0.01 .. 0.99
func Percentiles() []float64 {
	return Grid(99)
}

// Sweep 在一串機率點上平行求 q 的分位數，回傳分位數表與用時。
//
// 結果依網格索引落位，輸出順序與 grid 相同，和 workers 數量無關。
// 任一點失敗即取消其餘工作並回傳該錯誤。
func (l *Lab) Sweep(ctx context.Context, q quantile.Query, grid []float64, workers int, showpb bool) (*stats.QuantileTable, time.Duration, error) {
	if workers <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if len(grid) == 0 {
		return nil, 0, errs.NewWarn("grid must not be empty")
	}
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}
	workers = min(workers, len(grid))

	tbl := stats.NewQuantileTable(q.Describe(), string(q.Family), q.Describe(), q.Family.Discrete(), len(grid))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int, workers)
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	bar := pb.StartNew(len(grid))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				r, err := l.Eval(ctx, q.WithP(grid[i]))
				if err != nil {
					fail(err)
					continue
				}
				tbl.Rows[i] = stats.Row{P: grid[i], Value: r.Value, Label: r.Label, Degenerate: r.Degenerate}
				bar.Increment()
			}
		}()
	}

feed:
	for i := range grid {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if firstErr != nil {
		return nil, used, firstErr
	}
	if err := ctx.Err(); err != nil {
		e := errs.NewWarn("sweep canceled/timeout")
		e.Cause = err
		return nil, used, e
	}
	if !tbl.Monotone() {
		l.log.Warn("sweep result is not monotone", slog.String("query", q.Describe()))
	}
	return tbl, used, nil
}
