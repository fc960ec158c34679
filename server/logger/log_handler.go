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

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// 非同步佇列預設長度
const defaultQueue = 8192

// NewDefaultLogger 依 LogMode 建立同步 logger
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(newHandler(mode, nil))
}

// NewModeLogger 依模式建立同步或非同步 logger。
// async 時回傳的 *AsyncHandler 必須在程式結束前 Close，才會把佇列寫完。
func NewModeLogger(mode LogMode, async bool) (*slog.Logger, *AsyncHandler) {
	if !async {
		return NewDefaultLogger(mode), nil
	}
	return NewAsync(defaultQueue, mode)
}

// NewAsync 以 LogMode 預設 handler 包成非同步 logger
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(newHandler(mode, nil), buf)
	return slog.New(ah), ah
}

// newHandler out 為 nil 時依模式選 stderr / stdout。
// prod 模式固定帶 service=quantlab，方便 Loki / Promtail 分流。
func newHandler(mode LogMode, out io.Writer) slog.Handler {
	switch mode {
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})
	case ModeProd:
		if out == nil {
			out = os.Stdout
		}
		h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
		return h.WithAttrs([]slog.Attr{slog.String("service", "quantlab")})
	default:
		if out == nil {
			out = os.Stderr
		}
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// AsyncHandler 把任一 slog.Handler 變成非阻塞寫出。
//
// 請求路徑上的 Handle 只做 enqueue；背景 goroutine 依序交給下游 handler。
// 佇列滿或 Close 之後的紀錄直接丟棄並計數，不把 I/O 延遲帶回請求路徑。
// WithAttrs / WithGroup 產生的 handler 共用同一條佇列。
type AsyncHandler struct {
	next slog.Handler
	q    *logQueue
}

type queued struct {
	ctx  context.Context
	rec  slog.Record
	dest slog.Handler
}

type logQueue struct {
	items    chan queued
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	dropped  atomic.Uint64
}

// NewAsyncHandler buf <= 0 時使用 1024
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = newHandler(ModeDev, nil)
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &logQueue{
		items: make(chan queued, buf),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.run()
	return &AsyncHandler{next: next, q: q}
}

func (q *logQueue) run() {
	defer close(q.done)
	for {
		select {
		case it := <-q.items:
			it.write()
		case <-q.stop:
			// 停止後把已排隊的寫完
			for {
				select {
				case it := <-q.items:
					it.write()
				default:
					return
				}
			}
		}
	}
}

func (it queued) write() {
	_ = it.dest.Handle(it.ctx, it.rec)
}

func (q *logQueue) closed() bool {
	select {
	case <-q.stop:
		return true
	default:
		return false
	}
}

// Ready 是否已由 NewAsyncHandler 建立
func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil
}

// Dropped 因佇列滿或已關閉而丟棄的筆數
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Close 停止接收並等待佇列寫完；可重複呼叫
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.q.stopOnce.Do(func() { close(h.q.stop) })
	<-h.q.done
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	if h.q.closed() {
		h.q.dropped.Add(1)
		return nil
	}
	// Record 的 attrs 可能與呼叫端共用底層陣列，跨 goroutine 前先 Clone
	select {
	case h.q.items <- queued{ctx: ctx, rec: r.Clone(), dest: h.next}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}
