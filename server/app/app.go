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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 優雅關閉的總期限
const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，收到 OS 信號或任一 Component 結束時協調優雅關閉。
type App struct {
	comps   []Component
	log     *slog.Logger
	timeout time.Duration
	quit    chan os.Signal
}

// New 建立 App；log 為 nil 時丟棄關閉訊息。
func New(log *slog.Logger) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &App{log: log, timeout: DefaultShutdownTimeout, quit: make(chan os.Signal, 1)}
}

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(log *slog.Logger, comps ...Component) *App {
	app := New(log)
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// Register 將一個 Component 註冊到 App 中。關閉順序與註冊順序相反。
func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// Run 以 goroutine 並行啟動所有 Component，阻塞直到：
//   - 收到 SIGINT/SIGTERM：優雅關閉後回傳 nil
//   - 任一 Component Run 返回：優雅關閉後回傳該錯誤（可能為 nil）
func (a *App) Run() error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	signal.Notify(a.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.quit)

	select {
	case sig := <-a.quit:
		a.log.Info("shutdown signal", slog.String("signal", sig.String()))
		a.gracefulShutdown(a.timeout)
		return nil
	case err := <-errCh:
		a.gracefulShutdown(a.timeout)
		return err
	}
}

// gracefulShutdown 在 td 內反序呼叫所有 Component.Shutdown：先停入口（HTTP），再收後端（Lab）。
func (a *App) gracefulShutdown(td time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), td)
	defer cancel()
	for i := len(a.comps) - 1; i >= 0; i-- {
		if err := a.comps[i].Shutdown(ctx); err != nil {
			a.log.Warn("shutdown error", slog.Int("component", i), slog.Any("err", err))
		}
	}
}
