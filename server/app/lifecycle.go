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

// Package app 定義長期運行元件的最小生命週期抽象。
package app

import (
	"context"
	"sync"
)

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
//   - Run() 阻塞直到元件停止（正常或錯誤）。
//   - Shutdown(ctx) 要求優雅關閉，實作方應尊重 ctx deadline/cancel。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// closerComponent 沒有自己的主迴圈，只在關閉時執行 fn。
// Run 阻塞到 Shutdown 被呼叫為止，讓 App 能把它與其他元件一起收尾。
type closerComponent struct {
	fn   func() error
	done chan struct{}
	once sync.Once
}

// OnShutdown 把一個關閉函數包成 Component（例如 Lab.Close）。
func OnShutdown(fn func() error) Component {
	return &closerComponent{fn: fn, done: make(chan struct{})}
}

func (c *closerComponent) Run() error {
	<-c.done
	return nil
}

func (c *closerComponent) Shutdown(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		defer close(c.done)
		if c.fn != nil {
			err = c.fn()
		}
	})
	return err
}
