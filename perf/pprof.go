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

// Package perf 以 runtime/pprof 包住一段 CLI 工作，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/quantlab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Mode profiling 種類；空字串代表不做 profiling。
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 大小寫不敏感
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	default:
		return ModeNone, errs.Invalidf("unknown pprof mode: %q (want cpu|heap|allocs)", s)
	}
}

// Run 依 mode 執行 exe 並寫出 profile 到 dir（空字串用 DefaultDir）。
// profile 寫檔失敗時 exe 仍會執行，錯誤另外回傳。
func Run(exe func(), mode Mode, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case ModeNone:
		exe()
		return nil
	case ModeCPU:
		return profileCPU(exe, dir)
	case ModeHeap:
		exe()
		// 盡量讓快照貼近最新狀態
		runtime.GC()
		return writeProfile(dir, "heap")
	case ModeAllocs:
		exe()
		return writeProfile(dir, "allocs")
	default:
		exe()
		return errs.Invalidf("unknown pprof mode: %q", mode)
	}
}

// profileCPU 也可作為 PGO 的 default.pgo 來源
func profileCPU(exe func(), dir string) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		exe()
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		exe()
		return errs.Wrap(err, "start cpu profile")
	}
	exe()
	pprof.StopCPUProfile()
	return nil
}

// writeProfile heap 為 in-use 快照；allocs 為累積配置（搭配 -alloc_space 查看）
func writeProfile(dir, name string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Fatalf("pprof profile %q not found", name)
	}
	f, err := create(dir, name+".pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}

func create(dir, file string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create pprof dir")
	}
	f, err := os.Create(filepath.Join(dir, file))
	if err != nil {
		return nil, errs.Wrap(err, "create "+file)
	}
	return f, nil
}
