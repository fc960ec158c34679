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

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/presets"
)

// 開發用任務：go run ./scripts <task>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-all|test-detail|check-presets <dir>]")
		os.Exit(1)
	}
	if err := selectTask(os.Args[1], os.Args[2:]); err != nil {
		PrintRed(err.Error())
		os.Exit(1)
	}
}

func selectTask(task string, args []string) error {
	switch task {
	case "test":
		return runGoTest("running tests", summaryOnly, "./...", "-cover", "-count=1")
	case "test-all":
		return runGoTest("running tests (all with coverage)", nil, "./...", "-cover")
	case "test-detail":
		return runGoTest("running tests (detail)", skipNoTestFiles, "./...", "-v", "-count=1")
	case "check-presets":
		return checkPresets(args)
	default:
		return fmt.Errorf("unknown task: %s", task)
	}
}

// lineFilter 回傳 false 代表不印這一行
type lineFilter func(line string) bool

// summaryOnly 只留 ok / FAIL 與建置失敗訊息
func summaryOnly(line string) bool {
	return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
		strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
}

func skipNoTestFiles(line string) bool {
	return !strings.Contains(line, "[no test files]")
}

// runGoTest 先清 test cache 再跑 go test；stdout/stderr 合併後逐行上色。
func runGoTest(title string, keep lineFilter, args ...string) error {
	PrintGreen(title)

	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		return fmt.Errorf("go clean -testcache failed: %w", err)
	}

	cmd := exec.Command("go", append([]string{"test"}, args...)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go test: %w", err)
	}

	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		if keep != nil && !keep(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"):
			PrintRed(line)
		default:
			PrintDefault(line)
		}
	}
	if err := sc.Err(); err != nil {
		PrintYellow("scanner error: " + err.Error())
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s finished with errors", title)
	}
	return nil
}

// checkPresets 載入內建與指定目錄的 preset，並以各自的預設機率求值一次。
func checkPresets(dirs []string) error {
	cfgs := quantlab.Configs(presets.FS)
	for _, d := range dirs {
		cfgs = append(cfgs, os.DirFS(d))
	}
	lab, err := quantlab.New(nil, cfgs)
	if err != nil {
		return err
	}
	defer lab.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := 0
	for _, s := range lab.Presets() {
		res, err := lab.EvalPreset(ctx, s.Name, s.P)
		if err != nil {
			failed++
			PrintRed(fmt.Sprintf("%-14s %v", s.Name, err))
			continue
		}
		msg := fmt.Sprintf("%-14s %-48s p=%-6g → %g", s.Name, s.Params, s.P, res.Value)
		if res.Label != "" {
			msg += " (" + res.Label + ")"
		}
		PrintGreen(msg)
	}
	if failed > 0 {
		return fmt.Errorf("%d preset(s) failed", failed)
	}
	return nil
}
