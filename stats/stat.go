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

package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// Row 單一機率點的分位數
type Row struct {
	P          float64 `json:"p"                    yaml:"p"`
	Value      float64 `json:"value"                yaml:"value"`
	Label      string  `json:"label,omitempty"      yaml:"label,omitempty"`
	Degenerate bool    `json:"degenerate,omitempty" yaml:"degenerate,omitempty"`
}

// QuantileTable 同一組分布參數在一串機率點上的分位數表
type QuantileTable struct {
	Title    string `json:"title"    yaml:"title"`
	Family   string `json:"family"   yaml:"family"`
	Params   string `json:"params"   yaml:"params"`
	Discrete bool   `json:"discrete" yaml:"discrete"`
	Rows     []Row  `json:"rows"     yaml:"rows"`
}

// NewQuantileTable 預先配置 n 列，呼叫端依索引填入（可由多個 goroutine 各自寫不同列）
func NewQuantileTable(title, family, params string, discrete bool, n int) *QuantileTable {
	return &QuantileTable{
		Title:    title,
		Family:   family,
		Params:   params,
		Discrete: discrete,
		Rows:     make([]Row, n),
	}
}

// Monotone 機率遞增時分位數是否不減
func (t *QuantileTable) Monotone() bool {
	for i := 1; i < len(t.Rows); i++ {
		if t.Rows[i].P >= t.Rows[i-1].P && t.Rows[i].Value < t.Rows[i-1].Value {
			return false
		}
	}
	return true
}

// Degenerates 退化列數
func (t *QuantileTable) Degenerates() int {
	n := 0
	for _, r := range t.Rows {
		if r.Degenerate {
			n++
		}
	}
	return n
}

func (t *QuantileTable) WriteWith(w io.Writer, rep Render) error {
	return rep.Write(w, t)
}

// StdOut 印出耗時、摘要與分位數表
func (t *QuantileTable) StdOut(ut time.Duration) {
	formatDuration(ut, len(t.Rows))
	fmt.Println(t.String())
}

func (t *QuantileTable) String() string {
	p := message.NewPrinter(lang)
	keys := []string{"Family", "Params", "Points", "Monotone", "Degenerate"}
	msg := map[string]string{
		"Family":     t.Family,
		"Params":     t.Params,
		"Points":     p.Sprintf("%d", len(t.Rows)),
		"Monotone":   fmt.Sprintf("%t", t.Monotone()),
		"Degenerate": p.Sprintf("%d", t.Degenerates()),
	}
	header := []string{"p", "value"}
	withLabel := t.Family == "empirical"
	if withLabel {
		header = append(header, "label")
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		line := []string{p.Sprintf("%.6g", r.P), t.formatValue(p, r.Value)}
		if withLabel {
			line = append(line, r.Label)
		}
		rows = append(rows, line)
	}
	return fmtTable(t.Title, keys, msg) + fmtGrid(header, rows)
}

func (t *QuantileTable) formatValue(p *message.Printer, v float64) string {
	if t.Discrete {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.6f", v)
}

// BatchRow 批次中單筆查詢的結果；Error 非空代表該筆失敗
type BatchRow struct {
	Index      int     `json:"index"                yaml:"index"`
	Source     string  `json:"source"               yaml:"source"`
	Family     string  `json:"family,omitempty"     yaml:"family,omitempty"`
	P          float64 `json:"p"                    yaml:"p"`
	Value      float64 `json:"value"                yaml:"value"`
	Label      string  `json:"label,omitempty"      yaml:"label,omitempty"`
	Degenerate bool    `json:"degenerate,omitempty" yaml:"degenerate,omitempty"`
	Error      string  `json:"error,omitempty"      yaml:"error,omitempty"`
}

// BatchReport 批次查詢報告
type BatchReport struct {
	Name   string     `json:"name,omitempty" yaml:"name,omitempty"`
	Rows   []BatchRow `json:"rows"           yaml:"rows"`
	Failed int        `json:"failed"         yaml:"failed"`
}

func (b *BatchReport) WriteWith(w io.Writer, rep Render) error {
	return rep.Write(w, b)
}

func (b *BatchReport) StdOut(ut time.Duration) {
	formatDuration(ut, len(b.Rows))
	fmt.Println(b.String())
}

func (b *BatchReport) String() string {
	p := message.NewPrinter(lang)
	header := []string{"#", "source", "p", "value", "note"}
	rows := make([][]string, 0, len(b.Rows))
	for _, r := range b.Rows {
		note := r.Label
		val := p.Sprintf("%.6g", r.Value)
		if r.Error != "" {
			note, val = r.Error, "-"
		} else if r.Degenerate {
			note = "degenerate"
		}
		rows = append(rows, []string{p.Sprintf("%d", r.Index), r.Source, p.Sprintf("%.6g", r.P), val, note})
	}
	title := b.Name
	if title == "" {
		title = "batch"
	}
	keys := []string{"Items", "Failed"}
	msg := map[string]string{
		"Items":  p.Sprintf("%d", len(b.Rows)),
		"Failed": p.Sprintf("%d", b.Failed),
	}
	return fmtTable(title, keys, msg) + fmtGrid(header, rows)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, evals int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	eps := int(float64(evals) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\neps : %d evals/sec\n", sec, eps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\neps : %d evals/sec\n", m, s, eps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\neps : %d evals/sec\n", h, m, s, eps)
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		// 標題過長時加寬值欄
		maxValLen += titleW - totalInner
		totalInner = titleW
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", totalInner) + "+\n"

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

// fmtGrid 多欄表格：第一欄靠左，其餘欄靠右
func fmtGrid(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}

	var sb strings.Builder
	divider := "+"
	for _, w := range widths {
		divider += strings.Repeat("-", w+2) + "+"
	}
	divider += "\n"

	line := func(cells []string) {
		sb.WriteString("|")
		for i, w := range widths {
			c := ""
			if i < len(cells) {
				c = cells[i]
			}
			pad := blank(w - runewidth.StringWidth(c))
			if i == 0 {
				sb.WriteString(" " + c + pad + " |")
			} else {
				sb.WriteString(" " + pad + c + " |")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(divider)
	line(header)
	sb.WriteString(divider)
	for _, r := range rows {
		line(r)
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
