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
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/quantlab/errs"
	"gopkg.in/yaml.v3"
)

// Render 定義報表輸出行為
type Render interface {
	Write(w io.Writer, v any) error
}

// Json渲染
type JsonRender struct {
	Indent bool
}

func (jr *JsonRender) Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if jr.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, v any) error {
	// 外層維度維持預設展開；只有元素全為 scalar 的一維陣列輸出成 flow style：[..., ...]
	return forceReadableList(w, v)
}

// NewRender 依格式名稱取得渲染器（json / yaml）
func NewRender(format string) (Render, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return &JsonRender{Indent: true}, nil
	case "yaml", "yml":
		return &YAMLRender{}, nil
	default:
		return nil, errs.Invalidf("unsupported render format: %q", format)
	}
}

// YAML 內層方法
func forceReadableList(w io.Writer, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		// 只要有任何非 scalar 子節點（子 sequence 或 mapping），就是外層維度
		allScalar := true
		for _, c := range n.Content {
			if c != nil && c.Kind != yaml.ScalarNode {
				allScalar = false
				break
			}
		}

		// 先遞迴處理子節點（讓最內層先被標記成 flow）
		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		// 最內層一維 => flow style: [a, b, c]
		if allScalar {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		// Scalar / Alias 等不處理
		return
	}
}
