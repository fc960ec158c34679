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

package setting

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/quantlab/errs"
	"gopkg.in/yaml.v3"
)

// GetPresetByYAML
// 會讀取 YAML 設定、正規化並執行基本檢查後回傳
func GetPresetByYAML(data []byte) (*Preset, error) {
	ps := &Preset{}
	if err := yaml.Unmarshal(data, ps); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ps.init(); err != nil {
		return nil, errs.Wrap(err, "preset initialized err")
	}

	return ps, nil
}

// GetPresetByJSON
// 會讀取 Json 設定、正規化並執行基本檢查後回傳
func GetPresetByJSON(data []byte) (*Preset, error) {
	ps := &Preset{}
	if err := json.Unmarshal(data, ps); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	if err := ps.init(); err != nil {
		return nil, errs.Wrap(err, "preset initialized err")
	}

	return ps, nil
}

func GetBatchByYAML(data []byte) (*Batch, error) {
	b := &Batch{}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := b.init(); err != nil {
		return nil, errs.Wrap(err, "batch initialized err")
	}
	return b, nil
}

func GetBatchByJSON(data []byte) (*Batch, error) {
	b := &Batch{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := b.init(); err != nil {
		return nil, errs.Wrap(err, "batch initialized err")
	}
	return b, nil
}

// DecodeBatchStrict 從串流嚴格解碼 JSON 批次（拒絕未知欄位）；格式錯誤屬於呼叫端問題（Warn）
func DecodeBatchStrict(r io.Reader) (*Batch, error) {
	b := &Batch{}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return nil, errs.Invalidf("invalid json: %v", err)
	}
	if err := b.init(); err != nil {
		return nil, errs.Wrap(err, "batch initialized err")
	}
	return b, nil
}

// IsConfigFile 副檔名是否為可解析的設定格式（.yaml / .yml / .json，大小寫不敏感）
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// GetPresetByExt 依檔名副檔名選擇解析器
func GetPresetByExt(filename string, raw []byte) (*Preset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return GetPresetByYAML(raw)
	case ".json":
		return GetPresetByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

// GetBatchByExt 依檔名副檔名選擇解析器
func GetBatchByExt(filename string, raw []byte) (*Batch, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return GetBatchByYAML(raw)
	case ".json":
		return GetBatchByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported batch format: %q", filename))
	}
}
