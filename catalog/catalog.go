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

package catalog

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/setting"
)

var (
	ErrDupName   = errs.NewFatal("duplicate preset name")
	ErrDupConfig = errs.NewFatal("duplicate config name")
)

// Entry 目錄中的一筆 preset：名稱對應到設定檔檔名。
type Entry struct {
	Name       string
	ConfigName string
}

// Summary 對外列表用的 preset 摘要
type Summary struct {
	Name        string  `json:"name"        yaml:"name"`
	Family      string  `json:"family"      yaml:"family"`
	Params      string  `json:"params"      yaml:"params"`
	P           float64 `json:"p"           yaml:"p"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Config      string  `json:"config"      yaml:"config"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組 preset，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 64),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

// Register 原子性註冊：任何一筆不合法，整批都不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("preset name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return errs.WrapWithExtra(ErrDupName, "register preset", meta.Name)
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.WrapWithExtra(ErrDupConfig, "register preset", meta.ConfigName)
		}
		if _, ok := seenName[meta.Name]; ok {
			return errs.WrapWithExtra(ErrDupName, "register preset", meta.Name)
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.WrapWithExtra(ErrDupConfig, "register preset", meta.ConfigName)
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, name := range c.names {
		m = append(m, c.byName[name])
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// LoadConfig
//
// 讀取已索引的設定檔（YAML/JSON），正規化並執行基本檢查後回傳。
// configName 必須是 Cfg().Files() 中的檔名。
func (c *Catalog) LoadConfig(configName string) (*setting.Preset, error) {
	src, ok := c.config.GetFS(configName)
	if !ok {
		return nil, errs.NotFoundf("config %q does not exist in catalog", configName)
	}
	raw, err := fs.ReadFile(src, configName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return setting.GetPresetByExt(configName, raw)
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !setting.IsConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}
