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
	"strings"

	"github.com/zintix-labs/quantlab/errs"
)

// LogMode 決定 handler 的格式、輸出位置與等級
type LogMode uint8

const (
	ModeDev     LogMode = iota // text / stderr / debug
	ModeProd                   // json / stdout / info
	ModeSilence                // 全部丟棄
)

var modeNames = [...]string{
	ModeDev:     "dev",
	ModeProd:    "prod",
	ModeSilence: "silence",
}

func (m LogMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return modeNames[ModeDev]
}

// ParseMode 解析 dev / prod / silence（大小寫不敏感）
func ParseMode(s string) (LogMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == key {
			return LogMode(i), nil
		}
	}
	return ModeDev, errs.Invalidf("unknown log mode: %q (want dev, prod or silence)", s)
}

// MarshalText / UnmarshalText 讓 LogMode 可直接用於 flag.TextVar 與 env 解析
func (m LogMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *LogMode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
