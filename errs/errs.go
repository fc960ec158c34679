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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code : 錯誤類別，讓呼叫端可以用 errors.Is 區分「參數錯誤」與「數值無法收斂」等情境。
type Code uint8

const (
	Unknown Code = iota
	InvalidArgument
	NonConvergent
	NotFound
	Internal
)

var codeMap = map[Code]string{
	Unknown:         "",
	InvalidArgument: "invalid_argument",
	NonConvergent:   "non_convergent",
	NotFound:        "not_found",
	Internal:        "internal",
}

func (c Code) String() string {
	if str, ok := codeMap[c]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Code 為錯誤類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Code != Unknown {
		base = fmt.Sprintf("errlv=%s code=%s %s", ErrLv(e.ErrLv), e.Code, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Code 比對：target 為只帶 Code 的 *E（sentinel）時，任何同 Code 的錯誤都視為命中。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Code == Unknown {
		return false
	}
	return e.Code == t.Code
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

// NewCode 依錯誤等級、類別與訊息建立錯誤
func NewCode(errLv ErrLevel, code Code, msg string) *E {
	return &E{Message: msg, ErrLv: errLv, Code: code}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// Invalidf 建立參數錯誤（Warn 級：呼叫端問題，不是系統問題）。
func Invalidf(format string, a ...any) *E {
	return NewCode(Warn, InvalidArgument, fmt.Sprintf(format, a...))
}

// NotFoundf 建立查無資料錯誤（Warn 級）。
func NotFoundf(format string, a ...any) *E {
	return NewCode(Warn, NotFound, fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Code 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code（保持原本嚴重度與類別）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	code := Unknown
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		code = e.Code
	}
	r := NewCode(errLv, code, msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，但附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// CodeOf 取出錯誤鏈上第一個 *E 的 Code；非本包錯誤回傳 Unknown。
func CodeOf(err error) Code {
	if e, ok := AsErr(err); ok {
		return e.Code
	}
	return Unknown
}
