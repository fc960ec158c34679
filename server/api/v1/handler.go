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

package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/server/httperr"
	"github.com/zintix-labs/quantlab/server/svrcfg"
)

// ============================================================
// ** Handler **
// ============================================================

// Handler 持有 v1 API 需要的依賴；所有欄位建立後唯讀，可被並行請求共用。
type Handler struct {
	lab *quantlab.Lab
	log *slog.Logger
	cfg svrcfg.SvrCfg
}

func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("build v1 handler error: lab is required")
	}
	return &Handler{lab: sCfg.Lab, log: sCfg.Log, cfg: *sCfg}, nil
}

// withTimeout 請求解析完成後才開始計時
func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.Timeout)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

// writeJSON 先編碼到記憶體，保證不會寫到一半才 error
func writeJSON(w http.ResponseWriter, v any) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}
