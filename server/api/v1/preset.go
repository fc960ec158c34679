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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/quantlab/dto"
)

// Presets 列出所有 preset（依名稱排序）
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.lab.Presets())
}

// Preset 以 preset 求值；未帶 ?p= 時使用 preset 的預設機率
func (h *Handler) Preset(w http.ResponseWriter, r *http.Request) {
	ps, err := h.lab.Preset(chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, "preset lookup", err)
		return
	}
	q := ps.Default()
	if p, ok, err := dto.DecodeProb(r); err != nil {
		h.fail(w, "decode preset request", err)
		return
	} else if ok {
		q = ps.ToQuery(p)
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.lab.Eval(ctx, q)
	if err != nil {
		h.fail(w, "preset eval", err)
		return
	}
	writeJSON(w, dto.NewQueryResponse(q, res))
}
