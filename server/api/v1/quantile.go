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

	"github.com/zintix-labs/quantlab/dto"
)

// Quantile 單筆查詢：GET query string 或 POST JSON
func (h *Handler) Quantile(w http.ResponseWriter, r *http.Request) {
	q, err := dto.DecodeQueryRequest(r)
	if err != nil {
		h.fail(w, "decode quantile request", err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.lab.Eval(ctx, *q)
	if err != nil {
		h.fail(w, "quantile eval", err)
		return
	}
	writeJSON(w, dto.NewQueryResponse(*q, res))
}

// Families 支援的分布族
func (h *Handler) Families(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, dto.Families())
}
