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

// Batch 批次查詢：單筆失敗記錄在該列，整體仍回 200
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	b, err := dto.DecodeBatchRequest(r, h.cfg.MaxBatch)
	if err != nil {
		h.fail(w, "decode batch request", err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	rep, err := h.lab.Batch(ctx, b)
	if err != nil {
		h.fail(w, "batch eval", err)
		return
	}
	writeJSON(w, rep)
}
