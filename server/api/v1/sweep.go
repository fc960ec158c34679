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

	"github.com/zintix-labs/quantlab"
	"github.com/zintix-labs/quantlab/dto"
	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/stats"
)

// Sweep 網格掃描：ps 優先，否則 points 個等距點（預設 99 個百分位）
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SweepResponse struct {
		Table    *stats.QuantileTable `json:"table"`
		Monotone bool                 `json:"monotone"`
		UsedTime int64                `json:"used_ms"`
	}

	req, err := dto.DecodeSweepRequest(r, h.cfg.MaxGrid)
	if err != nil {
		h.fail(w, "decode sweep request", err)
		return
	}
	grid := req.Ps
	if len(grid) == 0 {
		if req.Points > 0 {
			grid = quantlab.Grid(req.Points)
		} else {
			grid = quantlab.Percentiles()
		}
	}
	// 預設百分位網格仍需檢查
	if len(grid) > h.cfg.MaxGrid {
		h.fail(w, "sweep grid", errs.Invalidf("grid too large: %d points (max %d)", len(grid), h.cfg.MaxGrid))
		return
	}
	workers := h.cfg.Workers
	if req.Workers > 0 {
		workers = min(req.Workers, h.cfg.Workers)
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	tbl, used, err := h.lab.Sweep(ctx, req.Query, grid, workers, false)
	if err != nil {
		h.fail(w, "sweep", err)
		return
	}
	writeJSON(w, SweepResponse{Table: tbl, Monotone: tbl.Monotone(), UsedTime: used.Milliseconds()})
}
