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

package dto

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/quantile"
	"github.com/zintix-labs/quantlab/setting"
)

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

// DecodeQueryRequest 會把 HTTP 請求解碼成 quantile.Query。
//
// 支援：
//   - GET：從 query string 讀取參數（family/p/mean/sd/rate/success/start_at/lambda/trials/lower/upper），
//     labels / probabilities 以逗號分隔。lower / upper 可用 inf / -inf。
//   - POST：從 JSON body 反序列化。
//   - p 為必填，GET 與 POST 缺少 p 都視為 request 錯誤（不預設為 0）。
//
// 注意：
//   - 這裡只負責「解碼」與基本型別轉換，分布參數合法性由 quantile 決定。
//   - family 會先正規化（大小寫、- 與 _），未知的分布族直接視為 request 錯誤。
//   - POST 會開啟 DisallowUnknownFields()，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func DecodeQueryRequest(r *http.Request) (*quantile.Query, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	q := new(quantile.Query)
	switch r.Method {
	case http.MethodGet:
		v := r.URL.Query()
		if !v.Has("p") {
			return nil, errs.Invalidf("p is required")
		}
		if err := decodeQueryValues(v, q); err != nil {
			return nil, err
		}
	case http.MethodPost:
		// 外層 P 會遮蔽 Query.P 的 "p"，藉此分辨「未提供」與「0」
		var body struct {
			quantile.Query
			P *float64 `json:"p"`
		}
		if err := decodeStrictJSON(r.Body, &body); err != nil {
			return nil, err
		}
		if body.P == nil {
			return nil, errs.Invalidf("p is required")
		}
		*q = body.Query
		q.P = *body.P
	default:
		return nil, errs.NewWarn("method not allowed")
	}

	fam, err := quantile.ParseFamily(string(q.Family))
	if err != nil {
		return nil, err
	}
	q.Family = fam
	return q, nil
}

// SweepRequest 網格掃描請求。Ps 有值時優先使用，否則以 Points 產生等距網格（預設 99 個百分位）。
type SweepRequest struct {
	Query   quantile.Query `json:"query"`
	Points  int            `json:"points,omitempty"`
	Ps      []float64      `json:"ps,omitempty"`
	Workers int            `json:"workers,omitempty"`
}

// DecodeSweepRequest GET 與 DecodeQueryRequest 共用參數，另外讀取 points / ps / workers。
// maxGrid > 0 時，points 與 ps 的長度在產生網格之前就先檢查。
func DecodeSweepRequest(r *http.Request, maxGrid int) (*SweepRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(SweepRequest)
	switch r.Method {
	case http.MethodGet:
		v := r.URL.Query()
		if err := decodeQueryValues(v, &req.Query); err != nil {
			return nil, err
		}
		var err error
		if req.Points, err = intParam(v, "points"); err != nil {
			return nil, err
		}
		if req.Workers, err = intParam(v, "workers"); err != nil {
			return nil, err
		}
		if req.Ps, err = floatList(v, "ps"); err != nil {
			return nil, err
		}
	case http.MethodPost:
		if err := decodeStrictJSON(r.Body, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}

	fam, err := quantile.ParseFamily(string(req.Query.Family))
	if err != nil {
		return nil, err
	}
	req.Query.Family = fam
	if req.Points < 0 {
		return nil, errs.Invalidf("points must be >= 0")
	}
	if maxGrid > 0 {
		if req.Points > maxGrid {
			return nil, errs.Invalidf("grid too large: %d points (max %d)", req.Points, maxGrid)
		}
		if len(req.Ps) > maxGrid {
			return nil, errs.Invalidf("grid too large: %d points (max %d)", len(req.Ps), maxGrid)
		}
	}
	return req, nil
}

// DecodeBatchRequest 只接受 POST JSON；maxItems > 0 時限制筆數。
func DecodeBatchRequest(r *http.Request, maxItems int) (*setting.Batch, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	b, err := setting.DecodeBatchStrict(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if maxItems > 0 && len(b.Items) > maxItems {
		return nil, errs.Invalidf("batch too large: %d items (max %d)", len(b.Items), maxItems)
	}
	return b, nil
}

// DecodeProb 讀取可選的 p；未提供時回傳 ok=false。
func DecodeProb(r *http.Request) (p float64, ok bool, err error) {
	s := r.URL.Query().Get("p")
	if s == "" {
		return 0, false, nil
	}
	p, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, errs.Invalidf("invalid p: %v", err)
	}
	return p, true, nil
}

// ============================================================
// ** 內部方法 **
// ============================================================

func decodeStrictJSON(body io.Reader, dst any) error {
	if body == nil {
		return errs.NewWarn("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Invalidf("invalid json: %v", err)
	}
	return nil
}

func decodeQueryValues(v url.Values, q *quantile.Query) error {
	q.Family = quantile.Family(v.Get("family"))

	floats := []struct {
		key string
		dst *float64
	}{
		{"p", &q.P},
		{"mean", &q.Mean},
		{"sd", &q.StdDev},
		{"rate", &q.Rate},
		{"success", &q.Success},
		{"lambda", &q.Lambda},
		{"lower", &q.Lower},
		{"upper", &q.Upper},
	}
	for _, f := range floats {
		if s := v.Get(f.key); s != "" {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return errs.Invalidf("invalid %s: %v", f.key, err)
			}
			*f.dst = x
		}
	}

	var err error
	if q.StartAt, err = intParam(v, "start_at"); err != nil {
		return err
	}
	if q.Trials, err = intParam(v, "trials"); err != nil {
		return err
	}
	if s := v.Get("labels"); s != "" {
		q.Labels = splitList(s)
	}
	if q.Probabilities, err = floatList(v, "probabilities"); err != nil {
		return err
	}
	return nil
}

func intParam(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Invalidf("invalid %s: %v", key, err)
	}
	return n, nil
}

func floatList(v url.Values, key string) ([]float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	parts := splitList(s)
	out := make([]float64, len(parts))
	for i, p := range parts {
		x, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errs.Invalidf("invalid %s[%d]: %v", key, i, err)
		}
		out[i] = x
	}
	return out, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
