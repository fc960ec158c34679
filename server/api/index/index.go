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

package index

import (
	"net/http"
)

const page = `quantlab

GET|POST /v1/quantile        single quantile (family, parameters, p required)
POST     /v1/batch           batch of preset or inline queries
GET|POST /v1/sweep           quantile table over a probability grid (ps or points)
GET      /v1/presets         preset listing
GET      /v1/presets/{name}  evaluate a preset (?p=)
GET      /v1/families        supported distribution families
`

// IndexHandlerFn 主頁：列出可用路由
func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(page))
}
