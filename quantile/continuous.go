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

package quantile

// Normal 常態分布反 CDF：mean + sd·Φ⁻¹(p)。
func (e Engine) Normal(mean, sd, p float64) (float64, error) {
	if err := (NormalParams{Mean: mean, StdDev: sd}).Validate(); err != nil {
		return 0, err
	}
	if err := checkProb(p); err != nil {
		return 0, err
	}
	return e.provider().Normal(mean, sd).Quantile(ClampOpen(p)), nil
}

// Exponential 指數分布反 CDF：-ln(1-p)/rate。
func (e Engine) Exponential(rate, p float64) (float64, error) {
	if err := (ExponentialParams{Rate: rate}).Validate(); err != nil {
		return 0, err
	}
	if err := checkProb(p); err != nil {
		return 0, err
	}
	return e.provider().Exponential(rate).Quantile(ClampOpen(p)), nil
}
