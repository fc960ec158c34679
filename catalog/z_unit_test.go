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

package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/quantile"
)

func presetFS() fstest.MapFS {
	return fstest.MapFS{
		"arrivals.yaml": {Data: []byte("name: Arrivals\nfamily: poisson\nlambda: 4\np: 0.5\n")},
		"height.json":   {Data: []byte(`{"name":"height","family":"normal","mean":170,"sd":10,"p":0.5}`)},
		"embed.go":      {Data: []byte("package x")},
	}
}

func TestCatalogRegisterAndLookup(t *testing.T) {
	c, err := New(presetFS())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Cfg().Files(); len(got) != 2 || got[0] != "arrivals.yaml" || got[1] != "height.json" {
		t.Fatalf("unexpected indexed files: %v", got)
	}
	err = c.Register(
		Entry{Name: "Height", ConfigName: "height.json"},
		Entry{Name: " arrivals ", ConfigName: "arrivals.yaml"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names := c.Names(); len(names) != 2 || names[0] != "arrivals" || names[1] != "height" {
		t.Fatalf("names must be normalized and sorted: %v", names)
	}
	e, ok := c.GetByName("ARRIVALS")
	if !ok {
		t.Fatalf("lookup must be case-insensitive")
	}
	ps, err := c.LoadConfig(e.ConfigName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Family != quantile.FamilyPoisson || ps.Lambda != 4 {
		t.Fatalf("unexpected preset: %+v", ps)
	}
	if _, err := c.LoadConfig("missing.yaml"); errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

// TestCatalogRegisterAtomic 任一筆失敗時整批都不寫入
func TestCatalogRegisterAtomic(t *testing.T) {
	c, _ := New(presetFS())
	err := c.Register(
		Entry{Name: "a", ConfigName: "arrivals.yaml"},
		Entry{Name: "a", ConfigName: "height.json"},
	)
	if !errors.Is(err, ErrDupName) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
	if len(c.Names()) != 0 {
		t.Fatalf("failed register must not leave partial state")
	}
	if err := c.Register(Entry{Name: "a", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("expected missing config error")
	}
	if err := c.Register(Entry{Name: "a", ConfigName: "../arrivals.yaml"}); err == nil {
		t.Fatalf("expected invalid filename error")
	}
	c.Freeze()
	if err := c.Register(Entry{Name: "b", ConfigName: "height.json"}); err == nil || !c.IsFrozen() {
		t.Fatalf("frozen catalog must reject registration")
	}
}

func TestMultiFS(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error for no fs")
	}
	nested := fstest.MapFS{"sub/a.yaml": {Data: []byte("name: a")}}
	if _, err := New(nested); err == nil {
		t.Fatalf("expected error for nested fs")
	}
	dup := fstest.MapFS{"arrivals.yaml": {Data: []byte("name: other")}}
	if _, err := New(presetFS(), dup); err == nil {
		t.Fatalf("expected duplicate config error across fs")
	}
	c, err := New(presetFS(), fstest.MapFS{"extra.yml": {Data: []byte("name: extra")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Cfg().Sources()) != 2 || len(c.Cfg().Files()) != 3 {
		t.Fatalf("unexpected multiFS state")
	}
}
