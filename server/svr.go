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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/quantlab/errs"
	"github.com/zintix-labs/quantlab/server/api"
	"github.com/zintix-labs/quantlab/server/app"
	"github.com/zintix-labs/quantlab/server/netsvr"
	"github.com/zintix-labs/quantlab/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口：
//  1. 驗證 SvrCfg（logger / Lab / 上限）
//  2. 建立 HTTP server（netsvr）
//  3. 註冊路由與 middleware
//  4. 交給 app.Run()，停止時一併關閉 Lab
//
// Run 不綁定檔案路徑或環境變數策略，所有依賴都透過 SvrCfg 注入。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// 外層 logger 可能不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, sCfg.Timeout))
}

// RunWithSvr 與 Run 相同，但允許注入自訂的 NetSvr（自訂 listener、TLS、或掛到既有服務）。
// svr 必須非 nil；若為 ChiAdapter 則要求 Ready()。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}

	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes", slog.Any("err", err))
		return err
	}

	// 反序關閉：先停 HTTP，再關 Lab
	lab := sCfg.Lab
	a := app.NewWith(sCfg.Log, app.OnShutdown(func() error {
		lab.Close()
		return nil
	}), svr)

	addr := ""
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		addr = s.Address()
	}
	sCfg.Log.Info("[quantlab] listening", slog.String("addr", addr), slog.Int("presets", len(lab.Presets())))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
