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

package middleware

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級；批次與 sweep 回應偏大，zstd 優先。
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// encoder gzip.Writer 與 zstd.Encoder 共同的方法集合
type encoder interface {
	io.Writer
	Flush() error
	Close() error
	Reset(io.Writer)
}

// codec 一種 Content-Encoding 與它的 encoder pool
type codec struct {
	name string
	pool sync.Pool
}

func newCodec(name string, mk func() encoder) *codec {
	c := &codec{name: name}
	c.pool.New = func() any { return mk() }
	return c
}

func (c *codec) get(w io.Writer) encoder {
	enc := c.pool.Get().(encoder)
	enc.Reset(w)
	return enc
}

// put 收尾後放回 pool；discard 時 footer 不寫進回應
func (c *codec) put(enc encoder, discard bool) {
	if discard {
		enc.Reset(io.Discard)
	}
	_ = enc.Close()
	enc.Reset(io.Discard)
	c.pool.Put(enc)
}

// codecs 依伺服器偏好排序，q 值相同時取前者
var codecs = []*codec{
	newCodec("zstd", func() encoder {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(DefaultCompressConfig.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}),
	newCodec("gzip", func() encoder {
		gw, err := gzip.NewWriterLevel(nil, DefaultCompressConfig.GzipLevel)
		if err != nil {
			panic(err)
		}
		return gw
	}),
}

// negotiate 依 Accept-Encoding 的 q 值挑選 codec；沒有可用的回 nil。
// 未列出的 codec 採用 "*" 的 q 值，q=0 表示拒絕。
func negotiate(header string) *codec {
	if header == "" {
		return nil
	}
	qs := make(map[string]float64, 4)
	for part := range strings.SplitSeq(header, ",") {
		token, params, _ := strings.Cut(part, ";")
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = f
		}
		qs[token] = q
	}

	var best *codec
	bestQ := 0.0
	for _, c := range codecs {
		q, ok := qs[c.name]
		if !ok {
			q = qs["*"]
		}
		if q > bestQ {
			best, bestQ = c, q
		}
	}
	return best
}

func isUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") != "" ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// compressWriter 把 body 導向 encoder；204 / 304 改為直接寫出
type compressWriter struct {
	http.ResponseWriter
	enc         encoder
	passthrough bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if code < http.StatusOK {
		cw.ResponseWriter.WriteHeader(code)
		return
	}
	h := cw.Header()
	h.Del("Content-Length")
	if code == http.StatusNoContent || code == http.StatusNotModified {
		cw.passthrough = true
		h.Del("Content-Encoding")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.passthrough {
		return cw.ResponseWriter.Write(b)
	}
	h := cw.Header()
	h.Del("Content-Length")
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(b))
	}
	return cw.enc.Write(b)
}

func (cw *compressWriter) Flush() {
	if !cw.passthrough {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap 讓 http.ResponseController 取得底層 writer
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// Compression 依 Accept-Encoding 選擇 zstd 或 gzip 壓縮回應。
// handler panic 時不寫壓縮 footer，外層 Recover 以明文回 500。
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || isUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Accept-Encoding")
		c := negotiate(r.Header.Get("Accept-Encoding"))
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", c.name)
		cw := &compressWriter{ResponseWriter: w, enc: c.get(w)}
		completed := false
		defer func() {
			if !completed {
				cw.passthrough = true
				w.Header().Del("Content-Encoding")
			}
			c.put(cw.enc, cw.passthrough)
		}()
		next.ServeHTTP(cw, r)
		completed = true
	})
}
