// Copyright 2025 The Rivaas Authors
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

package transport

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"

	"rivaas.dev/dispatch/negotiate"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// Writer emits negotiated responses.
type Writer struct {
	cfg        *config
	gzipPool   sync.Pool
	brotliPool sync.Pool
	bufferPool sync.Pool
}

// NewWriter returns a Writer.
func NewWriter(opts ...Option) *Writer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	w := &Writer{cfg: cfg}
	w.gzipPool.New = func() any {
		zw, _ := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel)
		return zw
	}
	w.brotliPool.New = func() any {
		return brotli.NewWriterLevel(io.Discard, cfg.brotliLevel)
	}
	w.bufferPool.New = func() any {
		return new(bytes.Buffer)
	}

	return w
}

// Emit writes out to w. HEAD requests and 1xx, 204 and 304 responses get no
// body.
func (wr *Writer) Emit(w http.ResponseWriter, r *http.Request, out negotiate.Output) error {
	header := w.Header()
	for key, values := range out.Header {
		header[key] = append([]string(nil), values...)
	}

	status := out.Status
	if status == 0 {
		status = http.StatusOK
	}

	if !bodyAllowed(status) {
		header.Del("Content-Length")
		header.Del("Content-Type")
		w.WriteHeader(status)

		return nil
	}

	body := out.Body
	if encoding := wr.encoding(r, header, len(body)); encoding != "" {
		compressed, err := wr.compress(encoding, body)
		if err != nil {
			wr.cfg.logger.WarnContext(r.Context(), "response compression failed",
				slog.String("encoding", encoding),
				slog.String("error", err.Error()),
			)
		} else {
			defer wr.bufferPool.Put(compressed)
			body = compressed.Bytes()
			header.Set("Content-Encoding", encoding)
			header.Set("Content-Length", strconv.Itoa(len(body)))
		}
		header.Add("Vary", "Accept-Encoding")
	}

	w.WriteHeader(status)
	if r.Method == http.MethodHead || len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)

	return err
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}

// encoding picks the content coding for a body of the given size, or "".
func (wr *Writer) encoding(r *http.Request, header http.Header, size int) string {
	if !wr.cfg.compress || size == 0 || size < wr.cfg.minSize {
		return ""
	}
	if header.Get("Content-Encoding") != "" {
		return ""
	}
	contentType := strings.ToLower(header.Get("Content-Type"))
	for _, excluded := range wr.cfg.excludeContentTypes {
		if strings.HasPrefix(contentType, excluded) {
			return ""
		}
	}

	return negotiate.AcceptsToken(r.Header.Get("Accept-Encoding"), encodingBrotli, encodingGzip)
}

// compress returns a pooled buffer holding the encoded body. The caller
// returns it to the pool.
func (wr *Writer) compress(encoding string, body []byte) (*bytes.Buffer, error) {
	buf := wr.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	var err error
	switch encoding {
	case encodingBrotli:
		bw := wr.brotliPool.Get().(*brotli.Writer)
		bw.Reset(buf)
		if _, err = bw.Write(body); err == nil {
			err = bw.Close()
		}
		wr.brotliPool.Put(bw)
	default:
		zw := wr.gzipPool.Get().(*gzip.Writer)
		zw.Reset(buf)
		if _, err = zw.Write(body); err == nil {
			err = zw.Close()
		}
		wr.gzipPool.Put(zw)
	}
	if err != nil {
		wr.bufferPool.Put(buf)
		return nil, err
	}

	return buf, nil
}
