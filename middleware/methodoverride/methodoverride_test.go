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

package methodoverride

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/pipeline"
)

func TestMethodOverride_Sources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		header      string
		contentType string
		body        string
		want        string
	}{
		{name: "header", method: "POST", header: "PUT", want: "PUT"},
		{name: "header is case insensitive", method: "POST", header: " patch ", want: "PATCH"},
		{name: "json body field", method: "POST", contentType: "application/json", body: `{"_method":"PATCH","name":"x"}`, want: "PATCH"},
		{name: "form body field", method: "POST", contentType: "application/x-www-form-urlencoded", body: "_method=put&name=x", want: "PUT"},
		{name: "header wins over body", method: "POST", header: "PATCH", contentType: "application/json", body: `{"_method":"PUT"}`, want: "PATCH"},
		{name: "delete not allowed by default", method: "POST", header: "DELETE", want: "POST"},
		{name: "only POST is inspected", method: "GET", header: "PUT", want: "GET"},
		{name: "unknown content type ignored", method: "POST", contentType: "text/plain", body: "_method=PUT", want: "POST"},
		{name: "nothing to override", method: "POST", want: "POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := pipeline.NewRequest(tt.method, "/widgets/1")
			if tt.header != "" {
				req = req.WithHeader("X-HTTP-Method-Override", tt.header)
			}
			if tt.contentType != "" {
				req = req.WithHeader("Content-Type", tt.contentType).WithBody([]byte(tt.body))
			}

			got := New().Apply(req)
			assert.Equal(t, tt.want, got.Method())
			assert.Equal(t, tt.method, OriginalMethod(got))
			assert.Equal(t, tt.body, string(got.Body()), "body is preserved")
		})
	}
}

func TestMethodOverride_RecordsOriginal(t *testing.T) {
	t.Parallel()

	req := pipeline.NewRequest(http.MethodPost, "/").WithHeader("X-HTTP-Method-Override", "PUT")
	got := New().Apply(req)

	v, ok := got.Attribute(pipeline.AttrOriginalMethod)
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, v)

	_, ok = req.Attribute(pipeline.AttrOriginalMethod)
	assert.False(t, ok, "input request is not mutated")
	assert.Equal(t, http.MethodPost, req.Method())
}

func TestMethodOverride_Options(t *testing.T) {
	t.Parallel()

	o := New(WithAllow("put", "patch", "delete"), WithHeader("X-HTTP-Method"), WithField(""))
	assert.True(t, o.Allowed("DELETE"))

	req := pipeline.NewRequest(http.MethodPost, "/").WithHeader("X-HTTP-Method", "DELETE")
	assert.Equal(t, http.MethodDelete, o.Apply(req).Method())

	body := pipeline.NewRequest(http.MethodPost, "/").
		WithHeader("Content-Type", "application/json").
		WithBody([]byte(`{"_method":"PUT"}`))
	assert.Equal(t, http.MethodPost, o.Apply(body).Method(), "field lookup disabled")

	custom := New(WithOnlyOn("POST", "GET"))
	get := pipeline.NewRequest(http.MethodGet, "/").WithHeader("X-HTTP-Method-Override", "PATCH")
	assert.Equal(t, http.MethodPatch, custom.Apply(get).Method())
}

func TestMethodOverride_Multipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("_method", "upload.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("DELETE"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("_method", "PATCH"))
	require.NoError(t, mw.Close())

	req := pipeline.NewRequest(http.MethodPost, "/").
		WithHeader("Content-Type", mw.FormDataContentType()).
		WithBody(buf.Bytes())

	got := New().Apply(req)
	assert.Equal(t, http.MethodPatch, got.Method(), "file parts are skipped")
	assert.Equal(t, buf.Len(), got.BodyLen())
}

func TestMethodOverride_ParsedField(t *testing.T) {
	t.Parallel()

	req := pipeline.NewRequest(http.MethodPost, "/").WithParsed(map[string]any{"_method": "put"})
	assert.Equal(t, http.MethodPut, New().Apply(req).Method())
}
