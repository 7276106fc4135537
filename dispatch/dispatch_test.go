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

package dispatch_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/dispatch/dispatch"
	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/filter"
	"rivaas.dev/dispatch/middleware/basicauth"
	"rivaas.dev/dispatch/middleware/bodyparser"
	"rivaas.dev/dispatch/middleware/clientip"
	"rivaas.dev/dispatch/middleware/cors"
	"rivaas.dev/dispatch/middleware/methodoverride"
	"rivaas.dev/dispatch/middleware/session"
	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/recovery"
	"rivaas.dev/dispatch/registry"
	"rivaas.dev/dispatch/route"
	"rivaas.dev/dispatch/router"
)

// newRegistry returns a registry with the framework middleware and the
// built-in filters.
func newRegistry() *registry.Registry {
	reg := registry.New()
	reg.Use(session.ID, session.New())
	resolver, err := clientip.New()
	Expect(err).NotTo(HaveOccurred())
	reg.Use(clientip.ID, resolver)
	reg.Use(bodyparser.JSONID, bodyparser.JSON())
	reg.Use(bodyparser.FormID, bodyparser.Form())
	filter.Register(reg)

	return reg
}

// recorder appends its name to a trace on the way in and on the way out.
func recorder(name string, trace *[]string) pipeline.Middleware {
	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		*trace = append(*trace, name)
		resp, err := next(req)
		*trace = append(*trace, "/"+name)

		return resp, err
	})
}

func ok(data any) pipeline.Handler {
	return func(pipeline.Request) (pipeline.Response, error) {
		return pipeline.NewResponse(http.StatusOK, data), nil
	}
}

func serve(d *dispatch.Dispatcher, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, r)

	return rec
}

func jsonRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Accept", "application/json")

	return r
}

func envelope(rec *httptest.ResponseRecorder) map[string]any {
	var env map[string]any
	Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())

	return env
}

var _ = Describe("Dispatcher", func() {
	var (
		table *route.Table
		reg   *registry.Registry
	)

	BeforeEach(func() {
		table = route.NewTable()
		reg = newRegistry()
	})

	Describe("routing outcomes", func() {
		DescribeTable("widgets",
			func(strategy router.Strategy, method, target string, wantStatus int, wantAllow string) {
				table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/widgets/{id}", Handler: func(req pipeline.Request) (pipeline.Response, error) {
					return pipeline.NewResponse(http.StatusOK, map[string]string{"id": req.Param("id")}), nil
				}})
				table.MustAdd(route.Definition{Method: http.MethodPost, Path: "/widgets", Handler: ok("created")})

				d, err := dispatch.New(table, reg, dispatch.WithStrategy(strategy))
				Expect(err).NotTo(HaveOccurred())

				rec := serve(d, jsonRequest(method, target, nil))
				Expect(rec.Code).To(Equal(wantStatus))
				Expect(rec.Header().Get("Allow")).To(Equal(wantAllow))
			},
			Entry("tree: DELETE /widgets", router.StrategyTree, http.MethodDelete, "/widgets", http.StatusMethodNotAllowed, "POST"),
			Entry("tree: PUT /widgets/5", router.StrategyTree, http.MethodPut, "/widgets/5", http.StatusMethodNotAllowed, "GET"),
			Entry("tree: GET /widgets/5", router.StrategyTree, http.MethodGet, "/widgets/5", http.StatusOK, ""),
			Entry("tree: GET /gadgets", router.StrategyTree, http.MethodGet, "/gadgets", http.StatusNotFound, ""),
			Entry("linear: DELETE /widgets", router.StrategyLinear, http.MethodDelete, "/widgets", http.StatusMethodNotAllowed, "POST"),
			Entry("linear: PUT /widgets/5", router.StrategyLinear, http.MethodPut, "/widgets/5", http.StatusMethodNotAllowed, "GET"),
			Entry("linear: GET /widgets/5", router.StrategyLinear, http.MethodGet, "/widgets/5", http.StatusOK, ""),
			Entry("linear: GET /gadgets", router.StrategyLinear, http.MethodGet, "/gadgets", http.StatusNotFound, ""),
		)

		It("renders 404 and 405 pages for browsers", func() {
			table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/widgets", Handler: ok(nil)})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			r := httptest.NewRequest(http.MethodDelete, "/widgets", nil)
			r.Header.Set("Accept", "text/html")
			rec := serve(d, r)
			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(rec.Header().Get("Content-Type")).To(HavePrefix("text/html"))
			Expect(rec.Body.String()).To(ContainSubstring("Allowed: GET"))

			resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/nope"))
			Expect(resp.Status()).To(Equal(http.StatusNotFound))
			Expect(resp.Template()).To(Equal("errors/404"))
		})

		It("shows path variables to the handler only", func() {
			var seenByMiddleware string
			reg.RegisterMiddleware("peek", func(...any) (pipeline.Middleware, error) {
				return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
					seenByMiddleware = req.Param("id")
					return next(req)
				}), nil
			})
			table.MustAdd(route.Definition{
				Method: http.MethodGet, Path: "/widgets/{id}",
				Handler: func(req pipeline.Request) (pipeline.Response, error) {
					return pipeline.NewResponse(http.StatusOK, req.Param("id")), nil
				},
				Middlewares: []route.Ref{route.R("peek")},
			})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/widgets/42"))
			Expect(resp.Data()).To(Equal("42"))
			Expect(seenByMiddleware).To(BeEmpty())
		})
	})

	Describe("queue", func() {
		It("runs framework, conditional and route middleware in order", func() {
			var trace []string
			for _, id := range dispatch.Framework {
				reg.Use(id, recorder(id, &trace))
			}
			reg.Use("request-id", recorder("request-id", &trace))
			reg.Use("cors", recorder("cors", &trace))
			reg.SetEnabled("cors", false)
			reg.Use("audit", recorder("audit", &trace))

			table.MustAdd(route.Definition{
				Method: http.MethodGet, Path: "/",
				Handler: func(pipeline.Request) (pipeline.Response, error) {
					trace = append(trace, "handler")
					return pipeline.NewResponse(http.StatusOK, nil), nil
				},
				Middlewares: []route.Ref{route.R("audit")},
			})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Conditional()).To(Equal([]string{"request-id"}))

			d.Dispatch(pipeline.NewRequest(http.MethodGet, "/"))
			Expect(trace).To(Equal([]string{
				"session", "client-ip", "json-body", "form-body", "request-id", "audit",
				"handler",
				"/audit", "/request-id", "/form-body", "/json-body", "/client-ip", "/session",
			}))
		})

		It("gives fallback terminals the framework middleware but no route middleware", func() {
			var trace []string
			for _, id := range dispatch.Framework {
				reg.Use(id, recorder(id, &trace))
			}
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/missing"))
			Expect(resp.Status()).To(Equal(http.StatusNotFound))
			Expect(trace).To(HaveLen(8))
		})

		It("normalizes a failing per-route factory", func() {
			reg.RegisterMiddleware("broken", func(...any) (pipeline.Middleware, error) {
				return nil, errors.New("bad configuration")
			})
			table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/", Handler: ok(nil), Middlewares: []route.Ref{route.R("broken")}})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/"))
			Expect(resp.Status()).To(Equal(http.StatusInternalServerError))
			Expect(resp.Template()).To(Equal("errors/default"))
		})

		It("applies global and route filters in order", func() {
			table.MustAdd(route.Definition{
				Method: http.MethodGet, Path: "/",
				Handler: ok(nil),
				Filters: []route.Ref{route.R("set-header", "X-Layer", "route"), route.R("append-header", "X-Trail", "route")},
			})
			d, err := dispatch.New(table, reg, dispatch.WithFilters(route.R("append-header", "X-Trail", "global")))
			Expect(err).NotTo(HaveOccurred())

			resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/"))
			Expect(resp.Header("X-Layer")).To(Equal("route"))
			Expect(resp.Headers().Values("X-Trail")).To(Equal([]string{"global", "route"}))
		})
	})

	Describe("boot", func() {
		It("requires every framework middleware", func() {
			_, err := dispatch.New(table, registry.New())
			Expect(err).To(MatchError(dispatch.ErrMissingFramework))
		})

		It("rejects routes referencing unknown ids", func() {
			table.MustAdd(route.Definition{
				Method: http.MethodGet, Path: "/",
				Handler:     ok(nil),
				Middlewares: []route.Ref{route.R("nope")},
				Filters:     []route.Ref{route.R("gone")},
			})
			_, err := dispatch.New(table, reg)
			Expect(err).To(MatchError(dispatch.ErrUnknownMiddleware))
			Expect(err).To(MatchError(dispatch.ErrUnknownFilter))
			Expect(table.Frozen()).To(BeFalse())
		})

		It("freezes the table", func() {
			_, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Frozen()).To(BeTrue())
		})
	})

	Describe("method override", func() {
		var d *dispatch.Dispatcher

		BeforeEach(func() {
			echo := func(req pipeline.Request) (pipeline.Response, error) {
				return pipeline.NewResponse(http.StatusOK, map[string]string{
					"method":   req.Method(),
					"original": methodoverride.OriginalMethod(req),
					"name":     req.Input("name"),
				}), nil
			}
			table.MustAdd(route.Definition{Method: http.MethodPut, Path: "/widgets/{id}", Handler: echo})
			table.MustAdd(route.Definition{Method: http.MethodPatch, Path: "/widgets/{id}", Handler: echo})
			table.MustAdd(route.Definition{Method: http.MethodDelete, Path: "/widgets/{id}", Handler: echo})

			var err error
			d, err = dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("routes the header override", func() {
			r := jsonRequest(http.MethodPost, "/widgets/5", nil)
			r.Header.Set("X-HTTP-Method-Override", "put")
			rec := serve(d, r)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(envelope(rec)["data"]).To(Equal(map[string]any{"method": "PUT", "original": "POST", "name": ""}))
		})

		It("routes the form field override and keeps the body", func() {
			r := jsonRequest(http.MethodPost, "/widgets/5", strings.NewReader("_method=PATCH&name=sprocket"))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := serve(d, r)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(envelope(rec)["data"]).To(HaveKeyWithValue("method", "PATCH"))
			Expect(envelope(rec)["data"]).To(HaveKeyWithValue("name", "sprocket"))
		})

		It("ignores methods outside the allow list", func() {
			r := jsonRequest(http.MethodPost, "/widgets/5", nil)
			r.Header.Set("X-HTTP-Method-Override", "DELETE")
			Expect(serve(d, r).Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("failures", func() {
		It("renders a generic 500 with the default template", func() {
			table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/boom", Handler: func(pipeline.Request) (pipeline.Response, error) {
				return pipeline.Response{}, errors.New("connection reset by peer")
			}})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/boom"))
			Expect(resp.Status()).To(Equal(http.StatusInternalServerError))
			Expect(resp.Template()).To(Equal("errors/default"))

			r := httptest.NewRequest(http.MethodGet, "/boom", nil)
			r.Header.Set("Accept", "text/html")
			rec := serve(d, r)
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(ContainSubstring("500 Internal Server Error"))
			Expect(rec.Body.String()).NotTo(ContainSubstring("connection reset"))
		})

		It("recovers panics", func() {
			table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/panic", Handler: func(pipeline.Request) (pipeline.Response, error) {
				panic("kaboom")
			}})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			rec := serve(d, jsonRequest(http.MethodGet, "/panic", nil))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(envelope(rec)["status"]).To(BeEquivalentTo(500))
		})

		DescribeTable("uninitialized storage",
			func(dev bool) {
				table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/accounts", Handler: func(pipeline.Request) (pipeline.Response, error) {
					return pipeline.Response{}, riverrors.Uninitialized("accounts", "run `dispatchd migrate`")
				}})
				d, err := dispatch.New(table, reg, dispatch.WithNormalizer(recovery.New(recovery.WithDevMode(dev))))
				Expect(err).NotTo(HaveOccurred())

				resp := d.Dispatch(pipeline.NewRequest(http.MethodGet, "/accounts"))
				Expect(resp.Status()).To(Equal(http.StatusServiceUnavailable))
				Expect(resp.Template()).To(Equal("errors/setup"))

				rec := serve(d, jsonRequest(http.MethodGet, "/accounts", nil))
				Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
				data, _ := envelope(rec)["data"].(map[string]any)
				if dev {
					Expect(data).To(HaveKey("hints"))
				} else {
					Expect(data).NotTo(HaveKey("hints"))
				}
			},
			Entry("production", false),
			Entry("development", true),
		)

		It("answers 413 for oversized bodies", func() {
			table.MustAdd(route.Definition{Method: http.MethodPost, Path: "/upload", Handler: ok(nil)})
			d, err := dispatch.New(table, reg, dispatch.WithMaxBody(8))
			Expect(err).NotTo(HaveOccurred())

			rec := serve(d, jsonRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64))))
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})
	})

	Describe("conditional middleware", func() {
		It("answers CORS preflight before routing fallbacks", func() {
			reg.Use(cors.ID, cors.New(cors.WithAllowedOrigins("https://app.example")))
			table.MustAdd(route.Definition{Method: http.MethodPut, Path: "/widgets/{id}", Handler: ok(nil)})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			r := httptest.NewRequest(http.MethodOptions, "/widgets/1", nil)
			r.Header.Set("Origin", "https://app.example")
			r.Header.Set("Access-Control-Request-Method", http.MethodPut)
			rec := serve(d, r)

			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example"))
		})

		It("challenges unauthenticated requests", func() {
			reg.RegisterMiddleware(basicauth.ID, basicauth.Factory(basicauth.WithUsers(map[string]string{"ada": "secret"})))
			table.MustAdd(route.Definition{Method: http.MethodGet, Path: "/admin", Handler: func(req pipeline.Request) (pipeline.Response, error) {
				return pipeline.NewResponse(http.StatusOK, basicauth.Username(req)), nil
			}})
			d, err := dispatch.New(table, reg)
			Expect(err).NotTo(HaveOccurred())

			rec := serve(d, jsonRequest(http.MethodGet, "/admin", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Header().Get("WWW-Authenticate")).To(HavePrefix("Basic realm="))

			r := jsonRequest(http.MethodGet, "/admin", nil)
			r.SetBasicAuth("ada", "secret")
			rec = serve(d, r)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(envelope(rec)["data"]).To(Equal("ada"))
		})
	})
})
