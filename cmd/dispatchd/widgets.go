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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"rivaas.dev/dispatch/app"
	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/middleware/session"
	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/route"
)

var errNoWidget = errors.New("no such widget")

type widget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type widgetStore struct {
	mu      sync.RWMutex
	next    int
	widgets map[int]widget
}

func newWidgetStore() *widgetStore {
	return &widgetStore{next: 1, widgets: make(map[int]widget)}
}

func (s *widgetStore) list(pipeline.Request) (pipeline.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b widget) int { return a.ID - b.ID })

	return pipeline.NewResponse(http.StatusOK, out), nil
}

func (s *widgetStore) show(req pipeline.Request) (pipeline.Response, error) {
	w, err := s.lookup(req)
	if err != nil {
		return pipeline.Response{}, err
	}

	return pipeline.NewResponse(http.StatusOK, w), nil
}

func (s *widgetStore) create(req pipeline.Request) (pipeline.Response, error) {
	name := req.Input("name")
	if name == "" {
		return pipeline.Response{}, riverrors.WithStatus(errors.New("name is required"), http.StatusUnprocessableEntity)
	}

	s.mu.Lock()
	w := widget{ID: s.next, Name: name}
	s.widgets[w.ID] = w
	s.next++
	s.mu.Unlock()

	if sess, ok := session.FromRequest(req); ok {
		sess.AddFlash("success", fmt.Sprintf("created widget %d", w.ID))
	}

	return pipeline.NewResponse(http.StatusCreated, w).
		WithHeader("Location", "/widgets/"+strconv.Itoa(w.ID)).
		WithMessage("created"), nil
}

func (s *widgetStore) rename(req pipeline.Request) (pipeline.Response, error) {
	w, err := s.lookup(req)
	if err != nil {
		return pipeline.Response{}, err
	}
	if name := req.Input("name"); name != "" {
		w.Name = name
	}

	s.mu.Lock()
	s.widgets[w.ID] = w
	s.mu.Unlock()

	return pipeline.NewResponse(http.StatusOK, w), nil
}

func (s *widgetStore) remove(req pipeline.Request) (pipeline.Response, error) {
	w, err := s.lookup(req)
	if err != nil {
		return pipeline.Response{}, err
	}

	s.mu.Lock()
	delete(s.widgets, w.ID)
	s.mu.Unlock()

	return pipeline.NewResponse(http.StatusNoContent, nil), nil
}

func (s *widgetStore) lookup(req pipeline.Request) (widget, error) {
	id, err := strconv.Atoi(req.Param("id"))
	if err != nil {
		return widget{}, riverrors.WithStatus(errNoWidget, http.StatusNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[id]
	if !ok {
		return widget{}, riverrors.WithStatus(errNoWidget, http.StatusNotFound)
	}

	return w, nil
}

func flashes(req pipeline.Request) (pipeline.Response, error) {
	sess, ok := session.FromRequest(req)
	if !ok {
		return pipeline.NewResponse(http.StatusOK, []string{}), nil
	}

	return pipeline.NewResponse(http.StatusOK, map[string]any{
		"success": sess.Flashes("success"),
		"csrf":    sess.Token(),
	}), nil
}

// reports stands in for a handler whose backing table was never migrated.
func reports(pipeline.Request) (pipeline.Response, error) {
	return pipeline.Response{}, riverrors.Uninitialized("reports", "run the reports migration", "restart dispatchd")
}

func mountWidgets(a *app.App) error {
	store := newWidgetStore()
	limited := route.WithMiddleware(route.R("rate-limit", 5, 10), route.R("timeout", "2s"))
	noStore := route.WithFilters(route.R("cache-control", "no-store"))

	a.GET("/widgets", store.list, route.WithName("widgets.index"), noStore)
	a.POST("/widgets", store.create, route.WithName("widgets.create"), limited)
	a.GET("/widgets/{id:[0-9]+}", store.show, route.WithName("widgets.show"))
	a.PUT("/widgets/{id:[0-9]+}", store.rename, route.WithName("widgets.update"), limited)
	a.PATCH("/widgets/{id:[0-9]+}", store.rename, route.WithName("widgets.patch"), limited)
	a.DELETE("/widgets/{id:[0-9]+}", store.remove, route.WithName("widgets.delete"))
	a.GET("/flashes", flashes, route.WithName("session.flashes"))
	a.GET("/reports", reports, route.WithName("reports.index"))
	a.GET("/admin", func(req pipeline.Request) (pipeline.Response, error) {
		return pipeline.NewResponse(http.StatusOK, map[string]string{"status": "ok"}), nil
	}, route.WithName("admin"), route.WithMiddleware(route.R("auth", "Admin")))

	return a.OnShutdown(func(ctx context.Context) {
		store.mu.RLock()
		defer store.mu.RUnlock()
		a.Logger().InfoContext(ctx, "widgets discarded", "count", len(store.widgets))
	})
}
