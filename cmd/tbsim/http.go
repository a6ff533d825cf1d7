// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/tbsync/tbsync/testbench/sequencer"
)

type sequencerState struct {
	Path             string `json:"path"`
	PendingAdmission int    `json:"pendingAdmission"`
	PendingRequests  int    `json:"pendingRequests"`
	PendingResponses int    `json:"pendingResponses"`
	CheckedOut       string `json:"checkedOut,omitempty"`
}

type benchState struct {
	Sequencers []sequencerState `json:"sequencers"`
	Monitor    int              `json:"monitorBacklog"`
	Summary    summary          `json:"summary"`
}

func newHTTPRouter(b *bench) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/state", func(w http.ResponseWriter, r *http.Request) { stateHandler(w, r, b) })
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(b.metrics.Registry, promhttp.HandlerOpts{}))
	return r
}

func stateHandler(w http.ResponseWriter, r *http.Request, b *bench) {
	state := benchState{
		Sequencers: []sequencerState{},
		Monitor:    b.monitorFIFO.Len(),
		Summary:    b.summary(),
	}

	for _, path := range b.registry.Paths() {
		sqr, err := sequencer.Lookup[busOp, busResult](b.registry, path)
		if err != nil {
			continue
		}
		broker := sqr.Broker()
		s := sequencerState{
			Path:             path,
			PendingAdmission: sqr.PendingAdmission(),
			PendingRequests:  broker.PendingRequests(),
			PendingResponses: broker.PendingResponses(),
		}
		if item, ok := broker.CheckedOut(); ok {
			s.CheckedOut = item.ID().String()
		}
		state.Sequencers = append(state.Sequencers, s)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, state)
}

func startHTTPServer(addr string, b *bench) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: newHTTPRouter(b),
	}
	go func() {
		log.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
		}
	}()
	return srv
}
