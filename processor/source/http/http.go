// Package http implements a SourceFunc that accepts records over HTTP
// POST, one topic per URL path segment, and emits them into a flow
// Environment.
package http

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/coreflow/flow"
	"github.com/coreflow/flow/internal/httpserver"
)

// Config for the HTTP source.
type Config struct {
	httpserver.Config
	User     string
	Password string
	// Topics restricts accepted paths to this set, naming them by the
	// ":topic" URL segment. Empty accepts any topic.
	Topics []string
}

// Record is the payload emitted for every accepted POST.
type Record struct {
	Topic string
	Key   string
	Value []byte
}

// New builds a SourceFunc listening on config.Addr. Running it starts the
// HTTP server and blocks until the task is cancelled, at which point it
// shuts the server down and returns.
func New(config Config) (flow.SourceFunc, error) {
	if config.Addr == "" {
		return nil, errors.New("http: empty address")
	}

	var topics map[string]struct{}
	if len(config.Topics) > 0 {
		topics = make(map[string]struct{}, len(config.Topics))
		for _, t := range config.Topics {
			topics[t] = struct{}{}
		}
	}

	return func(ctx *flow.TaskContext, emit func(payload interface{})) error {
		server := httpserver.New(config.Config)

		handler := func(w http.ResponseWriter, r *http.Request, ps httpserver.Params) {
			topic := ps.ByName("topic")
			key := ps.ByName("key")

			if topics != nil {
				if _, ok := topics[topic]; !ok {
					ctx.Logger().Debugw("received record on unregistered topic", "topic", topic, "key", key)
					http.Error(w, "topic not registered", http.StatusNotFound)
					return
				}
			}

			var buf bytes.Buffer
			if _, err := buf.ReadFrom(r.Body); err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			r.Body.Close()

			if buf.Len() == 0 && key == "" {
				http.Error(w, "empty record", http.StatusBadRequest)
				return
			}

			emit(Record{Topic: topic, Key: key, Value: buf.Bytes()})
			ctx.Logger().Debugw("forwarded", "topic", topic, "key", key)
			w.WriteHeader(http.StatusOK)
		}

		if config.User != "" && config.Password != "" {
			server.AddHandler(http.MethodPost, "/:topic", httpserver.BasicAuth(handler, config.User, config.Password))
			server.AddHandler(http.MethodPost, "/:topic/:key", httpserver.BasicAuth(handler, config.User, config.Password))
		} else {
			server.AddHandler(http.MethodPost, "/:topic", handler)
			server.AddHandler(http.MethodPost, "/:topic/:key", handler)
		}

		go func() {
			<-ctx.Done()
			server.Close(context.Background())
		}()

		return server.Start()
	}, nil
}
