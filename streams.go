// Package flow is a distributed streaming dataflow runtime core: a
// LogicalGraph builder (Environment + DataStream), a compiler that lowers
// it to a PhysicalGraph of Tasks and DataChannels, and the worker runtime
// loop that executes it. See partition, channel and internal/graph for the
// leaf concerns the core depends on, the store packages for the StateHook
// collaborators a Reduce or Sum Operator can be wired to, and the queue
// package for the external queue-transport contract.
package flow

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
	"context"
	"encoding/json"
	"net/http"

	"github.com/coreflow/flow/internal/httpserver"
)

// AdminServer exposes a running Environment's graph and task status over
// HTTP: GET /graph returns the logical graph as DOT, GET /tasks returns
// one JSON object per compiled Task, GET /healthz always returns 200 once
// the server is serving.
type AdminServer struct {
	env    *Environment
	server *httpserver.Server
}

// NewAdminServer wires env's introspection endpoints onto a Server
// listening on addr. It does not start the server; call Start.
func NewAdminServer(env *Environment, addr string) *AdminServer {
	a := &AdminServer{env: env}
	a.server = httpserver.New(httpserver.Config{Addr: addr})
	a.server.AddHandler(http.MethodGet, "/graph", a.handleGraph)
	a.server.AddHandler(http.MethodGet, "/tasks", a.handleTasks)
	a.server.AddHandler(http.MethodGet, "/healthz", a.handleHealthz)
	return a
}

// Start serves the admin endpoints, blocking until Close is called.
func (a *AdminServer) Start() error {
	return a.server.Start()
}

// Close shuts the admin server down.
func (a *AdminServer) Close(ctx context.Context) error {
	return a.server.Close(ctx)
}

func (a *AdminServer) handleGraph(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.Write([]byte(a.env.DotGraph()))
}

type taskInfo struct {
	TaskID   int    `json:"task_id"`
	Operator string `json:"operator"`
	Kind     string `json:"kind"`
	Instance int    `json:"instance"`
}

func (a *AdminServer) handleTasks(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
	a.env.mu.Lock()
	defer a.env.mu.Unlock()

	var tasks []taskInfo
	if a.env.physical != nil {
		for _, t := range a.env.physical.Tasks {
			tasks = append(tasks, taskInfo{
				TaskID:   t.TaskID,
				Operator: t.Operator.Name,
				Kind:     t.Operator.Kind.String(),
				Instance: t.Instance,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

func (a *AdminServer) handleHealthz(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
