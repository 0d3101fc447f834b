// Command flowctl assembles a small word-count job (spec scenario S1) from
// flags, runs it to completion and prints the logical graph's DOT
// representation plus the per-word counts the sink collected.
package main

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
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/coreflow/flow"
)

func main() {
	path := flag.String("file", "", "path to a text file to word-count; required")
	parallelism := flag.Int("parallelism", 2, "default operator parallelism")
	admin := flag.String("admin", "", "admin HTTP listen address, empty to disable")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "flowctl: -file is required")
		os.Exit(2)
	}

	if err := run(*path, *parallelism, *admin); err != nil {
		log.Fatal(err)
	}
}

func run(path string, parallelism int, adminAddr string) error {
	cfg := flow.NewConfig(nil)
	cfg.Set(parallelism, "parallelism")
	env := flow.NewEnvironmentFromConfig("flowctl", cfg)

	lines, err := env.ReadTextFile("lines", path)
	if err != nil {
		return err
	}

	words, err := lines.FlatMap("split", func(payload interface{}) ([]interface{}, error) {
		fields := strings.Fields(payload.(string))
		out := make([]interface{}, len(fields))
		for i, f := range fields {
			out[i] = strings.ToLower(f)
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	keyed, err := words.KeyBy("key-by-word", func(payload interface{}) (interface{}, error) {
		return payload.(string), nil
	})
	if err != nil {
		return err
	}

	counts, err := keyed.ShuffleByKey().Sum("count", func(payload interface{}) (interface{}, error) {
		return 1, nil
	}, nil)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	results := make(map[string]int)
	inspected, err := counts.Inspect("collect", func(rec flow.Record) {
		key, _ := rec.Key()
		mu.Lock()
		defer mu.Unlock()
		results[fmt.Sprintf("%v", key)] = rec.Payload().(int)
	})
	if err != nil {
		return err
	}
	if _, err := inspected.Sink("discard", func(flow.Record) error { return nil }); err != nil {
		return err
	}

	var adminServer *flow.AdminServer
	if adminAddr != "" {
		adminServer = flow.NewAdminServer(env, adminAddr)
		go adminServer.Start()
	}

	handles, err := env.Execute()
	if err != nil {
		return err
	}

	for _, h := range handles {
		if err := h.Wait(); err != nil {
			return fmt.Errorf("task %d (%s): %w", h.TaskID, h.OpName, err)
		}
	}

	fmt.Println(env.DotGraph())

	mu.Lock()
	defer mu.Unlock()
	for word, n := range results {
		fmt.Printf("%s\t%d\n", word, n)
	}

	return nil
}
