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
	"github.com/coreflow/flow/channel"
	"github.com/coreflow/flow/partition"
)

// Task is one instance of one Operator in the compiled PhysicalGraph: the
// unit the worker runtime actually schedules a goroutine for.
type Task struct {
	TaskID   int
	OpID     int
	Instance int
	Operator *Operator
}

// outputGroup is the set of DataChannels one task's instance uses to reach
// one downstream operator, addressed by the index a Partitioner returns.
// Every DataChannel is strictly single-producer/single-consumer, so a
// Shuffle-family edge allocates N*M distinct channels rather than sharing
// any of them between producer instances.
type outputGroup struct {
	dstOpID     int
	partitioner partition.Partitioner
	channels    []*channel.DataChannel[Record]
	// dstInstance[k] is the downstream instance index channels[k] feeds;
	// needed by Rescale and Forward, whose partitioner indexes a subset
	// or singleton rather than the full [0, M) range.
	dstInstance []int
}

// PhysicalGraph is the compiled form of a LogicalGraph: one Task per
// operator instance, and the DataChannels each edge's partitioning
// strategy requires between producer and consumer instances.
type PhysicalGraph struct {
	Tasks []*Task

	taskIndex map[[2]int]*Task   // (opID, instance) -> Task
	outputs   map[int][]*outputGroup // srcTaskID -> one group per downstream operator
	inputs    map[int][]*channel.DataChannel[Record] // dstTaskID -> all incoming channels
}

type compileConfig struct {
	bufferSize int
}

// compile lowers a frozen LogicalGraph into a PhysicalGraph. It:
//
//  1. assigns dense task ids in topological order, so every channel flows
//     from a lower task id to a higher one (property required by callers
//     that want to reason about the graph as a DAG of tasks too);
//  2. rejects unknown operator kinds, operator kinds with no physical
//     execution strategy (TimeWindow, WindowJoin), unknown partition
//     strategies and any operator with zero parallelism;
//  3. rejects a sink with no upstream producer;
//  4. materializes the DataChannels each edge's partitioning strategy
//     requires.
func compile(lg *LogicalGraph, cfg compileConfig) (*PhysicalGraph, error) {
	order, err := lg.topoOrder()
	if err != nil {
		return nil, newCompileError("%w", err)
	}

	for _, id := range order {
		op, _ := lg.operator(id)
		if op.Kind > KindWindowJoin {
			return nil, newCompileError("operator %q has unknown kind %d", op.Name, op.Kind)
		}
		for _, dstID := range lg.successors(id) {
			if s := op.partitions[dstID].Strategy; s > partition.Custom {
				return nil, newCompileError("operator %q uses unknown partition strategy %d", op.Name, s)
			}
		}
		if op.Kind.unsupported() {
			return nil, newCompileError("operator %q has kind %s, which has no physical execution strategy", op.Name, op.Kind)
		}
		if op.NumInstances < 1 {
			return nil, newCompileError("operator %q has zero parallelism", op.Name)
		}
		if op.Kind == KindSink && len(predecessorsOf(lg, id)) == 0 {
			return nil, newCompileError("sink operator %q has no upstream producer", op.Name)
		}
	}

	pg := &PhysicalGraph{
		taskIndex: make(map[[2]int]*Task),
		outputs:   make(map[int][]*outputGroup),
		inputs:    make(map[int][]*channel.DataChannel[Record]),
	}

	taskID := 0
	for _, id := range order {
		op, _ := lg.operator(id)
		for i := 0; i < op.NumInstances; i++ {
			task := &Task{TaskID: taskID, OpID: op.ID, Instance: i, Operator: op}
			pg.Tasks = append(pg.Tasks, task)
			pg.taskIndex[[2]int{op.ID, i}] = task
			taskID++
		}
	}

	bufferSize := cfg.bufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	for _, id := range order {
		op, _ := lg.operator(id)
		for _, dstID := range lg.successors(id) {
			dst, _ := lg.operator(dstID)
			spec := op.partitions[dstID]
			materializeEdge(pg, op, dst, spec, bufferSize)
		}
	}

	return pg, nil
}

func predecessorsOf(lg *LogicalGraph, id int) (preds []int) {
	for _, candidate := range lg.order {
		if _, ok := lg.operators[candidate].partitions[id]; ok {
			preds = append(preds, candidate)
		}
	}
	return preds
}

// materializeEdge builds, per producer instance, the DataChannels and
// Partitioner needed to route records from src to dst under spec:
//
//   - Forward: each of the N producer instances gets exactly one channel,
//     feeding downstream instance i mod M. M > N leaves some downstream
//     instances with no input from this producer, which is valid when
//     another producer also feeds dst.
//   - Rescale: the M downstream instances are split into N contiguous
//     groups; producer instance i gets one channel per instance in its own
//     group and never reaches outside it.
//   - Shuffle, ShuffleByKey, Broadcast, RoundRobin, Custom: every producer
//     instance gets its own M channels, one per downstream instance, since
//     any of these strategies may route to any downstream instance and
//     channels cannot be shared across producers.
func materializeEdge(pg *PhysicalGraph, src, dst *Operator, spec PartitionSpec, bufferSize int) {
	n, m := src.NumInstances, dst.NumInstances

	addChannel := func(group *outputGroup, srcInstance, dstInstance int) {
		ch := channel.New[Record](bufferSize)
		group.channels = append(group.channels, ch)
		group.dstInstance = append(group.dstInstance, dstInstance)

		dstTask := pg.taskIndex[[2]int{dst.ID, dstInstance}]
		pg.inputs[dstTask.TaskID] = append(pg.inputs[dstTask.TaskID], ch)
	}

	switch spec.Strategy {
	case partition.Forward:
		for i := 0; i < n; i++ {
			group := &outputGroup{dstOpID: dst.ID, partitioner: partition.New(partition.Forward, nil)}
			addChannel(group, i, i%m)
			srcTask := pg.taskIndex[[2]int{src.ID, i}]
			pg.outputs[srcTask.TaskID] = append(pg.outputs[srcTask.TaskID], group)
		}

	case partition.Rescale:
		for i := 0; i < n; i++ {
			group := &outputGroup{dstOpID: dst.ID, partitioner: partition.New(partition.Rescale, nil)}
			lo, hi := contiguousGroup(i, n, m)
			for j := lo; j < hi; j++ {
				addChannel(group, i, j)
			}
			srcTask := pg.taskIndex[[2]int{src.ID, i}]
			pg.outputs[srcTask.TaskID] = append(pg.outputs[srcTask.TaskID], group)
		}

	default:
		for i := 0; i < n; i++ {
			group := &outputGroup{dstOpID: dst.ID, partitioner: partition.New(spec.Strategy, spec.Fn)}
			for j := 0; j < m; j++ {
				addChannel(group, i, j)
			}
			srcTask := pg.taskIndex[[2]int{src.ID, i}]
			pg.outputs[srcTask.TaskID] = append(pg.outputs[srcTask.TaskID], group)
		}
	}
}

// contiguousGroup returns the [lo, hi) range of downstream instances
// assigned to producer instance i out of n producers feeding m consumers,
// splitting as evenly as the division allows.
func contiguousGroup(i, n, m int) (lo, hi int) {
	base := m / n
	rem := m % n
	lo = i*base + minInt(i, rem)
	hi = lo + base
	if i < rem {
		hi++
	}
	return lo, hi
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
