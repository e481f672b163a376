//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of AgentToast.
//
// AgentToast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AgentToast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AgentToast. If not, see https://www.gnu.org/licenses/.

// builder.go - fluent API for pipeline construction
package pipeline

import (
	"fmt"
)

// Pipeline is a validated, immutable set of stage declarations.
// Declaration order is preserved and determines report section order.
type Pipeline struct {
	name   string
	stages []StageSpec
	index  map[string]int
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns the stage declarations in declaration order.
func (p *Pipeline) Stages() []StageSpec {
	out := make([]StageSpec, len(p.stages))
	copy(out, p.stages)
	return out
}

// Stage returns the declaration for a stage name.
func (p *Pipeline) Stage(name string) (StageSpec, bool) {
	i, ok := p.index[name]
	if !ok {
		return StageSpec{}, false
	}
	return p.stages[i], true
}

// Builder provides a fluent API for constructing pipelines.
type Builder struct {
	name   string
	stages []StageSpec
	errs   []error
}

// NewBuilder creates a new pipeline builder.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddStage appends a stage declaration. Stages are optional by default;
// use the Required option for abort-triggering stages.
func (b *Builder) AddStage(name string, work WorkFunc, dependsOn []string, opts ...StageOption) *Builder {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("stage with empty name"))
		return b
	}
	if work == nil {
		b.errs = append(b.errs, fmt.Errorf("stage %s has no work function", name))
		return b
	}

	spec := StageSpec{
		Name:      name,
		DependsOn: append([]string(nil), dependsOn...),
		Work:      work,
	}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.MaxRetries < 0 {
		b.errs = append(b.errs, fmt.Errorf("stage %s has negative retry count", name))
	}
	if spec.Timeout < 0 {
		b.errs = append(b.errs, fmt.Errorf("stage %s has negative timeout", name))
	}

	b.stages = append(b.stages, spec)
	return b
}

// Build validates the declarations and returns an immutable Pipeline.
// A cyclic or otherwise invalid dependency graph is rejected here,
// before any stage runs.
func (b *Builder) Build() (*Pipeline, error) {
	for _, err := range b.errs {
		return nil, &ConfigError{Pipeline: b.name, Err: err}
	}
	if len(b.stages) == 0 {
		return nil, &ConfigError{Pipeline: b.name, Err: fmt.Errorf("pipeline has no stages")}
	}

	index := make(map[string]int, len(b.stages))
	for i, s := range b.stages {
		if _, dup := index[s.Name]; dup {
			return nil, &ConfigError{Pipeline: b.name, Err: fmt.Errorf("duplicate stage %s", s.Name)}
		}
		index[s.Name] = i
	}

	for _, s := range b.stages {
		for _, dep := range s.DependsOn {
			if _, ok := index[dep]; !ok {
				return nil, &ConfigError{
					Pipeline: b.name,
					Err:      fmt.Errorf("stage %s depends on non-existent stage %s", s.Name, dep),
				}
			}
			if dep == s.Name {
				return nil, &ConfigError{Pipeline: b.name, Err: fmt.Errorf("stage %s depends on itself", s.Name)}
			}
		}
	}

	p := &Pipeline{
		name:   b.name,
		stages: append([]StageSpec(nil), b.stages...),
		index:  index,
	}
	if p.hasCycle() {
		return nil, &ConfigError{Pipeline: b.name, Err: fmt.Errorf("dependency graph contains cycles")}
	}
	return p, nil
}

// hasCycle performs depth-first search over the dependency edges.
func (p *Pipeline) hasCycle() bool {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, s := range p.stages {
		if !visited[s.Name] {
			if p.dfsHasCycle(s.Name, visited, recStack) {
				return true
			}
		}
	}
	return false
}

func (p *Pipeline) dfsHasCycle(name string, visited, recStack map[string]bool) bool {
	visited[name] = true
	recStack[name] = true

	spec := p.stages[p.index[name]]
	for _, dep := range spec.DependsOn {
		if !visited[dep] {
			if p.dfsHasCycle(dep, visited, recStack) {
				return true
			}
		} else if recStack[dep] {
			return true
		}
	}

	recStack[name] = false
	return false
}

// layers groups stages by dependency depth. Every stage in a layer has all
// of its dependencies in earlier layers, so stages within one layer are
// mutually independent and eligible to run concurrently.
func (p *Pipeline) layers() [][]StageSpec {
	level := make(map[string]int, len(p.stages))

	// Declaration order is a valid topological order only if authors list
	// dependencies first, which Build does not require. Iterate until all
	// levels settle; the graph is acyclic so this terminates.
	for resolved := 0; resolved < len(p.stages); {
		resolved = 0
		for _, s := range p.stages {
			maxDep := -1
			ready := true
			for _, dep := range s.DependsOn {
				depLevel, ok := level[dep]
				if !ok {
					ready = false
					break
				}
				if depLevel > maxDep {
					maxDep = depLevel
				}
			}
			if ready {
				level[s.Name] = maxDep + 1
				resolved++
			}
		}
	}

	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}

	layers := make([][]StageSpec, maxLevel+1)
	for _, s := range p.stages {
		l := level[s.Name]
		layers[l] = append(layers[l], s)
	}
	return layers
}
