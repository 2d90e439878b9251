// Package steps tracks named stages of a deploy or update run. Every step
// executes at most once per tracker, and the tracker renders a report of what
// ran, how long it took and what failed.
package steps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Step is a uniquely named unit of work.
type Step interface {
	// Unique identifier to ensure this step only executes once.
	ID() string
	Run(ctx context.Context) error
}

type fnStep struct {
	id  string
	run func(ctx context.Context) error
}

func (s *fnStep) ID() string { return s.id }

func (s *fnStep) Run(ctx context.Context) error { return s.run(ctx) }

// Fn wraps a function as a named step.
func Fn(id string, run func(ctx context.Context) error) Step {
	return &fnStep{id: id, run: run}
}

// Tracker remembers which steps already ran and records their outcome.
type Tracker struct {
	ran    map[string]*stepOnce
	root   string
	childs map[string][]string
	mux    sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{
		ran:    map[string]*stepOnce{},
		childs: map[string][]string{},
	}
}

// Serial executes steps one after the other, stopping at the first error.
func (t *Tracker) Serial(ctx context.Context, parent string, steps ...Step) error {
	for _, step := range steps {
		once := t.get(step, parent)
		if err := once.Run(ctx); err != nil {
			return fmt.Errorf("running %s: %w", step.ID(), err)
		}
	}
	return nil
}

// Parallel executes steps concurrently and joins their errors.
func (t *Tracker) Parallel(ctx context.Context, parent string, steps ...Step) error {
	var (
		wg      sync.WaitGroup
		errs    []error
		errsMux sync.Mutex
	)

	wg.Add(len(steps))
	local := make([]*stepOnce, len(steps))
	for i, step := range steps {
		local[i] = t.get(step, parent)
	}
	for _, once := range local {
		once := once
		go func() {
			defer wg.Done()
			if err := once.Run(ctx); err != nil {
				errsMux.Lock()
				errs = append(errs, fmt.Errorf("running %s: %w", once.ID(), err))
				errsMux.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (t *Tracker) get(step Step, parent string) *stepOnce {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.root == "" {
		t.root = parent
	}

	t.childs[parent] = append(t.childs[parent], step.ID())
	once, ok := t.ran[step.ID()]
	if !ok {
		once = &stepOnce{step: step}
		t.ran[step.ID()] = once
	}
	return once
}

// stepOnce runs the wrapped step a single time and remembers the outcome.
type stepOnce struct {
	step Step
	once sync.Once
	err  error
	took time.Duration
}

func (o *stepOnce) ID() string { return o.step.ID() }

func (o *stepOnce) Run(ctx context.Context) error {
	o.once.Do(func() {
		start := time.Now()
		o.err = o.step.Run(ctx)
		o.took = time.Since(start).Round(time.Millisecond)
	})
	return o.err
}
