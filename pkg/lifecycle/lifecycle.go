// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides application models' lifecycle management.
package lifecycle

import (
	"context"

	"github.com/pkg/errors"
)

type (
	// Starter is Model has a Start method.
	Starter interface {
		// Start starts the model.
		Start(context.Context) error
	}

	// Stopper is Model has a Stop method.
	Stopper interface {
		// Stop stops the model.
		Stop(context.Context) error
	}

	// StartStopper is the interface that groups Start and Stop.
	StartStopper interface {
		Starter
		Stopper
	}

	// Lifecycle manages lifecycle for models. Currently a Lifecycle has two phases: Start and Stop.
	// Models are started in the order they were added and stopped in reverse order.
	Lifecycle struct {
		models []StartStopper
	}
)

// Add adds a model into LifeCycle.
func (lc *Lifecycle) Add(m StartStopper) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into LifeCycle.
func (lc *Lifecycle) AddModels(m ...StartStopper) { lc.models = append(lc.models, m...) }

// OnStart runs models Start function if models implmented it. All OnStart functions will be run in order.
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for i, m := range lc.models {
		if err := m.Start(ctx); err != nil {
			// roll back the models already started
			for j := i - 1; j >= 0; j-- {
				_ = lc.models[j].Stop(ctx)
			}
			return errors.Wrapf(err, "failed to start model %d", i)
		}
	}
	return nil
}

// OnStop runs models Stop function if models implmented it, in reverse order.
// All models are stopped even if one fails, the first error is returned.
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	var first error
	for i := len(lc.models) - 1; i >= 0; i-- {
		if err := lc.models[i].Stop(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
