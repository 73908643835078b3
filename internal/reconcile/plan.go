// Package reconcile computes the minimal set of admin API calls needed to
// converge a remote object to a desired description.
//
// The snapshot read and the mutating write are not atomic against the
// remote store: two admins reconciling the same realm concurrently can
// interleave. Callers that might race need external mutual exclusion.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/metrics"
)

// Op is the kind of mutation an action performs.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpNone   Op = "none"
)

// Action is one step of a plan. Run performs the remote call; it is nil
// for OpNone.
type Action struct {
	Op   Op     `json:"op"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
	Run  func(ctx context.Context) error `json:"-"`
}

// Plan is an ordered list of actions. An all-OpNone plan means the remote
// state already matches the desired state.
type Plan struct {
	Actions []Action `json:"actions"`
}

func (p *Plan) add(a Action) {
	p.Actions = append(p.Actions, a)
}

// HasWork reports whether the plan contains any mutating action.
func (p *Plan) HasWork() bool {
	for _, a := range p.Actions {
		if a.Op != OpNone {
			return true
		}
	}
	return false
}

// Execute runs the plan's actions in order and reports whether any
// mutation actually happened. A ConflictError on a create is treated as
// already satisfied rather than a failure: a concurrent admin got there
// first and the desired state holds.
func (p *Plan) Execute(ctx context.Context, logger *zap.Logger) (bool, error) {
	changed := false

	for _, a := range p.Actions {
		if a.Op == OpNone || a.Run == nil {
			metrics.ReconcileTotal.WithLabelValues(a.Kind, "unchanged").Inc()
			continue
		}

		logger.Info("executing reconcile action",
			zap.String("op", string(a.Op)),
			zap.String("kind", a.Kind),
			zap.String("name", a.Name),
		)

		if err := a.Run(ctx); err != nil {
			if a.Op == OpCreate && keycloak.IsConflict(err) {
				logger.Info("create conflict, already satisfied",
					zap.String("kind", a.Kind),
					zap.String("name", a.Name),
				)
				metrics.ReconcileTotal.WithLabelValues(a.Kind, "unchanged").Inc()
				continue
			}
			metrics.ReconcileTotal.WithLabelValues(a.Kind, "error").Inc()
			return changed, fmt.Errorf("%s: %w", a.Msg, err)
		}

		metrics.ReconcileTotal.WithLabelValues(a.Kind, string(a.Op)+"d").Inc()
		changed = true
	}

	return changed, nil
}
