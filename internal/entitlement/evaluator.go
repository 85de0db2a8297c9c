package entitlement

import (
	"context"
	"errors"
	"fmt"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
	"kioskgate/pkg/requestcontext"
)

// Evaluator answers whether a bound identity may pass a location right now.
// It reads the store live on every call and caches nothing: the session state
// machine invokes it exactly once per attempt, at the moment the first
// credential resolves an identity.
type Evaluator struct {
	store Store
}

func NewEvaluator(store Store) (*Evaluator, error) {
	if store == nil {
		return nil, fmt.Errorf("entitlement store is required")
	}
	return &Evaluator{store: store}, nil
}

// Check returns {Allowed, Expired} for the pair. A missing row is not an
// error; it is the "no access" decision.
func (e *Evaluator) Check(ctx context.Context, identityID id.IdentityID, locationID id.LocationID) (Decision, error) {
	ent, err := e.store.Find(ctx, identityID, locationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Decision{Allowed: false}, nil
		}
		return Decision{}, fmt.Errorf("check entitlement: %w", err)
	}
	return Decision{
		Allowed: true,
		Expired: ent.ExpiredAt(requestcontext.Now(ctx)),
	}, nil
}
