package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/isometry/groupops/internal/directory"
)

// Resolver turns raw target identities into resolved directory groups using a
// two-tier strategy: a unique-key lookup (DN, objectGUID, or sAMAccountName)
// followed by a common-name search fallback. Groups are addressed informally
// by name but mutated by unique key, so an ambiguous name is a failure rather
// than a guess.
type Resolver struct {
	gw  directory.Gateway
	log zerolog.Logger
}

// NewResolver creates a resolver over a directory gateway.
func NewResolver(gw directory.Gateway, log zerolog.Logger) *Resolver {
	return &Resolver{
		gw:  gw,
		log: log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve resolves one target identity.
func (r *Resolver) Resolve(ctx context.Context, identity string) ResolvedTarget {
	group, err := r.gw.ResolveByKey(ctx, identity)
	if err == nil {
		return resolvedTarget(identity, group)
	}

	if !directory.IsNotFoundError(err) {
		r.log.Warn().Str("identity", identity).Err(err).Msg("key lookup failed")
		return unresolvedTarget(identity, err.Error())
	}

	matches, err := r.gw.SearchByName(ctx, identity)
	if err != nil {
		return unresolvedTarget(identity, err.Error())
	}

	switch len(matches) {
	case 1:
		return resolvedTarget(identity, matches[0])
	case 0:
		return unresolvedTarget(identity,
			fmt.Sprintf("group %q not found", identity))
	default:
		return unresolvedTarget(identity,
			fmt.Sprintf("group name %q is ambiguous (%d matches), use a sAMAccountName or distinguished name", identity, len(matches)))
	}
}

// ResolveMany resolves identities in input order, emitting one progress update
// per item across the supplied span.
func (r *Resolver) ResolveMany(ctx context.Context, identities []string, span Span) []ResolvedTarget {
	targets := make([]ResolvedTarget, 0, len(identities))
	for i, identity := range identities {
		span.Step(i, len(identities), fmt.Sprintf("resolving %s", identity))
		targets = append(targets, r.Resolve(ctx, identity))
	}
	span.Emit(1, "resolution complete")
	return targets
}
