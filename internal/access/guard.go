// Package access implements the visibility resolver: per-request
// ALLOW/DENY decisions for a fixed set of relationship shapes between
// the authenticated actor and the target resource. Predicates return
// repository sentinels so handlers map them onto the right HTTP codes:
// ErrNotFound when the referenced id does not exist at all, ErrForbidden
// when it exists but the caller lacks rights.
package access

import (
	"context"
	"errors"

	"github.com/onform/training-backend/internal/auth"
	"github.com/onform/training-backend/internal/repository"
)

// ErrNotVerified denies a gated action because the caller's email is
// not verified. Distinct from plain ErrForbidden so the handler can
// surface the specific reason.
var ErrNotVerified = errors.New("email verification required")

// ErrProfileIncomplete denies a gated action because required trainer
// profile fields are missing or blank.
var ErrProfileIncomplete = errors.New("complete profile required")

// Guard bundles the repositories the predicates walk. Every check reads
// fresh state; nothing is cached between requests so revocations and
// link changes are visible immediately.
type Guard struct {
	Accounts *repository.AccountRepo
	Trainers *repository.TrainerRepo
	Clients  *repository.ClientRepo
	Roster   *repository.RosterRepo
}

func NewGuard(accounts *repository.AccountRepo, trainers *repository.TrainerRepo, clients *repository.ClientRepo, roster *repository.RosterRepo) *Guard {
	return &Guard{Accounts: accounts, Trainers: trainers, Clients: clients, Roster: roster}
}

// TrainerSelfOrAdmin allows admins, or a trainer acting on their own
// trainer id. An unknown trainer id yields ErrNotFound even for the
// trainer role; a foreign trainer id yields ErrForbidden.
func (g *Guard) TrainerSelfOrAdmin(ctx context.Context, ident auth.Identity, trainerID uint64) error {
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	if ident.Role != auth.RoleTrainer {
		return repository.ErrForbidden
	}
	t, err := g.Trainers.GetByID(ctx, trainerID)
	if err != nil {
		return err
	}
	if t.UserID == nil || *t.UserID != ident.AccountID {
		return repository.ErrForbidden
	}
	return nil
}

// TrainerHasClientOrAdmin allows admins, or a trainer only when the
// client is in their roster. Note the asymmetry with ClientVisible:
// this predicate resolves the caller's trainer row and checks the link
// from the trainer side only; a missing client id surfaces as
// ErrForbidden here, not ErrNotFound. The two predicates are
// deliberately distinct.
func (g *Guard) TrainerHasClientOrAdmin(ctx context.Context, ident auth.Identity, clientID uint64) error {
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	if ident.Role != auth.RoleTrainer {
		return repository.ErrForbidden
	}
	t, err := g.Trainers.GetByUserID(ctx, ident.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrForbidden
		}
		return err
	}
	linked, err := g.Roster.Exists(ctx, t.ID, clientID)
	if err != nil {
		return err
	}
	if !linked {
		return repository.ErrForbidden
	}
	return nil
}

// ClientVisible implements the three-way visibility rule for one client
// profile: admins always, trainers through a roster link, athletes only
// for their own profile. For athletes a missing client row is
// ErrNotFound; everything else unauthorized is ErrForbidden.
func (g *Guard) ClientVisible(ctx context.Context, ident auth.Identity, clientID uint64) error {
	switch ident.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleTrainer:
		t, err := g.Trainers.GetByUserID(ctx, ident.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.ErrForbidden
			}
			return err
		}
		linked, err := g.Roster.Exists(ctx, t.ID, clientID)
		if err != nil {
			return err
		}
		if !linked {
			return repository.ErrForbidden
		}
		return nil
	case auth.RoleAthlete:
		c, err := g.Clients.GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if c.UserID == nil || *c.UserID != ident.AccountID {
			return repository.ErrForbidden
		}
		return nil
	}
	return repository.ErrForbidden
}

// VisibleForOptionalClient serves list endpoints where a client filter
// may be absent: trainers and admins pass unconditionally, athletes are
// rejected without a client filter (an unscoped list would leak other
// clients) and otherwise go through the self check.
func (g *Guard) VisibleForOptionalClient(ctx context.Context, ident auth.Identity, clientID *uint64) error {
	switch ident.Role {
	case auth.RoleAdmin, auth.RoleTrainer:
		return nil
	case auth.RoleAthlete:
		if clientID == nil {
			return repository.ErrForbidden
		}
		return g.ClientVisible(ctx, ident, *clientID)
	}
	return repository.ErrForbidden
}

// VerifiedAndProfileComplete gates mutating trainer actions: the
// caller's email must be verified and the fixed profile field set must
// be filled in. Admins are exempt from the profile requirement but not
// from having a resolvable account.
func (g *Guard) VerifiedAndProfileComplete(ctx context.Context, ident auth.Identity) error {
	acc, err := g.Accounts.GetByID(ctx, ident.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotVerified
		}
		return err
	}
	if !acc.IsVerified {
		return ErrNotVerified
	}
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	t, err := g.Trainers.GetByUserID(ctx, ident.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrForbidden
		}
		return err
	}
	if !t.ProfileComplete() {
		return ErrProfileIncomplete
	}
	return nil
}
