// Package admin implements the privileged operations behind the admin
// surface. Everything here is a direct store write, not gated through the
// gateway's rate limiting.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
	"github.com/toto789520/TCGP-bis/tcgp/logger"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

var ErrNotAdmin = errors.New("admin: caller is not an admin")

type Service struct {
	store       store.Store
	generations []string
}

func NewService(st store.Store, generations []string) *Service {
	return &Service{store: st, generations: generations}
}

// requireAdmin loads the caller and checks the role.
func (s *Service) requireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.store.GetPlayer(ctx, callerID)
	if err != nil {
		return err
	}
	if !caller.Role.Admin() {
		return fmt.Errorf("%w: %s", ErrNotAdmin, callerID)
	}
	return nil
}

// ResetEconomy wipes a player's collection, counters and any in-flight
// session. The account itself survives.
func (s *Service) ResetEconomy(ctx context.Context, callerID, targetID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	empty := []catalog.Instance{}
	patch := store.Patch{
		Collection:     &empty,
		CurrentBooster: &empty,
		RevealedCards:  ptr([]int{}),
		BoosterGen:     ptr(""),
		BoosterPacks:   ptr(0),
		BoosterBonus:   ptr(false),
	}
	patch.PacksByGen = freshGens(s.generations)

	if err := s.store.SavePlayer(ctx, targetID, patch); err != nil {
		return err
	}
	logger.LogSystem("Player economy reset", "player_id", targetID, "by", callerID)
	return nil
}

// ResetCooldowns restores every generation to the full pack cap with a
// cleared draw timestamp. Points and bonus packs reset too.
func (s *Service) ResetCooldowns(ctx context.Context, callerID, targetID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	err := s.store.SavePlayer(ctx, targetID, store.Patch{
		PacksByGen: freshGens(s.generations),
	})
	if err != nil {
		return err
	}
	logger.LogSystem("Player cooldowns reset", "player_id", targetID, "by", callerID)
	return nil
}

// ToggleVIP flips a player between the standard and VIP roles. Admins are
// never demoted.
func (s *Service) ToggleVIP(ctx context.Context, callerID, targetID string) (store.Role, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return "", err
	}

	target, err := s.store.GetPlayer(ctx, targetID)
	if err != nil {
		return "", err
	}
	if target.Role.Admin() {
		return target.Role, nil
	}

	next := store.RoleVIP
	if target.Role == store.RoleVIP {
		next = store.RolePlayer
	}
	if err := s.store.SavePlayer(ctx, targetID, store.Patch{Role: &next}); err != nil {
		return "", err
	}
	logger.LogSystem("Player role changed",
		"player_id", targetID,
		"role", string(next),
		"by", callerID,
	)
	return next, nil
}

// DeletePlayer removes the player document entirely.
func (s *Service) DeletePlayer(ctx context.Context, callerID, targetID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if err := s.store.DeletePlayer(ctx, targetID); err != nil {
		return err
	}
	logger.LogSystem("Player deleted", "player_id", targetID, "by", callerID)
	return nil
}

func (s *Service) ListPlayers(ctx context.Context, callerID string) ([]*store.Player, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.ListPlayers(ctx)
}

// Notify stores a one-shot notice on the player document. The player's next
// load consumes it.
func (s *Service) Notify(ctx context.Context, callerID, targetID, message string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	return s.store.SavePlayer(ctx, targetID, store.Patch{AdminNotice: &message})
}

// ConsumeNotice returns and clears a pending admin notice, empty when none.
func (s *Service) ConsumeNotice(ctx context.Context, playerID string) (string, error) {
	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return "", err
	}
	if p.AdminNotice == "" {
		return "", nil
	}
	if err := s.store.SavePlayer(ctx, playerID, store.Patch{AdminNotice: ptr("")}); err != nil {
		return "", err
	}
	return p.AdminNotice, nil
}

// SetMaintenance flips the store-backed maintenance switch.
func (s *Service) SetMaintenance(ctx context.Context, callerID string, on bool) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if err := s.store.SetMaintenance(ctx, on); err != nil {
		return err
	}
	logger.LogSystem("Maintenance mode changed", "enabled", on, "by", callerID)
	return nil
}

func freshGens(generations []string) map[string]ledger.GenState {
	out := make(map[string]ledger.GenState, len(generations))
	for _, gen := range generations {
		out[gen] = ledger.NewGenState()
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
