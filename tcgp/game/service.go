// Package game orchestrates draws: composing packs, tracking reveal
// sessions, settling the economy and arming cooldowns.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/config"
	"github.com/toto789520/TCGP-bis/tcgp/economy/cooldown"
	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
	"github.com/toto789520/TCGP-bis/tcgp/gacha"
	"github.com/toto789520/TCGP-bis/tcgp/gateway"
	"github.com/toto789520/TCGP-bis/tcgp/logger"
	"github.com/toto789520/TCGP-bis/tcgp/session"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

var (
	ErrUnknownGeneration = errors.New("game: unknown generation")
	ErrNoPacksAvailable  = errors.New("game: no packs available")
	ErrNoBonusPacks      = errors.New("game: no bonus packs available")
)

// Config carries the economy tunables the service needs.
type Config struct {
	Generations       []string
	PacksPerCooldown  int
	PointsPerCard     int
	CooldownStandard  time.Duration
	CooldownVIP       time.Duration
	ThresholdStandard int
	ThresholdVIP      int
}

func (c Config) window(role store.Role) time.Duration {
	if role.VIP() {
		return c.CooldownVIP
	}
	return c.CooldownStandard
}

func (c Config) threshold(role store.Role) int {
	if role.VIP() {
		return c.ThresholdVIP
	}
	return c.ThresholdStandard
}

func (c Config) knownGen(genID string) bool {
	for _, g := range c.Generations {
		if g == genID {
			return true
		}
	}
	return false
}

type liveSession struct {
	sess  *session.Session
	genID string
	packs int
	bonus bool
}

// Service is the single entry point for player-facing operations. One
// service instance serves all players; per-player state lives in the store
// and the in-memory session table.
type Service struct {
	cfg      Config
	store    store.Store
	gw       *gateway.Gateway
	composer *gacha.Composer
	sched    *cooldown.Scheduler
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

func NewService(cfg Config, st store.Store, gw *gateway.Gateway, composer *gacha.Composer, sched *cooldown.Scheduler) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		gw:       gw,
		composer: composer,
		sched:    sched,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
}

// LoadPlayer fetches a player document, creating it with defaults on first
// contact.
func (s *Service) LoadPlayer(ctx context.Context, playerID string) (*store.Player, error) {
	p, err := s.store.GetPlayer(ctx, playerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p = store.NewPlayer(playerID)
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to bootstrap player %s: %w", playerID, err)
	}
	logger.LogSystem("Player bootstrapped", "player_id", playerID)
	return p, nil
}

// GenStatus is what the UI renders for one generation tab.
type GenStatus struct {
	State     ledger.GenState
	Remaining time.Duration
}

// GenState returns a generation's counters after a lazy cooldown check,
// persisting the regeneration when one happened.
func (s *Service) GenState(ctx context.Context, playerID, genID string) (GenStatus, error) {
	if !s.cfg.knownGen(genID) {
		return GenStatus{}, fmt.Errorf("%w: %s", ErrUnknownGeneration, genID)
	}

	p, err := s.LoadPlayer(ctx, playerID)
	if err != nil {
		return GenStatus{}, err
	}

	window := s.cfg.window(p.Role)
	state, regenerated := cooldown.Check(p.GenState(genID), s.cfg.PacksPerCooldown, window, s.now())
	if regenerated {
		err := s.gw.Write(ctx, playerID, store.Patch{
			PacksByGen: map[string]ledger.GenState{genID: state},
		})
		if err != nil {
			return GenStatus{}, err
		}
	}

	return GenStatus{
		State:     state,
		Remaining: cooldown.Remaining(state, window, s.now()),
	}, nil
}

// Draw opens packs for a generation and leaves them pending reveal. Bonus
// draws spend bonusPacks and bypass the availablePacks check; admins bypass
// both. The pending session is durably recorded before the cards are
// returned so a crash mid-reveal can resume.
func (s *Service) Draw(ctx context.Context, playerID, genID string, packs int, bonus bool) ([]catalog.Instance, error) {
	start := time.Now()
	cards, err := s.draw(ctx, playerID, genID, packs, bonus)
	logger.LogOperation("draw", playerID, time.Since(start), err)
	return cards, err
}

func (s *Service) draw(ctx context.Context, playerID, genID string, packs int, bonus bool) ([]catalog.Instance, error) {
	if !s.cfg.knownGen(genID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGeneration, genID)
	}
	if packs < 1 || packs > config.MaxPacksPerOpen {
		return nil, fmt.Errorf("%w: %d packs", gacha.ErrNoPacks, packs)
	}

	s.mu.Lock()
	if _, open := s.sessions[playerID]; open {
		s.mu.Unlock()
		return nil, session.ErrSessionOpen
	}
	s.mu.Unlock()

	p, err := s.LoadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if len(p.CurrentBooster) > 0 {
		return nil, session.ErrSessionOpen
	}

	window := s.cfg.window(p.Role)
	state, regenerated := cooldown.Check(p.GenState(genID), s.cfg.PacksPerCooldown, window, s.now())

	if !p.Role.Admin() {
		if bonus {
			if state.BonusPacks < packs {
				return nil, ErrNoBonusPacks
			}
		} else if state.AvailablePacks < packs {
			return nil, ErrNoPacksAvailable
		}
	}

	cards, err := s.composer.OpenPacks(ctx, genID, packs, p.Role.VIP())
	if err != nil {
		return nil, err
	}

	sess := session.New(cards)
	s.mu.Lock()
	s.sessions[playerID] = &liveSession{sess: sess, genID: genID, packs: packs, bonus: bonus}
	s.mu.Unlock()

	patch := store.Patch{
		CurrentBooster: &cards,
		RevealedCards:  ptr([]int{}),
		BoosterGen:     &genID,
		BoosterPacks:   &packs,
		BoosterBonus:   &bonus,
	}
	if regenerated {
		patch.PacksByGen = map[string]ledger.GenState{genID: state}
	}
	if err := s.gw.Write(ctx, playerID, patch); err != nil {
		s.mu.Lock()
		delete(s.sessions, playerID)
		s.mu.Unlock()
		return nil, err
	}

	return cards, nil
}

// Reveal flips one slot face-up. Already-revealed and out-of-range slots are
// no-ops. The updated reveal set is buffered for a debounced flush.
func (s *Service) Reveal(ctx context.Context, playerID string, slot int) error {
	live, err := s.session(ctx, playerID)
	if err != nil {
		return err
	}

	if live.sess.Reveal(slot) {
		s.gw.BufferReveal(playerID, live.sess.Revealed())
	}
	return nil
}

// CloseResult reports what one finished session produced.
type CloseResult struct {
	Cards       []catalog.Instance
	State       ledger.GenState
	EarnedBonus int
}

// CloseSession finishes a fully revealed booster: pending reveal writes are
// forced out, the cards join the permanent collection exactly once, the
// ledger settles against a fresh snapshot, and the cooldown timer is armed
// if packs ran out.
func (s *Service) CloseSession(ctx context.Context, playerID string) (CloseResult, error) {
	start := time.Now()
	res, err := s.closeSession(ctx, playerID)
	logger.LogOperation("close", playerID, time.Since(start), err)
	return res, err
}

func (s *Service) closeSession(ctx context.Context, playerID string) (CloseResult, error) {
	live, err := s.session(ctx, playerID)
	if err != nil {
		return CloseResult{}, err
	}

	if err := s.gw.FlushReveals(ctx); err != nil {
		return CloseResult{}, err
	}

	cards, err := live.sess.Close()
	if err != nil {
		return CloseResult{}, err
	}

	s.mu.Lock()
	delete(s.sessions, playerID)
	s.mu.Unlock()

	if err := s.gw.AppendToCollection(ctx, playerID, cards); err != nil {
		return CloseResult{}, err
	}

	// Settle against a fresh snapshot to narrow the lost-update window
	// when two sessions race the same ledger.
	p, err := s.LoadPlayer(ctx, playerID)
	if err != nil {
		return CloseResult{}, err
	}

	settled := ledger.SettleDraw(
		p.GenState(live.genID),
		len(cards),
		live.packs,
		live.bonus,
		s.cfg.PointsPerCard,
		s.cfg.threshold(p.Role),
		s.now(),
	)

	patch := store.Patch{
		PacksByGen:     map[string]ledger.GenState{live.genID: settled.State},
		CurrentBooster: ptr([]catalog.Instance{}),
		RevealedCards:  ptr([]int{}),
		BoosterGen:     ptr(""),
		BoosterPacks:   ptr(0),
		BoosterBonus:   ptr(false),
	}
	if err := s.gw.Write(ctx, playerID, patch); err != nil {
		return CloseResult{}, err
	}

	if settled.State.AvailablePacks == 0 {
		s.sched.Arm(playerID, live.genID, s.cfg.window(p.Role))
	}

	return CloseResult{
		Cards:       cards,
		State:       settled.State,
		EarnedBonus: settled.EarnedBonus,
	}, nil
}

// ResumeState describes a session restored after a reload.
type ResumeState struct {
	Booster  []catalog.Instance
	Revealed []int
}

// Resume restores an interrupted session from the last durably flushed
// state. Returns nil when nothing is pending.
func (s *Service) Resume(ctx context.Context, playerID string) (*ResumeState, error) {
	live, err := s.session(ctx, playerID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}

	return &ResumeState{
		Booster:  live.sess.Booster(),
		Revealed: live.sess.Revealed(),
	}, nil
}

// UseBonusPacks opens accrued bonus packs, up to the per-open cap.
func (s *Service) UseBonusPacks(ctx context.Context, playerID, genID string) ([]catalog.Instance, error) {
	p, err := s.LoadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	available := p.GenState(genID).BonusPacks
	if available < 1 {
		return nil, ErrNoBonusPacks
	}
	packs := available
	if packs > config.MaxPacksPerOpen {
		packs = config.MaxPacksPerOpen
	}
	return s.Draw(ctx, playerID, genID, packs, true)
}

// SetNotifications records the player's packs-ready notification preference.
func (s *Service) SetNotifications(ctx context.Context, playerID string, on bool) error {
	if _, err := s.LoadPlayer(ctx, playerID); err != nil {
		return err
	}
	return s.gw.Write(ctx, playerID, store.Patch{Notifications: &on})
}

// session returns the live session, rebuilding it from the persisted
// document when the process restarted mid-reveal.
func (s *Service) session(ctx context.Context, playerID string) (*liveSession, error) {
	s.mu.Lock()
	if live, ok := s.sessions[playerID]; ok {
		s.mu.Unlock()
		return live, nil
	}
	s.mu.Unlock()

	p, err := s.LoadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if len(p.CurrentBooster) == 0 {
		return nil, session.ErrNoSession
	}

	live := &liveSession{
		sess:  session.Resume(p.CurrentBooster, p.RevealedCards),
		genID: p.BoosterGen,
		packs: p.BoosterPacks,
		bonus: p.BoosterBonus,
	}

	s.mu.Lock()
	if existing, ok := s.sessions[playerID]; ok {
		live = existing
	} else {
		s.sessions[playerID] = live
	}
	s.mu.Unlock()

	logger.LogSystem("Session resumed",
		"player_id", playerID,
		"cards", live.sess.Size(),
		"revealed", len(live.sess.Revealed()),
	)
	return live, nil
}

func ptr[T any](v T) *T {
	return &v
}
