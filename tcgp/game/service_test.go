package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/economy/cooldown"
	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
	"github.com/toto789520/TCGP-bis/tcgp/gacha"
	"github.com/toto789520/TCGP-bis/tcgp/gateway"
	"github.com/toto789520/TCGP-bis/tcgp/session"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

// bucketSource serves every rarity from a generated pool so seeded draws
// never hit an empty bucket.
type bucketSource struct{}

func (bucketSource) Bucket(_ context.Context, _ string, rarity catalog.Rarity) ([]catalog.Card, error) {
	base := map[catalog.Rarity]int{
		catalog.RarityCommon:    100,
		catalog.RarityUncommon:  200,
		catalog.RarityRare:      300,
		catalog.RarityUltraRare: 400,
		catalog.RaritySecret:    500,
	}[rarity]

	out := make([]catalog.Card, 20)
	for i := range out {
		out[i] = catalog.Card{ID: base + i, Name: string(rarity)}
	}
	return out, nil
}

type fixture struct {
	svc   *Service
	store *store.MemoryStore
	gw    *gateway.Gateway
	sched *cooldown.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	gw, err := gateway.New(context.Background(), st, gateway.NewMemoryQueueStore(), gateway.Options{
		MinWriteInterval: 0, // every write goes straight through
		RevealDebounce:   time.Hour,
		BackoffBase:      time.Hour,
		BackoffCap:       time.Hour,
		MaxAttempts:      3,
	})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}

	sched := cooldown.NewScheduler(nil)
	t.Cleanup(sched.Close)

	cfg := Config{
		Generations:       []string{"gen1", "gen2"},
		PacksPerCooldown:  3,
		PointsPerCard:     1,
		CooldownStandard:  7 * time.Minute,
		CooldownVIP:       4 * time.Minute,
		ThresholdStandard: 30,
		ThresholdVIP:      20,
	}
	composer := gacha.NewComposer(bucketSource{}, gacha.NewSeededRNG(11), gacha.DefaultTuning())

	return &fixture{
		svc:   NewService(cfg, st, gw, composer, sched),
		store: st,
		gw:    gw,
		sched: sched,
	}
}

func (f *fixture) revealAll(t *testing.T, playerID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := f.svc.Reveal(context.Background(), playerID, i); err != nil {
			t.Fatalf("Reveal(%d) error = %v", i, err)
		}
	}
}

func TestDrawRevealClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	status, err := f.svc.GenState(ctx, "p1", "gen1")
	if err != nil {
		t.Fatalf("GenState() error = %v", err)
	}
	if status.State.AvailablePacks != 3 {
		t.Fatalf("fresh player packs = %d, want 3", status.State.AvailablePacks)
	}

	cards, err := f.svc.Draw(ctx, "p1", "gen1", 1, false)
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if len(cards) < 4 || len(cards) > 5 {
		t.Fatalf("Draw() returned %d cards, want 4 or 5", len(cards))
	}

	// The pending session must be durable before any reveal.
	p, _ := f.store.GetPlayer(ctx, "p1")
	if len(p.CurrentBooster) != len(cards) {
		t.Fatalf("persisted booster has %d cards, want %d", len(p.CurrentBooster), len(cards))
	}
	if p.BoosterGen != "gen1" || p.BoosterPacks != 1 || p.BoosterBonus {
		t.Errorf("persisted session meta = %q/%d/%v, want gen1/1/false",
			p.BoosterGen, p.BoosterPacks, p.BoosterBonus)
	}

	if _, err := f.svc.Draw(ctx, "p1", "gen1", 1, false); !errors.Is(err, session.ErrSessionOpen) {
		t.Fatalf("second Draw() error = %v, want ErrSessionOpen", err)
	}

	if _, err := f.svc.CloseSession(ctx, "p1"); !errors.Is(err, session.ErrNotFullyRevealed) {
		t.Fatalf("early CloseSession() error = %v, want ErrNotFullyRevealed", err)
	}

	f.revealAll(t, "p1", len(cards))

	res, err := f.svc.CloseSession(ctx, "p1")
	if err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}
	if len(res.Cards) != len(cards) {
		t.Errorf("close returned %d cards, want %d", len(res.Cards), len(cards))
	}
	if res.State.AvailablePacks != 2 {
		t.Errorf("packs after close = %d, want 2", res.State.AvailablePacks)
	}
	if res.State.Points != len(cards) {
		t.Errorf("points after close = %d, want %d", res.State.Points, len(cards))
	}
	if res.EarnedBonus != 0 {
		t.Errorf("earned bonus = %d, want 0", res.EarnedBonus)
	}

	p, _ = f.store.GetPlayer(ctx, "p1")
	if len(p.Collection) != len(cards) {
		t.Errorf("collection has %d cards, want %d", len(p.Collection), len(cards))
	}
	if len(p.CurrentBooster) != 0 || p.BoosterGen != "" {
		t.Error("session fields not cleared after close")
	}
}

func TestCloseRetryAfterOutage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cards, err := f.svc.Draw(ctx, "p1", "gen1", 1, false)
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	f.revealAll(t, "p1", len(cards))

	// The reveal flush and the collection append go through, then the
	// session-clearing write hits an outage.
	outage := errors.New("connection refused")
	f.store.FailWith(nil, nil, outage)

	if _, err := f.svc.CloseSession(ctx, "p1"); !errors.Is(err, outage) {
		t.Fatalf("CloseSession() error = %v, want the outage surfaced", err)
	}

	// The persisted session is still pending, so the player retries.
	res, err := f.svc.CloseSession(ctx, "p1")
	if err != nil {
		t.Fatalf("retried CloseSession() error = %v", err)
	}
	if len(res.Cards) != len(cards) {
		t.Errorf("retried close returned %d cards, want %d", len(res.Cards), len(cards))
	}
	if res.State.AvailablePacks != 2 {
		t.Errorf("packs after retried close = %d, want settled once to 2", res.State.AvailablePacks)
	}
	if res.State.Points != len(cards) {
		t.Errorf("points after retried close = %d, want %d", res.State.Points, len(cards))
	}

	p, _ := f.store.GetPlayer(ctx, "p1")
	if len(p.Collection) != len(cards) {
		t.Fatalf("collection has %d cards after retry, want %d", len(p.Collection), len(cards))
	}
	seen := make(map[string]bool)
	for _, c := range p.Collection {
		if seen[c.InstanceID] {
			t.Errorf("instance %s appended twice", c.InstanceID)
		}
		seen[c.InstanceID] = true
	}
	if len(p.CurrentBooster) != 0 || p.BoosterGen != "" {
		t.Error("session fields not cleared after retried close")
	}
}

func TestDrawUnknownGeneration(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Draw(context.Background(), "p1", "gen9", 1, false); !errors.Is(err, ErrUnknownGeneration) {
		t.Errorf("Draw() error = %v, want ErrUnknownGeneration", err)
	}
	if _, err := f.svc.GenState(context.Background(), "p1", "gen9"); !errors.Is(err, ErrUnknownGeneration) {
		t.Errorf("GenState() error = %v, want ErrUnknownGeneration", err)
	}
}

func TestDrawNoPacksAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := store.NewPlayer("p1")
	p.PacksByGen["gen1"] = ledger.GenState{AvailablePacks: 0, LastDrawTime: time.Now()}
	if err := f.store.CreatePlayer(ctx, p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	if _, err := f.svc.Draw(ctx, "p1", "gen1", 1, false); !errors.Is(err, ErrNoPacksAvailable) {
		t.Errorf("Draw() error = %v, want ErrNoPacksAvailable", err)
	}
}

func TestDrawRegeneratesAfterCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := store.NewPlayer("p1")
	p.PacksByGen["gen1"] = ledger.GenState{
		AvailablePacks: 0,
		LastDrawTime:   time.Now().Add(-8 * time.Minute),
	}
	if err := f.store.CreatePlayer(ctx, p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	if _, err := f.svc.Draw(ctx, "p1", "gen1", 1, false); err != nil {
		t.Fatalf("Draw() after elapsed window error = %v", err)
	}
}

func TestAdminBypassesPackChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := store.NewPlayer("admin")
	p.Role = store.RoleAdmin
	p.PacksByGen["gen1"] = ledger.GenState{AvailablePacks: 0, LastDrawTime: time.Now()}
	if err := f.store.CreatePlayer(ctx, p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	if _, err := f.svc.Draw(ctx, "admin", "gen1", 1, false); err != nil {
		t.Fatalf("admin Draw() error = %v", err)
	}
}

func TestBonusDraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := store.NewPlayer("p1")
	p.PacksByGen["gen1"] = ledger.GenState{AvailablePacks: 1, BonusPacks: 2, LastDrawTime: time.Now()}
	if err := f.store.CreatePlayer(ctx, p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	cards, err := f.svc.UseBonusPacks(ctx, "p1", "gen1")
	if err != nil {
		t.Fatalf("UseBonusPacks() error = %v", err)
	}
	if len(cards) < 8 || len(cards) > 10 {
		t.Fatalf("UseBonusPacks() drew %d cards, want two packs worth", len(cards))
	}

	f.revealAll(t, "p1", len(cards))
	res, err := f.svc.CloseSession(ctx, "p1")
	if err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}
	if res.State.BonusPacks != 0 {
		t.Errorf("bonus packs after close = %d, want 0", res.State.BonusPacks)
	}
	if res.State.AvailablePacks != 1 {
		t.Errorf("available packs after bonus close = %d, want untouched 1", res.State.AvailablePacks)
	}
}

func TestBonusDrawWithoutBonusPacks(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.UseBonusPacks(context.Background(), "p1", "gen1"); !errors.Is(err, ErrNoBonusPacks) {
		t.Errorf("UseBonusPacks() error = %v, want ErrNoBonusPacks", err)
	}
}

func TestResumeAfterRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cards, err := f.svc.Draw(ctx, "p1", "gen1", 1, false)
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := f.svc.Reveal(ctx, "p1", 0); err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	if err := f.gw.FlushReveals(ctx); err != nil {
		t.Fatalf("FlushReveals() error = %v", err)
	}

	// A second service over the same store stands in for a restarted
	// process.
	restarted := NewService(f.svc.cfg, f.store, f.gw, f.svc.composer, f.sched)

	resume, err := restarted.Resume(ctx, "p1")
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resume == nil {
		t.Fatal("Resume() = nil, want restored session")
	}
	if len(resume.Booster) != len(cards) {
		t.Errorf("resumed booster has %d cards, want %d", len(resume.Booster), len(cards))
	}
	if len(resume.Revealed) != 1 || resume.Revealed[0] != 0 {
		t.Errorf("resumed revealed = %v, want [0]", resume.Revealed)
	}

	// The restored session closes like a live one.
	for i := 0; i < len(cards); i++ {
		if err := restarted.Reveal(ctx, "p1", i); err != nil {
			t.Fatalf("Reveal(%d) error = %v", i, err)
		}
	}
	if _, err := restarted.CloseSession(ctx, "p1"); err != nil {
		t.Fatalf("CloseSession() after resume error = %v", err)
	}
}

func TestResumeWithoutSession(t *testing.T) {
	f := newFixture(t)
	resume, err := f.svc.Resume(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resume != nil {
		t.Errorf("Resume() = %+v, want nil", resume)
	}
}

func TestSetNotifications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.svc.SetNotifications(ctx, "p1", true); err != nil {
		t.Fatalf("SetNotifications() error = %v", err)
	}
	p, _ := f.store.GetPlayer(ctx, "p1")
	if !p.Notifications {
		t.Error("notification preference not persisted")
	}
}
