// Package store persists player documents. The Store interface is the only
// write path to a player record; production uses Postgres, tests an
// in-memory fake.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
)

type Role string

const (
	RolePlayer Role = "player"
	RoleVIP    Role = "vip"
	RoleAdmin  Role = "admin"
)

// VIP reports whether the role gets the VIP cooldown, threshold and rates.
// Admins play with VIP perks.
func (r Role) VIP() bool {
	return r == RoleVIP || r == RoleAdmin
}

func (r Role) Admin() bool {
	return r == RoleAdmin
}

var (
	ErrNotFound = errors.New("store: player not found")

	// ErrQuotaExhausted marks a write rejected because the backend ran out
	// of quota. Such writes are queued and retried, never surfaced.
	ErrQuotaExhausted = errors.New("store: backend quota exhausted")
)

// Player is the persisted player document. Collection and session fields are
// JSONB so the document keeps the same shape the web app used.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID         string                     `bun:"id,pk" json:"id"`
	Role       Role                       `bun:"role,notnull,default:'player'" json:"role"`
	Collection []catalog.Instance         `bun:"collection,type:jsonb,notnull,default:'[]'" json:"collection"`
	PacksByGen map[string]ledger.GenState `bun:"packs_by_gen,type:jsonb,notnull,default:'{}'" json:"packs_by_gen"`

	// In-flight booster session, empty when none. BoosterGen, BoosterPacks
	// and BoosterBonus carry the settlement inputs across a crash.
	CurrentBooster []catalog.Instance `bun:"current_booster,type:jsonb,notnull,default:'[]'" json:"current_booster"`
	RevealedCards  []int              `bun:"booster_revealed_cards,type:jsonb,notnull,default:'[]'" json:"booster_revealed_cards"`
	BoosterGen     string             `bun:"booster_gen,notnull,default:''" json:"booster_gen"`
	BoosterPacks   int                `bun:"booster_packs,notnull,default:0" json:"booster_packs"`
	BoosterBonus   bool               `bun:"booster_bonus,notnull,default:false" json:"booster_bonus"`

	Notifications bool   `bun:"notifications,notnull,default:false" json:"notifications"`
	AdminNotice   string `bun:"admin_notice,notnull,default:''" json:"admin_notice,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// NewPlayer returns a fresh document with defaults, created lazily the first
// time an unknown player id is loaded.
func NewPlayer(id string) *Player {
	return &Player{
		ID:         id,
		Role:       RolePlayer,
		Collection: []catalog.Instance{},
		PacksByGen: map[string]ledger.GenState{},
	}
}

// GenState returns the player's counters for a generation, bootstrapping a
// full-cap state for generations never touched.
func (p *Player) GenState(genID string) ledger.GenState {
	if st, ok := p.PacksByGen[genID]; ok {
		return st
	}
	return ledger.NewGenState()
}

// OwnedCopies counts owned instances of one catalog card id.
func (p *Player) OwnedCopies(cardID int) int {
	n := 0
	for _, c := range p.Collection {
		if c.ID == cardID {
			n++
		}
	}
	return n
}

// Patch is a merge-write against a player document. Nil fields are left
// untouched; PacksByGen merges per generation key rather than replacing the
// whole map.
type Patch struct {
	Role           *Role
	Collection     *[]catalog.Instance
	PacksByGen     map[string]ledger.GenState
	CurrentBooster *[]catalog.Instance
	RevealedCards  *[]int
	BoosterGen     *string
	BoosterPacks   *int
	BoosterBonus   *bool
	Notifications  *bool
	AdminNotice    *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Role == nil && p.Collection == nil && len(p.PacksByGen) == 0 &&
		p.CurrentBooster == nil && p.RevealedCards == nil &&
		p.BoosterGen == nil && p.BoosterPacks == nil && p.BoosterBonus == nil &&
		p.Notifications == nil && p.AdminNotice == nil
}

// Apply merges the patch into a document in place.
func (p Patch) Apply(doc *Player) {
	if p.Role != nil {
		doc.Role = *p.Role
	}
	if p.Collection != nil {
		doc.Collection = *p.Collection
	}
	if len(p.PacksByGen) > 0 {
		if doc.PacksByGen == nil {
			doc.PacksByGen = make(map[string]ledger.GenState, len(p.PacksByGen))
		}
		for gen, st := range p.PacksByGen {
			doc.PacksByGen[gen] = st
		}
	}
	if p.CurrentBooster != nil {
		doc.CurrentBooster = *p.CurrentBooster
	}
	if p.RevealedCards != nil {
		doc.RevealedCards = *p.RevealedCards
	}
	if p.BoosterGen != nil {
		doc.BoosterGen = *p.BoosterGen
	}
	if p.BoosterPacks != nil {
		doc.BoosterPacks = *p.BoosterPacks
	}
	if p.BoosterBonus != nil {
		doc.BoosterBonus = *p.BoosterBonus
	}
	if p.Notifications != nil {
		doc.Notifications = *p.Notifications
	}
	if p.AdminNotice != nil {
		doc.AdminNotice = *p.AdminNotice
	}
}

// Store is the player document repository.
type Store interface {
	GetPlayer(ctx context.Context, id string) (*Player, error)
	CreatePlayer(ctx context.Context, p *Player) error
	SavePlayer(ctx context.Context, id string, patch Patch) error
	AppendToCollection(ctx context.Context, id string, cards []catalog.Instance) error
	DeletePlayer(ctx context.Context, id string) error
	ListPlayers(ctx context.Context) ([]*Player, error)

	Maintenance(ctx context.Context) (bool, error)
	SetMaintenance(ctx context.Context, on bool) error
}

// IsQuota classifies an error as backend quota exhaustion. Postgres maps
// these to SQLSTATE class 53 (insufficient resources).
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if code := pgErr.Field('C'); strings.HasPrefix(code, "53") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "quota")
}
