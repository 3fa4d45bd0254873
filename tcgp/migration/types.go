package migration

import (
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

// legacyPlayer mirrors the web app's document shape. The old app was loose
// about field naming, so both spellings of several fields are accepted.
type legacyPlayer struct {
	ID   string `bson:"_id"`
	Role string `bson:"role"`

	Collection []legacyCard `bson:"collection"`

	PacksByGen    map[string]legacyGenState `bson:"packs_by_gen"`
	PacksByGenAlt map[string]legacyGenState `bson:"packsbygen"`

	CurrentBooster []legacyCard `bson:"current_booster"`
	Revealed       []int        `bson:"booster_revealed_cards"`
	RevealedAlt    []int        `bson:"boosterrevealedcards"`

	Notifications bool `bson:"notifications"`
}

type legacyCard struct {
	ID          int    `bson:"id"`
	Name        string `bson:"name"`
	Image       string `bson:"image"`
	RarityKey   string `bson:"rarityKey"`
	Generation  string `bson:"generation"`
	SpecialSlot bool   `bson:"isSpecialSlot"`
	AcquiredAt  int64  `bson:"acquiredAt"`
}

type legacyGenState struct {
	AvailablePacks    int   `bson:"available_packs"`
	AvailablePacksAlt *int  `bson:"availablepacks"`
	LastDrawTime      int64 `bson:"last_draw_time"`
	LastDrawTimeAlt   int64 `bson:"lastdrawtime"`
	Points            int   `bson:"points"`
	BonusPacks        int   `bson:"bonus_packs"`
	BonusPacksAlt     *int  `bson:"bonuspacks"`
}

func (l legacyPlayer) convert() *store.Player {
	p := store.NewPlayer(l.ID)

	switch store.Role(l.Role) {
	case store.RoleVIP, store.RoleAdmin:
		p.Role = store.Role(l.Role)
	}

	p.Collection = convertCards(l.Collection)
	p.CurrentBooster = convertCards(l.CurrentBooster)
	p.RevealedCards = l.Revealed
	if len(p.RevealedCards) == 0 {
		p.RevealedCards = l.RevealedAlt
	}
	p.Notifications = l.Notifications

	gens := l.PacksByGen
	if len(gens) == 0 {
		gens = l.PacksByGenAlt
	}
	for gen, legacy := range gens {
		p.PacksByGen[gen] = legacy.convert()
	}

	return p
}

func (l legacyGenState) convert() ledger.GenState {
	st := ledger.GenState{
		AvailablePacks: l.AvailablePacks,
		Points:         l.Points,
		BonusPacks:     l.BonusPacks,
	}
	if l.AvailablePacksAlt != nil {
		st.AvailablePacks = *l.AvailablePacksAlt
	}
	if l.BonusPacksAlt != nil {
		st.BonusPacks = *l.BonusPacksAlt
	}

	millis := l.LastDrawTime
	if millis == 0 {
		millis = l.LastDrawTimeAlt
	}
	if millis > 0 {
		st.LastDrawTime = time.UnixMilli(millis).UTC()
	}
	return st
}

func convertCards(cards []legacyCard) []catalog.Instance {
	out := make([]catalog.Instance, len(cards))
	for i, c := range cards {
		rarity := catalog.Rarity(c.RarityKey)
		if !rarity.Valid() {
			rarity = catalog.RarityCommon
		}
		inst := catalog.Instance{
			Card: catalog.Card{
				ID:    c.ID,
				Name:  c.Name,
				Image: c.Image,
			},
			Rarity:      rarity,
			Generation:  c.Generation,
			SpecialSlot: c.SpecialSlot,
		}
		if c.AcquiredAt > 0 {
			inst.AcquiredAt = time.UnixMilli(c.AcquiredAt).UTC()
		}
		out[i] = inst
	}
	return out
}
