package catalog

import "time"

// Rarity identifies a drop bucket. Values match the catalog file names.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityUltraRare Rarity = "ultra_rare"
	RaritySecret    Rarity = "secret"
)

// Buckets lists every rarity in catalog order. Roster assembly and the rate
// tables both iterate in this order.
var Buckets = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityUltraRare,
	RaritySecret,
}

func (r Rarity) Valid() bool {
	for _, b := range Buckets {
		if r == b {
			return true
		}
	}
	return false
}

type Attack struct {
	Name   string `json:"name"`
	Damage string `json:"damage,omitempty"`
	Cost   int    `json:"cost,omitempty"`
}

// Card is an immutable catalog entry as stored in the bucket files.
type Card struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	HP       int      `json:"hp,omitempty"`
	Types    []string `json:"types,omitempty"`
	Attacks  []Attack `json:"attacks,omitempty"`
	Weakness string   `json:"weakness,omitempty"`
	Image    string   `json:"image"`
}

// RosterCard is a catalog card placed in a generation roster. DisplayID is the
// dense 1-based binder number, independent of the intrinsic catalog ID.
type RosterCard struct {
	Card
	Rarity    Rarity `json:"rarity"`
	DisplayID int    `json:"display_id"`
}

// Instance is a drawn copy of a catalog card, stamped once at draw time and
// immutable afterwards.
type Instance struct {
	Card
	InstanceID  string    `json:"instance_id"`
	Rarity      Rarity    `json:"rarity"`
	Generation  string    `json:"generation"`
	SpecialSlot bool      `json:"special_slot,omitempty"`
	AcquiredAt  time.Time `json:"acquired_at"`
}
