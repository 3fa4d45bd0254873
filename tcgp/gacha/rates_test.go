package gacha

import (
	"math"
	"testing"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
)

func TestResolveRarity(t *testing.T) {
	tests := []struct {
		name string
		slot int
		roll float64
		want catalog.Rarity
	}{
		{name: "low roll is common", slot: 0, roll: 0.10, want: catalog.RarityCommon},
		{name: "mid roll is common", slot: 1, roll: 0.40, want: catalog.RarityCommon},
		{name: "top of the common band", slot: 0, roll: 0.5599, want: catalog.RarityCommon},
		{name: "bottom of the uncommon band", slot: 0, roll: 0.5601, want: catalog.RarityUncommon},
		{name: "uncommon band", slot: 2, roll: 0.70, want: catalog.RarityUncommon},
		{name: "rare band", slot: 3, roll: 0.90, want: catalog.RarityRare},
		{name: "ultra rare band", slot: 0, roll: 0.97, want: catalog.RarityUltraRare},
		{name: "secret band", slot: 0, roll: 0.999, want: catalog.RaritySecret},
		{name: "special slot rare", slot: 4, roll: 0.50, want: catalog.RarityRare},
		{name: "special slot ultra rare", slot: 4, roll: 0.80, want: catalog.RarityUltraRare},
		{name: "special slot secret", slot: 4, roll: 0.99, want: catalog.RaritySecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRarity(tt.slot, false, NewFixedRNG(tt.roll))
			if got != tt.want {
				t.Errorf("ResolveRarity(%d, roll=%v) = %v, want %v", tt.slot, tt.roll, got, tt.want)
			}
		})
	}
}

func TestAdjustForVIPPreservesTotal(t *testing.T) {
	for _, table := range []RateTable{StandardRates(), SpecialSlotRates()} {
		adjusted := AdjustForVIP(table)
		if got, want := adjusted.Total(), table.Total(); math.Abs(got-want) > 1e-9 {
			t.Errorf("adjusted total = %v, want %v", got, want)
		}
		if len(adjusted) != len(table) {
			t.Fatalf("adjusted table has %d entries, want %d", len(adjusted), len(table))
		}
		for i := range adjusted {
			if adjusted[i].Rarity != table[i].Rarity {
				t.Errorf("entry %d rarity = %v, want %v", i, adjusted[i].Rarity, table[i].Rarity)
			}
		}
	}
}

func TestAdjustForVIPSkewsTowardRare(t *testing.T) {
	standard := StandardRates()
	vip := AdjustForVIP(standard)

	byRarity := func(t RateTable, r catalog.Rarity) float64 {
		for _, e := range t {
			if e.Rarity == r {
				return e.Chance
			}
		}
		return 0
	}

	if got := byRarity(vip, catalog.RarityCommon); got >= byRarity(standard, catalog.RarityCommon) {
		t.Errorf("VIP common chance = %v, want below %v", got, byRarity(standard, catalog.RarityCommon))
	}
	for _, r := range []catalog.Rarity{catalog.RarityRare, catalog.RarityUltraRare, catalog.RaritySecret} {
		if got := byRarity(vip, r); got <= byRarity(standard, r) {
			t.Errorf("VIP %s chance = %v, want above %v", r, got, byRarity(standard, r))
		}
	}
}

func TestTableForSlot(t *testing.T) {
	if got := TableForSlot(4, false); len(got) != len(SpecialSlotRates()) {
		t.Errorf("slot 4 table has %d entries, want %d", len(got), len(SpecialSlotRates()))
	}
	for slot := 0; slot < 4; slot++ {
		if got := TableForSlot(slot, false); len(got) != len(StandardRates()) {
			t.Errorf("slot %d table has %d entries, want %d", slot, len(got), len(StandardRates()))
		}
	}
}

func TestResolveRarityNeverEmpty(t *testing.T) {
	rng := NewSeededRNG(42)
	for i := 0; i < 10000; i++ {
		slot := i % 5
		if got := ResolveRarity(slot, i%2 == 0, rng); !got.Valid() {
			t.Fatalf("ResolveRarity returned invalid rarity %q", got)
		}
	}
}
