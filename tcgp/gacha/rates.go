package gacha

import (
	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/config"
)

type Rate struct {
	Rarity catalog.Rarity
	Chance float64
}

// RateTable is an ordered drop table. Order matters: rarity resolution scans
// cumulative chances in table order.
type RateTable []Rate

// StandardRates covers pack slots 0 through 3.
func StandardRates() RateTable {
	return RateTable{
		{catalog.RarityCommon, 56},
		{catalog.RarityUncommon, 26},
		{catalog.RarityRare, 14},
		{catalog.RarityUltraRare, 3.8},
		{catalog.RaritySecret, 0.2},
	}
}

// SpecialSlotRates covers slot 4, the optional fifth card. The two lowest
// rarities are excluded and secret odds are boosted.
func SpecialSlotRates() RateTable {
	return RateTable{
		{catalog.RarityRare, 68},
		{catalog.RarityUltraRare, 30},
		{catalog.RaritySecret, 2},
	}
}

func (t RateTable) Total() float64 {
	var sum float64
	for _, r := range t {
		sum += r.Chance
	}
	return sum
}

// AdjustForVIP skews a table toward rarer buckets, then renormalizes so the
// adjusted chances sum to the same total as the input table.
func AdjustForVIP(t RateTable) RateTable {
	mult := map[catalog.Rarity]float64{
		catalog.RarityCommon:    config.VIPCommonMult,
		catalog.RarityUncommon:  config.VIPUncommonMult,
		catalog.RarityRare:      config.VIPRareMult,
		catalog.RarityUltraRare: config.VIPUltraRareMult,
		catalog.RaritySecret:    config.VIPSecretMult,
	}

	adjusted := make(RateTable, len(t))
	for i, r := range t {
		m, ok := mult[r.Rarity]
		if !ok {
			m = 1
		}
		adjusted[i] = Rate{Rarity: r.Rarity, Chance: r.Chance * m}
	}

	sum := adjusted.Total()
	if sum == 0 {
		sum = 1
	}
	original := t.Total()
	if original == 0 {
		original = 100
	}
	factor := original / sum
	for i := range adjusted {
		adjusted[i].Chance *= factor
	}
	return adjusted
}

// TableForSlot returns the drop table for a pack slot, VIP-adjusted when
// needed.
func TableForSlot(slot int, vip bool) RateTable {
	table := StandardRates()
	if slot == config.SpecialSlotIndex {
		table = SpecialSlotRates()
	}
	if vip {
		table = AdjustForVIP(table)
	}
	return table
}

// ResolveRarity rolls one rarity from the table for the given slot. The roll
// is uniform over the table total; the first bucket whose cumulative chance
// covers the roll wins, with the last entry as a floating-point safety net.
func ResolveRarity(slot int, vip bool, rng RandomSource) catalog.Rarity {
	return resolveFromTable(TableForSlot(slot, vip), rng)
}

func resolveFromTable(table RateTable, rng RandomSource) catalog.Rarity {
	roll := rng.Float64() * table.Total()

	var acc float64
	for _, r := range table {
		acc += r.Chance
		if roll <= acc {
			return r.Rarity
		}
	}
	return table[len(table)-1].Rarity
}
