package config

import "time"

// Application-wide constants organized by domain

// Booster and Draw Constants
const (
	// Packs
	PacksPerCooldown = 3
	FiveCardChance   = 0.25
	PackBaseSize     = 4
	PackMaxSize      = 5
	SpecialSlotIndex = 4

	// Duplicate limiting
	DuplicateCap    = 2
	DrawAttemptCap  = 50
	MaxPacksPerOpen = 3
)

// Economy Constants
const (
	PointsPerCard        = 1
	PointsForBonusPack   = 30
	VIPPointsForBonus    = 20
	CooldownMinutes      = 7
	VIPCooldownMinutes   = 4
	BoosterCloseDelaySec = 3
)

// VIP rate multipliers, applied per rarity before renormalization
const (
	VIPCommonMult    = 0.8
	VIPUncommonMult  = 0.9
	VIPRareMult      = 1.2
	VIPUltraRareMult = 1.4
	VIPSecretMult    = 1.6
)

// Persistence Gateway Constants
const (
	MinWriteInterval   = 1 * time.Second
	RevealDebounce     = 5 * time.Second
	QueueFlushInterval = 30 * time.Second
	QueueBackoffBase   = 10 * time.Second
	QueueBackoffCap    = 60 * time.Second
	QueueMaxAttempts   = 3
	QueueBackoffMaxExp = 6
)

// Timeouts
const (
	DefaultQueryTimeout = 30 * time.Second
	CatalogFetchTimeout = 10 * time.Second
	DrawTimeout         = 30 * time.Second
	InitLoadTimeout     = 10 * time.Second
	NetworkDialTimeout  = 5 * time.Second
)

// Catalog cache
const (
	RosterCacheSize = 32
	BucketCacheSize = 64
)
