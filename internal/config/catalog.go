package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"dailyquests/internal/host"
	"dailyquests/internal/model"
)

var ErrInvalidQuota = errors.New("invalid quota table")

// Catalog holds the static allow-lists and balance knobs for daily task generation.
type Catalog struct {
	Capacity          int    `yaml:"capacity" json:"capacity" validate:"gt=0"`
	TargetMerchant    string `yaml:"target_merchant" json:"target_merchant" validate:"required"`
	RefreshFreeSlots  int    `yaml:"refresh_free_slots" json:"refresh_free_slots" validate:"gte=0"`
	RolloverFreeSlots int    `yaml:"rollover_free_slots" json:"rollover_free_slots" validate:"gte=0"`
	SpendSlots        int    `yaml:"spend_slots" json:"spend_slots" validate:"gte=0,lte=100000"`
	KillOffsetSpread  int    `yaml:"kill_offset_spread" json:"kill_offset_spread" validate:"gt=0,lte=90000"`

	AllowedUseItemIDs      Set[int] `yaml:"allowed_use_item_ids" json:"allowed_use_item_ids"`
	AllowedSubmitItemIDs   Set[int] `yaml:"allowed_submit_item_ids" json:"allowed_submit_item_ids"`
	AllowedRewardItemIDs   Set[int] `yaml:"allowed_reward_item_ids" json:"allowed_reward_item_ids"`
	AllowedAmmoIDs         Set[int] `yaml:"allowed_ammo_ids" json:"allowed_ammo_ids"`
	HighValueRewardItemIDs Set[int] `yaml:"high_value_reward_item_ids" json:"high_value_reward_item_ids"`
	HighValueAmmoIDs       Set[int] `yaml:"high_value_ammo_ids" json:"high_value_ammo_ids"`

	AllowedEnemyNames Set[string] `yaml:"allowed_enemy_names" json:"allowed_enemy_names"`
	BossEnemyNames    Set[string] `yaml:"boss_enemy_names" json:"boss_enemy_names"`

	QuotaBands []QuotaBand `yaml:"quota_bands" json:"quota_bands" validate:"required,min=1,dive"`
}

// QuotaBand is the per-tier target for players whose level falls in [MinLevel, MaxLevel].
// MaxLevel 0 leaves the band open-ended.
type QuotaBand struct {
	MinLevel int `yaml:"min_level" json:"min_level" validate:"gte=0"`
	MaxLevel int `yaml:"max_level" json:"max_level" validate:"gte=0"`
	Easy     int `yaml:"easy" json:"easy" validate:"gte=0"`
	Normal   int `yaml:"normal" json:"normal" validate:"gte=0"`
	Hard     int `yaml:"hard" json:"hard" validate:"gte=0"`
	Epic     int `yaml:"epic" json:"epic" validate:"gte=0"`
}

// Quota maps a difficulty tier to its target count.
type Quota [4]int

func (q Quota) For(d model.Difficulty) int {
	if d < 0 || int(d) >= len(q) {
		return 0
	}
	return q[d]
}

func (b QuotaBand) Quota() Quota {
	return Quota{b.Easy, b.Normal, b.Hard, b.Epic}
}

func (b QuotaBand) total() int {
	return b.Easy + b.Normal + b.Hard + b.Epic
}

func (b QuotaBand) contains(level int) bool {
	return level >= b.MinLevel && (b.MaxLevel == 0 || level <= b.MaxLevel)
}

// DefaultCatalog returns the built-in balance with empty item lists.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Capacity:          24,
		TargetMerchant:    "Mysterious Merchant",
		RefreshFreeSlots:  3,
		RolloverFreeSlots: 5,
		SpendSlots:        10,
		KillOffsetSpread:  500,

		AllowedUseItemIDs:      NewSet[int](),
		AllowedSubmitItemIDs:   NewSet[int](),
		AllowedRewardItemIDs:   NewSet[int](),
		AllowedAmmoIDs:         NewSet[int](),
		HighValueRewardItemIDs: NewSet[int](),
		HighValueAmmoIDs:       NewSet[int](),
		AllowedEnemyNames:      NewSet[string](),
		BossEnemyNames:         NewSet[string](),

		QuotaBands: []QuotaBand{
			{MinLevel: 1, MaxLevel: 10, Easy: 24},
			{MinLevel: 11, MaxLevel: 20, Easy: 18, Normal: 6},
			{MinLevel: 21, MaxLevel: 30, Easy: 10, Normal: 10, Hard: 4},
			{MinLevel: 31, MaxLevel: 40, Easy: 8, Normal: 8, Hard: 5, Epic: 3},
			{MinLevel: 41, Easy: 4, Normal: 6, Hard: 10, Epic: 4},
		},
	}
}

// LoadCatalog reads a YAML catalog on top of the defaults and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	cat := DefaultCatalog()
	if err := yaml.Unmarshal(b, cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	cat.fillNil()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) fillNil() {
	for _, s := range []*Set[int]{
		&c.AllowedUseItemIDs, &c.AllowedSubmitItemIDs, &c.AllowedRewardItemIDs,
		&c.AllowedAmmoIDs, &c.HighValueRewardItemIDs, &c.HighValueAmmoIDs,
	} {
		if *s == nil {
			*s = NewSet[int]()
		}
	}
	if c.AllowedEnemyNames == nil {
		c.AllowedEnemyNames = NewSet[string]()
	}
	if c.BossEnemyNames == nil {
		c.BossEnemyNames = NewSet[string]()
	}
}

var validate = validator.New()

// Validate checks struct constraints and the quota table shape.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	bands := c.sortedBands()
	for i, b := range bands {
		if b.MaxLevel != 0 && b.MaxLevel < b.MinLevel {
			return fmt.Errorf("%w: band %d has max_level %d below min_level %d", ErrInvalidQuota, i, b.MaxLevel, b.MinLevel)
		}
		if b.total() != c.Capacity {
			return fmt.Errorf("%w: band %d-%d sums to %d, want %d", ErrInvalidQuota, b.MinLevel, b.MaxLevel, b.total(), c.Capacity)
		}
		if i == 0 {
			continue
		}
		prev := bands[i-1]
		if prev.MaxLevel == 0 {
			return fmt.Errorf("%w: open-ended band %d- must be last", ErrInvalidQuota, prev.MinLevel)
		}
		if b.MinLevel != prev.MaxLevel+1 {
			return fmt.Errorf("%w: gap or overlap between levels %d and %d", ErrInvalidQuota, prev.MaxLevel, b.MinLevel)
		}
	}
	return nil
}

func (c *Catalog) sortedBands() []QuotaBand {
	bands := append([]QuotaBand(nil), c.QuotaBands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinLevel < bands[j].MinLevel })
	return bands
}

// QuotaFor returns the tier targets for a player level. Levels below the
// first band use the first band; levels past a closed last band use the last.
func (c *Catalog) QuotaFor(level int) Quota {
	bands := c.sortedBands()
	if len(bands) == 0 {
		return Quota{}
	}
	for _, b := range bands {
		if b.contains(level) {
			return b.Quota()
		}
	}
	if level < bands[0].MinLevel {
		return bands[0].Quota()
	}
	return bands[len(bands)-1].Quota()
}

// Prune drops item IDs that the live catalog cannot resolve.
func (c *Catalog) Prune(items host.ItemCatalog, log *zap.Logger) int {
	lists := []struct {
		name string
		set  Set[int]
	}{
		{"allowed_use_item_ids", c.AllowedUseItemIDs},
		{"allowed_submit_item_ids", c.AllowedSubmitItemIDs},
		{"allowed_reward_item_ids", c.AllowedRewardItemIDs},
		{"allowed_ammo_ids", c.AllowedAmmoIDs},
		{"high_value_reward_item_ids", c.HighValueRewardItemIDs},
		{"high_value_ammo_ids", c.HighValueAmmoIDs},
	}
	removed := 0
	for _, l := range lists {
		for _, id := range l.set.Sorted() {
			if id == 0 || items.GetMetaData(id).Valid() {
				continue
			}
			log.Warn("catalog item is unknown, removing",
				zap.Int("item_id", id),
				zap.String("list", l.name))
			delete(l.set, id)
			removed++
		}
	}
	return removed
}

func (c *Catalog) IsAmmo(itemID int) bool { return c.AllowedAmmoIDs.Has(itemID) }

// IsHighValue reports whether an item is withheld from non-epic rewards.
func (c *Catalog) IsHighValue(itemID int) bool {
	return c.HighValueRewardItemIDs.Has(itemID) || c.HighValueAmmoIDs.Has(itemID)
}

// EnemyAllowed matches a preset by display name or name key.
func (c *Catalog) EnemyAllowed(p host.EnemyPreset) bool {
	return c.AllowedEnemyNames.Has(p.DisplayName) || c.AllowedEnemyNames.Has(p.NameKey)
}

func (c *Catalog) IsBoss(nameKey, displayName string) bool {
	return (displayName != "" && c.BossEnemyNames.Has(displayName)) ||
		(nameKey != "" && c.BossEnemyNames.Has(nameKey))
}
