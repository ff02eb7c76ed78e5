package quest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dailyquests/internal/config"
	"dailyquests/internal/host"
	"dailyquests/internal/model"
	"dailyquests/internal/storage"
	"dailyquests/internal/telemetry"
)

const (
	cashID     = 1
	weaponID   = 2
	ammoID     = 3
	goodsBase  = 1000
	goodsCount = 150
	rewardA    = 5000
	rewardB    = 5001
	treasureID = 5002
	hvAmmoID   = 5003
	stackedID  = 5004
)

var testDay = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	world  *host.MemoryWorld
	cat    *config.Catalog
	store  *storage.MemoryStore
	clock  *host.FakeClock
	events *telemetry.MemoryRepository
	seed   uint64
}

func goodsIDs() []int {
	ids := make([]int, goodsCount)
	for i := range ids {
		ids[i] = goodsBase + i
	}
	return ids
}

func newWorld(level int) *host.MemoryWorld {
	w := host.NewMemoryWorld(cashID)
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: weaponID, DisplayName: "Rifle"}, Tags: []string{WeaponTag}})
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: ammoID, DisplayName: "Rounds", Stackable: true}})
	for _, id := range goodsIDs() {
		w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: id, DisplayName: fmt.Sprintf("Goods %d", id)}})
	}
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: rewardA, DisplayName: "Bandage"}})
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: rewardB, DisplayName: "Ration"}})
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: treasureID, DisplayName: "Gold Bar"}})
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: hvAmmoID, DisplayName: "AP Rounds", Stackable: true}})
	w.DefineItem(host.ItemDef{ItemMeta: host.ItemMeta{ID: stackedID, DisplayName: "Scrap", Stackable: true}})

	w.SetLevel(level)
	w.SetUnlocked(goodsIDs()...)
	w.SetEnemies(
		host.EnemyPreset{NameKey: "scav", DisplayName: "Scavenger"},
		host.EnemyPreset{NameKey: "raider", DisplayName: "Raider"},
		host.EnemyPreset{NameKey: "lord", DisplayName: "Warlord"},
		host.EnemyPreset{NameKey: "ghost", DisplayName: "Ghost"},
	)
	return w
}

func newCatalog() *config.Catalog {
	cat := config.DefaultCatalog()
	cat.AllowedUseItemIDs = config.NewSet(goodsIDs()...)
	cat.AllowedSubmitItemIDs = config.NewSet(append(goodsIDs(), ammoID)...)
	cat.AllowedRewardItemIDs = config.NewSet(rewardA, rewardB, treasureID, ammoID, hvAmmoID, stackedID)
	cat.AllowedAmmoIDs = config.NewSet(ammoID, hvAmmoID)
	cat.HighValueRewardItemIDs = config.NewSet(treasureID)
	cat.HighValueAmmoIDs = config.NewSet(hvAmmoID)
	cat.AllowedEnemyNames = config.NewSet("Scavenger", "raider", "Warlord")
	cat.BossEnemyNames = config.NewSet("Warlord")
	return cat
}

func newFixture(t *testing.T, level int) *fixture {
	t.Helper()
	return &fixture{
		world:  newWorld(level),
		cat:    newCatalog(),
		store:  storage.NewMemoryStore(),
		clock:  host.NewFakeClock(testDay),
		events: telemetry.NewMemoryRepository(),
		seed:   42,
	}
}

// service builds a fresh engine over the fixture's world and store, as a
// new session would.
func (f *fixture) service() *Service {
	f.seed++
	return NewService(Options{
		Catalog:  f.cat,
		Host:     f.world.Host(),
		Store:    f.store,
		Clock:    f.clock,
		Logger:   zap.NewNop(),
		Rand:     NewRand(f.seed),
		Recorder: telemetry.NewRecorder(f.events, nil, zap.NewNop()),
	})
}

func (f *fixture) started(t *testing.T) *Service {
	t.Helper()
	s := f.service()
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func (f *fixture) generator() *Generator {
	rng := NewRand(7)
	h := f.world.Host()
	return NewGenerator(f.cat, h, rng, NewRewardAssignor(f.cat, h, rng))
}

func (f *fixture) eventsOf(t *testing.T, typ telemetry.EventType) []telemetry.Event {
	t.Helper()
	evs, err := f.events.GetEvents(time.Time{}, []telemetry.EventType{typ})
	require.NoError(t, err)
	return evs
}

func useTask(itemID, required int) model.Task {
	return model.Task{
		ID:                model.TaskID(model.UseItem, itemID),
		Category:          model.UseItem,
		TargetItemID:      itemID,
		RequiredAmount:    required,
		Difficulty:        model.Easy,
		RewardCashAmount:  2500,
		RewardExpAmount:   1200,
		RewardItems:       []model.RewardItem{{TypeID: rewardA, Count: 1}},
		Title:             "Use item",
		RewardPreviewText: "Cash 2500, EXP 1200",
	}
}

func countByDifficulty(tasks []model.Task) map[model.Difficulty]int {
	out := map[model.Difficulty]int{}
	for _, t := range tasks {
		out[t.Difficulty]++
	}
	return out
}
