package quest

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dailyquests/internal/model"
	"dailyquests/internal/save"
	"dailyquests/internal/telemetry"
)

func TestInitialize_Level5EmptySave_24EasyTasks(t *testing.T) {
	f := newFixture(t, 5)
	s := f.started(t)

	tasks := s.Tasks()
	require.Len(t, tasks, 24)
	for _, tk := range tasks {
		assert.Equal(t, model.Easy, tk.Difficulty, "task %d", tk.ID)
		assert.LessOrEqual(t, 0, tk.Progress)
		assert.LessOrEqual(t, tk.Progress, tk.RequiredAmount)
	}
	assert.Equal(t, "2026-03-14", s.LastSavedDate())

	blob, err := f.store.Load(context.Background(), DefaultNamespace, DefaultKey)
	require.NoError(t, err)
	file, err := save.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, save.VersionCurrent, file.Version)
	assert.Len(t, file.TasksFull, 24)
}

func TestInitialize_HighLevelUsesLastBand(t *testing.T) {
	f := newFixture(t, 55)
	f.world.Give(weaponID, 1)
	s := f.started(t)

	tasks := s.Tasks()
	assert.LessOrEqual(t, len(tasks), 24)
	counts := countByDifficulty(tasks)
	assert.Greater(t, counts[model.Hard]+counts[model.Epic], 0)
}

func TestInitialize_IsIdempotent(t *testing.T) {
	f := newFixture(t, 5)
	s := f.started(t)
	before := s.Tasks()

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, before, s.Tasks())
}

func TestTick_SameDayIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)

	before := s.Tasks()
	blob, err := f.store.Load(ctx, DefaultNamespace, DefaultKey)
	require.NoError(t, err)

	f.clock.Advance(6 * time.Hour)
	changed, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := f.store.Load(ctx, DefaultNamespace, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, blob, after)
	assert.Equal(t, before, s.Tasks())
}

func TestTick_NewDayKeepsRetainedTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)

	tasks := s.Tasks()
	accepted := tasks[0].ID
	finished := tasks[1].ID
	require.NoError(t, s.Accept(ctx, accepted))
	require.NoError(t, s.Accept(ctx, finished))
	s.find(finished).AddProgress(s.find(finished).RequiredAmount)

	f.clock.Advance(24 * time.Hour)
	changed, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "2026-03-15", s.LastSavedDate())

	next := s.Tasks()
	require.Len(t, next, 24)
	assert.Equal(t, accepted, next[0].ID)
	assert.Equal(t, finished, next[1].ID)
	assert.True(t, next[1].Finished)
	assert.Len(t, model.IDsOf(next), 24, "ids are unique")

	assert.Len(t, f.eventsOf(t, telemetry.EventDayRollover), 2)
}

func TestTick_FullOfAcceptedEvictsFive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)
	for _, tk := range s.Tasks() {
		require.NoError(t, s.Accept(ctx, tk.ID))
	}
	before := s.Tasks()

	f.clock.Advance(24 * time.Hour)
	_, err := s.Tick(ctx)
	require.NoError(t, err)

	after := s.Tasks()
	require.Len(t, after, 24)
	for i := range 19 {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.True(t, after[i].Accepted)
	}
	for _, tk := range after[19:] {
		assert.False(t, tk.Accepted)
	}
	assert.Len(t, f.eventsOf(t, telemetry.EventTaskEvicted), 5)
}

func TestRefreshUnaccepted_ReplacesOnlyUnretained(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)

	first := s.Tasks()
	require.NoError(t, s.Accept(ctx, first[3].ID))
	require.NoError(t, s.RefreshUnaccepted(ctx))

	after := s.Tasks()
	require.Len(t, after, 24)
	assert.Equal(t, first[3].ID, after[0].ID)
	assert.True(t, after[0].Accepted)
	assert.Len(t, model.IDsOf(after), 24)
	assert.Equal(t, "2026-03-14", s.LastSavedDate())
}

func TestRefreshUnaccepted_EvictsNewestAcceptedWhenFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)
	for _, tk := range s.Tasks() {
		require.NoError(t, s.Accept(ctx, tk.ID))
	}
	before := s.Tasks()

	require.NoError(t, s.RefreshUnaccepted(ctx))
	after := s.Tasks()
	require.Len(t, after, 24)

	for i := range 21 {
		assert.Equal(t, before[i].ID, after[i].ID)
	}
	for _, tk := range after[21:] {
		assert.False(t, tk.Accepted)
		assert.Zero(t, tk.Progress)
	}
	assert.Len(t, f.eventsOf(t, telemetry.EventTaskEvicted), 3)
}

func TestRefreshUnaccepted_StaysWithinCapacityAfterLevelUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)
	for _, tk := range s.Tasks()[:20] {
		require.NoError(t, s.Accept(ctx, tk.ID))
	}
	f.world.SetLevel(45)

	require.NoError(t, s.RefreshUnaccepted(ctx))
	after := s.Tasks()
	assert.Len(t, after, 24)
	assert.Len(t, model.IDsOf(after), 24)
	for _, tk := range after[:20] {
		assert.True(t, tk.Accepted)
	}

	f.clock.Advance(24 * time.Hour)
	_, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(s.Tasks()), 24)
}

func TestRefreshUnaccepted_AllFinishedCannotEvict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.started(t)
	for i := range s.tasks {
		s.tasks[i].Accepted = true
		s.tasks[i].AddProgress(s.tasks[i].RequiredAmount)
	}
	before := s.Tasks()

	require.NoError(t, s.RefreshUnaccepted(ctx))
	assert.Equal(t, before, s.Tasks())
}

func TestAcceptAndAbandon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	s.tasks = []model.Task{useTask(goodsBase, 5)}
	id := s.tasks[0].ID

	require.NoError(t, s.Accept(ctx, 999))
	assert.False(t, s.IsAccepted(999))

	require.NoError(t, s.Accept(ctx, id))
	assert.True(t, s.IsAccepted(id))
	require.NoError(t, s.OnItemUsed(ctx, ItemUsed{ItemTypeID: goodsBase, ByMainCharacter: true}))
	tk, _ := s.Task(id)
	assert.Equal(t, 1, tk.Progress)

	require.NoError(t, s.Abandon(ctx, id))
	tk, _ = s.Task(id)
	assert.False(t, tk.Accepted)
	assert.Zero(t, tk.Progress)

	require.NoError(t, s.Accept(ctx, id))
	s.find(id).AddProgress(5)
	require.NoError(t, s.Abandon(ctx, id))
	assert.True(t, s.IsAccepted(id), "finished tasks cannot be abandoned")
	assert.True(t, s.IsFinished(id))
}

func TestSubmitItemsForTask_ConsumesOnlyWhatIsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	s.tasks = []model.Task{{
		ID:             model.TaskID(model.SubmitItem, goodsBase),
		Category:       model.SubmitItem,
		TargetItemID:   goodsBase,
		RequiredAmount: 5,
		Progress:       3,
		Accepted:       true,
	}}
	f.world.Give(goodsBase, 10)

	n, err := s.SubmitItemsForTask(ctx, s.tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 8, f.world.CountOwned(goodsBase))

	tk, _ := s.Task(s.tasks[0].ID)
	assert.Equal(t, 5, tk.Progress)
	assert.True(t, tk.Finished)

	n, err = s.SubmitItemsForTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "finished tasks take nothing")
	assert.Equal(t, 8, f.world.CountOwned(goodsBase))
}

func TestSubmitItemsForTask_SplitsStacksAndSkipsEquipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	s.tasks = []model.Task{{
		ID:             model.TaskID(model.SubmitItem, stackedID),
		Category:       model.SubmitItem,
		TargetItemID:   stackedID,
		RequiredAmount: 10,
		Accepted:       true,
	}}
	held := f.world.Give(stackedID, 50)
	f.world.Equip(held[0])
	f.world.Give(stackedID, 4)
	f.world.Give(stackedID, 30)

	n, err := s.SubmitItemsForTask(ctx, s.tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 50, held[0].StackCount(), "equipped stack untouched")
	assert.Equal(t, 50+24, f.world.CountOwned(stackedID))
}

func TestSubmitItemsForTask_IgnoresOtherCategoriesAndUnaccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	use := useTask(goodsBase, 5)
	use.Accepted = true
	submit := model.Task{ID: model.SubmitItemBase + goodsBase + 1, Category: model.SubmitItem, TargetItemID: goodsBase + 1, RequiredAmount: 2}
	s.tasks = []model.Task{use, submit}
	f.world.Give(goodsBase, 5)
	f.world.Give(goodsBase+1, 5)

	n, err := s.SubmitItemsForTask(ctx, use.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.SubmitItemsForTask(ctx, submit.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 5, f.world.CountOwned(goodsBase+1))
}

func TestEvents_TaskFinishesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	tk := useTask(goodsBase, 3)
	tk.Accepted = true
	s.tasks = []model.Task{tk}

	for range 6 {
		require.NoError(t, s.OnItemUsed(ctx, ItemUsed{ItemTypeID: goodsBase, ByMainCharacter: true}))
	}

	got, _ := s.Task(tk.ID)
	assert.Equal(t, 3, got.Progress)
	assert.True(t, got.Finished)
	assert.Len(t, f.eventsOf(t, telemetry.EventTaskFinished), 1)
	assert.Len(t, f.eventsOf(t, telemetry.EventTaskProgressed), 3)
	assert.Contains(t, f.world.Messages(), "Task complete: Use item")
}

func TestEvents_ItemUsedByOthersIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	tk := useTask(goodsBase, 3)
	tk.Accepted = true
	s.tasks = []model.Task{tk, useTask(goodsBase+1, 3)}

	require.NoError(t, s.OnItemUsed(ctx, ItemUsed{ItemTypeID: goodsBase, ByMainCharacter: false}))
	require.NoError(t, s.OnItemUsed(ctx, ItemUsed{ItemTypeID: goodsBase + 1, ByMainCharacter: true}))
	for _, got := range s.Tasks() {
		assert.Zero(t, got.Progress, "task %d", got.ID)
	}
}

func TestEvents_EntityDeathFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()

	named := model.Task{ID: model.KillEnemyBase + 1, Category: model.KillEnemy, RequireEnemyKey: "scav", RequireEnemyDisplayName: "Scavenger", RequiredAmount: 10, Accepted: true}
	anyEnemy := model.Task{ID: model.KillEnemyBase + 2, Category: model.KillEnemy, RequiredAmount: 10, Accepted: true}
	challenge := model.Task{ID: model.ChallengeKillBase + 1, Category: model.ChallengeKill, RequireEnemyKey: "scav", RequiredWeaponItemID: weaponID, RequiredAmount: 10, Accepted: true}
	s.tasks = []model.Task{named, anyEnemy, challenge}

	scav := EntityDeath{VictimNameKey: "scav", VictimDisplayName: "Scavenger", ByMainCharacter: true, WeaponItemID: weaponID}
	progress := func() []int {
		out := []int{}
		for _, tk := range s.Tasks() {
			out = append(out, tk.Progress)
		}
		return out
	}

	teammate := scav
	teammate.VictimOnPlayerTeam = true
	require.NoError(t, s.OnEntityDeath(ctx, teammate))
	notMine := scav
	notMine.ByMainCharacter = false
	require.NoError(t, s.OnEntityDeath(ctx, notMine))
	assert.Equal(t, []int{0, 0, 0}, progress())

	require.NoError(t, s.OnEntityDeath(ctx, scav))
	assert.Equal(t, []int{1, 1, 1}, progress())

	otherWeapon := scav
	otherWeapon.WeaponItemID = weaponID + 100
	require.NoError(t, s.OnEntityDeath(ctx, otherWeapon))
	assert.Equal(t, []int{2, 2, 1}, progress())

	raider := EntityDeath{VictimNameKey: "raider", VictimDisplayName: "Raider", ByMainCharacter: true}
	require.NoError(t, s.OnEntityDeath(ctx, raider))
	assert.Equal(t, []int{2, 3, 1}, progress())

	ghost := EntityDeath{VictimNameKey: "ghost", VictimDisplayName: "Ghost", ByMainCharacter: true}
	require.NoError(t, s.OnEntityDeath(ctx, ghost))
	assert.Equal(t, []int{2, 3, 1}, progress(), "ghost is not allow-listed")
}

func TestEvents_PurchaseOnlyCountsAtTargetMerchant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	s.tasks = []model.Task{{ID: model.SpendCashBase, Category: model.SpendCashAtMerchant, RequiredAmount: 10000, Accepted: true}}

	require.NoError(t, s.OnPurchase(ctx, MerchantPurchase{Merchant: "Corner Shop", Amount: 5000}))
	require.NoError(t, s.OnMerchantPurchase(ctx, 0))
	require.NoError(t, s.OnMerchantPurchase(ctx, -50))
	tk, _ := s.Task(model.SpendCashBase)
	assert.Zero(t, tk.Progress)

	require.NoError(t, s.OnMerchantPurchase(ctx, 7000))
	require.NoError(t, s.OnMerchantPurchase(ctx, 7000))
	tk, _ = s.Task(model.SpendCashBase)
	assert.Equal(t, 10000, tk.Progress)
	assert.True(t, tk.Finished)
}

type reentrantNotifier struct {
	svc   *Service
	calls int
}

func (n *reentrantNotifier) Notify(string) {
	n.calls++
	_ = n.svc.OnItemUsed(context.Background(), ItemUsed{ItemTypeID: goodsBase, ByMainCharacter: true})
}

func TestRecordProgress_IgnoresReentrantDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	notifier := &reentrantNotifier{}
	h := f.world.Host()
	h.Notifier = notifier
	s := NewService(Options{Catalog: f.cat, Host: h, Store: f.store, Clock: f.clock, Logger: zap.NewNop(), Rand: NewRand(1)})
	notifier.svc = s

	tk := useTask(goodsBase, 10)
	tk.Accepted = true
	s.tasks = []model.Task{tk}

	require.NoError(t, s.OnItemUsed(ctx, ItemUsed{ItemTypeID: goodsBase, ByMainCharacter: true}))
	got, _ := s.Task(tk.ID)
	assert.Equal(t, 1, got.Progress)
	assert.Equal(t, 1, notifier.calls)
}

func TestClaimReward_GrantsAndRemovesTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	s := f.service()
	tk := useTask(goodsBase, 2)
	tk.Accepted = true
	tk.RewardCashAmount = 3000
	tk.RewardExpAmount = 1500
	tk.RewardItems = []model.RewardItem{{TypeID: rewardA, Count: 3}, {TypeID: stackedID, Count: 7}, {TypeID: 424242, Count: 1}, {TypeID: rewardB, Count: 0}}
	other := useTask(goodsBase+1, 2)
	s.tasks = []model.Task{tk, other}

	require.NoError(t, s.ClaimReward(ctx, tk.ID))
	assert.Zero(t, f.world.CountOwned(cashID), "unfinished tasks pay nothing")

	s.find(tk.ID).AddProgress(2)
	require.NoError(t, s.ClaimReward(ctx, tk.ID))

	assert.Equal(t, 3000, f.world.CountOwned(cashID))
	assert.Equal(t, 1500, f.world.Experience())
	assert.Equal(t, 3, f.world.CountOwned(rewardA))
	assert.Equal(t, 7, f.world.CountOwned(stackedID))
	assert.Equal(t, 1, f.world.CountOwned(rewardB), "counts below one grant one")

	_, ok := s.Task(tk.ID)
	assert.False(t, ok)
	assert.Len(t, s.Tasks(), 1)

	require.NoError(t, s.ClaimReward(ctx, tk.ID))
	assert.Equal(t, 3000, f.world.CountOwned(cashID), "second claim is a no-op")

	blob, err := f.store.Load(ctx, DefaultNamespace, DefaultKey)
	require.NoError(t, err)
	file, err := save.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, []int{other.ID}, file.QuestIDs)
}

func TestInitialize_MigratesIDListSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	legacy := `{"date":"2026-03-14","questIds":[101000,300007,500001,101000,900000],"accepted":[101000],"finished":[300007]}`
	require.NoError(t, f.store.Save(ctx, DefaultNamespace, DefaultKey, []byte(legacy)))

	s := f.started(t)
	tasks := s.Tasks()
	require.Len(t, tasks, 2)

	use := tasks[0]
	assert.Equal(t, model.UseItem, use.Category)
	assert.Equal(t, goodsBase, use.TargetItemID)
	assert.True(t, use.Accepted)
	assert.Equal(t, "Use Goods 1000", use.Title)
	assert.True(t, use.HasValidReward())

	kill := tasks[1]
	assert.Equal(t, model.KillEnemy, kill.Category)
	assert.True(t, kill.Finished)
	assert.Equal(t, kill.RequiredAmount, kill.Progress)
	assert.Equal(t, "Kill enemies", kill.Title)

	assert.Len(t, f.eventsOf(t, telemetry.EventSaveMigrated), 1)
	assert.NotEmpty(t, f.eventsOf(t, telemetry.EventRewardBackfilled))
}

func TestInitialize_RepairsRewardsThatNoLongerResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	keep := useTask(goodsBase, 4)
	keep.RewardItems = []model.RewardItem{{TypeID: rewardA, Count: 2}, {TypeID: 777777, Count: 1}}
	broken := useTask(goodsBase+1, 4)
	broken.RewardItems = []model.RewardItem{{TypeID: 777777, Count: 1}}
	blob, err := save.Encode(save.State{Date: "2026-03-14", Tasks: []model.Task{keep, broken}})
	require.NoError(t, err)
	require.NoError(t, f.store.Save(ctx, DefaultNamespace, DefaultKey, blob))

	s := f.started(t)
	got, _ := s.Task(keep.ID)
	assert.Equal(t, []model.RewardItem{{TypeID: rewardA, Count: 2}}, got.RewardItems)
	assert.Equal(t, keep.RewardCashAmount, got.RewardCashAmount, "reward kept when items still resolve")
	assert.Equal(t, RewardPreview(&got, f.world), got.RewardPreviewText)
	assert.NotContains(t, got.RewardPreviewText, "777777", "preview no longer lists the dropped item")

	got, _ = s.Task(broken.ID)
	assert.True(t, got.HasValidReward())
	for _, ri := range got.RewardItems {
		assert.NotEqual(t, 777777, ri.TypeID)
	}
}

func TestInitialize_CorruptSaveStartsFresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	require.NoError(t, f.store.Save(ctx, DefaultNamespace, DefaultKey, []byte("{not json")))

	s := f.started(t)
	assert.Len(t, s.Tasks(), 24)
}

func TestInitialize_StaleSaveRollsOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	accepted := useTask(goodsBase, 4)
	accepted.Accepted = true
	blob, err := save.Encode(save.State{Date: "2026-03-13", Tasks: []model.Task{accepted, useTask(goodsBase+1, 4)}})
	require.NoError(t, err)
	require.NoError(t, f.store.Save(ctx, DefaultNamespace, DefaultKey, blob))

	s := f.started(t)
	tasks := s.Tasks()
	require.Len(t, tasks, 24)
	assert.Equal(t, accepted.ID, tasks[0].ID)
	assert.Equal(t, "2026-03-14", s.LastSavedDate())
}

func TestSaveRoundTrip_ReloadsIdenticalTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 25)
	f.world.Give(weaponID, 1)
	s := f.started(t)
	tasks := s.Tasks()
	require.NoError(t, s.Accept(ctx, tasks[2].ID))

	reloaded := f.service()
	require.NoError(t, reloaded.Initialize(ctx))
	assert.Equal(t, s.Tasks(), reloaded.Tasks())

	for _, tk := range reloaded.Tasks() {
		title, desc := Describe(&tk, f.world, f.cat.TargetMerchant)
		assert.Equal(t, title, tk.Title)
		assert.Equal(t, desc, tk.Description)
	}
}

func TestService_PublishesMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	s := NewService(Options{
		Catalog:  f.cat,
		Host:     f.world.Host(),
		Store:    f.store,
		Clock:    f.clock,
		Rand:     NewRand(11),
		Recorder: telemetry.NewRecorder(nil, metrics, nil),
	})
	require.NoError(t, s.Initialize(ctx))
	id := s.Tasks()[0].ID
	require.NoError(t, s.Accept(ctx, id))

	assert.Equal(t, float64(24), testutil.ToFloat64(metrics.WorkingSet))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Events.WithLabelValues(string(telemetry.EventDayRollover), "")))
	cat := s.Tasks()[0].Category.String()
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Events.WithLabelValues(string(telemetry.EventTaskAccepted), cat)))
}
