package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"dailyquests/internal/host"
	"dailyquests/internal/model"
	"dailyquests/internal/quest"
	"dailyquests/internal/telemetry"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"list":    cmdList,
	"accept":  withID(func(ctx context.Context, a *app, id int) error { return a.svc.Accept(ctx, id) }),
	"abandon": withID(func(ctx context.Context, a *app, id int) error { return a.svc.Abandon(ctx, id) }),
	"claim":   withID(func(ctx context.Context, a *app, id int) error { return a.svc.ClaimReward(ctx, id) }),
	"submit":  withID(cmdSubmit),
	"refresh": cmdRefresh,
	"use":     cmdUse,
	"kill":    cmdKill,
	"buy":     cmdBuy,
	"tick":    cmdTick,
	"run":     cmdRun,
}

func intArg(args []string, i int, name string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, args[i], err)
	}
	return n, nil
}

func withID(fn func(context.Context, *app, int) error) command {
	return func(ctx context.Context, a *app, args []string) error {
		id, err := intArg(args, 0, "task ID")
		if err != nil {
			return err
		}
		return fn(ctx, a, id)
	}
}

func cmdList(_ context.Context, a *app, _ []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIER\tTITLE\tPROGRESS\tSTATE\tREWARD")
	for _, t := range a.svc.Tasks() {
		reward, _, _ := strings.Cut(t.RewardPreviewText, "\n")
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%s\t%s\n",
			t.ID, t.Difficulty, t.Title, t.Progress, t.RequiredAmount, state(t), reward)
	}
	fmt.Fprintf(tw, "\nday %s, level %d\n", a.svc.LastSavedDate(), a.world.Level())
	return tw.Flush()
}

func state(t model.Task) string {
	switch {
	case t.RewardClaimed:
		return "claimed"
	case t.Finished:
		return "finished"
	case t.Accepted:
		return "accepted"
	default:
		return "open"
	}
}

func cmdSubmit(ctx context.Context, a *app, id int) error {
	n, err := a.svc.SubmitItemsForTask(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("submitted %d\n", n)
	return nil
}

func cmdRefresh(ctx context.Context, a *app, _ []string) error {
	return a.svc.RefreshUnaccepted(ctx)
}

// consume removes n units of typeID from the inventory, skipping equipped items.
func consume(w *host.MemoryWorld, typeID, n int) bool {
	owned := w.FindItemsOwnedByPlayer(func(it host.Item) bool {
		return it.TypeID() == typeID && !w.IsEquipped(it)
	})
	have := 0
	for _, it := range owned {
		have += it.StackCount()
	}
	if have < n {
		return false
	}
	for _, it := range owned {
		if n == 0 {
			break
		}
		take := min(n, it.StackCount())
		it.SetStackCount(it.StackCount() - take)
		if it.StackCount() <= 0 {
			it.Destroy()
		}
		n -= take
	}
	return true
}

func cmdUse(ctx context.Context, a *app, args []string) error {
	typeID, err := intArg(args, 0, "item type")
	if err != nil {
		return err
	}
	if !consume(a.world, typeID, 1) {
		return fmt.Errorf("no unequipped item %d owned", typeID)
	}
	return a.svc.OnItemUsed(ctx, quest.ItemUsed{ItemTypeID: typeID, ByMainCharacter: true})
}

func cmdKill(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("enemy name key is required")
	}
	ev := quest.EntityDeath{VictimNameKey: args[0], ByMainCharacter: true}
	for _, p := range a.world.EnemyPresets() {
		if p.NameKey == ev.VictimNameKey {
			ev.VictimDisplayName = p.DisplayName
		}
	}
	if len(args) > 1 {
		weapon, err := intArg(args, 1, "weapon type")
		if err != nil {
			return err
		}
		ev.WeaponItemID = weapon
	}
	return a.svc.OnEntityDeath(ctx, ev)
}

func cmdBuy(ctx context.Context, a *app, args []string) error {
	amount, err := intArg(args, 0, "amount")
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if !consume(a.world, a.world.CashItemTypeID(), amount) {
		return fmt.Errorf("not enough cash for %d", amount)
	}
	return a.svc.OnMerchantPurchase(ctx, amount)
}

func cmdTick(ctx context.Context, a *app, _ []string) error {
	rolled, err := a.svc.Tick(ctx)
	if err != nil {
		return err
	}
	if rolled {
		fmt.Println("new day:", a.svc.LastSavedDate())
	}
	return nil
}

func cmdRun(ctx context.Context, a *app, _ []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	a.serveMetrics(ctx)

	ticker := time.NewTicker(a.settings.TickInterval)
	defer ticker.Stop()
	a.log.Info("ticking", zap.Duration("interval", a.settings.TickInterval))

	for {
		select {
		case <-ctx.Done():
			a.logStats(started)
			return nil
		case <-ticker.C:
			if _, err := a.svc.Tick(ctx); err != nil {
				a.log.Error("tick", zap.Error(err))
			}
			a.flushMessages()
		}
	}
}

func (a *app) logStats(since time.Time) {
	events, err := a.events.GetEvents(since, nil)
	if err != nil {
		a.log.Warn("read events", zap.Error(err))
		return
	}
	st, err := telemetry.CalculateStats(events, since)
	if err != nil {
		a.log.Warn("calculate stats", zap.Error(err))
		return
	}
	a.log.Info("session stats",
		zap.Int("rollovers", st.Rollovers),
		zap.Int("accepted", st.Accepted),
		zap.Int("finished", st.Finished),
		zap.Int("claimed", st.Claimed),
		zap.Int("evicted", st.Evicted))
}
