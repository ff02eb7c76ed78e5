package quest

import (
	"fmt"
	"strings"

	"dailyquests/internal/host"
	"dailyquests/internal/model"
)

const (
	anyWeapon = "the required weapon"
	anyEnemy  = "the required enemy"
)

// Describe derives title and description from category, target and amount.
// It is the single source for task text so a reload can always rebuild it.
func Describe(t *model.Task, items host.ItemCatalog, merchant string) (title, description string) {
	switch t.Category {
	case model.UseItem:
		name := itemName(items, t.TargetItemID)
		return "Use " + name, fmt.Sprintf("Use %s %d times anywhere", name, t.RequiredAmount)

	case model.SubmitItem:
		name := itemName(items, t.TargetItemID)
		return "Submit " + name, fmt.Sprintf("Submit %s x%d", name, t.RequiredAmount)

	case model.KillEnemy:
		if t.RequireEnemyDisplayName == "" {
			return "Kill enemies", fmt.Sprintf("Kill %d allow-listed enemies", t.RequiredAmount)
		}
		return "Kill " + t.RequireEnemyDisplayName,
			fmt.Sprintf("Kill %s %d times", t.RequireEnemyDisplayName, t.RequiredAmount)

	case model.ChallengeKill:
		weapon := weaponName(items, t.RequiredWeaponItemID)
		enemy := t.RequireEnemyDisplayName
		if enemy == "" {
			enemy = anyEnemy
		}
		return fmt.Sprintf("Challenge: kill %s with %s", enemy, weapon),
			fmt.Sprintf("Kill %s %d times using %s", enemy, t.RequiredAmount, weapon)

	case model.SpendCashAtMerchant:
		return "Spend cash at " + merchant,
			fmt.Sprintf("Buy items from %s, spending cash x%d", merchant, t.RequiredAmount)
	}
	return "Task", ""
}

// applyText rewrites t's title and description.
func applyText(t *model.Task, items host.ItemCatalog, merchant string) {
	t.Title, t.Description = Describe(t, items, merchant)
}

func itemName(items host.ItemCatalog, id int) string {
	meta := items.GetMetaData(id)
	if !meta.Valid() || meta.DisplayName == "" {
		return fmt.Sprintf("item #%d", id)
	}
	return meta.DisplayName
}

func weaponName(items host.ItemCatalog, id int) string {
	meta := items.GetMetaData(id)
	if !meta.Valid() {
		return anyWeapon
	}
	return meta.DisplayName
}

// RewardPreview renders the frozen reward for display.
func RewardPreview(t *model.Task, items host.ItemCatalog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cash %d, EXP %d", t.RewardCashAmount, t.RewardExpAmount)
	for _, ri := range t.RewardItems {
		fmt.Fprintf(&sb, "\nItem %s x%d", itemName(items, ri.TypeID), ri.Count)
	}
	return sb.String()
}

func progressMessage(t *model.Task, items host.ItemCatalog) string {
	switch t.Category {
	case model.UseItem:
		return fmt.Sprintf("Use progress: %s %d/%d", itemName(items, t.TargetItemID), t.Progress, t.RequiredAmount)
	case model.SubmitItem:
		return fmt.Sprintf("Submit progress: %s %d/%d", itemName(items, t.TargetItemID), t.Progress, t.RequiredAmount)
	case model.KillEnemy, model.ChallengeKill:
		enemy := t.RequireEnemyDisplayName
		if enemy == "" {
			enemy = "enemies"
		}
		if t.Category == model.ChallengeKill {
			return fmt.Sprintf("Challenge progress: kill %s with %s %d/%d",
				enemy, weaponName(items, t.RequiredWeaponItemID), t.Progress, t.RequiredAmount)
		}
		return fmt.Sprintf("Kill progress: %s %d/%d", enemy, t.Progress, t.RequiredAmount)
	case model.SpendCashAtMerchant:
		return fmt.Sprintf("Spend progress: %d/%d", t.Progress, t.RequiredAmount)
	}
	return ""
}
