// Package host declares what the daily quest engine needs from the game it runs in.
package host

// ItemMeta describes an item type. ID 0 means the type is unknown.
type ItemMeta struct {
	ID          int    `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"display_name"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Stackable   bool   `json:"stackable" yaml:"stackable"`
}

// Valid reports whether the metadata resolved to a real item type.
func (m ItemMeta) Valid() bool { return m.ID != 0 }

// ItemCatalog resolves item type metadata.
type ItemCatalog interface {
	GetMetaData(itemID int) ItemMeta
}

// Item is a live item instance owned by someone.
type Item interface {
	TypeID() int
	StackCount() int
	SetStackCount(n int)
	Tags() []string
	// Destroy detaches the instance from its container and removes it.
	Destroy()
}

// Inventory queries what the player owns.
type Inventory interface {
	FindItemsOwnedByPlayer(match func(Item) bool) []Item
	// IsEquipped reports whether the instance sits in a weapon slot or is held.
	IsEquipped(item Item) bool
}

// Economy grants rewards to the player.
type Economy interface {
	InstantiateItem(typeID int) Item
	SendToPlayer(item Item)
	AddExperience(amount int)
	CashItemTypeID() int
	// UnlockedItemIDs lists the item types unlocked by default.
	UnlockedItemIDs() []int
}

// EnemyPreset is one entry of the host's enemy catalog.
type EnemyPreset struct {
	NameKey     string `json:"nameKey" yaml:"name_key"`
	DisplayName string `json:"displayName" yaml:"display_name"`
}

type EnemyCatalog interface {
	EnemyPresets() []EnemyPreset
}

type Player interface {
	Level() int
}

// Notifier shows short messages to the player.
type Notifier interface {
	Notify(msg string)
}

// Host bundles every collaborator the engine consumes.
type Host struct {
	Items     ItemCatalog
	Inventory Inventory
	Economy   Economy
	Enemies   EnemyCatalog
	Player    Player
	Notifier  Notifier
}

// NopNotifier drops all messages.
type NopNotifier struct{}

func (NopNotifier) Notify(string) {}

// HasTag reports whether the item carries tag.
func HasTag(it Item, tag string) bool {
	for _, t := range it.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}
