package host

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ItemDef is an item type known to a MemoryWorld.
type ItemDef struct {
	ItemMeta `yaml:",inline"`
	Tags     []string `yaml:"tags,omitempty"`
}

// Stack is a serialized inventory entry.
type Stack struct {
	TypeID   int  `yaml:"type_id"`
	Count    int  `yaml:"count"`
	Equipped bool `yaml:"equipped,omitempty"`
}

// WorldFile is the YAML form of a MemoryWorld.
type WorldFile struct {
	CashItemTypeID int           `yaml:"cash_item_type_id"`
	Level          int           `yaml:"level"`
	Experience     int           `yaml:"experience"`
	Items          []ItemDef     `yaml:"items"`
	Unlocked       []int         `yaml:"unlocked"`
	Enemies        []EnemyPreset `yaml:"enemies"`
	Inventory      []Stack       `yaml:"inventory"`
}

// Instance is an item owned by a MemoryWorld player.
type Instance struct {
	ID    string
	Type  int
	Count int

	world *MemoryWorld
}

func (i *Instance) TypeID() int         { return i.Type }
func (i *Instance) StackCount() int     { return i.Count }
func (i *Instance) SetStackCount(n int) { i.Count = n }

func (i *Instance) Tags() []string {
	if i.world == nil {
		return nil
	}
	return i.world.defs[i.Type].Tags
}

func (i *Instance) Destroy() {
	if i.world != nil {
		i.world.remove(i)
	}
}

// MemoryWorld is an in-process host used by the simulator and tests.
// It implements every collaborator interface in this package.
type MemoryWorld struct {
	mu sync.Mutex

	defs     map[int]ItemDef
	owned    []*Instance
	equipped map[*Instance]bool

	cashTypeID int
	level      int
	exp        int
	unlocked   []int
	enemies    []EnemyPreset

	messages []string
}

func NewMemoryWorld(cashTypeID int) *MemoryWorld {
	w := &MemoryWorld{
		defs:       map[int]ItemDef{},
		equipped:   map[*Instance]bool{},
		cashTypeID: cashTypeID,
		level:      1,
	}
	w.DefineItem(ItemDef{ItemMeta: ItemMeta{ID: cashTypeID, DisplayName: "Cash", Stackable: true}})
	return w
}

// LoadWorld reads a WorldFile from path.
func LoadWorld(path string) (*MemoryWorld, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f WorldFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse world %s: %w", path, err)
	}
	return FromFile(f), nil
}

func FromFile(f WorldFile) *MemoryWorld {
	w := NewMemoryWorld(f.CashItemTypeID)
	for _, d := range f.Items {
		w.DefineItem(d)
	}
	if f.Level > 0 {
		w.level = f.Level
	}
	w.exp = f.Experience
	w.unlocked = slices.Clone(f.Unlocked)
	w.enemies = slices.Clone(f.Enemies)
	for _, s := range f.Inventory {
		for _, it := range w.Give(s.TypeID, s.Count) {
			if s.Equipped {
				w.Equip(it)
			}
		}
	}
	return w
}

// File snapshots the world, merging stacks of the same type.
func (w *MemoryWorld) File() WorldFile {
	w.mu.Lock()
	defer w.mu.Unlock()

	f := WorldFile{
		CashItemTypeID: w.cashTypeID,
		Level:          w.level,
		Experience:     w.exp,
		Unlocked:       slices.Clone(w.unlocked),
		Enemies:        slices.Clone(w.enemies),
	}
	for _, d := range w.defs {
		f.Items = append(f.Items, d)
	}
	sort.Slice(f.Items, func(i, j int) bool { return f.Items[i].ID < f.Items[j].ID })

	type key struct {
		typeID   int
		equipped bool
	}
	counts := map[key]int{}
	var order []key
	for _, it := range w.owned {
		k := key{it.Type, w.equipped[it]}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k] += it.Count
	}
	for _, k := range order {
		f.Inventory = append(f.Inventory, Stack{TypeID: k.typeID, Count: counts[k], Equipped: k.equipped})
	}
	return f
}

// SaveWorld writes the world back to path.
func (w *MemoryWorld) SaveWorld(path string) error {
	b, err := yaml.Marshal(w.File())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (w *MemoryWorld) DefineItem(d ItemDef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.defs[d.ID] = d
}

func (w *MemoryWorld) SetLevel(level int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.level = level
}

func (w *MemoryWorld) SetUnlocked(ids ...int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unlocked = slices.Clone(ids)
}

func (w *MemoryWorld) SetEnemies(presets ...EnemyPreset) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enemies = slices.Clone(presets)
}

// Give adds count units of typeID to the player's inventory.
// Stackable types land in one instance, others in count instances.
func (w *MemoryWorld) Give(typeID, count int) []*Instance {
	if count <= 0 {
		return nil
	}
	w.mu.Lock()
	def := w.defs[typeID]
	w.mu.Unlock()

	if def.Stackable {
		it := w.newInstance(typeID)
		it.Count = count
		w.SendToPlayer(it)
		return []*Instance{it}
	}
	out := make([]*Instance, 0, count)
	for range count {
		it := w.newInstance(typeID)
		w.SendToPlayer(it)
		out = append(out, it)
	}
	return out
}

func (w *MemoryWorld) Equip(it *Instance) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.equipped[it] = true
}

// CountOwned sums stack counts of typeID across the inventory.
func (w *MemoryWorld) CountOwned(typeID int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, it := range w.owned {
		if it.Type == typeID {
			n += it.Count
		}
	}
	return n
}

func (w *MemoryWorld) Experience() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exp
}

// Messages returns every notification pushed so far.
func (w *MemoryWorld) Messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.messages)
}

func (w *MemoryWorld) newInstance(typeID int) *Instance {
	return &Instance{ID: uuid.NewString(), Type: typeID, Count: 1, world: w}
}

func (w *MemoryWorld) remove(it *Instance) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.owned = slices.DeleteFunc(w.owned, func(o *Instance) bool { return o == it })
	delete(w.equipped, it)
}

// ItemCatalog

func (w *MemoryWorld) GetMetaData(itemID int) ItemMeta {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.defs[itemID].ItemMeta
}

// Inventory

func (w *MemoryWorld) FindItemsOwnedByPlayer(match func(Item) bool) []Item {
	w.mu.Lock()
	owned := slices.Clone(w.owned)
	w.mu.Unlock()

	out := make([]Item, 0, len(owned))
	for _, it := range owned {
		if match == nil || match(it) {
			out = append(out, it)
		}
	}
	return out
}

func (w *MemoryWorld) IsEquipped(item Item) bool {
	it, ok := item.(*Instance)
	if !ok {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.equipped[it]
}

// Economy

func (w *MemoryWorld) InstantiateItem(typeID int) Item {
	if !w.GetMetaData(typeID).Valid() {
		return nil
	}
	return w.newInstance(typeID)
}

func (w *MemoryWorld) SendToPlayer(item Item) {
	it, ok := item.(*Instance)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	it.world = w
	w.owned = append(w.owned, it)
}

func (w *MemoryWorld) AddExperience(amount int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exp += amount
}

func (w *MemoryWorld) CashItemTypeID() int { return w.cashTypeID }

func (w *MemoryWorld) UnlockedItemIDs() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.unlocked)
}

// EnemyCatalog

func (w *MemoryWorld) EnemyPresets() []EnemyPreset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.enemies)
}

// Player

func (w *MemoryWorld) Level() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.level
}

// Notifier

func (w *MemoryWorld) Notify(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
}

// Host wires the world into every collaborator slot.
func (w *MemoryWorld) Host() Host {
	return Host{
		Items:     w,
		Inventory: w,
		Economy:   w,
		Enemies:   w,
		Player:    w,
		Notifier:  w,
	}
}
