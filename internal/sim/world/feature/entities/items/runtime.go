package items

import modelpkg "siegecraft.ai/internal/sim/world/kernel/model"

const EntityTTLTicksDefault = 6000 // five minutes at 20Hz

const (
	AuditSpawn   = "ITEM_SPAWN"
	AuditDespawn = "ITEM_DESPAWN"
)

type AuditFunc func(nowTick uint64, actor, action string, pos modelpkg.Vec3i, reason string, details map[string]any)

// SpawnOptions controls the lifetime of a spawned entity.
type SpawnOptions struct {
	// TTLTicks is the lifetime; 0 means the entity never expires.
	TTLTicks uint64
	// Glowing marks a unique, highlighted instance. Glowing entities never merge.
	Glowing bool
}

func load(items map[string]*modelpkg.ItemEntity) func(string) (Entry, bool) {
	return func(id string) (Entry, bool) {
		e := items[id]
		if e == nil {
			return Entry{}, false
		}
		return Entry{ID: e.EntityID, Stack: e.Stack, ExpiresTick: e.ExpiresTick, Glowing: e.Glowing}, true
	}
}

func Spawn(
	nowTick uint64,
	actor string,
	pos modelpkg.Vec3i,
	stack modelpkg.ItemStack,
	opts SpawnOptions,
	reason string,
	items map[string]*modelpkg.ItemEntity,
	itemsAt map[modelpkg.Vec3i][]string,
	newID func() string,
	audit AuditFunc,
) string {
	if stack.IsEmpty() {
		return ""
	}
	var exp uint64
	if opts.TTLTicks > 0 {
		exp = nowTick + opts.TTLTicks
	}

	// Merge into an existing entity at the same position when possible.
	if ids := itemsAt[pos]; len(ids) > 0 && !opts.Glowing {
		if mergeID, ok := FindMergeTarget(ids, stack, load(items)); ok {
			e := items[mergeID]
			e.Stack.Count += stack.Count
			if exp == 0 || (e.ExpiresTick != 0 && exp > e.ExpiresTick) {
				e.ExpiresTick = exp
			}
			if audit != nil {
				audit(nowTick, actor, AuditSpawn, pos, reason, map[string]any{
					"entity_id": e.EntityID,
					"item":      stack.Item,
					"count":     stack.Count,
					"merged":    true,
				})
			}
			return e.EntityID
		}
	}

	if newID == nil {
		return ""
	}
	id := newID()
	e := &modelpkg.ItemEntity{
		EntityID:    id,
		Pos:         pos,
		Stack:       stack.Clone(),
		CreatedTick: nowTick,
		ExpiresTick: exp,
		Glowing:     opts.Glowing,
	}
	items[id] = e
	itemsAt[pos] = append(itemsAt[pos], id)
	if audit != nil {
		audit(nowTick, actor, AuditSpawn, pos, reason, map[string]any{
			"entity_id": id,
			"item":      stack.Item,
			"count":     stack.Count,
			"merged":    false,
			"glowing":   opts.Glowing,
		})
	}
	return id
}

func Remove(
	nowTick uint64,
	actor string,
	id string,
	reason string,
	items map[string]*modelpkg.ItemEntity,
	itemsAt map[modelpkg.Vec3i][]string,
	audit AuditFunc,
) {
	e := items[id]
	if e == nil {
		return
	}
	delete(items, id)
	ids := RemoveID(itemsAt[e.Pos], id)
	if len(ids) == 0 {
		delete(itemsAt, e.Pos)
	} else {
		itemsAt[e.Pos] = ids
	}
	if audit != nil {
		audit(nowTick, actor, AuditDespawn, e.Pos, reason, map[string]any{
			"entity_id": id,
			"item":      e.Stack.Item,
			"count":     e.Stack.Count,
		})
	}
}

func CleanupExpired(
	nowTick uint64,
	items map[string]*modelpkg.ItemEntity,
	itemsAt map[modelpkg.Vec3i][]string,
	remove func(nowTick uint64, actor string, id string, reason string),
) {
	if remove == nil {
		return
	}
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	expired := SortedExpired(ids, load(items), nowTick)
	for _, id := range expired {
		remove(nowTick, "WORLD", id, "EXPIRE")
	}
}
