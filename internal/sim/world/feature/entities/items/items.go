package items

import (
	"sort"

	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

type Entry struct {
	ID          string
	Stack       modelpkg.ItemStack
	ExpiresTick uint64
	Glowing     bool
}

// FindMergeTarget returns the first entity in ids an ordinary stack can merge into.
// Glowing entities are unique instances and never merge.
func FindMergeTarget(ids []string, stack modelpkg.ItemStack, load func(string) (Entry, bool)) (string, bool) {
	if load == nil || stack.IsEmpty() {
		return "", false
	}
	for _, id := range ids {
		e, ok := load(id)
		if !ok || e.Glowing {
			continue
		}
		if e.Stack.Count > 0 && e.Stack.Similar(stack) {
			return e.ID, true
		}
	}
	return "", false
}

func RemoveID(ids []string, id string) []string {
	for i := 0; i < len(ids); i++ {
		if ids[i] != id {
			continue
		}
		copy(ids[i:], ids[i+1:])
		return ids[:len(ids)-1]
	}
	return ids
}

func SortedExpired(ids []string, load func(string) (Entry, bool), nowTick uint64) []string {
	out := make([]string, 0)
	if load == nil {
		return out
	}
	for _, id := range ids {
		e, ok := load(id)
		if !ok {
			continue
		}
		if e.ExpiresTick != 0 && nowTick >= e.ExpiresTick {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
