package xpbd

import "sync"

// ConstraintBatches returns the constraints grouped so that no two constraints
// of one batch share a body. Constraints keep their relative order inside a
// batch. The batches are cached until constraints are added or removed.
func (s *Space) ConstraintBatches() [][]*Constraint {
	if s.batchesDirty || s.batches == nil {
		s.batches = colorConstraints(s.constraints)
		s.batchesDirty = false
	}
	return s.batches
}

// colorConstraints greedily puts every constraint into the first batch none of
// whose constraints touch the same bodies.
func colorConstraints(constraints []*Constraint) [][]*Constraint {
	batches := [][]*Constraint{}
	used := []map[BodyID]struct{}{}

	for _, c := range constraints {
		color := 0
		for ; color < len(batches); color++ {
			if !usesAny(used[color], c.bodies) {
				break
			}
		}
		if color == len(batches) {
			batches = append(batches, nil)
			used = append(used, map[BodyID]struct{}{})
		}
		batches[color] = append(batches[color], c)
		for _, id := range c.bodies {
			used[color][id] = struct{}{}
		}
	}
	return batches
}

func usesAny(set map[BodyID]struct{}, ids []BodyID) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// task splits items into one contiguous chunk per worker and runs f on every
// item, returning when all chunks are done.
func task[T any](workers int, items []T, f func(T)) {
	if workers <= 1 || len(items) < 2 {
		for _, item := range items {
			f(item)
		}
		return
	}

	chunk := (len(items) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		wg.Add(1)
		go func(part []T) {
			defer wg.Done()
			for _, item := range part {
				f(item)
			}
		}(items[start:end])
	}
	wg.Wait()
}
