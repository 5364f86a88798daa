package schedule

import "sort"

// ResolveConflicts partitions the ready snapshots into groups of transitively
// overlapping intervals and assigns each snapshot its index within its group and
// the group size. Touching intervals (a.end == b.start) do not overlap.
//
// Snapshots that are not ready are reset to (0, 1) and left out of every group.
// Only relative positions are read; cached times are never modified.
func ResolveConflicts(snaps []*Snapshot) [][]*Snapshot {
	ready := make([]*Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.Ready() {
			ready = append(ready, s)
		} else {
			s.setConflict(0, 1)
		}
	}
	return resolve(ready, func(s *Snapshot) Position { return s.relEnd })
}

// ResolveDayConflicts resolves each of days columns on its own. A block belongs to
// the column its start falls in and is cut at that column's midnight, so a block
// running past midnight never shares a group with the next day's blocks.
func ResolveDayConflicts(snaps []*Snapshot, days int) [][]*Snapshot {
	if days <= 1 {
		return ResolveConflicts(snaps)
	}

	columns := make([][]*Snapshot, days)
	for _, s := range snaps {
		day, _, ok := DaySplit(s.relStart, days)
		if !s.Ready() || !ok {
			s.setConflict(0, 1)
			continue
		}
		columns[day] = append(columns[day], s)
	}

	var groups [][]*Snapshot
	for day, column := range columns {
		midnight := DayPosition(day, 1, days)
		groups = append(groups, resolve(column, func(s *Snapshot) Position {
			if s.relEnd > midnight {
				return midnight
			}
			return s.relEnd
		})...)
	}
	return groups
}

func resolve(ready []*Snapshot, end func(*Snapshot) Position) [][]*Snapshot {
	if len(ready) == 0 {
		return nil
	}

	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].relStart != ready[j].relStart {
			return ready[i].relStart < ready[j].relStart
		}
		return ready[i].order < ready[j].order
	})

	var groups [][]*Snapshot
	current := []*Snapshot{ready[0]}
	groupEnd := end(ready[0])

	for _, s := range ready[1:] {
		if s.relStart < groupEnd {
			current = append(current, s)
			if e := end(s); e > groupEnd {
				groupEnd = e
			}
			continue
		}
		groups = append(groups, current)
		current = []*Snapshot{s}
		groupEnd = end(s)
	}
	groups = append(groups, current)

	for _, g := range groups {
		for i, s := range g {
			s.setConflict(i, len(g))
		}
	}
	return groups
}
