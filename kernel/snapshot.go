package kernel

import "sort"

// ThreadInfo is a read-only view of one thread's scheduling state, for
// introspection tools (internal/monitor, cmd/kstat) that must not be able
// to mutate the scheduler they're observing.
type ThreadInfo struct {
	Tid          int    `json:"tid"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Priority     int    `json:"priority"`
	BasePriority int    `json:"base_priority"`
	Donors       int    `json:"donors"`
}

// Snapshot is a point-in-time view of the whole scheduler, suitable for
// JSON encoding (internal/monitor) or plain-text rendering (cmd/kstat).
type Snapshot struct {
	Ticks   uint64       `json:"ticks"`
	BootID  string       `json:"boot_id"`
	Stats   Stats        `json:"stats"`
	Threads []ThreadInfo `json:"threads"`
}

// TakeSnapshot captures the current scheduler state. It briefly disables
// interrupts to read a consistent view across all registered threads.
func TakeSnapshot() Snapshot {
	level := disable()
	infos := make([]ThreadInfo, 0, len(threadTable))
	for _, t := range threadTable {
		infos = append(infos, ThreadInfo{
			Tid:          t.tid,
			Name:         t.name,
			Status:       t.status.String(),
			Priority:     t.priority,
			BasePriority: t.basePriority,
			Donors:       t.donors.Len(),
		})
	}
	snap := Snapshot{
		Ticks:  ticks,
		BootID: BootID,
		Stats:  globalStats,
	}
	restore(level)

	sort.Slice(infos, func(i, j int) bool { return infos[i].Tid < infos[j].Tid })
	snap.Threads = infos
	return snap
}
