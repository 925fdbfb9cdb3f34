package callgraph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []FuncID   // линейный порядок вызовов
	Batches [][]FuncID // уровни: вызывающие раньше вызываемых
	Cyclic  bool
	Cycles  []FuncID // функции, оставшиеся в цикле, и всё, что достижимо только через них
}

func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]FuncID, 0, nodeCount),
		Batches: make([][]FuncID, 0),
	}

	current := make([]FuncID, 0, nodeCount)
	for i := range nodeCount {
		if indeg[i] == 0 {
			current = append(current, mustFuncID(i))
		}
	}

	for len(current) > 0 {
		batch := make([]FuncID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]FuncID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != nodeCount {
		topo.Cyclic = true
		for i := range nodeCount {
			if indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, mustFuncID(i))
			}
		}
	}

	return topo
}

func mustFuncID(i int) FuncID {
	id, err := safecast.Conv[FuncID](i)
	if err != nil {
		panic(fmt.Errorf("function id overflow: %w", err))
	}
	return id
}
