package exectree

import (
	"fortio.org/safecast"
)

// NodeID indexes a FuncNode inside its ThreadTree (1-based).
type NodeID uint32

const NoNodeID NodeID = 0

// RootID is the synthetic Init frame every tree starts with.
const RootID NodeID = 1

func (id NodeID) IsValid() bool { return id != NoNodeID }

// arena owns the nodes of one tree; parent/child links are plain indices.
type arena[T any] struct {
	data []T
}

// allocate возвращает индекс нового элемента (1-based).
// Указатели, полученные через get до вызова, становятся невалидными.
func (a *arena[T]) allocate(value T) (NodeID, error) {
	n, err := safecast.Conv[uint32](len(a.data) + 1)
	if err != nil {
		return NoNodeID, err
	}
	a.data = append(a.data, value)
	return NodeID(n), nil
}

func (a *arena[T]) get(id NodeID) *T {
	if id == NoNodeID || int(id) > len(a.data) {
		return nil
	}
	return &a.data[id-1]
}

func (a *arena[T]) len() int {
	return len(a.data)
}
