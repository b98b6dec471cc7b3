package dag

import "container/heap"

// minHeap is a priority queue of vertices ordered by index.
type minHeap []int

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *minHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}

// TopologicalSort returns the vertices in an order where every vertex comes
// after all of its dependencies. Among vertices that are ready at the same
// time the lowest index wins, so for arena graphs ties are broken by creation
// order. A cyclic graph yields a *CycleError.
func (g *Graph) TopologicalSort() ([]int, error) {
	indegree := make([]int, g.Len())
	ready := &minHeap{}
	for v := range g.Len() {
		indegree[v] = len(g.deps[v])
		if indegree[v] == 0 {
			*ready = append(*ready, v)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, g.Len())
	for ready.Len() > 0 {
		v := heap.Pop(ready).(int)
		order = append(order, v)
		for _, w := range g.dependents[v] {
			indegree[w]--
			if indegree[w] == 0 {
				heap.Push(ready, w)
			}
		}
	}

	if len(order) != g.Len() {
		if err := g.DetectCycles(); err != nil {
			return nil, err
		}
		return nil, &CycleError{}
	}
	return order, nil
}
