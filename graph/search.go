package graph

import (
	"fmt"
	"slices"

	"github.com/TFMV/dronenet/models"
)

// walker holds the mutable state of one breadth-first traversal.
type walker struct {
	net      *Network
	queue    []int64
	visited  map[int64]bool
	cameFrom map[int64]int64
}

func newWalker(n *Network, root int64) *walker {
	w := &walker{
		net:      n,
		queue:    make([]int64, 0, n.Len()),
		visited:  make(map[int64]bool, n.Len()),
		cameFrom: make(map[int64]int64),
	}
	w.visited[root] = true
	w.queue = append(w.queue, root)
	return w
}

// run dequeues until stop reports true for the dequeued node or the
// component is exhausted. It returns the node that stopped the walk.
func (w *walker) run(stop func(id int64) bool) (int64, bool) {
	for len(w.queue) > 0 {
		cur := w.queue[0]
		w.queue = w.queue[1:]

		if stop(cur) {
			return cur, true
		}
		for _, nbr := range w.net.neighborsOf(cur) {
			if w.visited[nbr] {
				continue
			}
			w.visited[nbr] = true
			w.cameFrom[nbr] = cur
			w.queue = append(w.queue, nbr)
		}
	}
	return 0, false
}

// pathTo walks came-from links back from dest to root and reverses them.
func (w *walker) pathTo(root, dest int64) []int64 {
	path := []int64{dest}
	for cur := dest; cur != root; {
		prev, ok := w.cameFrom[cur]
		if !ok {
			panic(fmt.Sprintf("graph: broken came-from chain at %d", cur))
		}
		path = append(path, prev)
		cur = prev
	}
	slices.Reverse(path)
	return path
}

// Search runs a breadth-first traversal rooted at id and returns the drone
// once id itself is dequeued. It is a registration check: any registered id
// is found, whatever its connections.
func (n *Network) Search(id int64) (*models.Drone, error) {
	if !n.Contains(id) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	found, ok := newWalker(n, id).run(func(cur int64) bool { return cur == id })
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return n.nodes[found], nil
}

// Reachable reports whether to can be reached from from by following edges.
func (n *Network) Reachable(from, to int64) bool {
	if !n.Contains(from) || !n.Contains(to) {
		return false
	}
	_, ok := newWalker(n, from).run(func(cur int64) bool { return cur == to })
	return ok
}

// ShortestPath returns the fewest-hop route from start to end, both included.
// Among equally short routes the one discovered first in neighbor order wins.
// It returns ErrNotFound if either endpoint is unregistered and ErrNoPath if
// they lie in different components.
func (n *Network) ShortestPath(start, end int64) ([]int64, error) {
	if !n.Contains(start) {
		return nil, fmt.Errorf("%w: start %d", ErrNotFound, start)
	}
	if !n.Contains(end) {
		return nil, fmt.Errorf("%w: end %d", ErrNotFound, end)
	}

	w := newWalker(n, start)
	if _, ok := w.run(func(cur int64) bool { return cur == end }); !ok {
		return nil, fmt.Errorf("%w: %d -> %d", ErrNoPath, start, end)
	}
	return w.pathTo(start, end), nil
}

// Component returns every identity reachable from id in breadth-first order.
func (n *Network) Component(id int64) []int64 {
	if !n.Contains(id) {
		return nil
	}
	var order []int64
	newWalker(n, id).run(func(cur int64) bool {
		order = append(order, cur)
		return false
	})
	return order
}
