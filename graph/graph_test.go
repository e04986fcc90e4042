package graph_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/models"
)

type NetworkSuite struct {
	suite.Suite
	net *graph.Network
}

func (s *NetworkSuite) SetupTest() {
	s.net = graph.NewNetwork("lte", "#334D1A")
}

func (s *NetworkSuite) register(ids ...int64) {
	for _, id := range ids {
		s.net.AddNode(&models.Drone{ID: id, Active: true})
	}
}

func (s *NetworkSuite) TestAddNodeIdempotent() {
	require := require.New(s.T())
	s.register(1)
	first, _ := s.net.GetByID(1)

	s.net.AddNode(&models.Drone{ID: 1})
	require.Equal(1, s.net.Len())
	again, ok := s.net.GetByID(1)
	require.True(ok)
	require.Same(first, again, "re-registering must not replace the drone")

	s.net.AddNode(nil)
	require.Equal(1, s.net.Len())
}

func (s *NetworkSuite) TestConnectSymmetric() {
	require := require.New(s.T())
	s.register(1, 2, 3)
	s.net.Connect(1, 2)
	s.net.Connect(2, 3)

	for _, pair := range [][2]int64{{1, 2}, {2, 3}} {
		require.True(s.net.Connected(pair[0], pair[1]))
		require.True(s.net.Connected(pair[1], pair[0]))
	}
	require.Equal([]int64{1, 3}, s.net.Neighbors(2))
	require.Equal(2, s.net.EdgeCount())
}

func (s *NetworkSuite) TestConnectIgnoresBadRequests() {
	require := require.New(s.T())
	s.register(1, 2)

	s.net.Connect(1, 99)
	s.net.Connect(99, 1)
	s.net.Connect(1, 1)
	s.net.Connect(1, 2)
	s.net.Connect(2, 1)

	require.Equal([]int64{2}, s.net.Neighbors(1))
	require.Equal([]int64{1}, s.net.Neighbors(2))
	require.Empty(s.net.Neighbors(99))
	require.False(s.net.Contains(99))
}

func (s *NetworkSuite) TestGetByIDMissing() {
	_, ok := s.net.GetByID(42)
	s.Require().False(ok)
}

func (s *NetworkSuite) TestSearchRegistered() {
	require := require.New(s.T())
	s.register(1, 2)

	d, err := s.net.Search(1)
	require.NoError(err)
	require.Equal(int64(1), d.ID)

	// isolated nodes are still found
	d, err = s.net.Search(2)
	require.NoError(err)
	require.Equal(int64(2), d.ID)
}

func (s *NetworkSuite) TestSearchUnregistered() {
	_, err := s.net.Search(999)
	s.Require().ErrorIs(err, graph.ErrNotFound)
}

func (s *NetworkSuite) TestReachable() {
	require := require.New(s.T())
	s.register(1, 2, 3, 4)
	s.net.Connect(1, 2)
	s.net.Connect(2, 3)

	require.True(s.net.Reachable(1, 3))
	require.True(s.net.Reachable(3, 1))
	require.True(s.net.Reachable(4, 4))
	require.False(s.net.Reachable(1, 4))
	require.False(s.net.Reachable(1, 99))
}

func (s *NetworkSuite) TestShortestPathLineThenRemoval() {
	require := require.New(s.T())
	s.register(1, 2, 3, 4)
	s.net.Connect(1, 2)
	s.net.Connect(2, 3)
	s.net.Connect(3, 4)

	p, err := s.net.ShortestPath(1, 4)
	require.NoError(err)
	require.Equal([]int64{1, 2, 3, 4}, p)

	s.net.RemoveNode(2)
	_, err = s.net.ShortestPath(1, 4)
	require.ErrorIs(err, graph.ErrNoPath)
}

func (s *NetworkSuite) TestShortestPathEndpoints() {
	require := require.New(s.T())
	s.register(1, 2)

	p, err := s.net.ShortestPath(1, 1)
	require.NoError(err)
	require.Equal([]int64{1}, p)

	_, err = s.net.ShortestPath(1, 50)
	require.ErrorIs(err, graph.ErrNotFound)
	_, err = s.net.ShortestPath(50, 1)
	require.ErrorIs(err, graph.ErrNotFound)

	_, err = s.net.ShortestPath(1, 2)
	require.ErrorIs(err, graph.ErrNoPath)
	require.False(errors.Is(err, graph.ErrNotFound))
}

func (s *NetworkSuite) TestShortestPathTieBreakByInsertionOrder() {
	require := require.New(s.T())
	// 1–3–4 and 1–2–4 are both two hops; 3 was connected to 1 first.
	s.register(1, 2, 3, 4)
	s.net.Connect(1, 3)
	s.net.Connect(1, 2)
	s.net.Connect(2, 4)
	s.net.Connect(3, 4)

	p, err := s.net.ShortestPath(1, 4)
	require.NoError(err)
	require.Equal([]int64{1, 3, 4}, p)

	// repeated queries are stable
	for i := 0; i < 10; i++ {
		again, err := s.net.ShortestPath(1, 4)
		require.NoError(err)
		require.Equal(p, again)
	}
}

func (s *NetworkSuite) TestRemoveNodeCascadesAndIsIdempotent() {
	require := require.New(s.T())
	s.register(1, 2, 3, 4)
	s.net.Connect(1, 2)
	s.net.Connect(2, 3)
	s.net.Connect(2, 4)
	s.net.Connect(3, 4)

	s.net.RemoveNode(2)
	once := snapshot(s.net)
	s.net.RemoveNode(2)
	require.Equal(once, snapshot(s.net))

	require.False(s.net.Contains(2))
	for _, id := range s.net.IDs() {
		require.NotContains(s.net.Neighbors(id), int64(2))
	}
	require.Equal([]int64{4}, s.net.Neighbors(3))
	require.Equal(1, s.net.EdgeCount())

	s.net.RemoveNode(77)
	require.Equal(3, s.net.Len())
}

func (s *NetworkSuite) TestComponent() {
	require := require.New(s.T())
	s.register(1, 2, 3, 4, 5)
	s.net.Connect(1, 2)
	s.net.Connect(1, 3)
	s.net.Connect(3, 4)

	require.Equal([]int64{1, 2, 3, 4}, s.net.Component(1))
	require.Equal([]int64{5}, s.net.Component(5))
	require.Nil(s.net.Component(42))
}

func (s *NetworkSuite) TestIDsAndDronesSorted() {
	require := require.New(s.T())
	s.register(9, 3, 5)
	require.Equal([]int64{3, 5, 9}, s.net.IDs())
	drones := s.net.Drones()
	require.Len(drones, 3)
	require.Equal(int64(3), drones[0].ID)
	require.Equal(int64(9), drones[2].ID)
}

func TestNetworkSuite(t *testing.T) {
	suite.Run(t, new(NetworkSuite))
}

func snapshot(n *graph.Network) map[int64][]int64 {
	out := make(map[int64][]int64)
	for _, id := range n.IDs() {
		out[id] = n.Neighbors(id)
	}
	return out
}

// TestShortestPathAgainstOracle compares path lengths with gonum's Dijkstra
// over unit weights on small random graphs.
func TestShortestPathAgainstOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 40; trial++ {
		nodeCount := 2 + rng.Intn(12)
		edgeCount := rng.Intn(nodeCount * 2)

		net := graph.NewNetwork("t", "")
		oracle := simple.NewUndirectedGraph()
		for id := int64(0); id < int64(nodeCount); id++ {
			net.AddNode(&models.Drone{ID: id})
			oracle.AddNode(simple.Node(id))
		}
		for e := 0; e < edgeCount; e++ {
			a := int64(rng.Intn(nodeCount))
			b := int64(rng.Intn(nodeCount))
			if a == b {
				continue
			}
			net.Connect(a, b)
			oracle.SetEdge(oracle.NewEdge(simple.Node(a), simple.Node(b)))
		}

		for a := int64(0); a < int64(nodeCount); a++ {
			tree := path.DijkstraFrom(simple.Node(a), oracle)
			for b := int64(0); b < int64(nodeCount); b++ {
				want, _ := tree.To(b)
				got, err := net.ShortestPath(a, b)

				if len(want) == 0 {
					require.ErrorIs(t, err, graph.ErrNoPath, "trial %d: %d -> %d", trial, a, b)
					continue
				}
				require.NoError(t, err, "trial %d: %d -> %d", trial, a, b)
				require.Len(t, got, len(want), "trial %d: %d -> %d", trial, a, b)
				require.Equal(t, a, got[0])
				require.Equal(t, b, got[len(got)-1])
				for i := 1; i < len(got); i++ {
					require.True(t, net.Connected(got[i-1], got[i]), "hop %d-%d is not an edge", got[i-1], got[i])
				}

				back, err := net.ShortestPath(b, a)
				require.NoError(t, err)
				require.Len(t, back, len(got))
			}
		}
	}
}

func TestSymmetryUnderRandomMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	net := graph.NewNetwork("t", "")
	for id := int64(0); id < 30; id++ {
		net.AddNode(&models.Drone{ID: id})
	}
	for i := 0; i < 200; i++ {
		a, b := int64(rng.Intn(30)), int64(rng.Intn(30))
		if rng.Intn(10) == 0 {
			net.RemoveNode(a)
			continue
		}
		net.Connect(a, b)
	}

	for _, a := range net.IDs() {
		seen := map[int64]bool{}
		for _, b := range net.Neighbors(a) {
			require.NotEqual(t, a, b, "self loop on %d", a)
			require.False(t, seen[b], "duplicate neighbor %d on %d", b, a)
			seen[b] = true
			require.True(t, net.Contains(b))
			require.Contains(t, net.Neighbors(b), a)
		}
	}
}
