package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsOneInstance(t *testing.T) {
	reg := NewRegistry(testLogger())

	const n = 64
	rooms := make([]*Room, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = reg.GetOrCreate("abcde")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, rooms[0], rooms[i])
	}
	assert.Equal(t, 1, reg.Len())
}

func TestRoomsAreIndependent(t *testing.T) {
	reg := NewRegistry(testLogger())

	a, err := reg.Join("room-a", testMember("alice"), &fakeSink{})
	require.NoError(t, err)
	b, err := reg.Join("room-b", testMember("alice"), &fakeSink{})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())

	_, err = a.Apply("id-alice", Mutation{Kind: MutateCreateFile, Name: "only-in-a.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.TreeLen())
	assert.Equal(t, 1, b.TreeLen())
}

func TestEmptyRoomIsReclaimedAndRecreatedFresh(t *testing.T) {
	reg := NewRegistry(testLogger())
	alice := testMember("alice")

	rm, err := reg.Join("abcde", alice, &fakeSink{})
	require.NoError(t, err)
	_, err = rm.Apply(alice.ID, Mutation{Kind: MutateCreateFile, Name: "x.txt"})
	require.NoError(t, err)
	require.Equal(t, 2, rm.TreeLen())

	reg.Leave(rm, alice.ID)
	require.Equal(t, 0, reg.Len())

	// A fresh join with the same id starts over, not with the old tree.
	rm2, err := reg.Join("abcde", alice, &fakeSink{})
	require.NoError(t, err)
	assert.NotSame(t, rm, rm2)
	assert.Equal(t, 1, rm2.TreeLen())
}

// TestJoinRacingCleanupIsNeverLost hammers the join/last-leave race: whenever
// a join succeeds, the registry must hold the very room that admitted it.
func TestJoinRacingCleanupIsNeverLost(t *testing.T) {
	reg := NewRegistry(testLogger())

	for i := 0; i < 200; i++ {
		first := Member{ID: fmt.Sprintf("first-%d", i), Username: "first"}
		rm, err := reg.Join("abcde", first, &fakeSink{})
		require.NoError(t, err)

		second := Member{ID: fmt.Sprintf("second-%d", i), Username: "second"}
		var wg sync.WaitGroup
		wg.Add(2)
		var joined *Room
		var joinErr error
		go func() {
			defer wg.Done()
			reg.Leave(rm, first.ID) // may empty the room mid-join
		}()
		go func() {
			defer wg.Done()
			joined, joinErr = reg.Join("abcde", second, &fakeSink{})
		}()
		wg.Wait()

		require.NoError(t, joinErr)
		require.Same(t, joined, reg.Get("abcde"), "admitted room fell out of the registry")
		assert.Len(t, joined.Members(), 1)

		reg.Leave(joined, second.ID)
		require.Equal(t, 0, reg.Len())
	}
}
