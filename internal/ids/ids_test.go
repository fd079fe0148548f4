package ids

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g, err := New(SchemeULID)
	require.NoError(t, err)
	_, err = ulid.Parse(g.NewID())
	assert.NoError(t, err)

	g, err = New(SchemeUUID)
	require.NoError(t, err)
	_, err = uuid.Parse(g.NewID())
	assert.NoError(t, err)

	_, err = New("snowflake")
	assert.Error(t, err)
}

func TestULID_Sortable(t *testing.T) {
	g := ULID{}
	prev := g.NewID()
	for i := 0; i < 100; i++ {
		next := g.NewID()
		assert.NotEqual(t, prev, next)
		prev = next
	}
}

func TestGenerators_UniqueUnderConcurrency(t *testing.T) {
	for _, g := range []Generator{ULID{}, UUID{}} {
		var (
			mu   sync.Mutex
			seen = make(map[string]bool)
			wg   sync.WaitGroup
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					id := g.NewID()
					mu.Lock()
					seen[id] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 1000)
	}
}

func TestFunc(t *testing.T) {
	n := 0
	g := Func(func() string {
		n++
		return "id"
	})
	assert.Equal(t, "id", g.NewID())
	assert.Equal(t, 1, n)
}
