package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSetDelete(t *testing.T) {
	s := New[string, int]()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("a", 1)
	s.Set("a", 2)
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())

	s.Delete("a")
	s.Delete("a")
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_ValuesIsSnapshot(t *testing.T) {
	s := New[int, string]()
	s.Set(1, "a")
	s.Set(2, "b")

	vals := s.Values()
	s.Delete(1)

	assert.ElementsMatch(t, []string{"a", "b"}, vals)
	assert.Equal(t, []string{"b"}, s.Values())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(i, i*2)
		}()
		go func() {
			defer wg.Done()
			s.Get(i)
			_ = s.Values()
		}()
	}

	wg.Wait()

	assert.Equal(t, 100, s.Len())
}
