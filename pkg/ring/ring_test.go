package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_AddAndList(t *testing.T) {
	tests := []struct {
		name string
		size int
		add  []int
		want []int
	}{
		{name: "empty", size: 3, add: nil, want: nil},
		{name: "partial", size: 3, add: []int{1, 2}, want: []int{1, 2}},
		{name: "full", size: 3, add: []int{1, 2, 3}, want: []int{1, 2, 3}},
		{name: "wraps", size: 3, add: []int{1, 2, 3, 4, 5}, want: []int{3, 4, 5}},
		{name: "zero size holds one", size: 0, add: []int{1, 2}, want: []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New[int](tt.size)
			for _, v := range tt.add {
				r.Add(v)
			}
			assert.Equal(t, tt.want, r.List())
			assert.Equal(t, len(tt.want), r.Len())
		})
	}
}

func TestRing_Tail(t *testing.T) {
	r := New[string](4)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		r.Add(s)
	}

	assert.Equal(t, []string{"d", "e"}, r.Tail(2))
	assert.Equal(t, []string{"b", "c", "d", "e"}, r.Tail(10))
	assert.Nil(t, r.Tail(0))
}

func TestRing_Resize(t *testing.T) {
	r := New[int](4)
	for i := range 6 {
		r.Add(i)
	}

	r.Resize(2)
	assert.Equal(t, []int{4, 5}, r.List())
	assert.Equal(t, 2, r.Cap())

	r.Resize(3)
	r.Add(6)
	assert.Equal(t, []int{4, 5, 6}, r.List())
	r.Add(7)
	assert.Equal(t, []int{5, 6, 7}, r.List())
}

func TestRing_Nil(t *testing.T) {
	var r *Ring[int]
	r.Add(1)
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.List())
}
