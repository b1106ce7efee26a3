package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	s := MakeBits(1)

	assert.False(t, s.Set(1))
	assert.False(t, s.Set(70))
	assert.False(t, s.Set(200))
	assert.True(t, s.Set(70))

	assert.True(t, s.IsSet(1))
	assert.True(t, s.IsSet(70))
	assert.False(t, s.IsSet(2))
	assert.False(t, s.IsSet(0))
	assert.False(t, s.IsSet(1000))

	assert.Equal(t, 3, s.Size())

	s.Clear(70)
	s.Clear(5000)

	var l []int

	s.Range(func(k int) bool {
		l = append(l, k)
		return true
	})

	assert.Equal(t, []int{1, 200}, l)

	assert.Panics(t, func() { s.Set(0) })
}

func TestBitsRangeStop(t *testing.T) {
	s := MakeBits[int64](0)

	for k := int64(0); k < 10; k++ {
		s.Set(k * 3)
	}

	var l []int64

	s.Range(func(k int64) bool {
		l = append(l, k)
		return len(l) < 3
	})

	assert.Equal(t, []int64{0, 3, 6}, l)
}
