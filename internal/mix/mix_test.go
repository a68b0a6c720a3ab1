package mix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededDiffersBySeed(t *testing.T) {
	a := Seeded(42, Seed(128))
	b := Seeded(42, Seed(256))
	assert.NotEqual(t, a, b, "different seeds should (almost always) diverge for the same key")
}

func TestSeededDeterministic(t *testing.T) {
	seed := Seed(1024)
	a := Seeded(7, seed)
	b := Seeded(7, seed)
	assert.Equal(t, a, b)
}

func TestUnseededIsSeededWithZero(t *testing.T) {
	assert.Equal(t, Seeded(99, 0), Unseeded(99))
}

func TestSeedXorsCapacity(t *testing.T) {
	assert.Equal(t, uint32(128)^0x9e3779b9, Seed(128))
}
