package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartAddMergesQuantities(t *testing.T) {
	c := Cart{}
	c.Add("p-1", 1)
	c.Add("p-2", 3)
	c.Add("p-1", 2)

	assert.Len(t, c, 2, "re-adding a product must not create a duplicate line")
	assert.Equal(t, 3, c["p-1"])
	assert.Equal(t, 3, c["p-2"])
}

func TestCartAddIgnoresNonPositiveQty(t *testing.T) {
	c := Cart{}
	c.Add("p-1", 0)
	c.Add("p-1", -2)

	assert.True(t, c.IsEmpty())
}

func TestCartProductIDsSorted(t *testing.T) {
	c := Cart{"z": 1, "a": 1, "m": 1}
	assert.Equal(t, []string{"a", "m", "z"}, c.ProductIDs())
}
