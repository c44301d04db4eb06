package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressMapperValidAndFilter(t *testing.T) {
	m := NewAddressMapper([]string{"node1", "node2"}, map[string][]string{"node1": {"node1.internal"}})

	assert.True(t, m.Valid("node2"))
	assert.True(t, m.Valid("node1.internal"))
	assert.False(t, m.Valid("node3"))

	assert.Equal(t, []string{"node1", "node2"}, m.Filter([]string{"node1", "node3", "node2"}))
}

func TestAddressMapperLocalAddressMissing(t *testing.T) {
	m := NewAddressMapper([]string{"definitely-not-this-host"}, nil)
	_, err := m.LocalAddress()
	assert.Error(t, err)
}
