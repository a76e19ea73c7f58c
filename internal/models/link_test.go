package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCatalogBuiltins(t *testing.T) {
	catalog := NewLinkCatalog(nil)

	tests := []struct {
		name string
		want float64
	}{
		{"ethernet", 1e9},
		{"fc", 16e9},
		{"  FC ", 16e9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := catalog.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, link.CapacityBps)
		})
	}
}

func TestLinkCatalogUnknown(t *testing.T) {
	catalog := NewLinkCatalog(nil)

	_, err := catalog.Lookup("infiniband")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownScenario))
	assert.Contains(t, err.Error(), "infiniband")
	assert.Contains(t, err.Error(), "ethernet, fc")
}

func TestLinkCatalogExtra(t *testing.T) {
	catalog := NewLinkCatalog(map[string]float64{
		"Eth10G": 10e9,
		"fc":     32e9,
	})

	link, err := catalog.Lookup("eth10g")
	require.NoError(t, err)
	assert.Equal(t, "eth10g", link.Name)
	assert.Equal(t, 10.0, link.CapacityGbps())
	assert.Equal(t, 1250.0, link.CapacityMBps())

	link, err = catalog.Lookup("fc")
	require.NoError(t, err)
	assert.Equal(t, 32e9, link.CapacityBps, "extra entries override built-ins")

	assert.Equal(t, []string{"eth10g", "ethernet", "fc"}, catalog.Names())
}
