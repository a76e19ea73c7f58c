package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValuesMatchColumns(t *testing.T) {
	r := Record{
		Time:             1.5,
		Scenario:         "fc",
		Encryption:       true,
		CapacityBps:      16e9,
		ThroughputMBps:   100,
		TransmissionTime: 0.25,
		ServiceTime:      0.5,
		Saturated:        true,
	}

	values := r.Values()
	require.Len(t, values, len(Columns))

	byName := make(map[string]any, len(Columns))
	for i, col := range Columns {
		byName[col] = values[i]
	}
	assert.Equal(t, 1.5, byName["time_s"])
	assert.Equal(t, "fc", byName["scenario"])
	assert.Equal(t, true, byName["encryption"])
	assert.Equal(t, 800.0, byName["throughput_Mbps"])
	assert.Equal(t, 16.0, byName["capacity_Gbps"])
	assert.Equal(t, 0.25, byName["service_time_s"])
	assert.Equal(t, 0.5, byName["avg_service_time_s"])
	assert.Equal(t, true, byName["saturated"])
	assert.Equal(t, false, byName["congested"])
}
