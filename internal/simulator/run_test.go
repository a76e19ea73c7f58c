package simulator

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/san-simulator/internal/models"
	"github.com/willfong/san-simulator/internal/profile"
)

var (
	ethernet = models.Link{Name: "ethernet", CapacityBps: 1e9}
	fc       = models.Link{Name: "fc", CapacityBps: 16e9}
)

func testSpec() RunSpec {
	return RunSpec{
		Link: ethernet,
		Profile: profile.Config{
			Duration:      60,
			Step:          0.5,
			BaseLoad:      10,
			PeakLoad:      400,
			SpikeTimes:    []float64{10},
			SpikeDuration: 8,
			SpikeShape:    profile.SpikeGaussian,
			Seed:          7,
		},
		PacketBytes:  1500,
		OverheadFrac: 0.02,
		EncMsPerMB:   0.12,
	}
}

func TestRunProducesOneRecordPerSample(t *testing.T) {
	res, err := Run(context.Background(), testSpec())
	require.NoError(t, err)

	require.Len(t, res.Records, 121)
	assert.Equal(t, int64(7), res.Seed)

	for i, r := range res.Records {
		assert.Equal(t, float64(i)*0.5, r.Time)
		assert.Equal(t, "ethernet", r.Scenario)
		assert.False(t, r.Encryption)
		assert.Equal(t, 1e9, r.CapacityBps)
		assert.Equal(t, 1500.0, r.PacketBytes)
		assert.Equal(t, 0.02, r.OverheadFrac)
		assert.Equal(t, 0.0, r.EncryptionDelay)
	}
}

func TestRunSaturatesOnPlateau(t *testing.T) {
	res, err := Run(context.Background(), testSpec())
	require.NoError(t, err)

	// 400 MB/s plateau around t=30 exceeds the 125 MB/s link
	mid := res.Records[60]
	assert.Equal(t, 30.0, mid.Time)
	assert.True(t, mid.Saturated)
	assert.True(t, math.IsInf(mid.TimeInSystem, 1))

	first := res.Records[0]
	assert.False(t, first.Saturated)
	assert.Equal(t, 0.0, first.LossRatio)
	assert.Equal(t, first.OfferedMBps, first.ThroughputMBps)
}

func TestRunDeterministic(t *testing.T) {
	spec := testSpec()
	spec.Profile.SpikeTimes = nil

	a, err := Run(context.Background(), spec)
	require.NoError(t, err)
	b, err := Run(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, a.Records, b.Records)
}

func TestRunInvalidProfile(t *testing.T) {
	spec := testSpec()
	spec.Profile.Step = 0

	_, err := Run(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, profile.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "run ethernet")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testSpec())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSpecName(t *testing.T) {
	spec := testSpec()
	assert.Equal(t, "ethernet", spec.Name())
	spec.Encryption = true
	spec.Link = fc
	assert.Equal(t, "fc+enc", spec.Name())
}

func TestCompareSpecs(t *testing.T) {
	specs := CompareSpecs(testSpec(), []models.Link{ethernet, fc}, 99)
	require.Len(t, specs, 4)

	assert.Equal(t, []string{"ethernet", "ethernet+enc", "fc", "fc+enc"},
		[]string{specs[0].Name(), specs[1].Name(), specs[2].Name(), specs[3].Name()})

	// encryption modes of one link share a seed; links differ
	assert.Equal(t, specs[0].Profile.Seed, specs[1].Profile.Seed)
	assert.Equal(t, specs[2].Profile.Seed, specs[3].Profile.Seed)
	assert.NotEqual(t, specs[0].Profile.Seed, specs[2].Profile.Seed)

	again := CompareSpecs(testSpec(), []models.Link{ethernet, fc}, 99)
	for i := range specs {
		assert.Equal(t, specs[i].Profile.Seed, again[i].Profile.Seed)
	}

	// spike slices are not shared with the base spec
	specs[0].Profile.SpikeTimes[0] = 999
	assert.Equal(t, 10.0, specs[1].Profile.SpikeTimes[0])
}

func TestRunAllMatchesSequential(t *testing.T) {
	base := testSpec()
	base.Profile.NoiseLevel = 0.05
	specs := CompareSpecs(base, []models.Link{ethernet, fc}, 3)

	var mu sync.Mutex
	started := map[int]bool{}
	done := 0

	results, err := RunAll(context.Background(), specs, BatchOptions{
		Workers: 3,
		OnStart: func(i int, _ RunSpec) {
			mu.Lock()
			started[i] = true
			mu.Unlock()
		},
		OnDone: func(_ int, _ *Result, err error) {
			assert.NoError(t, err)
			mu.Lock()
			done++
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Len(t, started, 4)
	assert.Equal(t, 4, done)

	for i, spec := range specs {
		seq, err := Run(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, spec.Name(), results[i].Spec.Name())
		assert.Equal(t, seq.Records, results[i].Records)
	}

	// same seed, same offered load with and without encryption
	assert.Equal(t, results[0].Records[10].OfferedMBps, results[1].Records[10].OfferedMBps)
}

func TestRunAllFailure(t *testing.T) {
	bad := testSpec()
	bad.Profile.Duration = -1
	specs := []RunSpec{testSpec(), bad}

	_, err := RunAll(context.Background(), specs, BatchOptions{Workers: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrInvalidConfig)
}

func TestUnion(t *testing.T) {
	specs := CompareSpecs(testSpec(), []models.Link{ethernet, fc}, 1)
	results, err := RunAll(context.Background(), specs, BatchOptions{})
	require.NoError(t, err)

	all := Union(results)
	require.Len(t, all, 4*121)
	assert.Equal(t, "ethernet", all[0].Scenario)
	assert.False(t, all[0].Encryption)
	assert.True(t, all[121].Encryption)
	assert.Equal(t, "fc", all[len(all)-1].Scenario)
	assert.True(t, all[len(all)-1].Encryption)
}

func TestGetWorkerCount(t *testing.T) {
	if got := GetWorkerCount(4); got != 4 {
		t.Errorf("Expected 4 workers, got %d", got)
	}
	if got := GetWorkerCount(0); got < 1 {
		t.Errorf("Expected at least 1 worker, got %d", got)
	}
}
