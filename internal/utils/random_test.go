package utils

import (
	"math/rand/v2"
	"testing"
)

func TestRandomReproducibility(t *testing.T) {
	seed := int64(42)

	rng1 := NewRandom(seed)
	rng2 := NewRandom(seed)

	t.Run("Float64", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v1 := rng1.Float64()
			v2 := rng2.Float64()
			if v1 != v2 {
				t.Errorf("Mismatch at iteration %d: %f != %f", i, v1, v2)
				return
			}
		}
	})

	rng1 = NewRandom(seed)
	rng2 = NewRandom(seed)

	t.Run("NormalFloat64", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v1 := rng1.NormalFloat64()
			v2 := rng2.NormalFloat64()
			if v1 != v2 {
				t.Errorf("Mismatch at iteration %d: %f != %f", i, v1, v2)
				return
			}
		}
	})
}

func TestRandomSeedStorage(t *testing.T) {
	// Test explicit seed
	rng := NewRandom(12345)
	if rng.Seed() != 12345 {
		t.Errorf("Expected seed 12345, got %d", rng.Seed())
	}

	// Test auto-generated seed (seed 0)
	rng = NewRandom(0)
	if rng.Seed() == 0 {
		t.Error("Expected non-zero auto-generated seed")
	}
}

func TestRandomSeedInt64RoundTrip(t *testing.T) {
	rng := NewRandom(0)
	replay := NewRandom(rng.SeedInt64())

	if replay.Seed() != rng.Seed() {
		t.Fatalf("Expected seed %d, got %d", rng.Seed(), replay.Seed())
	}
	for i := 0; i < 100; i++ {
		if rng.Float64() != replay.Float64() {
			t.Errorf("Replayed stream diverged at iteration %d", i)
			return
		}
	}
}

func TestRandomFork(t *testing.T) {
	seed := int64(42)
	rng1 := NewRandom(seed)
	rng2 := NewRandom(seed)

	// Fork both in the same order
	fork1a := rng1.Fork()
	fork1b := rng1.Fork()
	fork2a := rng2.Fork()
	fork2b := rng2.Fork()

	if fork1a.Seed() == fork1b.Seed() {
		t.Error("Sibling forks should have different seeds")
	}

	for i := 0; i < 100; i++ {
		if fork1a.Float64() != fork2a.Float64() {
			t.Error("Fork A sequences don't match")
			return
		}
		if fork1b.Float64() != fork2b.Float64() {
			t.Error("Fork B sequences don't match")
			return
		}
	}
}

func TestRandomForkN(t *testing.T) {
	seed := int64(42)
	forks1 := NewRandom(seed).ForkN(5)
	forks2 := NewRandom(seed).ForkN(5)

	for i := range forks1 {
		for j := 0; j < 100; j++ {
			if forks1[i].Float64() != forks2[i].Float64() {
				t.Errorf("Fork %d sequences don't match at iteration %d", i, j)
				return
			}
		}
	}
}

func TestRandomDeriveSeed(t *testing.T) {
	rng := NewRandom(7)
	for i := 0; i < 1000; i++ {
		if s := rng.DeriveSeed(); s <= 0 {
			t.Fatalf("Expected positive derived seed, got %d", s)
		}
	}
}

func TestRandomSource(t *testing.T) {
	src1 := NewRandom(99).Source()
	src2 := NewRandom(99).Source()

	r1 := rand.New(src1)
	r2 := rand.New(src2)
	for i := 0; i < 100; i++ {
		if r1.Uint64() != r2.Uint64() {
			t.Errorf("Sources from equal seeds diverged at iteration %d", i)
			return
		}
	}
}
