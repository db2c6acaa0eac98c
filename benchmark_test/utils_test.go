package benchmark_test

import "github.com/hupe1980/songsim/testutil"

func rng() *testutil.RNG { return testutil.NewRNG(42) }
