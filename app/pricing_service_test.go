package app

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"mcprice/adapters/compute"
	"mcprice/adapters/rng"
	"mcprice/domain/core"
	"mcprice/domain/option"
	"mcprice/domain/stage"
	"mcprice/internal/config"
	"mcprice/internal/errors"
	"mcprice/internal/testkit"
	"mcprice/ports"
)

func gridService(opts compute.Options) *PricingService {
	return NewPricingService(rng.NewManager(), compute.NewGridExecutor(opts), nil)
}

func TestPrice_MatchesBlackScholes(t *testing.T) {
	p := testkit.Reference(200_000)

	report, err := gridService(compute.Options{}).Price(context.Background(), p, rng.DefaultSeed)
	require.NoError(t, err)

	res := report.Result
	assert.Equal(t, 200_000, res.NumPaths)
	assert.InDelta(t, testkit.ReferenceCall, res.CallPrice, 5*res.CallStdErr)
	assert.InDelta(t, testkit.ReferencePut, res.PutPrice, 5*res.PutStdErr)
	assert.Less(t, res.CallStdErr, 0.02)
	assert.InDelta(t, testkit.ReferenceCall, report.Reference.Call, 1e-6)
	assert.InDelta(t, report.CallError(), math.Abs(res.CallPrice-report.Reference.Call), 1e-15)
}

func TestPrice_ZeroShockSinglePath(t *testing.T) {
	p := testkit.Reference(1)
	svc := NewPricingService(testkit.ConstantRNG(0), compute.NewSerial(compute.Options{}), nil)

	report, err := svc.Price(context.Background(), p, 1)
	require.NoError(t, err)

	want := math.Exp(-0.05) * (42*math.Exp(0.04) - 40)
	assert.InDelta(t, want, report.Result.CallPrice, 1e-12)
	assert.Equal(t, 0.0, report.Result.PutPrice)
	assert.Equal(t, 0.0, report.Result.CallStdErr)
}

func TestPrice_PhasesAndManifest(t *testing.T) {
	p := testkit.Reference(5000)
	report, err := gridService(compute.Options{Workers: 2, ThreadsPerBlock: 128}).Price(context.Background(), p, 99)
	require.NoError(t, err)

	var phases []stage.StageName
	for _, timing := range report.Timings {
		phases = append(phases, timing.Stage)
		assert.GreaterOrEqual(t, int64(timing.Duration), int64(0))
	}
	assert.Equal(t, stage.Order()[:5], phases)

	m := report.Manifest
	require.NoError(t, m.Validate())
	assert.Equal(t, "grid", m.Strategy)
	assert.Equal(t, 128, m.BatchSize)
	assert.Equal(t, 2, m.Workers)
	assert.Equal(t, uint64(99), m.Seed)
	assert.Equal(t, 5000, m.NumPaths)
	assert.Nil(t, report.Profile)
}

func TestPrice_Deterministic(t *testing.T) {
	p := testkit.Reference(30_000)
	for _, name := range compute.Strategies() {
		e, err := compute.New(name, compute.Options{Workers: 3})
		require.NoError(t, err)
		svc := NewPricingService(rng.NewManager(), e, nil)

		a, err := svc.Price(context.Background(), p, 5)
		require.NoError(t, err)
		b, err := svc.Price(context.Background(), p, 5)
		require.NoError(t, err)

		assert.Equal(t, a.Result, b.Result, name)
		assert.True(t, a.Manifest.SameInputs(b.Manifest), name)
		assert.NotEqual(t, a.Manifest.RunID, b.Manifest.RunID, name)

		c, err := svc.Price(context.Background(), p, 6)
		require.NoError(t, err)
		assert.NotEqual(t, a.Result.CallPrice, c.Result.CallPrice, name)
		assert.False(t, a.Manifest.SameInputs(c.Manifest), name)
	}
}

func TestVerify_ReproducesRun(t *testing.T) {
	p := testkit.Reference(20_000)
	svc := gridService(compute.Options{Workers: 3})
	report, err := svc.Price(context.Background(), p, 31)
	require.NoError(t, err)

	// worker count is not part of the fingerprint
	require.NoError(t, gridService(compute.Options{Workers: 1}).Verify(context.Background(), p, report))

	err = gridService(compute.Options{ThreadsPerBlock: 128}).Verify(context.Background(), p, report)
	assert.True(t, errors.IsDeterminismError(err))
	assert.ErrorIs(t, err, core.ErrHashMismatch)

	other := testkit.Reference(20_001)
	err = svc.Verify(context.Background(), other, report)
	assert.ErrorIs(t, err, core.ErrHashMismatch)
}

func TestVerify_DetectsDriftingResult(t *testing.T) {
	p := testkit.Reference(4)
	first, err := testkit.ConstantRNG(0).Init(3, 4)
	require.NoError(t, err)
	second, err := testkit.ConstantRNG(0.5).Init(3, 4)
	require.NoError(t, err)

	manager := new(testkit.MockRNG)
	manager.On("Init", uint64(3), 4).Return(first, nil).Once()
	manager.On("Init", uint64(3), 4).Return(second, nil).Once()

	svc := NewPricingService(manager, compute.NewSerial(compute.Options{}), nil)
	report, err := svc.Price(context.Background(), p, 3)
	require.NoError(t, err)

	err = svc.Verify(context.Background(), p, report)
	assert.True(t, errors.IsDeterminismError(err))
	assert.ErrorIs(t, err, core.ErrNonDeterministic)
	assert.Equal(t, errors.CodeNonDeterministic, errors.GetCode(err))
	manager.AssertExpectations(t)
}

func TestPrice_MonotoneInSpot(t *testing.T) {
	svc := gridService(compute.Options{})
	var prevCall, prevPut float64
	for i, spot := range []float64{36, 40, 42, 44, 48} {
		p := testkit.Contract(spot, 40, 0.5, 0.1, 0.2, 20_000)
		report, err := svc.Price(context.Background(), p, 17)
		require.NoError(t, err)

		if i > 0 {
			assert.Greater(t, report.Result.CallPrice, prevCall, "S=%v", spot)
			assert.Less(t, report.Result.PutPrice, prevPut, "S=%v", spot)
		}
		prevCall, prevPut = report.Result.CallPrice, report.Result.PutPrice
	}
}

func TestPrice_PutCallParity(t *testing.T) {
	if testing.Short() {
		t.Skip("prices a million paths")
	}
	p := testkit.Reference(1_000_000)
	report, err := gridService(compute.Options{}).Price(context.Background(), p, 23)
	require.NoError(t, err)

	gap := option.ParityGap(report.Result, p)
	assert.Less(t, math.Abs(gap), 4*(report.Result.CallStdErr+report.Result.PutStdErr))
}

func TestPrice_ErrorsAbortRun(t *testing.T) {
	p := testkit.Reference(1000)

	_, err := gridService(compute.Options{MaxBufferBytes: 512}).Price(context.Background(), p, 1)
	assert.True(t, errors.IsResourceExhaustion(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gridService(compute.Options{}).Price(ctx, p, 1)
	assert.ErrorIs(t, err, context.Canceled)

	// exp overflow on every path
	svc := NewPricingService(testkit.ConstantRNG(1e6), compute.NewSerial(compute.Options{}), nil)
	_, err = svc.Price(context.Background(), p, 1)
	assert.True(t, errors.IsNumericDegenerate(err))
}

func TestPrice_RandomStateFailure(t *testing.T) {
	p := testkit.Reference(10)
	manager := new(testkit.MockRNG)
	manager.On("Init", uint64(9), 10).Return(nil, errors.InvalidArgument("rejected"))

	_, err := NewPricingService(manager, compute.NewSerial(compute.Options{}), nil).Price(context.Background(), p, 9)
	assert.True(t, errors.IsInvalidArgument(err))
	manager.AssertExpectations(t)
}

func TestPrice_StateHandedToExecutor(t *testing.T) {
	p := testkit.Reference(4)
	state, err := testkit.SequenceRNG(0, 0, 0, 0).Init(1, 4)
	require.NoError(t, err)

	manager := new(testkit.MockRNG)
	manager.On("Init", mock.Anything, 4).Return(state, nil).Once()

	report, err := NewPricingService(manager, compute.NewPool(compute.Options{ChunkSize: 1}), nil).Price(context.Background(), p, 77)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.05)*(42*math.Exp(0.04)-40), report.Result.CallPrice, 1e-12)
	manager.AssertExpectations(t)
}

func TestPrice_WithProfile(t *testing.T) {
	p := testkit.Reference(10_000)
	report, err := gridService(compute.Options{}).WithProfile(2000).Price(context.Background(), p, 3)
	require.NoError(t, err)
	require.NotNil(t, report.Profile)
	assert.Equal(t, 2000, report.Profile.SampleSize)
}

func TestPrice_ZeroSpotReportEncodes(t *testing.T) {
	p := testkit.Contract(0, 40, 0.5, 0.1, 0.2, 1000)
	report, err := gridService(compute.Options{}).WithProfile(100).Price(context.Background(), p, 4)
	require.NoError(t, err)
	require.NotNil(t, report.Profile)
	assert.Nil(t, report.Profile.LogTerminal)
	assert.Equal(t, 0.0, report.Result.CallPrice)

	_, err = json.Marshal(report)
	require.NoError(t, err)
	_, err = yaml.Marshal(report)
	require.NoError(t, err)
}

func TestPackagePrice(t *testing.T) {
	call, put, err := Price(42, 40, 0.5, 0.1, 0.2, 100_000, rng.DefaultSeed)
	require.NoError(t, err)
	assert.InDelta(t, testkit.ReferenceCall, call, 0.06)
	assert.InDelta(t, testkit.ReferencePut, put, 0.03)

	_, _, err = Price(42, 40, 0.5, 0.1, 0.2, 0, 1)
	assert.True(t, errors.IsInvalidArgument(err))

	_, _, err = Price(42, 40, 0.5, 0.1, -0.2, 10, 1)
	assert.True(t, errors.IsNumericDegenerate(err))
}

func TestCompare_StrategiesAgree(t *testing.T) {
	p := testkit.Reference(60_001)
	opts := compute.Options{Workers: 4, ChunkSize: 1000, ThreadsPerBlock: 256}
	executors := []ports.Executor{compute.NewSerial(opts), compute.NewPool(opts), compute.NewGridExecutor(opts)}

	cmp, err := Compare(context.Background(), rng.NewManager(), executors, p, 8, nil)
	require.NoError(t, err)
	require.Len(t, cmp.Reports, 3)
	assert.Len(t, cmp.Diffs, 3)
	assert.Less(t, cmp.MaxRelativeDiff(), 1e-3)

	_, err = Compare(context.Background(), rng.NewManager(), nil, p, 8, nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestConvergenceSizes(t *testing.T) {
	assert.Equal(t, []int{10_000, 100_000, 1_000_000, 10_000_000}, ConvergenceSizes(10_000_000))
	assert.Equal(t, []int{10_000, 100_000}, ConvergenceSizes(500_000))
	assert.Equal(t, []int{5000}, ConvergenceSizes(5000))
	assert.Nil(t, ConvergenceSizes(0))
}

func TestConvergence(t *testing.T) {
	p := testkit.Reference(1)
	points, err := gridService(compute.Options{}).Convergence(context.Background(), p, rng.DefaultSeed, []int{1000, 400_000})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 400_000, points[1].NumPaths)
	assert.Less(t, points[1].CallStdErr, points[0].CallStdErr)
	assert.Less(t, points[1].CallRelErr, 0.01)

	_, err = gridService(compute.Options{}).Convergence(context.Background(), p, 1, nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestConvergence_FullSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("prices up to ten million paths")
	}
	p := testkit.Reference(1)
	sizes := ConvergenceSizes(10_000_000)
	points, err := gridService(compute.Options{}).Convergence(context.Background(), p, rng.DefaultSeed, sizes)
	require.NoError(t, err)
	require.Len(t, points, 4)

	for k := 1; k < len(points); k++ {
		// standard error falls like 1/sqrt(n): about sqrt(10) per decade
		ratio := points[k-1].CallStdErr / points[k].CallStdErr
		assert.InDelta(t, math.Sqrt(10), ratio, 0.3, "decade %d", k)
		assert.Less(t, points[k].PutStdErr, points[k-1].PutStdErr)
	}

	last := points[len(points)-1]
	assert.Equal(t, 10_000_000, last.NumPaths)
	assert.Less(t, last.CallRelErr, 2e-3)
	assert.Less(t, last.PutRelErr, 5e-3)
	assert.Less(t, last.CallRelErr, points[0].CallRelErr)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Pricing: config.PricingConfig{Strategy: "parallel", Seed: 1, NumPaths: 100},
		Compute: config.ComputeConfig{Workers: 2, BatchSize: 64, ReduceBlock: 1024},
	}

	svc, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "parallel", svc.Strategy())

	executors, err := ExecutorsFromConfig(cfg, nil)
	require.NoError(t, err)
	require.Len(t, executors, 3)
	for _, e := range executors[1:] {
		assert.Equal(t, 64, e.BatchSize())
	}
}
