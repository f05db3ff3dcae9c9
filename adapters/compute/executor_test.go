package compute

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcprice/adapters/rng"
	"mcprice/domain/option"
	"mcprice/domain/stage"
	"mcprice/internal/errors"
	"mcprice/internal/testkit"
	"mcprice/ports"
)

func job(t *testing.T, manager ports.RandomStateManager, p option.SimulationParameters, seed uint64) ports.Job {
	t.Helper()
	state, err := manager.Init(seed, p.NumPaths())
	require.NoError(t, err)
	return ports.Job{Params: p, State: state}
}

func allExecutors(opts Options) []ports.Executor {
	return []ports.Executor{NewSerial(opts), NewPool(opts), NewGridExecutor(opts)}
}

func TestNew(t *testing.T) {
	for _, name := range Strategies() {
		e, err := New(name, Options{})
		require.NoError(t, err)
		assert.Equal(t, name, e.Name())
	}

	e, err := New(" GRID ", Options{ThreadsPerBlock: 128})
	require.NoError(t, err)
	assert.Equal(t, 128, e.BatchSize())

	_, err = New("cuda", Options{})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestGeometry(t *testing.T) {
	g := NewGeometry(1000, 256)
	assert.Equal(t, 4, g.Blocks)
	assert.Equal(t, 1024, g.Threads())
	assert.Equal(t, 999, g.GlobalIndex(3, 231))

	exact := NewGeometry(512, 256)
	assert.Equal(t, 2, exact.Blocks)
	assert.Equal(t, 512, exact.Threads())

	one := NewGeometry(1, 256)
	assert.Equal(t, 1, one.Blocks)
}

func TestDevice_GuardLeavesTailThreadsIdle(t *testing.T) {
	const n = 1000
	geom := NewGeometry(n, 256)
	var active, idle atomic.Int64
	hits := make([]atomic.Int32, n)

	launch := NewDevice(3).Launch(context.Background(), geom, func(block int) {
		for thread := 0; thread < geom.ThreadsPerBlock; thread++ {
			i := geom.GlobalIndex(block, thread)
			if i >= n {
				idle.Add(1)
				continue
			}
			active.Add(1)
			hits[i].Add(1)
		}
	})
	require.NoError(t, launch.Synchronize())

	assert.Equal(t, int64(n), active.Load())
	assert.Equal(t, int64(24), idle.Load())
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
}

func TestDevice_BoundsResidentBlocks(t *testing.T) {
	var running, peak atomic.Int32
	geom := NewGeometry(64*8, 8)

	launch := NewDevice(4).Launch(context.Background(), geom, func(int) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		running.Add(-1)
	})
	require.NoError(t, launch.Synchronize())
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestDevice_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	launch := NewDevice(2).Launch(ctx, NewGeometry(100, 10), func(int) { ran.Add(1) })
	assert.ErrorIs(t, launch.Synchronize(), context.Canceled)
	assert.Equal(t, int32(0), ran.Load())
}

func TestKernel_StoresPayoffsPerSlot(t *testing.T) {
	p := testkit.Reference(3)
	calls := NewHostBuffer[float64](3)
	puts := NewHostBuffer[float64](3)
	k := newPathKernel(p, calls, puts)

	stream := testkit.SequenceRNG(0, -3, 3).Draw
	require.NoError(t, k.runRange(context.Background(), streamFunc(stream), 0, 3))

	model := p.Model()
	for i, z := range []float64{0, -3, 3} {
		st := model.TerminalPrice(z)
		assert.Equal(t, math.Max(st-40, 0), calls.Slots()[i])
		assert.Equal(t, math.Max(40-st, 0), puts.Slots()[i])
	}
	assert.InDelta(t, 42*math.Exp(0.04)-40, calls.Slots()[0], 1e-12)
	assert.Equal(t, 0.0, puts.Slots()[0])
}

type streamFunc func(int) float64

func (f streamFunc) Draw(i int) float64 { return f(i) }

func TestExecutors_ZeroShockSinglePath(t *testing.T) {
	p := testkit.Reference(1)
	want := 42*math.Exp(0.04) - 40

	for _, e := range allExecutors(Options{}) {
		m, err := e.Execute(context.Background(), job(t, testkit.ConstantRNG(0), p, 1))
		require.NoError(t, err, e.Name())
		assert.Equal(t, 1, m.N, e.Name())
		assert.InDelta(t, want, m.CallSum, 1e-5, e.Name())
		assert.Equal(t, 0.0, m.PutSum, e.Name())
	}
}

func TestExecutors_AgreeOnSameDraws(t *testing.T) {
	const n = 100_003
	p := testkit.Reference(n)
	opts := Options{Workers: 4, ChunkSize: 1000, ThreadsPerBlock: 256, ReduceBlock: 4096}
	manager := rng.NewManager()

	serial, err := NewSerial(opts).Execute(context.Background(), job(t, manager, p, 7))
	require.NoError(t, err)

	for _, e := range allExecutors(opts)[1:] {
		m, err := e.Execute(context.Background(), job(t, manager, p, 7))
		require.NoError(t, err, e.Name())
		assert.Equal(t, n, m.N)
		assert.InEpsilon(t, serial.CallSum, m.CallSum, 1e-6, e.Name())
		assert.InEpsilon(t, serial.PutSum, m.PutSum, 1e-6, e.Name())
		assert.InEpsilon(t, serial.CallSumSq, m.CallSumSq, 1e-6, e.Name())
		assert.InEpsilon(t, serial.PutSumSq, m.PutSumSq, 1e-6, e.Name())
	}
}

func TestPool_ResultIndependentOfWorkers(t *testing.T) {
	p := testkit.Reference(50_000)
	manager := rng.NewManager()

	first, err := NewPool(Options{Workers: 1, ChunkSize: 777}).Execute(context.Background(), job(t, manager, p, 3))
	require.NoError(t, err)
	for _, w := range []int{2, 5, 16} {
		got, err := NewPool(Options{Workers: w, ChunkSize: 777}).Execute(context.Background(), job(t, manager, p, 3))
		require.NoError(t, err)
		assert.Equal(t, first, got, "workers=%d", w)
	}
}

func TestGrid_Repeatable(t *testing.T) {
	p := testkit.Reference(20_000)
	manager := rng.NewManager()
	e := NewGridExecutor(Options{Workers: 8, ThreadsPerBlock: 96})

	a, err := e.Execute(context.Background(), job(t, manager, p, 11))
	require.NoError(t, err)
	b, err := e.Execute(context.Background(), job(t, manager, p, 11))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExecutors_BufferBudget(t *testing.T) {
	p := testkit.Reference(1000)
	for _, e := range allExecutors(Options{MaxBufferBytes: 1024}) {
		_, err := e.Execute(context.Background(), job(t, rng.NewManager(), p, 1))
		assert.True(t, errors.IsResourceExhaustion(err), e.Name())
	}
}

func TestExecutors_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := testkit.Reference(10_000)
	for _, e := range allExecutors(Options{Workers: 2}) {
		_, err := e.Execute(ctx, job(t, rng.NewManager(), p, 1))
		assert.ErrorIs(t, err, context.Canceled, e.Name())
	}
}

func TestExecutors_RejectMismatchedState(t *testing.T) {
	p := testkit.Reference(10)
	state, err := rng.NewManager().Init(1, 5)
	require.NoError(t, err)

	for _, e := range allExecutors(Options{}) {
		_, err := e.Execute(context.Background(), ports.Job{Params: p, State: state})
		assert.Equal(t, errors.CodeInternalError, errors.GetCode(err), e.Name())
	}
}

func TestExecutors_EnterPhasesInOrder(t *testing.T) {
	p := testkit.Reference(1000)
	for _, e := range allExecutors(Options{Workers: 2, ChunkSize: 100, ThreadsPerBlock: 64}) {
		var seen []stage.StageName
		j := job(t, rng.NewManager(), p, 1)
		j.Phase = func(s stage.StageName) error {
			seen = append(seen, s)
			return nil
		}

		_, err := e.Execute(context.Background(), j)
		require.NoError(t, err, e.Name())
		assert.Equal(t, []stage.StageName{stage.StageGenerate, stage.StageEvaluate, stage.StageReduce}, seen, e.Name())
	}
}

func TestExecutors_PhaseErrorAborts(t *testing.T) {
	p := testkit.Reference(1000)
	boom := errors.InternalError("phase rejected")
	for _, e := range allExecutors(Options{Workers: 2}) {
		j := job(t, rng.NewManager(), p, 1)
		j.Phase = func(s stage.StageName) error {
			if s == stage.StageEvaluate {
				return boom
			}
			return nil
		}

		m, err := e.Execute(context.Background(), j)
		assert.ErrorIs(t, err, boom, e.Name())
		assert.Equal(t, option.PayoffMoments{}, m, e.Name())
	}
}
