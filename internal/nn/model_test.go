package nn

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// newSingleWeightModel builds Linear(1→1, W=2, b=0, lr=0.1) → Passthrough.
func newSingleWeightModel(t *testing.T) (*Model, *LinearLayer) {
	t.Helper()
	layer, err := NewLinearLayerFrom(mat.NewDense(1, 1, []float64{2}), col(0), 0.1)
	require.NoError(t, err)
	model, err := NewModelBuilder(nil).AddStep(layer).AddPassthrough().Build()
	require.NoError(t, err)
	return model, layer
}

func TestModel_SingleWeightWorkedExample(t *testing.T) {
	model, layer := newSingleWeightModel(t)

	out, err := model.ForwardBackward(col(3), 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, tensor.Flatten(out))

	// error = 2(6 − 1) = 10, gradient = 1
	assert.InDelta(t, 30.0, layer.DeltaWeights().At(0, 0), 1e-12)
	assert.InDelta(t, 10.0, layer.DeltaBiases().At(0, 0), 1e-12)

	require.NoError(t, model.FinalizeBatch(1))
	assert.InDelta(t, -1.0, layer.Weights().At(0, 0), 1e-12)
	assert.InDelta(t, -1.0, layer.Biases().At(0, 0), 1e-12)
	assert.Zero(t, layer.DeltaWeights().At(0, 0))
	assert.Zero(t, layer.DeltaBiases().At(0, 0))
}

func TestModel_ForwardDoesNotAccumulate(t *testing.T) {
	model, layer := newSingleWeightModel(t)

	out, err := model.Forward(col(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, tensor.Flatten(out))

	assert.Zero(t, layer.Accumulated())
	assert.Zero(t, layer.DeltaWeights().At(0, 0))
}

func TestModel_ForwardMatchesForwardBackwardOutput(t *testing.T) {
	model, err := NewModelBuilder(rand.NewPCG(5, 6)).
		AddLinearLayer(3, 4, 0.1).
		AddSigmoid().
		AddLinearLayer(4, 2, 0.1).
		AddSoftmax().
		Build()
	require.NoError(t, err)

	x := col(0.2, -0.4, 0.9)
	a, err := model.Forward(x)
	require.NoError(t, err)
	b, err := model.ForwardBackward(x, 1)
	require.NoError(t, err)

	assert.InDeltaSlice(t, tensor.Flatten(a), tensor.Flatten(b), 1e-12)
}

func TestModel_InvalidLabel(t *testing.T) {
	model, layer := newSingleWeightModel(t)

	for _, label := range []float64{-1, 0.5, 1, 2, math.NaN(), math.Inf(1)} {
		_, err := model.ForwardBackward(col(3), label)
		require.Error(t, err, "label %v", label)
		assert.ErrorIs(t, err, ErrLabelOutOfRange)

		var labelErr *LabelError
		require.True(t, errors.As(err, &labelErr))
		assert.Equal(t, 1, labelErr.Outputs)
	}

	assert.Zero(t, layer.Accumulated(), "rejected samples must not accumulate")
}

func TestModel_InputShapeMismatch(t *testing.T) {
	model, layer := newSingleWeightModel(t)

	_, err := model.ForwardBackward(col(3, 4), 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "step 0 (linear)")
	assert.Zero(t, layer.Accumulated())

	_, err = model.Forward(col(3, 4))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestModel_FinalizeBatchInvalidSize(t *testing.T) {
	model, layer := newSingleWeightModel(t)
	_, err := model.ForwardBackward(col(3), 0)
	require.NoError(t, err)

	assert.ErrorIs(t, model.FinalizeBatch(0), ErrInvalidBatchSize)
	assert.ErrorIs(t, model.FinalizeBatch(-3), ErrInvalidBatchSize)

	assert.Equal(t, 2.0, layer.Weights().At(0, 0))
	assert.InDelta(t, 30.0, layer.DeltaWeights().At(0, 0), 1e-12)
}

func TestModel_FinalizeBatchAveragesSamples(t *testing.T) {
	model, layer := newSingleWeightModel(t)

	// Two identical samples finalized as a batch of two apply the same
	// update as one sample finalized alone.
	for i := 0; i < 2; i++ {
		_, err := model.ForwardBackward(col(3), 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, layer.Accumulated())
	require.NoError(t, model.FinalizeBatch(2))

	assert.InDelta(t, -1.0, layer.Weights().At(0, 0), 1e-12)
	assert.InDelta(t, -1.0, layer.Biases().At(0, 0), 1e-12)
}

func TestModel_LossAndPredict(t *testing.T) {
	layer, err := NewLinearLayerFrom(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), col(0, 0), 0.1)
	require.NoError(t, err)
	model, err := NewModelBuilder(nil).AddStep(layer).AddPassthrough().Build()
	require.NoError(t, err)

	class, err := model.Predict(col(0.2, 0.9))
	require.NoError(t, err)
	assert.Equal(t, 1, class)

	loss, err := model.Loss(col(0.2, 0.9), 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.04+0.01, loss, 1e-12)

	_, err = model.Loss(col(0.2, 0.9), 2)
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
	_, err = model.Loss(col(0.2), 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestModel_Step(t *testing.T) {
	model, layer := newSingleWeightModel(t)

	assert.Same(t, layer, model.Step(0))
	assert.Equal(t, KindPassthrough, model.Step(1).Kind())
	assert.Panics(t, func() { model.Step(2) })
}

func TestModel_TrainingReducesLoss(t *testing.T) {
	model, err := NewModelBuilder(rand.NewPCG(11, 12)).
		AddLinearLayer(2, 2, 1.0).
		AddSoftmax().
		Build()
	require.NoError(t, err)

	samples := []struct {
		x     *mat.Dense
		label float64
	}{
		{col(1, 0), 0},
		{col(0, 1), 1},
	}

	totalLoss := func() float64 {
		sum := 0.0
		for _, s := range samples {
			out, err := model.Forward(s.x)
			require.NoError(t, err)
			loss, err := model.Loss(out, s.label)
			require.NoError(t, err)
			sum += loss
		}
		return sum
	}

	before := totalLoss()
	for step := 0; step < 500; step++ {
		for _, s := range samples {
			_, err := model.ForwardBackward(s.x, s.label)
			require.NoError(t, err)
		}
		require.NoError(t, model.FinalizeBatch(len(samples)))
	}
	after := totalLoss()

	assert.Less(t, after, before)
	for _, s := range samples {
		class, err := model.Predict(s.x)
		require.NoError(t, err)
		assert.Equal(t, int(s.label), class)
	}
}

func TestModel_BatchUpdateIndependentOfSampleOrder(t *testing.T) {
	build := func() *Model {
		model, err := NewModelBuilder(rand.NewPCG(31, 32)).
			AddLinearLayer(3, 4, 0.5).
			AddSigmoid().
			AddLinearLayer(4, 3, 0.5).
			AddSoftmax().
			Build()
		require.NoError(t, err)
		return model
	}

	samples := []struct {
		x     *mat.Dense
		label float64
	}{
		{col(0.1, 0.2, 0.3), 0},
		{col(-0.5, 0.4, 1.0), 2},
		{col(0.9, -0.9, 0.0), 1},
		{col(0.3, 0.3, -0.7), 0},
		{col(-0.2, 0.8, 0.5), 2},
	}

	forward, shuffled := build(), build()
	for _, s := range samples {
		_, err := forward.ForwardBackward(s.x, s.label)
		require.NoError(t, err)
	}
	for _, i := range rand.New(rand.NewPCG(7, 8)).Perm(len(samples)) {
		_, err := shuffled.ForwardBackward(samples[i].x, samples[i].label)
		require.NoError(t, err)
	}

	require.NoError(t, forward.FinalizeBatch(len(samples)))
	require.NoError(t, shuffled.FinalizeBatch(len(samples)))

	want, got := forward.LinearLayers(), shuffled.LinearLayers()
	for i := range want {
		assert.InDeltaSlice(t, tensor.Flatten(want[i].Weights()), tensor.Flatten(got[i].Weights()), 1e-12)
		assert.InDeltaSlice(t, tensor.Flatten(want[i].Biases()), tensor.Flatten(got[i].Biases()), 1e-12)
	}
}
