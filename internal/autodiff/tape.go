package autodiff

import (
	"github.com/glint-ml/glint/internal/autodiff/ops"
	"github.com/glint-ml/glint/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(outputGrad, backend)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64), // Pre-allocate for common case
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
	// Note: recording state is preserved, call StopRecording() explicitly if needed
}

// Backward computes gradients for all inputs by walking the tape in reverse,
// seeding the gradient of the most recently recorded output.
//
// Algorithm:
//  1. Start with the output gradient (typically ones for scalar loss)
//  2. Walk operations in reverse order
//  3. For each operation, compute input gradients using chain rule
//  4. Accumulate gradients when the same tensor is used multiple times
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}

	lastOp := t.operations[len(t.operations)-1]
	return t.Grad(lastOp.Output(), outputGrad, backend, false)
}

// Grad computes the vector-Jacobian product of the recorded graph: the
// gradients of <cotangent, output> with respect to every tensor that
// participated in producing output.
//
// When createGraph is false, recording is suspended during the walk (the
// usual training backward pass). When createGraph is true, the tape keeps
// recording while the backward pass runs, so every operation emitted by an
// op's Backward is itself taped. Differentiating through the returned
// gradients then yields second derivatives.
//
// The operation list is snapshotted before the walk: operations appended
// during a createGraph backward pass belong to the next differentiation
// level and are not revisited here.
func (t *GradientTape) Grad(
	output, cotangent *tensor.RawTensor,
	backend tensor.Backend,
	createGraph bool,
) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	if !createGraph {
		wasRecording := t.recording
		t.recording = false
		defer func() {
			t.recording = wasRecording
		}()
	}

	grads[output] = cotangent

	// Snapshot: Backward calls may append to t.operations under createGraph.
	numOps := len(t.operations)

	for i := numOps - 1; i >= 0; i-- {
		op := t.operations[i]

		opOutputGrad, hasGrad := grads[op.Output()]
		if !hasGrad {
			// No gradient flows through this operation
			continue
		}

		inputGrads := op.Backward(opOutputGrad, backend)
		t.accumulateGrads(op, inputGrads, grads, backend)
	}

	return grads
}

// accumulateGrads accumulates gradients for each input tensor.
func (t *GradientTape) accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	inputs := op.Inputs()
	for j, input := range inputs {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrad)
		} else {
			grads[input] = inputGrad
		}
	}
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}
