// Copyright 2025 Rosehip Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides a trainable feed-forward step pipeline.
//
// # Overview
//
// This package contains:
//   - Steps: LinearLayer, SigmoidActivation, SoftmaxActivation, PassthroughActivation
//   - ModelBuilder: assembles steps and validates the width chain once
//   - Model: Forward, ForwardBackward, FinalizeBatch, replica helpers
//   - Numeric primitives: Sigmoid, SoftmaxStable, SquaredError and derivatives
//
// # Basic Usage
//
//	import (
//	    "math/rand/v2"
//
//	    "github.com/LesbiansAttack/rosehip/nn"
//	)
//
//	func main() {
//	    model, err := nn.NewModelBuilder(rand.NewPCG(1, 2)).
//	        AddLinearLayer(784, 128, 0.01).
//	        AddSigmoid().
//	        AddLinearLayer(128, 10, 0.01).
//	        AddSoftmax().
//	        Build()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for _, i := range batch {
//	        x, label := data.Sample(i)
//	        if _, err := model.ForwardBackward(x, label); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	    if err := model.FinalizeBatch(len(batch)); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Training
//
// ForwardBackward runs one sample forward, then threads an (error, gradient)
// pair backward through every step. Linear layers add the sample's parameter
// gradients to their accumulators; nothing changes until FinalizeBatch, which
// applies lr · accumulated / batchSize and zeroes the accumulators.
//
// The loss is the squared error against a one-hot target. Softmax backward
// uses the diagonal p(1 − p) of its Jacobian, not the full matrix.
//
// # Concurrency
//
// A Model is not safe for concurrent training. To train on several goroutines,
// give each one a Clone, fold their gradients back with MergeAccumulated,
// finalize the primary once and SyncParameters the replicas.
//
// # Errors
//
// Build reports *ShapeMismatchError when two linear layers disagree on width.
// Runtime failures wrap ErrShapeMismatch, ErrLabelOutOfRange,
// ErrInvalidStepState or ErrInvalidBatchSize; use errors.Is and errors.As.
package nn
