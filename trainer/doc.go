// Package trainer provides high-level training orchestration for nngrad models.
// It owns the step loops over dataset cursors: progress reporting, divergence
// detection, periodic evaluation, text decoding and checkpointing, with the
// model, solver and persistence supplied as collaborators.
package trainer
