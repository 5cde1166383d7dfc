// Package main provides a demo program for training a character-level LSTM
// text generator on a plain .txt corpus. The run prints timed progress lines,
// periodically decodes sample sequences from the model, keeps a rolling set
// of JSON checkpoints, and serializes every decoded sample batch to a gob
// artifact when the run ends.
package main
