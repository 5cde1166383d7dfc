// Package main provides a demo program for generating text with a trained
// character-level LSTM checkpoint. This shows how to restore the generator
// and its vocabulary from a JSON snapshot and decode fresh sequences, either
// greedily or by sampling, from a chosen or random start character.
package main
