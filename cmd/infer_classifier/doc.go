// Package main provides a demo program for running inference with a trained
// image classifier checkpoint. This shows how to restore the perceptron from
// its JSON snapshot and score the held-out test split, printing the loss,
// the accuracy, the confusion matrix and a per-class breakdown.
package main
