// Package main provides a demo program for training a multi-layer perceptron
// image classifier on the CIFAR-10 or MNIST dataset. The run prints one
// progress line per step, evaluates on the held-out test split with a
// confusion matrix every hundred steps, and saves the trained model as a
// JSON checkpoint after the final step.
package main
