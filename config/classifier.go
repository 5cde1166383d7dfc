// Package config builds the immutable per-run configuration of the training
// commands. Flags mirror the training recipes; an optional -config YAML file
// supplies defaults for any flag the command line leaves unset, and explicit
// flags always win. Categorical choices are closed sets, resolved and
// rejected here before any dataset or model work starts.
package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/nn"
	"github.com/nngrad/trainer/optim"
)

// Classifier carries every knob of the image-classifier pipeline.
type Classifier struct {
	DNNHiddenUnits    string  `yaml:"dnn_hidden_units"`
	LearningRate      float64 `yaml:"learning_rate"`
	MaxSteps          int     `yaml:"max_steps"`
	BatchSize         int     `yaml:"batch_size"`
	WeightInit        string  `yaml:"weight_init"`
	WeightInitScale   float64 `yaml:"weight_init_scale"`
	WeightReg         string  `yaml:"weight_reg"`
	WeightRegStrength float64 `yaml:"weight_reg_strength"`
	DropoutRate       float64 `yaml:"dropout_rate"`
	Activation        string  `yaml:"activation"`
	Optimizer         string  `yaml:"optimizer"`
	DataDir           string  `yaml:"data_dir"`
	LogDir            string  `yaml:"log_dir"`
	GradClipping      bool    `yaml:"grad_clipping"`
	ClipNorm          float64 `yaml:"clip_norm"`
	SavePath          string  `yaml:"save_path"`
	ModelName         string  `yaml:"model_name"`
	Dataset           string  `yaml:"dataset"`
	Seed              int64   `yaml:"seed"`
	Download          bool    `yaml:"download"`
	Config            string  `yaml:"-"`
}

// DefaultClassifier returns the built-in training recipe.
func DefaultClassifier() *Classifier {
	return &Classifier{
		DNNHiddenUnits:    "100",
		LearningRate:      2e-3,
		MaxSteps:          1500,
		BatchSize:         200,
		WeightInit:        "normal",
		WeightInitScale:   1e-4,
		WeightReg:         "l2",
		WeightRegStrength: 0,
		DropoutRate:       0,
		Activation:        "relu",
		Optimizer:         "sgd",
		DataDir:           "./data/cifar10",
		LogDir:            "./logs/cifar10",
		GradClipping:      true,
		ClipNorm:          5,
		SavePath:          "./trained_models",
		ModelName:         "mlp",
		Dataset:           "cifar10",
		Seed:              42,
	}
}

// RegisterFlags binds every field to its flag, keeping the current field
// values as defaults.
func (c *Classifier) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DNNHiddenUnits, "dnn_hidden_units", c.DNNHiddenUnits,
		"Comma separated list of number of units in each hidden layer")
	fs.Float64Var(&c.LearningRate, "learning_rate", c.LearningRate, "Learning rate")
	fs.IntVar(&c.MaxSteps, "max_steps", c.MaxSteps, "Number of steps to run trainer.")
	fs.IntVar(&c.BatchSize, "batch_size", c.BatchSize, "Batch size to run trainer.")
	fs.StringVar(&c.WeightInit, "weight_init", c.WeightInit,
		"Weight initialization type [xavier, normal, uniform].")
	fs.Float64Var(&c.WeightInitScale, "weight_init_scale", c.WeightInitScale,
		"Weight initialization scale (e.g. std of a Gaussian).")
	fs.StringVar(&c.WeightReg, "weight_reg", c.WeightReg,
		"Regularizer type for weights of fully-connected layers [none, l1, l2].")
	fs.Float64Var(&c.WeightRegStrength, "weight_reg_strength", c.WeightRegStrength,
		"Regularizer strength for weights of fully-connected layers.")
	fs.Float64Var(&c.DropoutRate, "dropout_rate", c.DropoutRate, "Dropout rate.")
	fs.StringVar(&c.Activation, "activation", c.Activation,
		"Activation function [relu, elu, tanh, sigmoid].")
	fs.StringVar(&c.Optimizer, "optimizer", c.Optimizer,
		"Optimizer to use [sgd, adadelta, adagrad, adam, rmsprop].")
	fs.StringVar(&c.DataDir, "data_dir", c.DataDir, "Directory for storing input data")
	fs.StringVar(&c.LogDir, "log_dir", c.LogDir, "Summaries log directory")
	fs.BoolVar(&c.GradClipping, "grad_clipping", c.GradClipping, "Performs gradient clipping")
	fs.Float64Var(&c.ClipNorm, "clip_norm", c.ClipNorm, "Global norm ceiling for gradient clipping")
	fs.StringVar(&c.SavePath, "save_path", c.SavePath, "save path directory")
	fs.StringVar(&c.ModelName, "model_name", c.ModelName, "model_name")
	fs.StringVar(&c.Dataset, "dataset", c.Dataset, "Dataset to train on [cifar10, mnist].")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed for all randomness of the run")
	fs.BoolVar(&c.Download, "download", c.Download, "Download the dataset if it is missing")
	fs.StringVar(&c.Config, "config", c.Config, "YAML file with defaults for any unset flag")
}

// LoadClassifier builds a validated configuration from command-line
// arguments.
func LoadClassifier(args []string) (*Classifier, error) {
	cfg := DefaultClassifier()
	fs := flag.NewFlagSet("train_classifier", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Config != "" {
		// lay the file over the built-ins, then reparse so explicit
		// flags override the file
		merged := DefaultClassifier()
		if err := applyYAML(cfg.Config, merged); err != nil {
			return nil, err
		}
		merged.Config = cfg.Config
		fs = flag.NewFlagSet("train_classifier", flag.ContinueOnError)
		merged.RegisterFlags(fs)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg = merged
	}
	return cfg, errors.Wrap(cfg.Validate(), "invalid configuration")
}

// HiddenUnits parses the comma-separated layer widths.
func (c *Classifier) HiddenUnits() ([]int, error) {
	parts := strings.Split(c.DNNHiddenUnits, ",")
	units := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Errorf("dnn_hidden_units: %q is not a number", part)
		}
		if n <= 0 {
			return nil, errors.Errorf("dnn_hidden_units: layer width %d must be positive", n)
		}
		units = append(units, n)
	}
	return units, nil
}

// ModelConfig resolves the categorical choices into a model architecture for
// a dataset of the given dimensions.
func (c *Classifier) ModelConfig(inputDim, classes int) (nn.MLPConfig, error) {
	hidden, err := c.HiddenUnits()
	if err != nil {
		return nn.MLPConfig{}, err
	}
	activation, err := nn.ParseActivation(c.Activation)
	if err != nil {
		return nn.MLPConfig{}, err
	}
	init, err := nn.ParseInit(c.WeightInit)
	if err != nil {
		return nn.MLPConfig{}, err
	}
	reg, err := nn.ParseRegularizer(c.WeightReg)
	if err != nil {
		return nn.MLPConfig{}, err
	}
	return nn.MLPConfig{
		InputDim:    inputDim,
		Hidden:      hidden,
		Classes:     classes,
		Activation:  activation,
		DropoutRate: c.DropoutRate,
		Init:        init,
		InitScale:   c.WeightInitScale,
		Reg:         reg,
		RegStrength: c.WeightRegStrength,
	}, nil
}

// Solver resolves the optimizer choice with its conventional coefficients.
func (c *Classifier) Solver() (optim.Solver, error) {
	kind, err := optim.ParseKind(c.Optimizer)
	if err != nil {
		return nil, err
	}
	return optim.New(kind, c.LearningRate), nil
}

// Validate rejects the configuration before any resource is touched.
func (c *Classifier) Validate() error {
	if _, err := c.ModelConfig(1, 1); err != nil {
		return err
	}
	if _, err := c.Solver(); err != nil {
		return err
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be positive, got %v", c.LearningRate)
	}
	if c.MaxSteps <= 0 {
		return errors.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.WeightInitScale < 0 {
		return errors.Errorf("weight_init_scale must not be negative, got %v", c.WeightInitScale)
	}
	if c.WeightRegStrength < 0 {
		return errors.Errorf("weight_reg_strength must not be negative, got %v", c.WeightRegStrength)
	}
	if c.DropoutRate < 0 || c.DropoutRate >= 1 {
		return errors.Errorf("dropout_rate must be in [0, 1), got %v", c.DropoutRate)
	}
	if c.GradClipping && c.ClipNorm <= 0 {
		return errors.Errorf("clip_norm must be positive when grad_clipping is set, got %v", c.ClipNorm)
	}
	if c.Dataset != "cifar10" && c.Dataset != "mnist" {
		return errors.Errorf("unknown dataset %q (want cifar10 or mnist)", c.Dataset)
	}
	if c.ModelName == "" {
		return errors.New("model_name must not be empty")
	}
	return nil
}

// PrintFlags writes every effective value, one "name : value" line each.
func (c *Classifier) PrintFlags(w io.Writer) {
	fmt.Fprintf(w, "dnn_hidden_units : %v\n", c.DNNHiddenUnits)
	fmt.Fprintf(w, "learning_rate : %v\n", c.LearningRate)
	fmt.Fprintf(w, "max_steps : %v\n", c.MaxSteps)
	fmt.Fprintf(w, "batch_size : %v\n", c.BatchSize)
	fmt.Fprintf(w, "weight_init : %v\n", c.WeightInit)
	fmt.Fprintf(w, "weight_init_scale : %v\n", c.WeightInitScale)
	fmt.Fprintf(w, "weight_reg : %v\n", c.WeightReg)
	fmt.Fprintf(w, "weight_reg_strength : %v\n", c.WeightRegStrength)
	fmt.Fprintf(w, "dropout_rate : %v\n", c.DropoutRate)
	fmt.Fprintf(w, "activation : %v\n", c.Activation)
	fmt.Fprintf(w, "optimizer : %v\n", c.Optimizer)
	fmt.Fprintf(w, "data_dir : %v\n", c.DataDir)
	fmt.Fprintf(w, "log_dir : %v\n", c.LogDir)
	fmt.Fprintf(w, "grad_clipping : %v\n", c.GradClipping)
	fmt.Fprintf(w, "clip_norm : %v\n", c.ClipNorm)
	fmt.Fprintf(w, "save_path : %v\n", c.SavePath)
	fmt.Fprintf(w, "model_name : %v\n", c.ModelName)
	fmt.Fprintf(w, "dataset : %v\n", c.Dataset)
	fmt.Fprintf(w, "seed : %v\n", c.Seed)
	fmt.Fprintf(w, "download : %v\n", c.Download)
	fmt.Fprintf(w, "config : %v\n", c.Config)
}
