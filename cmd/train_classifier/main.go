package main

import "fmt"
import "math/rand"
import "os"
import "path/filepath"

import "github.com/nngrad/trainer/checkpoint"
import "github.com/nngrad/trainer/config"
import "github.com/nngrad/trainer/datasets"
import "github.com/nngrad/trainer/datasets/cifar10"
import "github.com/nngrad/trainer/datasets/mnist"
import "github.com/nngrad/trainer/nn"
import "github.com/nngrad/trainer/runlog"
import "github.com/nngrad/trainer/trainer"

func main() {
	cfg, err := config.LoadClassifier(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.PrintFlags(os.Stdout)
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "train_classifier: %+v\n", err)
		os.Exit(1)
	}
}

// loadSplits fetches the dataset when asked and reads both splits from disk.
func loadSplits(cfg *config.Classifier) (train, test *datasets.Split, err error) {
	if cfg.Download {
		switch cfg.Dataset {
		case "mnist":
			err = mnist.Download(cfg.DataDir)
		default:
			err = cifar10.Download(cfg.DataDir)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	switch cfg.Dataset {
	case "mnist":
		return mnist.Load(cfg.DataDir)
	default:
		return cifar10.Load(cfg.DataDir)
	}
}

func run(cfg *config.Classifier) error {
	log, closer, err := runlog.New(filepath.Join(cfg.LogDir, cfg.ModelName+"_train.log"))
	if err != nil {
		return err
	}
	defer closer.Close()
	runlog.LogCPU(log)

	rng := rand.New(rand.NewSource(cfg.Seed))

	train, test, err := loadSplits(cfg)
	if err != nil {
		return err
	}
	log.Info("dataset ready", "dataset", cfg.Dataset,
		"train_examples", train.Len(), "test_examples", test.Len())

	mc, err := cfg.ModelConfig(len(train.Inputs[0]), train.Classes)
	if err != nil {
		return err
	}
	solver, err := cfg.Solver()
	if err != nil {
		return err
	}
	model := nn.NewMLP(mc, rng)

	clip := 0.0
	if cfg.GradClipping {
		clip = cfg.ClipNorm
	}
	session := &trainer.MLPSession{Model: model, Solver: solver, ClipNorm: clip}

	events, err := runlog.NewEventWriter(filepath.Join(cfg.LogDir, cfg.ModelName+"_events.jsonl"))
	if err != nil {
		return err
	}
	log.Info("run configured", "run_id", events.RunID(),
		"model", cfg.ModelName, "optimizer", cfg.Optimizer, "seed", cfg.Seed)

	saver := &checkpoint.Saver{Dir: cfg.SavePath, ModelName: cfg.ModelName}
	loop := &trainer.ClassifierLoop{
		Steps:      cfg.MaxSteps,
		BatchSize:  cfg.BatchSize,
		Classes:    train.Classes,
		Train:      datasets.NewCursor(train, rng),
		Stepper:    session,
		Eval:       session,
		TestInputs: test.Inputs,
		TestLabels: test.Labels,
		Summary:    events,
		Checkpoint: func() error {
			state := checkpoint.Stamp(&checkpoint.State{
				ModelName: cfg.ModelName,
				Step:      cfg.MaxSteps,
				MLP:       &mc,
				Params:    checkpoint.ExportParams(model.Params()),
			}, events.RunID())
			log.Info("saving checkpoint", "dir", cfg.SavePath, "model", cfg.ModelName)
			return saver.SaveFinal(state)
		},
		Log: log,
		Out: os.Stdout,
	}
	term, err := loop.Run()
	if err != nil {
		return err
	}
	log.Info("training finished", "termination", term.String())
	return nil
}
