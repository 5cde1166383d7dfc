package main

import "fmt"
import "math/rand"
import "os"
import "path/filepath"

import "github.com/nngrad/trainer/checkpoint"
import "github.com/nngrad/trainer/config"
import "github.com/nngrad/trainer/datasets/textcorpus"
import "github.com/nngrad/trainer/nn"
import "github.com/nngrad/trainer/runlog"
import "github.com/nngrad/trainer/trainer"

func main() {
	cfg, err := config.LoadGenerator(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.PrintFlags(os.Stdout)
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "train_generator: %+v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Generator) error {
	log, closer, err := runlog.New(filepath.Join(cfg.SummaryPath, cfg.ModelName+"_train.log"))
	if err != nil {
		return err
	}
	defer closer.Close()
	runlog.LogCPU(log)

	corpus, err := textcorpus.New(cfg.TxtFile, cfg.CleanData)
	if err != nil {
		return err
	}
	if err := corpus.Check(cfg.SeqLength); err != nil {
		return err
	}
	log.Info("corpus ready", "file", cfg.TxtFile,
		"characters", corpus.Len(), "vocab_size", corpus.VocabSize())

	mc, err := cfg.ModelConfig(corpus.VocabSize())
	if err != nil {
		return err
	}
	solver, err := cfg.Solver()
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	model := nn.NewCharLSTM(mc, rng)
	session := &trainer.LSTMSession{
		Model:    model,
		Solver:   solver,
		ClipNorm: cfg.MaxNormGradient,
		Rng:      rng,
	}

	events, err := runlog.NewEventWriter(filepath.Join(cfg.SummaryPath, cfg.ModelName+"_events.jsonl"))
	if err != nil {
		return err
	}
	log.Info("run configured", "run_id", events.RunID(),
		"model", cfg.ModelName, "optimizer", cfg.Optimizer, "seed", cfg.Seed)

	saver := &checkpoint.Saver{Dir: cfg.CheckpointPath, ModelName: cfg.ModelName, MaxToKeep: 50}
	loop := &trainer.GeneratorLoop{
		Steps:           cfg.TrainSteps,
		BatchSize:       cfg.BatchSize,
		SeqLength:       cfg.SeqLength,
		DecodeLength:    cfg.DecodeLength,
		VocabSize:       corpus.VocabSize(),
		PrintEvery:      cfg.PrintEvery,
		SampleEvery:     cfg.SampleEvery,
		CheckpointEvery: cfg.CheckpointEvery,
		Corpus:          corpus.Sampler(rng),
		Stepper:         session,
		Decoder:         session,
		Rng:             rng,
		Summary:         events,
		Checkpoint: func(step int) error {
			state := checkpoint.Stamp(&checkpoint.State{
				ModelName: cfg.ModelName,
				Step:      step,
				LSTM:      &mc,
				Vocab:     corpus.Vocab(),
				Params:    checkpoint.ExportParams(model.Params()),
			}, events.RunID())
			log.Info("saving checkpoint", "step", step, "dir", cfg.CheckpointPath)
			return saver.SaveStep(state)
		},
		Log: log,
		Out: os.Stdout,
	}
	samples, term, err := loop.Run()
	if err != nil {
		return err
	}

	// samples decoded before a divergence are still worth keeping
	artifact := cfg.ModelName + "_decoded_seqs.gob"
	if err := checkpoint.WriteSamples(artifact, samples); err != nil {
		return err
	}
	log.Info("training finished", "termination", term.String(),
		"decoded_batches", len(samples), "artifact", artifact)
	return nil
}
