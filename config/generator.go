package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/nn"
	"github.com/nngrad/trainer/optim"
)

// Generator carries every knob of the text-generator pipeline.
type Generator struct {
	TxtFile           string  `yaml:"txt_file"`
	SeqLength         int     `yaml:"seq_length"`
	LSTMNumHidden     int     `yaml:"lstm_num_hidden"`
	LSTMNumLayers     int     `yaml:"lstm_num_layers"`
	BatchSize         int     `yaml:"batch_size"`
	LearningRate      float64 `yaml:"learning_rate"`
	LearningRateDecay float64 `yaml:"learning_rate_decay"`
	EmbedDim          int     `yaml:"embed_dim"`
	DropoutKeepProb   float64 `yaml:"dropout_keep_prob"`
	TrainSteps        int     `yaml:"train_steps"`
	MaxNormGradient   float64 `yaml:"max_norm_gradient"`
	Optimizer         string  `yaml:"optimizer"`
	CleanData         bool    `yaml:"clean_data"`
	SummaryPath       string  `yaml:"summary_path"`
	PrintEvery        int     `yaml:"print_every"`
	SampleEvery       int     `yaml:"sample_every"`
	CheckpointEvery   int     `yaml:"checkpoint_every"`
	CheckpointPath    string  `yaml:"checkpoint_path"`
	DecodingMode      string  `yaml:"decoding_mode"`
	DecodeLength      int     `yaml:"decode_length"`
	ModelName         string  `yaml:"model_name"`
	Seed              int64   `yaml:"seed"`
	Config            string  `yaml:"-"`
}

// DefaultGenerator returns the built-in training recipe. TxtFile has no
// default: each run names its own corpus.
func DefaultGenerator() *Generator {
	return &Generator{
		SeqLength:         30,
		LSTMNumHidden:     128,
		LSTMNumLayers:     2,
		BatchSize:         128,
		LearningRate:      2e-3,
		LearningRateDecay: 0.96,
		EmbedDim:          40,
		DropoutKeepProb:   1.0,
		TrainSteps:        20000,
		MaxNormGradient:   5.0,
		Optimizer:         "rmsprop",
		CleanData:         true,
		SummaryPath:       "./summaries",
		PrintEvery:        10,
		SampleEvery:       200,
		CheckpointEvery:   500,
		CheckpointPath:    "./checkpoints",
		DecodingMode:      "sampling",
		DecodeLength:      100,
		ModelName:         "lstm",
		Seed:              42,
	}
}

// RegisterFlags binds every field to its flag, keeping the current field
// values as defaults.
func (c *Generator) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.TxtFile, "txt_file", c.TxtFile, "Path to a .txt file to train on")
	fs.IntVar(&c.SeqLength, "seq_length", c.SeqLength, "Length of an input sequence")
	fs.IntVar(&c.LSTMNumHidden, "lstm_num_hidden", c.LSTMNumHidden, "Number of hidden units in the LSTM")
	fs.IntVar(&c.LSTMNumLayers, "lstm_num_layers", c.LSTMNumLayers, "Number of LSTM layers in the model")
	fs.IntVar(&c.BatchSize, "batch_size", c.BatchSize, "Number of examples to process in a batch")
	fs.Float64Var(&c.LearningRate, "learning_rate", c.LearningRate, "Learning rate")
	fs.Float64Var(&c.LearningRateDecay, "learning_rate_decay", c.LearningRateDecay,
		"Learning rate decay fraction")
	fs.IntVar(&c.EmbedDim, "embed_dim", c.EmbedDim, "Embedding dimension")
	fs.Float64Var(&c.DropoutKeepProb, "dropout_keep_prob", c.DropoutKeepProb, "Dropout keep probability")
	fs.IntVar(&c.TrainSteps, "train_steps", c.TrainSteps, "Number of training steps")
	fs.Float64Var(&c.MaxNormGradient, "max_norm_gradient", c.MaxNormGradient,
		"Global norm ceiling for gradient clipping")
	fs.StringVar(&c.Optimizer, "optimizer", c.Optimizer, "Optimizer, choose between adam and rmsprop")
	fs.BoolVar(&c.CleanData, "clean_data", c.CleanData,
		"Whether to remove unnecessary characters from the dataset")
	fs.StringVar(&c.SummaryPath, "summary_path", c.SummaryPath, "Output path for summaries")
	fs.IntVar(&c.PrintEvery, "print_every", c.PrintEvery, "How often to print training progress")
	fs.IntVar(&c.SampleEvery, "sample_every", c.SampleEvery, "How often to sample from the model")
	fs.IntVar(&c.CheckpointEvery, "checkpoint_every", c.CheckpointEvery, "How often to save the model")
	fs.StringVar(&c.CheckpointPath, "checkpoint_path", c.CheckpointPath, "Checkpoint directory")
	fs.StringVar(&c.DecodingMode, "decoding_mode", c.DecodingMode, "Decode by greedy or sampling.")
	fs.IntVar(&c.DecodeLength, "decode_length", c.DecodeLength, "Inference (decoding) number of steps")
	fs.StringVar(&c.ModelName, "model_name", c.ModelName, "Model name for saving")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed for all randomness of the run")
	fs.StringVar(&c.Config, "config", c.Config, "YAML file with defaults for any unset flag")
}

// LoadGenerator builds a validated configuration from command-line
// arguments.
func LoadGenerator(args []string) (*Generator, error) {
	cfg := DefaultGenerator()
	fs := flag.NewFlagSet("train_generator", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Config != "" {
		// lay the file over the built-ins, then reparse so explicit
		// flags override the file
		merged := DefaultGenerator()
		if err := applyYAML(cfg.Config, merged); err != nil {
			return nil, err
		}
		merged.Config = cfg.Config
		fs = flag.NewFlagSet("train_generator", flag.ContinueOnError)
		merged.RegisterFlags(fs)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg = merged
	}
	return cfg, errors.Wrap(cfg.Validate(), "invalid configuration")
}

// ModelConfig resolves the categorical choices into a model architecture for
// a corpus with the given vocabulary size.
func (c *Generator) ModelConfig(vocab int) (nn.LSTMConfig, error) {
	decoding, err := nn.ParseDecodingMode(c.DecodingMode)
	if err != nil {
		return nn.LSTMConfig{}, err
	}
	return nn.LSTMConfig{
		Vocab:       vocab,
		Embed:       c.EmbedDim,
		Hidden:      c.LSTMNumHidden,
		Layers:      c.LSTMNumLayers,
		SeqLength:   c.SeqLength,
		DropoutKeep: c.DropoutKeepProb,
		Decoding:    decoding,
	}, nil
}

// Solver resolves the optimizer choice. RMSProp reuses the decay fraction as
// its moving-average coefficient; Adam runs with its conventional moments.
func (c *Generator) Solver() (optim.Solver, error) {
	kind, err := optim.ParseKind(strings.ToLower(c.Optimizer))
	if err != nil {
		return nil, err
	}
	switch kind {
	case optim.Adam:
		return optim.NewAdam(c.LearningRate, 0.9, 0.999, 1e-8), nil
	case optim.RMSProp:
		return optim.NewRMSProp(c.LearningRate, c.LearningRateDecay), nil
	default:
		return nil, errors.Errorf("optimizer %q not supported here (choose between adam and rmsprop)", c.Optimizer)
	}
}

// Validate rejects the configuration before any resource is touched.
func (c *Generator) Validate() error {
	if c.TxtFile == "" {
		return errors.New("txt_file is required")
	}
	if _, err := c.ModelConfig(1); err != nil {
		return err
	}
	if _, err := c.Solver(); err != nil {
		return err
	}
	if c.SeqLength <= 0 {
		return errors.Errorf("seq_length must be positive, got %d", c.SeqLength)
	}
	if c.LSTMNumHidden <= 0 {
		return errors.Errorf("lstm_num_hidden must be positive, got %d", c.LSTMNumHidden)
	}
	if c.LSTMNumLayers <= 0 {
		return errors.Errorf("lstm_num_layers must be positive, got %d", c.LSTMNumLayers)
	}
	if c.EmbedDim <= 0 {
		return errors.Errorf("embed_dim must be positive, got %d", c.EmbedDim)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be positive, got %v", c.LearningRate)
	}
	if c.LearningRateDecay <= 0 || c.LearningRateDecay >= 1 {
		return errors.Errorf("learning_rate_decay must be in (0, 1), got %v", c.LearningRateDecay)
	}
	if c.DropoutKeepProb <= 0 || c.DropoutKeepProb > 1 {
		return errors.Errorf("dropout_keep_prob must be in (0, 1], got %v", c.DropoutKeepProb)
	}
	if c.TrainSteps <= 0 {
		return errors.Errorf("train_steps must be positive, got %d", c.TrainSteps)
	}
	if c.MaxNormGradient <= 0 {
		return errors.Errorf("max_norm_gradient must be positive, got %v", c.MaxNormGradient)
	}
	if c.PrintEvery <= 0 {
		return errors.Errorf("print_every must be positive, got %d", c.PrintEvery)
	}
	if c.SampleEvery <= 0 {
		return errors.Errorf("sample_every must be positive, got %d", c.SampleEvery)
	}
	if c.CheckpointEvery <= 0 {
		return errors.Errorf("checkpoint_every must be positive, got %d", c.CheckpointEvery)
	}
	if c.DecodeLength <= 0 {
		return errors.Errorf("decode_length must be positive, got %d", c.DecodeLength)
	}
	if c.ModelName == "" {
		return errors.New("model_name must not be empty")
	}
	return nil
}

// PrintFlags writes every effective value, one "name : value" line each.
func (c *Generator) PrintFlags(w io.Writer) {
	fmt.Fprintf(w, "txt_file : %v\n", c.TxtFile)
	fmt.Fprintf(w, "seq_length : %v\n", c.SeqLength)
	fmt.Fprintf(w, "lstm_num_hidden : %v\n", c.LSTMNumHidden)
	fmt.Fprintf(w, "lstm_num_layers : %v\n", c.LSTMNumLayers)
	fmt.Fprintf(w, "batch_size : %v\n", c.BatchSize)
	fmt.Fprintf(w, "learning_rate : %v\n", c.LearningRate)
	fmt.Fprintf(w, "learning_rate_decay : %v\n", c.LearningRateDecay)
	fmt.Fprintf(w, "embed_dim : %v\n", c.EmbedDim)
	fmt.Fprintf(w, "dropout_keep_prob : %v\n", c.DropoutKeepProb)
	fmt.Fprintf(w, "train_steps : %v\n", c.TrainSteps)
	fmt.Fprintf(w, "max_norm_gradient : %v\n", c.MaxNormGradient)
	fmt.Fprintf(w, "optimizer : %v\n", c.Optimizer)
	fmt.Fprintf(w, "clean_data : %v\n", c.CleanData)
	fmt.Fprintf(w, "summary_path : %v\n", c.SummaryPath)
	fmt.Fprintf(w, "print_every : %v\n", c.PrintEvery)
	fmt.Fprintf(w, "sample_every : %v\n", c.SampleEvery)
	fmt.Fprintf(w, "checkpoint_every : %v\n", c.CheckpointEvery)
	fmt.Fprintf(w, "checkpoint_path : %v\n", c.CheckpointPath)
	fmt.Fprintf(w, "decoding_mode : %v\n", c.DecodingMode)
	fmt.Fprintf(w, "decode_length : %v\n", c.DecodeLength)
	fmt.Fprintf(w, "model_name : %v\n", c.ModelName)
	fmt.Fprintf(w, "seed : %v\n", c.Seed)
	fmt.Fprintf(w, "config : %v\n", c.Config)
}
