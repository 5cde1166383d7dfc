package main

import "flag"
import "fmt"
import "math/rand"
import "os"
import "strings"

import "github.com/pkg/errors"

import "github.com/nngrad/trainer/checkpoint"
import "github.com/nngrad/trainer/nn"

func main() {
	ckptPath := flag.String("checkpoint_path", "./checkpoints", "Checkpoint directory")
	modelName := flag.String("model_name", "lstm", "Model name for saving")
	ckptFile := flag.String("checkpoint", "", "Explicit checkpoint file (overrides checkpoint_path and model_name)")
	decodeLength := flag.Int("decode_length", 100, "Inference (decoding) number of steps")
	sequences := flag.Int("sequences", 5, "Number of sequences to decode")
	start := flag.String("start", "", "Start character for every sequence (random when empty)")
	mode := flag.String("decoding_mode", "", "Decode by greedy or sampling (checkpoint's mode when empty)")
	seed := flag.Int64("seed", 42, "Seed for all randomness of the run")
	flag.Parse()

	path := *ckptFile
	if path == "" {
		saver := &checkpoint.Saver{Dir: *ckptPath, ModelName: *modelName}
		var err error
		path, err = saver.Latest()
		if err != nil {
			fatal(err)
		}
	}
	if err := run(path, *mode, *start, *decodeLength, *sequences, *seed); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "generate_text: %+v\n", err)
	os.Exit(1)
}

func run(path, mode, start string, length, sequences int, seed int64) error {
	if length <= 0 || sequences <= 0 {
		return errors.Errorf("decode_length and sequences must be positive, got %d and %d", length, sequences)
	}
	state, err := checkpoint.Load(path)
	if err != nil {
		return err
	}
	if state.LSTM == nil {
		return errors.Errorf("%s holds a %s model, want a generator", path, state.ModelName)
	}
	cfg := *state.LSTM
	if len(state.Vocab) != cfg.Vocab {
		return errors.Errorf("checkpoint vocabulary holds %d tokens, model expects %d",
			len(state.Vocab), cfg.Vocab)
	}
	if mode != "" {
		decoding, err := nn.ParseDecodingMode(mode)
		if err != nil {
			return err
		}
		cfg.Decoding = decoding
	}

	rng := rand.New(rand.NewSource(seed))
	model := nn.NewCharLSTM(cfg, rng)
	if err := checkpoint.ImportParams(model.Params(), state.Params); err != nil {
		return err
	}

	starts := make([]int, sequences)
	if start == "" {
		for i := range starts {
			starts[i] = rng.Intn(cfg.Vocab)
		}
	} else {
		id := -1
		for v, tok := range state.Vocab {
			if tok == start {
				id = v
				break
			}
		}
		if id < 0 {
			return errors.Errorf("start token %q is not in the model's vocabulary", start)
		}
		for i := range starts {
			starts[i] = id
		}
	}

	fmt.Printf("Restored %s from %s (trained %d steps, vocabulary of %d)\n",
		state.ModelName, path, state.Step, cfg.Vocab)

	decoded := model.Decode(starts, length, rng)
	for s := 0; s < sequences; s++ {
		var sb strings.Builder
		sb.WriteString(state.Vocab[starts[s]])
		for t := range decoded {
			sb.WriteString(state.Vocab[decoded[t][s]])
		}
		fmt.Printf("%q\n", sb.String())
	}
	return nil
}
