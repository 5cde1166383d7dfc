package checkpoint

import (
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nngrad/trainer/nn"
)

func testMLPConfig() nn.MLPConfig {
	return nn.MLPConfig{
		InputDim:   4,
		Hidden:     []int{6},
		Classes:    3,
		Activation: nn.ReLU,
		Init:       nn.Normal,
		InitScale:  0.1,
		Reg:        nn.RegL2,
	}
}

func TestCheckpointRoundTripMLP(t *testing.T) {
	cfg := testMLPConfig()
	model := nn.NewMLP(cfg, rand.New(rand.NewSource(42)))
	path := filepath.Join(t.TempDir(), "model.ckpt.json")

	state := Stamp(&State{
		ModelName: "mlp",
		Step:      1500,
		MLP:       &cfg,
		Params:    ExportParams(model.Params()),
	}, "run-1")
	if err := Save(path, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Step != 1500 || loaded.ModelName != "mlp" || loaded.RunID != "run-1" {
		t.Errorf("metadata wrong: %+v", loaded)
	}
	if loaded.MLP == nil || loaded.LSTM != nil {
		t.Fatal("wrong model config kind")
	}
	if !reflect.DeepEqual(*loaded.MLP, cfg) {
		t.Errorf("config: got %+v, want %+v", *loaded.MLP, cfg)
	}

	restored := nn.NewMLP(*loaded.MLP, rand.New(rand.NewSource(7)))
	if err := ImportParams(restored.Params(), loaded.Params); err != nil {
		t.Fatalf("ImportParams: %v", err)
	}
	for name, p := range model.Params() {
		q := restored.Params()[name]
		for i := range p.W {
			if p.W[i] != q.W[i] {
				t.Fatalf("tensor %s entry %d: got %v, want %v", name, i, q.W[i], p.W[i])
			}
		}
	}
}

func TestCheckpointRoundTripLSTM(t *testing.T) {
	cfg := nn.LSTMConfig{
		Vocab:       9,
		Embed:       4,
		Hidden:      6,
		Layers:      1,
		SeqLength:   5,
		DropoutKeep: 1,
		Decoding:    nn.Sampling,
	}
	model := nn.NewCharLSTM(cfg, rand.New(rand.NewSource(1)))
	path := filepath.Join(t.TempDir(), "model.ckpt-000500.json")

	vocab := []string{"a", "b", "c", "d", "e", "f", "g", "h", "\n"}
	state := Stamp(&State{
		ModelName: "lstm",
		Step:      500,
		LSTM:      &cfg,
		Vocab:     vocab,
		Params:    ExportParams(model.Params()),
	}, "run-2")
	if err := Save(path, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Vocab, vocab) {
		t.Errorf("vocab: got %v, want %v", loaded.Vocab, vocab)
	}
	restored := nn.NewCharLSTM(*loaded.LSTM, rand.New(rand.NewSource(2)))
	if err := ImportParams(restored.Params(), loaded.Params); err != nil {
		t.Fatalf("ImportParams: %v", err)
	}
	if got, want := restored.Params()["l0_bf"].W[0], model.Params()["l0_bf"].W[0]; got != want {
		t.Errorf("restored forget bias: got %v, want %v", got, want)
	}
}

func TestLoadRejectsBadSnapshots(t *testing.T) {
	dir := t.TempDir()
	cfg := testMLPConfig()

	cases := []struct {
		name string
		edit func(*State)
		want string
	}{
		{"bad version", func(s *State) { s.Version = 9 }, "version"},
		{"no model", func(s *State) { s.MLP = nil }, "exactly one"},
		{"both models", func(s *State) { s.LSTM = &nn.LSTMConfig{} }, "exactly one"},
		{"no params", func(s *State) { s.Params = nil }, "no parameters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := Stamp(&State{
				ModelName: "mlp",
				MLP:       &cfg,
				Params:    map[string][][]float64{"w": {{1}}},
			}, "")
			tc.edit(state)
			path := filepath.Join(dir, tc.name+".json")
			if err := Save(path, state); err != nil {
				t.Fatalf("Save: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error: got %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestImportParamsChecksShapes(t *testing.T) {
	model := nn.NewMLP(testMLPConfig(), rand.New(rand.NewSource(3)))
	good := ExportParams(model.Params())

	cases := []struct {
		name string
		edit func(map[string][][]float64)
		want string
	}{
		{"unknown tensor", func(p map[string][][]float64) { p["ghost"] = [][]float64{{1}} }, "unknown tensor"},
		{"missing tensor", func(p map[string][][]float64) { delete(p, "h0_w") }, "missing tensor"},
		{"row mismatch", func(p map[string][][]float64) { p["h0_w"] = p["h0_w"][:2] }, "rows"},
		{"column mismatch", func(p map[string][][]float64) { p["h0_b"][0] = p["h0_b"][0][:3] }, "columns"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := make(map[string][][]float64, len(good))
			for name, rows := range good {
				cp := make([][]float64, len(rows))
				for i, row := range rows {
					cp[i] = append([]float64(nil), row...)
				}
				params[name] = cp
			}
			tc.edit(params)
			err := ImportParams(model.Params(), params)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error: got %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestSaverRetention(t *testing.T) {
	saver := &Saver{Dir: t.TempDir(), ModelName: "lstm", MaxToKeep: 3}
	cfg := testMLPConfig()

	for step := 0; step <= 2500; step += 500 {
		state := Stamp(&State{
			ModelName: "lstm",
			Step:      step,
			MLP:       &cfg,
			Params:    map[string][][]float64{"w": {{float64(step)}}},
		}, "")
		if err := saver.SaveStep(state); err != nil {
			t.Fatalf("SaveStep(%d): %v", step, err)
		}
	}

	files, err := filepath.Glob(filepath.Join(saver.Dir, "lstm", "model.ckpt-*.json"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("retained files: got %d, want 3", len(files))
	}
	for _, f := range files {
		base := filepath.Base(f)
		if base != "model.ckpt-001500.json" && base != "model.ckpt-002000.json" && base != "model.ckpt-002500.json" {
			t.Errorf("unexpected survivor %s", base)
		}
	}

	latest, err := saver.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if filepath.Base(latest) != "model.ckpt-002500.json" {
		t.Errorf("latest: got %s", filepath.Base(latest))
	}
}

func TestSaverLatestFallsBackToFinal(t *testing.T) {
	saver := &Saver{Dir: t.TempDir(), ModelName: "mlp"}
	if _, err := saver.Latest(); err == nil {
		t.Error("Latest on an empty directory must fail")
	}

	cfg := testMLPConfig()
	state := Stamp(&State{
		ModelName: "mlp",
		MLP:       &cfg,
		Params:    map[string][][]float64{"w": {{1}}},
	}, "")
	if err := saver.SaveFinal(state); err != nil {
		t.Fatalf("SaveFinal: %v", err)
	}
	latest, err := saver.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if filepath.Base(latest) != "model.ckpt.json" {
		t.Errorf("latest: got %s, want model.ckpt.json", filepath.Base(latest))
	}
}

func TestSamplesArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lstm_decoded_seqs.gob")
	samples := map[int][][]int{
		0:   {{1, 2, 3}, {4, 5, 6}},
		200: {{7, 8, 9}, {0, 1, 2}},
	}
	if err := WriteSamples(path, samples); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	loaded, err := ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if !reflect.DeepEqual(loaded, samples) {
		t.Errorf("round trip: got %v, want %v", loaded, samples)
	}
	if _, err := ReadSamples(filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("reading a missing artifact must fail")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}
