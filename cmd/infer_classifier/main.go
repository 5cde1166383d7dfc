package main

import "flag"
import "fmt"
import "math/rand"
import "os"

import "github.com/pkg/errors"

import "github.com/nngrad/trainer/checkpoint"
import "github.com/nngrad/trainer/datasets"
import "github.com/nngrad/trainer/datasets/cifar10"
import "github.com/nngrad/trainer/datasets/mnist"
import "github.com/nngrad/trainer/nn"
import "github.com/nngrad/trainer/trainer"

func main() {
	savePath := flag.String("save_path", "./trained_models", "save path directory")
	modelName := flag.String("model_name", "mlp", "model_name")
	ckptFile := flag.String("checkpoint", "", "Explicit checkpoint file (overrides save_path and model_name)")
	dataDir := flag.String("data_dir", "./data/cifar10", "Directory for storing input data")
	dataset := flag.String("dataset", "cifar10", "Dataset to evaluate on [cifar10, mnist]")
	flag.Parse()

	path := *ckptFile
	if path == "" {
		saver := &checkpoint.Saver{Dir: *savePath, ModelName: *modelName}
		var err error
		path, err = saver.Latest()
		if err != nil {
			fatal(err)
		}
	}
	if err := run(path, *dataset, *dataDir); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "infer_classifier: %+v\n", err)
	os.Exit(1)
}

func classNames(dataset string, classes int) []string {
	if dataset == "cifar10" {
		return cifar10.Names[:]
	}
	names := make([]string, classes)
	for i := range names {
		names[i] = fmt.Sprint(i)
	}
	return names
}

func run(path, dataset, dataDir string) error {
	state, err := checkpoint.Load(path)
	if err != nil {
		return err
	}
	if state.MLP == nil {
		return errors.Errorf("%s holds a %s model, want a classifier", path, state.ModelName)
	}

	var test *datasets.Split
	switch dataset {
	case "mnist":
		_, test, err = mnist.Load(dataDir)
	case "cifar10":
		_, test, err = cifar10.Load(dataDir)
	default:
		return errors.Errorf("unknown dataset %q (want cifar10 or mnist)", dataset)
	}
	if err != nil {
		return err
	}
	if want := len(test.Inputs[0]); state.MLP.InputDim != want {
		return errors.Errorf("checkpoint expects %d features, %s provides %d",
			state.MLP.InputDim, dataset, want)
	}

	model := nn.NewMLP(*state.MLP, rand.New(rand.NewSource(0)))
	if err := checkpoint.ImportParams(model.Params(), state.Params); err != nil {
		return err
	}

	session := &trainer.MLPSession{Model: model}
	loss, predictions := session.Evaluate(test.Inputs, test.Labels)
	matrix := trainer.Confuse(test.Classes, test.Labels, predictions)

	fmt.Printf("Restored %s from %s (trained %d steps)\n", state.ModelName, path, state.Step)
	fmt.Printf("test_loss:%+.4f, test_accuracy:%+.4f\n", loss, matrix.Accuracy())
	fmt.Printf("Confusion Matrix on test set \n %s \n\n", matrix)

	for i, name := range classNames(dataset, test.Classes) {
		total := 0
		for j := 0; j < test.Classes; j++ {
			total += matrix.Count(i, j)
		}
		recall := 0.0
		if total > 0 {
			recall = float64(matrix.Count(i, i)) / float64(total)
		}
		fmt.Printf("%12s: %5d/%5d correct (%.4f)\n", name, matrix.Count(i, i), total, recall)
	}
	return nil
}
