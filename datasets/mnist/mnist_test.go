package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeIdx writes a gzipped idx file: magic 0x803 with image payload when
// rows > 0, magic 0x801 with label payload otherwise.
func writeIdx(t *testing.T, path string, count, rows int, payload []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if rows > 0 {
		for _, v := range []uint32{0x803, uint32(count), uint32(rows), uint32(rows)} {
			if err := binary.Write(gz, binary.BigEndian, v); err != nil {
				t.Fatal(err)
			}
		}
	} else {
		for _, v := range []uint32{0x801, uint32(count)} {
			if err := binary.Write(gz, binary.BigEndian, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if _, err := gz.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeSet writes one synthetic image/label pair of idx files: example i has
// every pixel set to i and label i%10.
func writeSet(t *testing.T, dir, imgName, lblName string, count int) {
	t.Helper()
	imgs := make([]byte, count*InputDim)
	lbls := make([]byte, count)
	for i := 0; i < count; i++ {
		for j := 0; j < InputDim; j++ {
			imgs[i*InputDim+j] = byte(i)
		}
		lbls[i] = byte(i % Classes)
	}
	writeIdx(t, filepath.Join(dir, imgName), count, ImgSize, imgs)
	writeIdx(t, filepath.Join(dir, lblName), count, 0, lbls)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "train-images-idx3-ubyte.gz", "train-labels-idx1-ubyte.gz", 5)
	writeSet(t, dir, "t10k-images-idx3-ubyte.gz", "t10k-labels-idx1-ubyte.gz", 2)

	train, test, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if train.Len() != 5 || test.Len() != 2 {
		t.Fatalf("split sizes: got %d/%d, want 5/2", train.Len(), test.Len())
	}
	if len(train.Inputs[0]) != InputDim {
		t.Errorf("feature width: got %d, want %d", len(train.Inputs[0]), InputDim)
	}
	if train.Labels[3] != 3 {
		t.Errorf("label: got %d, want 3", train.Labels[3])
	}
	if got := train.Inputs[3][0]; got != 3.0/255 {
		t.Errorf("pixel: got %v, want %v", got, 3.0/255)
	}
	if err := test.Check(); err != nil {
		t.Errorf("test split inconsistent: %v", err)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	if _, _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing idx files")
	}
}
