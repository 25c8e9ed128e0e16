package embedding

import (
	"fmt"
	"os"
)

const providerONNX = "onnx"

func checkModel(modelPath string) error {
	if modelPath == "" {
		return fmt.Errorf("onnx embedder: model path is empty")
	}
	info, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("onnx model: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("onnx model %s is a directory", modelPath)
	}
	return nil
}
