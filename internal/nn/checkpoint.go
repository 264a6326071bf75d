package nn

import (
	"fmt"

	"github.com/glint-ml/glint/internal/serialization"
	"github.com/glint-ml/glint/internal/tensor"
)

// Save writes a module's state dict to a .glnt file.
//
// Example:
//
//	err := nn.Save("denoiser.glnt", model, "DnCNN", nil)
func Save[B tensor.Backend](path string, model Module[B], modelType string, metadata map[string]string) error {
	if err := serialization.SaveStateDict(path, model.StateDict(), modelType, metadata); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// SaveHalf writes a module's state dict with float32 tensors stored in
// half precision.
func SaveHalf[B tensor.Backend](path string, model Module[B], modelType string, metadata map[string]string) error {
	writer, err := serialization.NewWriterWithOptions(path, serialization.WriterOptions{HalfPrecision: true})
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	if err := writer.WriteStateDict(model.StateDict(), modelType, metadata); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to save model: %w", err)
	}

	return writer.Close()
}

// Load reads a .glnt file into a pre-constructed module.
//
// The module must have the same architecture as when the file was saved;
// shape mismatches surface from the module's LoadStateDict.
func Load[B tensor.Backend](path string, model Module[B], backend B) error {
	stateDict, _, err := serialization.LoadStateDict(path, backend)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	if err := model.LoadStateDict(stateDict); err != nil {
		return fmt.Errorf("failed to load model state: %w", err)
	}

	return nil
}
