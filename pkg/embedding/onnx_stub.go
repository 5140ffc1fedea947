//go:build !onnx

package embedding

import (
	"fmt"

	"github.com/0xReLogic/Cognio/config"
)

// newONNXEncoder reports that this binary was built without ONNX support.
// Build with -tags onnx to enable it.
func newONNXEncoder(cfg *config.EmbeddingConfig) (Encoder, error) {
	return nil, fmt.Errorf("embedding: onnx provider requires a build with the onnx tag")
}
