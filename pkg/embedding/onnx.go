//go:build onnx

package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/0xReLogic/Cognio/config"
	ort "github.com/yalue/onnxruntime_go"
)

// maxSequenceLength is the fixed input length for MiniLM-style models.
const maxSequenceLength = 128

// BERT special token ids.
const (
	clsTokenID = 101
	sepTokenID = 102
	unkTokenID = 100
)

var ortInitOnce sync.Once
var ortInitErr error

// ONNXEncoder runs a MiniLM-style sentence transformer through ONNX Runtime.
// The model must accept input_ids/attention_mask/token_type_ids and emit
// last_hidden_state; mean pooling over attended tokens plus normalization
// happens here.
type ONNXEncoder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tokenizer *wordPieceTokenizer
	dim       int
}

func newONNXEncoder(cfg *config.EmbeddingConfig) (Encoder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("embedding: onnx provider needs model_path")
	}

	ortInitOnce.Do(func() {
		if lib := os.Getenv("ONNXRUNTIME_LIB"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("embedding: onnx runtime init: %w", ortInitErr)
	}

	tokenizer, err := loadWordPieceTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("embedding: load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("embedding: create onnx session: %w", err)
	}

	return &ONNXEncoder{session: session, tokenizer: tokenizer, dim: cfg.Dimension}, nil
}

// Dimension returns the embedding vector dimension.
func (e *ONNXEncoder) Dimension() int { return e.dim }

// Encode returns the embedding for one text.
func (e *ONNXEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch embeds texts one session run at a time. The session is not
// safe for concurrent Run calls, so a mutex serializes them.
func (e *ONNXEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.encodeOne(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *ONNXEncoder) encodeOne(text string) ([]float32, error) {
	inputIDs, attentionMask := e.tokenizer.encode(text, maxSequenceLength)
	tokenTypeIDs := make([]int64, maxSequenceLength)

	shape := ort.NewShape(1, int64(maxSequenceLength))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("embedding: input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("embedding: attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("embedding: token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	outputs := []ort.Value{nil}

	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("embedding: onnx inference: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("embedding: unexpected output tensor type")
	}
	return e.pool(tensor, attentionMask)
}

// pool mean-pools last_hidden_state over attended tokens and normalizes.
// A 2-dimensional output means the model pools internally.
func (e *ONNXEncoder) pool(tensor *ort.Tensor[float32], attentionMask []int64) ([]float32, error) {
	data := tensor.GetData()
	shape := tensor.GetShape()

	switch len(shape) {
	case 2:
		if len(data) < e.dim {
			return nil, fmt.Errorf("embedding: output dimension %d, expected %d", len(data), e.dim)
		}
		vec := make([]float32, e.dim)
		copy(vec, data[:e.dim])
		return normalize(vec), nil

	case 3:
		seqLen, hidden := int(shape[1]), int(shape[2])
		if hidden != e.dim {
			return nil, fmt.Errorf("embedding: hidden size %d, expected %d", hidden, e.dim)
		}
		vec := make([]float32, e.dim)
		attended := 0
		for i := 0; i < seqLen; i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			offset := i * hidden
			for j := 0; j < hidden; j++ {
				vec[j] += data[offset+j]
			}
		}
		if attended == 0 {
			return vec, nil
		}
		for j := range vec {
			vec[j] /= float32(attended)
		}
		return normalize(vec), nil

	default:
		return nil, fmt.Errorf("embedding: unexpected output shape %v", shape)
	}
}

// wordPieceTokenizer is a greedy longest-prefix WordPiece tokenizer reading
// its vocabulary from a tokenizer.json file.
type wordPieceTokenizer struct {
	vocab map[string]int
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Model.Vocab) == 0 {
		return nil, fmt.Errorf("empty vocabulary in %s", path)
	}
	return &wordPieceTokenizer{vocab: raw.Model.Vocab}, nil
}

// encode produces fixed-length input_ids and attention_mask with [CLS]/[SEP]
// framing, truncating longer inputs.
func (t *wordPieceTokenizer) encode(text string, maxLen int) ([]int64, []int64) {
	ids := make([]int64, maxLen)
	mask := make([]int64, maxLen)

	ids[0] = clsTokenID
	mask[0] = 1

	tokens := t.tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}
	for i, id := range tokens {
		ids[i+1] = id
		mask[i+1] = 1
	}
	ids[len(tokens)+1] = sepTokenID
	mask[len(tokens)+1] = 1

	return ids, mask
}

func (t *wordPieceTokenizer) tokenize(text string) []int64 {
	var out []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			out = append(out, int64(id))
			continue
		}
		out = append(out, t.wordPiece(word)...)
	}
	return out
}

// wordPiece splits an out-of-vocabulary word into the longest matching
// subword pieces, using the ## continuation prefix.
func (t *wordPieceTokenizer) wordPiece(word string) []int64 {
	var pieces []int64
	start := 0
	for start < len(word) {
		end := len(word)
		matched := false
		for end > start {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				pieces = append(pieces, int64(id))
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			pieces = append(pieces, unkTokenID)
			start++
		}
	}
	return pieces
}
