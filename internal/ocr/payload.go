package ocr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedPayload marks OCR results that are not JSON or do not have the expected shape.
var ErrMalformedPayload = errors.New("malformed OCR payload")

// Payload is the OCR collaborator's output: pages of blocks of lines of words.
type Payload struct {
	Pages    []Page    `json:"pages"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type Page struct {
	PageIdx    int     `json:"page_idx,omitempty"`
	Dimensions []int   `json:"dimensions,omitempty"`
	Blocks     []Block `json:"blocks"`
}

type Block struct {
	Geometry Geometry `json:"geometry,omitempty"`
	Lines    []Line   `json:"lines"`
}

type Line struct {
	Geometry        Geometry `json:"geometry,omitempty"`
	ObjectnessScore *float64 `json:"objectness_score,omitempty"`
	Words           []Word   `json:"words"`
}

type Word struct {
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
	Geometry   Geometry `json:"geometry,omitempty"`
}

// Geometry is a list of relative (x, y) points.
type Geometry [][]float64

// UnmarshalJSON accepts a point list ([[x0,y0],[x1,y1]]) or a flat box
// ([x0,y0,x1,y1]). Any other shape decodes to nil rather than failing the
// payload, since geometry is only carried as metadata.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	*g = nil
	var pts [][]float64
	if err := json.Unmarshal(data, &pts); err == nil {
		*g = pts
		return nil
	}
	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil && len(flat) == 4 {
		*g = Geometry{{flat[0], flat[1]}, {flat[2], flat[3]}}
	}
	return nil
}

// Metadata is attached by the activity after OCR ran.
type Metadata struct {
	OriginalFilename    string  `json:"original_filename,omitempty"`
	ProcessingTimestamp string  `json:"processing_timestamp,omitempty"`
	FileSizeBytes       int64   `json:"file_size_bytes,omitempty"`
	Processor           string  `json:"processor,omitempty"`
	DurationSeconds     float64 `json:"processing_duration_seconds,omitempty"`
}

// OriginalFilename returns the embedded filename, or "" when there is none.
func (p *Payload) OriginalFilename() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	return p.Metadata.OriginalFilename
}

// payloadSchema only pins the shape the flattener walks. Unknown keys are allowed.
const payloadSchema = `{
  "type": "object",
  "properties": {
    "pages": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "blocks": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "properties": {
                "lines": {
                  "type": ["array", "null"],
                  "items": {
                    "type": "object",
                    "properties": {
                      "objectness_score": {"type": ["number", "null"]},
                      "geometry": {"type": ["array", "null"]},
                      "words": {
                        "type": ["array", "null"],
                        "items": {
                          "type": "object",
                          "required": ["value"],
                          "properties": {
                            "value": {"type": "string"},
                            "confidence": {"type": ["number", "null"]}
                          }
                        }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    },
    "metadata": {
      "type": ["object", "null"],
      "properties": {
        "original_filename": {"type": ["string", "null"]}
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ocr_payload.json", bytes.NewReader([]byte(payloadSchema))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("ocr_payload.json")
})

// Decode validates and parses an OCR result. A payload without pages is valid
// and yields no text.
func Decode(data []byte) (*Payload, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

// Annotate sets metadata on a raw OCR result without touching the other keys.
func Annotate(data []byte, meta Metadata) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}
	m, _ := doc["metadata"].(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		m[k] = v
	}
	doc["metadata"] = m
	return json.Marshal(doc)
}
