package analysis

import (
	"context"

	"github.com/ironsheep/leaf-tools-mcp/internal/imaging"
)

// Result is the complete output of one analysis. Both images have the same
// pixel dimensions as the input.
type Result struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`

	// EdgeImage is the encoded Sobel edge map.
	EdgeImage []byte `json:"-"`

	// ThermogramImage is the encoded false-color brightness map.
	ThermogramImage []byte `json:"-"`

	// EdgeScore summarizes edge complexity, 0-100.
	EdgeScore float64 `json:"edge_score"`

	// BrightnessScore is the mean luma as a percentage, 0-100.
	BrightnessScore float64 `json:"brightness_score"`

	// Diagnosis is set only when the Analyzer has a Classifier.
	Diagnosis *Diagnosis `json:"diagnosis,omitempty"`
}

// EdgeImageDataURI returns the edge map as a base64 data URI.
func (r *Result) EdgeImageDataURI() string {
	return imaging.EncodeDataURI(r.MimeType, r.EdgeImage)
}

// ThermogramImageDataURI returns the thermogram as a base64 data URI.
func (r *Result) ThermogramImageDataURI() string {
	return imaging.EncodeDataURI(r.MimeType, r.ThermogramImage)
}

// EdgeResult is the output of the edge branch alone.
type EdgeResult struct {
	Width    int
	Height   int
	MimeType string
	Image    []byte
	Score    float64
}

// ThermogramResult is the output of the thermogram branch alone.
type ThermogramResult struct {
	Width           int
	Height          int
	MimeType        string
	Image           []byte
	BrightnessScore float64
}

// ScoresResult holds both scores without any images.
type ScoresResult struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	EdgeScore       float64 `json:"edge_score"`
	BrightnessScore float64 `json:"brightness_score"`
}

// Classifier identifies species and disease from the raw uploaded image.
//
// It stands for the hosted language-model call that runs next to the
// filters; it consumes the same input bytes and shares nothing with them.
// Implementations must honor ctx cancellation.
type Classifier interface {
	Classify(ctx context.Context, input []byte) (*Diagnosis, error)
}

// Severity levels reported by a Classifier.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
	SeverityNA     = "N/A"
)

// Diagnosis is a classifier's verdict on a leaf photo.
type Diagnosis struct {
	IsPlant         bool     `json:"is_plant"`
	PlantSpecies    string   `json:"plant_species,omitempty"`
	Disease         Disease  `json:"disease"`
	Severity        Severity `json:"severity"`
	ConfidenceScore float64  `json:"confidence_score"`
	Cause           string   `json:"cause,omitempty"`
	Treatment       []string `json:"treatment,omitempty"`
}

// Disease names and describes a detected condition.
type Disease struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Severity grades a detected condition. Level is one of the Severity*
// constants; Score is 0-100.
type Severity struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, input []byte) (*Diagnosis, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, input []byte) (*Diagnosis, error) {
	return f(ctx, input)
}
