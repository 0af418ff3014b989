package gemini

import "strings"

// File is an uploaded file as reported by the Files API.
type File struct {
	Name        string `json:"name"` // "files/abc123"
	DisplayName string `json:"displayName,omitempty"`
	URI         string `json:"uri"`
	MIMEType    string `json:"mimeType"`
	SizeBytes   string `json:"sizeBytes,omitempty"`
	State       string `json:"state,omitempty"`
}

// FileData references an uploaded file from a content part.
type FileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// Part is one piece of a message: text or a file reference.
type Part struct {
	Text     string    `json:"text,omitempty"`
	FileData *FileData `json:"fileData,omitempty"`
}

// TextPart returns a text part.
func TextPart(s string) Part { return Part{Text: s} }

// FilePart returns a part referencing f.
func FilePart(f *File) Part {
	return Part{FileData: &FileData{MIMEType: f.MIMEType, FileURI: f.URI}}
}

// Content is a message with a role ("user" or "model").
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Schema types.
const (
	TypeString = "STRING"
	TypeArray  = "ARRAY"
	TypeObject = "OBJECT"
)

// Schema is the OpenAPI subset accepted as a response schema.
type Schema struct {
	Type       string             `json:"type"`
	Items      *Schema            `json:"items,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// GenerationConfig controls output format.
type GenerationConfig struct {
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema  `json:"responseSchema,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
}

// GenerateRequest is the body of a generateContent call.
type GenerateRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback is set when the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// UsageMetadata reports token counts.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GenerateResponse is the result of a generateContent call.
type GenerateResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// Text concatenates the text parts of the first candidate.
// It returns "" when there is no candidate.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
