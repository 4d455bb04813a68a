package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest image accepted for extraction.
const MaxImageSize = 20 << 20

var (
	ErrNoImages         = errors.New("no images provided for processing")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("image has unsupported format")

	ErrAuth          = errors.New("extraction service rejected the API key")
	ErrQuota         = errors.New("extraction service quota exceeded")
	ErrNetwork       = errors.New("extraction service unreachable")
	ErrService       = errors.New("extraction service error")
	ErrEmptyResponse = errors.New("extraction service returned an empty response")
)

// Image is one uploaded photograph of a BOQ.
type Image struct {
	Name string
	Data []byte
	// MIMEType is filled in by ValidateImages from the content.
	MIMEType string
}

var acceptedImageTypes = []string{"image/jpeg", "image/png"}

// ValidateImages checks count, size and sniffed content type of every image
// before anything is sent over the network. It returns the images with their
// detected MIME type set.
func ValidateImages(images []Image) ([]Image, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	out := make([]Image, len(images))
	for i, img := range images {
		if len(img.Data) > MaxImageSize {
			return nil, fmt.Errorf("%w: %s is %s, limit is %s", ErrImageTooLarge,
				img.Name, humanize.IBytes(uint64(len(img.Data))), humanize.IBytes(MaxImageSize))
		}
		mt := mimetype.Detect(img.Data)
		accepted := false
		for _, t := range acceptedImageTypes {
			if mt.Is(t) {
				accepted = true
				img.MIMEType = t
				break
			}
		}
		if !accepted {
			return nil, fmt.Errorf("%w: %s is %s, use JPEG or PNG", ErrUnsupportedImage, img.Name, mt.String())
		}
		out[i] = img
	}
	return out, nil
}

// Extraction is the structured BOQ recovered from images.
type Extraction struct {
	ProjectDetails ProjectDetails
	Items          []LineItem
}

// Extractor turns BOQ photographs into structured data.
type Extractor interface {
	Extract(ctx context.Context, images []Image) (*Extraction, error)
}

// ExtractionPrompt is sent ahead of the images.
const ExtractionPrompt = "Extract all the information from this handwritten Bill of Quantities (BOQ). " +
	"Format the response as a structured JSON with the following fields: projectDetails " +
	"(containing clientName, projectName, location, projectType, carpetArea), and items " +
	"(array of BOQ items with description, specifications, materials, unit, quantity, rate, amount). " +
	"Ensure all numeric values are properly extracted."

// GeminiExtractor calls the Gemini generateContent API.
type GeminiExtractor struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
}

// NewGeminiExtractor returns an extractor with its own HTTP client.
func NewGeminiExtractor(apiKey, model, endpoint string, timeout time.Duration) *GeminiExtractor {
	return &GeminiExtractor{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Extract validates the images, sends them with the extraction prompt and
// parses the model's text reply. It makes exactly one request.
func (g *GeminiExtractor) Extract(ctx context.Context, images []Image) (*Extraction, error) {
	images, err := ValidateImages(images)
	if err != nil {
		return nil, err
	}
	if g.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrAuth)
	}

	text, err := g.generate(ctx, images)
	if err != nil {
		return nil, err
	}
	return ParseExtraction(text)
}

func (g *GeminiExtractor) generate(ctx context.Context, images []Image) (string, error) {
	var req geminiRequest
	parts := []geminiPart{{Text: ExtractionPrompt}}
	for _, img := range images {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: img.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}
	req.Contents = append(req.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})
	req.GenerationConfig.Temperature = 0.1
	req.GenerationConfig.MaxOutputTokens = 4096

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", g.Endpoint, url.PathEscape(g.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}
	if resp.StatusCode/100 != 2 {
		return "", classifyAPIError(resp.StatusCode, raw)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: undecodable response: %v", ErrService, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func classifyAPIError(status int, body []byte) error {
	var ge geminiError
	_ = json.Unmarshal(body, &ge)
	msg := ge.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case ge.Error.Status == "PERMISSION_DENIED" || ge.Error.Status == "UNAUTHENTICATED" ||
		status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	case ge.Error.Status == "RESOURCE_EXHAUSTED" || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrQuota, msg)
	default:
		code := ge.Error.Status
		if code == "" {
			code = fmt.Sprintf("HTTP %d", status)
		}
		return fmt.Errorf("%w (%s): %s", ErrService, code, msg)
	}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return fmt.Errorf("%w: %v", ErrService, err)
}

// UserMessage maps an extraction failure to the message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "Authentication error. Please contact support."
	case errors.Is(err, ErrQuota):
		return "Service temporarily unavailable. Please try again later."
	case errors.Is(err, ErrNetwork):
		return "Network error. Please check your internet connection."
	case errors.Is(err, ErrUnsupportedImage):
		return "Unsupported image format. Please use JPEG or PNG files."
	case errors.Is(err, ErrImageTooLarge):
		return "Image too large. Please use images under 20MB."
	default:
		return "Error: " + err.Error()
	}
}
