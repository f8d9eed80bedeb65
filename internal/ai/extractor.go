package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"aura-finance/internal/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"
)

// Extractor turns an uploaded document into a loosely-typed invoice object,
// or an error. The object is not validated; callers pass it to core.Normalize.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (map[string]any, error)
	CompareDocuments(ctx context.Context, invoiceText, deliveryNoteText string) (string, error)
}

// MediaKind groups the MIME types the extractor accepts.
type MediaKind int

const (
	MediaUnsupported MediaKind = iota
	MediaImage
	MediaPDF
	MediaAudio
)

var mediaKinds = map[string]MediaKind{
	"image/png":       MediaImage,
	"image/jpeg":      MediaImage,
	"image/webp":      MediaImage,
	"application/pdf": MediaPDF,
	"audio/mpeg":      MediaAudio,
	"audio/mp3":       MediaAudio,
	"audio/wav":       MediaAudio,
	"audio/wave":      MediaAudio,
	"audio/x-wav":     MediaAudio,
	"audio/mp4":       MediaAudio,
	"audio/m4a":       MediaAudio,
	"audio/x-m4a":     MediaAudio,
	"video/mp4":       MediaAudio,
}

// ClassifyMedia maps a MIME type (parameters ignored) to its kind.
func ClassifyMedia(mimeType string) MediaKind {
	base, _, _ := strings.Cut(mimeType, ";")
	return mediaKinds[strings.ToLower(strings.TrimSpace(base))]
}

// Config configures the OpenAI-backed extractor.
type Config struct {
	APIKey          string
	Model           string
	TranscribeModel string
}

// OpenAIExtractor implements Extractor with the OpenAI Responses API. Images
// are sent inline, PDFs as their text layer (or the file itself when it has
// none), and audio is transcribed first. Requests are not retried.
type OpenAIExtractor struct {
	client          *openai.Client
	model           string
	transcribeModel string
	log             zerolog.Logger
}

func NewOpenAIExtractor(cfg Config, opts ...option.RequestOption) *OpenAIExtractor {
	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	transcribe := cfg.TranscribeModel
	if transcribe == "" {
		transcribe = string(openai.AudioModelWhisper1)
	}
	return &OpenAIExtractor{
		client:          &client,
		model:           model,
		transcribeModel: transcribe,
		log:             logger.WithComponent("extractor"),
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, data []byte, mimeType string) (map[string]any, error) {
	if len(data) == 0 {
		return nil, &ExtractionError{Op: "extract", Err: fmt.Errorf("empty document")}
	}

	schema, err := invoiceSchemaJSON()
	if err != nil {
		return nil, wrapExtraction("extract", err)
	}

	var input responses.ResponseNewParamsInputUnion
	kind := ClassifyMedia(mimeType)
	switch kind {
	case MediaImage:
		input = contentInput(documentPrompt(schema), imageContent(data, mimeType))
	case MediaPDF:
		input, err = e.pdfInput(schema, data)
	case MediaAudio:
		var transcript string
		transcript, err = e.transcribe(ctx, data, mimeType)
		input = responses.ResponseNewParamsInputUnion{OfString: openai.String(voicePrompt(schema, transcript))}
	default:
		return nil, &ExtractionError{Op: "extract", Err: fmt.Errorf("%w: %q", ErrUnsupportedMedia, mimeType)}
	}
	if err != nil {
		return nil, err
	}

	e.log.Debug().Str("mime", mimeType).Int("bytes", len(data)).Msg("requesting extraction")

	text, err := e.respond(ctx, input)
	if err != nil {
		return nil, err
	}
	return ParseResponse(text)
}

// CompareDocuments asks the model for a summary of discrepancies between an
// invoice and a delivery note.
func (e *OpenAIExtractor) CompareDocuments(ctx context.Context, invoiceText, deliveryNoteText string) (string, error) {
	input := responses.ResponseNewParamsInputUnion{
		OfString: openai.String(comparePrompt(invoiceText, deliveryNoteText)),
	}
	text, err := e.respond(ctx, input)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *OpenAIExtractor) respond(ctx context.Context, input responses.ResponseNewParamsInputUnion) (string, error) {
	resp, err := e.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(e.model),
		Input: input,
	})
	if err != nil {
		return "", &ExtractionError{Op: "request", Err: fmt.Errorf("openai responses error: %w", err)}
	}

	text := resp.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Op: "request", Err: ErrEmptyResponse}
	}
	return text, nil
}

func (e *OpenAIExtractor) pdfInput(schema string, data []byte) (responses.ResponseNewParamsInputUnion, error) {
	text, err := pdfText(data)
	if err != nil {
		e.log.Warn().Err(err).Msg("pdf text extraction failed, sending file")
	}
	if strings.TrimSpace(text) != "" {
		return responses.ResponseNewParamsInputUnion{OfString: openai.String(pdfTextPrompt(schema, text))}, nil
	}
	return contentInput(documentPrompt(schema), fileContent(data, "document.pdf", "application/pdf")), nil
}

func (e *OpenAIExtractor) transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	tr, err := e.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), audioFilename(mimeType), mimeType),
		Model: openai.AudioModel(e.transcribeModel),
	})
	if err != nil {
		return "", &ExtractionError{Op: "transcribe", Err: err}
	}
	if strings.TrimSpace(tr.Text) == "" {
		return "", &ExtractionError{Op: "transcribe", Err: ErrEmptyResponse}
	}
	return tr.Text, nil
}

func audioFilename(mimeType string) string {
	base, _, _ := strings.Cut(strings.ToLower(mimeType), ";")
	switch strings.TrimSpace(base) {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return "voice.wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "video/mp4":
		return "voice.m4a"
	}
	return "voice.mp3"
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func contentInput(prompt string, part responses.ResponseInputContentUnionParam) responses.ResponseNewParamsInputUnion {
	return responses.ResponseNewParamsInputUnion{
		OfInputItemList: responses.ResponseInputParam{
			responses.ResponseInputItemParamOfMessage(
				responses.ResponseInputMessageContentListParam{
					{OfInputText: &responses.ResponseInputTextParam{Text: prompt}},
					part,
				},
				responses.EasyInputMessageRoleUser,
			),
		},
	}
}

func imageContent(data []byte, mimeType string) responses.ResponseInputContentUnionParam {
	return responses.ResponseInputContentUnionParam{
		OfInputImage: &responses.ResponseInputImageParam{
			ImageURL: openai.String(dataURL(mimeType, data)),
			Detail:   responses.ResponseInputImageDetailAuto,
		},
	}
}

func fileContent(data []byte, filename, mimeType string) responses.ResponseInputContentUnionParam {
	return responses.ResponseInputContentUnionParam{
		OfInputFile: &responses.ResponseInputFileParam{
			FileData: openai.String(dataURL(mimeType, data)),
			Filename: openai.String(filename),
		},
	}
}
