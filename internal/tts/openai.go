package tts

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rotisserie/eris"
)

const (
	defaultSpeechModel = "tts-1"
	defaultSpeechVoice = "alloy"
)

// OpenAIOptions controls how the speech client is initialised.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Voice      string
	HTTPClient *http.Client
}

type speechClient interface {
	New(ctx context.Context, body openai.AudioSpeechNewParams, opts ...option.RequestOption) (*http.Response, error)
}

// OpenAIProvider renders speech through the OpenAI audio API.
type OpenAIProvider struct {
	speech speechClient
	model  string
	voice  string
}

// NewOpenAIProvider constructs a provider backed by the OpenAI SDK.
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("openai api key is required")
	}

	// Upstream failures go straight back to the caller as 502.
	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(baseURL))
	}
	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	apiClient := openai.NewClient(requestOptions...)

	return newOpenAIProvider(&apiClient.Audio.Speech, opts.Model, opts.Voice), nil
}

func newOpenAIProvider(speech speechClient, model, voice string) *OpenAIProvider {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultSpeechModel
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = defaultSpeechVoice
	}
	return &OpenAIProvider{speech: speech, model: model, voice: voice}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Open implements Provider. The language is inferred by the model from the text.
func (p *OpenAIProvider) Open(ctx context.Context, text, _ string) (io.ReadCloser, error) {
	resp, err := p.speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(p.model),
		Voice:          openai.AudioSpeechNewParamsVoice(p.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, eris.Wrap(err, "openai speech request failed")
	}
	if resp == nil || resp.Body == nil {
		return nil, eris.New("openai speech returned no body")
	}
	return resp.Body, nil
}
