package speech

import (
	"context"
	"fmt"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// GoogleTTSProviderName GoogleSynthesizer 的提供者名称
const GoogleTTSProviderName = "google-tts"

// synthesizeClient 是 texttospeech.Client 中被使用的子集
type synthesizeClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

type synthesizeClientFactory func(ctx context.Context) (synthesizeClient, error)

// GoogleSynthesizer 基于 Text-to-Speech v1 的 Synthesizer 实现，客户端在首次调用时创建
type GoogleSynthesizer struct {
	invoker   *Invoker
	newClient synthesizeClientFactory
	logger    *zap.Logger

	mu     sync.Mutex
	client synthesizeClient
}

// NewGoogleSynthesizer 创建 GoogleSynthesizer，opts 通常来自 CredentialOptions
func NewGoogleSynthesizer(cfg GoogleTTSConfig, invoker *Invoker, logger *zap.Logger, opts ...option.ClientOption) *GoogleSynthesizer {
	if cfg.Endpoint != "" {
		opts = append([]option.ClientOption{option.WithEndpoint(cfg.Endpoint)}, opts...)
	}
	factory := func(ctx context.Context) (synthesizeClient, error) {
		return texttospeech.NewClient(ctx, opts...)
	}
	return newGoogleSynthesizer(invoker, logger, factory)
}

func newGoogleSynthesizer(invoker *Invoker, logger *zap.Logger, factory synthesizeClientFactory) *GoogleSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if invoker == nil {
		invoker = NewInvoker(InvokerOptions{}, logger)
	}
	return &GoogleSynthesizer{
		invoker:   invoker,
		newClient: factory,
		logger:    logger.With(zap.String("component", "google_synthesizer")),
	}
}

// Name 返回提供者名称
func (g *GoogleSynthesizer) Name() string { return GoogleTTSProviderName }

// Synthesize 执行一次合成调用
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	encoding, ok := pbEncodings[req.Encoding]
	if !ok {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unsupported audio encoding %q", req.Encoding)).
			WithProvider(GoogleTTSProviderName)
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return nil, types.WrapError(err, types.ErrProviderUnavailable, "failed to create text-to-speech client").
			WithProvider(GoogleTTSProviderName)
	}

	pbReq := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: req.LanguageCode,
			SsmlGender:   pbGender(req.Gender),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: encoding,
		},
	}

	var resp *texttospeechpb.SynthesizeSpeechResponse
	err = g.invoker.Invoke(ctx, GoogleTTSProviderName, "synthesize", func(ctx context.Context) error {
		var callErr error
		resp, callErr = client.SynthesizeSpeech(ctx, pbReq)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return &SynthesizeResponse{
		Audio:    resp.GetAudioContent(),
		Encoding: req.Encoding,
	}, nil
}

// Close 关闭底层客户端
func (g *GoogleSynthesizer) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func (g *GoogleSynthesizer) getClient(ctx context.Context) (synthesizeClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	c, err := g.newClient(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	g.client = c
	g.logger.Info("text-to-speech client created")
	return c, nil
}

var pbEncodings = map[AudioEncoding]texttospeechpb.AudioEncoding{
	EncodingOggOpus:  texttospeechpb.AudioEncoding_OGG_OPUS,
	EncodingMP3:      texttospeechpb.AudioEncoding_MP3,
	EncodingLinear16: texttospeechpb.AudioEncoding_LINEAR16,
}

func pbGender(g Gender) texttospeechpb.SsmlVoiceGender {
	switch g {
	case GenderNeutral:
		return texttospeechpb.SsmlVoiceGender_NEUTRAL
	case GenderMale:
		return texttospeechpb.SsmlVoiceGender_MALE
	case GenderFemale:
		return texttospeechpb.SsmlVoiceGender_FEMALE
	default:
		return texttospeechpb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED
	}
}
