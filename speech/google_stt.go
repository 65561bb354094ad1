package speech

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	speechapi "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// GoogleSTTProviderName GoogleRecognizer 的提供者名称
const GoogleSTTProviderName = "google-stt"

var (
	regionPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	projectPattern = regexp.MustCompile(`^[a-z0-9.:-]+$`)
)

// recognizeClient 是 speechapi.Client 中被使用的子集
type recognizeClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// recognizeClientFactory 为 endpoint 创建客户端
type recognizeClientFactory func(ctx context.Context, endpoint string) (recognizeClient, error)

// GoogleRecognizer 基于 Speech-to-Text v2 的 Recognizer 实现。
// 客户端按区域懒加载，同一区域并发的首次请求只创建一个客户端。
type GoogleRecognizer struct {
	cfg       GoogleSTTConfig
	invoker   *Invoker
	newClient recognizeClientFactory
	logger    *zap.Logger

	mu      sync.RWMutex
	clients map[string]recognizeClient
	group   singleflight.Group
}

// NewGoogleRecognizer 创建 GoogleRecognizer，opts 通常来自 CredentialOptions
func NewGoogleRecognizer(cfg GoogleSTTConfig, invoker *Invoker, logger *zap.Logger, opts ...option.ClientOption) *GoogleRecognizer {
	factory := func(ctx context.Context, endpoint string) (recognizeClient, error) {
		clientOpts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
		return speechapi.NewClient(ctx, clientOpts...)
	}
	return newGoogleRecognizer(cfg, invoker, logger, factory)
}

func newGoogleRecognizer(cfg GoogleSTTConfig, invoker *Invoker, logger *zap.Logger, factory recognizeClientFactory) *GoogleRecognizer {
	defaults := DefaultGoogleSTTConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if len(cfg.LanguageCodes) == 0 {
		cfg.LanguageCodes = defaults.LanguageCodes
	}
	if cfg.EndpointTemplate == "" {
		cfg.EndpointTemplate = defaults.EndpointTemplate
	}
	if cfg.MaxCachedClients <= 0 {
		cfg.MaxCachedClients = defaults.MaxCachedClients
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if invoker == nil {
		invoker = NewInvoker(InvokerOptions{}, logger)
	}

	return &GoogleRecognizer{
		cfg:       cfg,
		invoker:   invoker,
		newClient: factory,
		logger:    logger.With(zap.String("component", "google_recognizer")),
		clients:   make(map[string]recognizeClient),
	}
}

// Name 返回提供者名称
func (g *GoogleRecognizer) Name() string { return GoogleSTTProviderName }

// Recognize 对 req.Audio 执行一次自动语言检测识别
func (g *GoogleRecognizer) Recognize(ctx context.Context, req *RecognizeRequest) ([]RecognitionResult, error) {
	if !regionPattern.MatchString(req.Region) {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("invalid region %q", req.Region)).
			WithProvider(GoogleSTTProviderName)
	}
	if !projectPattern.MatchString(req.ProjectID) {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("invalid project id %q", req.ProjectID)).
			WithProvider(GoogleSTTProviderName)
	}

	client, release, err := g.clientFor(ctx, req.Region)
	if err != nil {
		return nil, types.WrapError(err, types.ErrProviderUnavailable, "failed to create speech client").
			WithProvider(GoogleSTTProviderName)
	}
	defer release()

	pbReq := g.buildRequest(req)

	var resp *speechpb.RecognizeResponse
	err = g.invoker.Invoke(ctx, GoogleSTTProviderName, "recognize", func(ctx context.Context) error {
		var callErr error
		resp, callErr = client.Recognize(ctx, pbReq)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return convertResults(resp), nil
}

// Close 关闭所有缓存的区域客户端
func (g *GoogleRecognizer) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for region, c := range g.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close speech client for %s: %w", region, err)
		}
		delete(g.clients, region)
	}
	return firstErr
}

func (g *GoogleRecognizer) buildRequest(req *RecognizeRequest) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Recognizer: RecognizerName(req.ProjectID, req.Region),
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			LanguageCodes: append([]string(nil), g.cfg.LanguageCodes...),
			Model:         g.cfg.Model,
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: req.Audio},
	}
}

// clientFor 返回 region 对应的客户端；release 在调用结束后执行（一次性客户端在此关闭）
func (g *GoogleRecognizer) clientFor(ctx context.Context, region string) (recognizeClient, func(), error) {
	noop := func() {}

	g.mu.RLock()
	c, ok := g.clients[region]
	full := len(g.clients) >= g.cfg.MaxCachedClients
	g.mu.RUnlock()
	if ok {
		return c, noop, nil
	}

	endpoint := fmt.Sprintf(g.cfg.EndpointTemplate, region)
	dialCtx := context.WithoutCancel(ctx)

	if full {
		c, err := g.newClient(dialCtx, endpoint)
		if err != nil {
			return nil, noop, err
		}
		g.logger.Warn("speech client cache full, using transient client", zap.String("region", region))
		return c, func() { _ = c.Close() }, nil
	}

	v, err, _ := g.group.Do(region, func() (any, error) {
		g.mu.RLock()
		existing, ok := g.clients[region]
		g.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := g.newClient(dialCtx, endpoint)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		g.clients[region] = created
		g.mu.Unlock()

		g.logger.Info("speech client created",
			zap.String("region", region),
			zap.String("endpoint", endpoint))
		return created, nil
	})
	if err != nil {
		return nil, noop, err
	}
	return v.(recognizeClient), noop, nil
}

// RecognizerName 返回 projects/{project}/locations/{region}/recognizers/_
func RecognizerName(projectID, region string) string {
	return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", projectID, region)
}

func convertResults(resp *speechpb.RecognizeResponse) []RecognitionResult {
	if resp == nil {
		return nil
	}
	results := make([]RecognitionResult, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		alts := make([]Alternative, 0, len(r.GetAlternatives()))
		for _, a := range r.GetAlternatives() {
			alts = append(alts, Alternative{
				Transcript: a.GetTranscript(),
				Confidence: a.GetConfidence(),
			})
		}
		results = append(results, RecognitionResult{
			Alternatives: alts,
			LanguageCode: r.GetLanguageCode(),
		})
	}
	return results
}
