// Package local assembles the wizard's dependencies for processes that run
// outside Lambda: the dev server, the CLI and the MCP server.
package local

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/config"
	"github.com/fpang/yt-thumbnail-wizard/internal/events"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/s3util"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
)

// Env is everything a local process needs to drive the wizard.
type Env struct {
	Config   *config.Config
	Store    store.Store
	Source   style.Source
	Styles   *style.Resolver
	Uploads  *s3util.Bucket
	Events   *events.Emitter
	Generate *generate.Service
}

// Options tune Build.
type Options struct {
	// StyleBaseURL is the URL prefix the memory backend serves StylesDir
	// under. Defaults to a file:// URL of the directory.
	StyleBaseURL string
	// SkipModel builds an Env without a Gemini client, for commands that
	// never generate.
	SkipModel bool
	// ValidateKey probes the API key before returning.
	ValidateKey bool
}

// Build wires an Env for cfg.Backend.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Env, error) {
	env := &Env{Config: cfg}

	switch cfg.Backend {
	case config.BackendAWS:
		if err := env.wireAWS(ctx); err != nil {
			return nil, err
		}
	default:
		base := opts.StyleBaseURL
		if base == "" {
			base = "file://" + cfg.StylesDir
		}
		env.Store = store.NewMemoryStore()
		env.Source = style.DirSource{Dir: cfg.StylesDir, BaseURL: base}
	}
	env.Styles = style.NewResolver(env.Source)

	if opts.SkipModel {
		return env, nil
	}
	model, err := newModel(ctx, cfg, opts.ValidateKey)
	if err != nil {
		return nil, err
	}
	gcfg := generate.Config{
		Model:   model,
		Mode:    generate.ParseMode(cfg.GenerationMode),
		Records: env.Store,
		Events:  env.Events,
		HTTP:    generate.NewFaceClient(30 * time.Second),
	}
	if env.Uploads != nil {
		gcfg.Uploads = env.Uploads
	}
	env.Generate = generate.NewService(gcfg)
	return env, nil
}

func (env *Env) wireAWS(ctx context.Context) error {
	cfg := env.Config
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)

	env.Store = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
	env.Source = &s3util.Bucket{
		Client:        s3Client,
		Name:          cfg.StyleBucket,
		Prefix:        cfg.StylePrefix,
		PublicBaseURL: cfg.StylePublicBaseURL,
	}
	if cfg.UploadBucket != "" {
		env.Uploads = &s3util.Bucket{
			Client:  s3Client,
			Presign: s3.NewPresignClient(s3Client),
			Name:    cfg.UploadBucket,
		}
	}
	if cfg.EventBus != "" {
		env.Events = events.NewEmitter(eventbridge.NewFromConfig(awsCfg), cfg.EventBus)
	}
	log.Debug().
		Str("region", awsCfg.Region).
		Str("styleBucket", cfg.StyleBucket).
		Str("table", cfg.DynamoTable).
		Msg("AWS backend configured")
	return nil
}

func newModel(ctx context.Context, cfg *config.Config, validate bool) (generate.Model, error) {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		return nil, err
	}
	client, err := generate.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if validate {
		if err := auth.ValidateAPIKey(ctx, client); err != nil {
			return nil, err
		}
	}
	name := cfg.GeminiModel
	if name == "" {
		name = generate.ModelName(generate.ParseMode(cfg.GenerationMode))
	}
	return &generate.GeminiModel{Client: client, Name: name}, nil
}
