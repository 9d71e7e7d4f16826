// Package main is the generation proxy Lambda.
//
// It accepts the wizard's collected fields on POST /api/generate, calls the
// Gemini API with the face image and the built prompt, and returns the
// thumbnail URL and the model's description. Signed-in callers get a
// ThumbnailRecord in DynamoDB and a ThumbnailGenerated event.
//
// Environment:
//
//	SSM_API_KEY_PARAM      SSM parameter with the Gemini key (GEMINI_API_KEY overrides)
//	GENERATION_MODE        describe (default) or render
//	DYNAMO_TABLE_NAME      optional, enables history
//	UPLOAD_BUCKET_NAME     optional, stores rendered images and inline faces
//	UPLOAD_PUBLIC_BASE_URL optional CDN base for stored objects
//	EVENT_BUS_NAME         optional, enables EventBridge events
//	ORIGIN_VERIFY_SECRET   optional, rejects requests that bypass CloudFront
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
	"github.com/fpang/yt-thumbnail-wizard/internal/lambdaboot"
	"github.com/fpang/yt-thumbnail-wizard/internal/logging"
)

var handler http.Handler

var coldStart = true

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	lambdaboot.LoadGeminiKey(clients.SSM)

	client, err := generate.NewGeminiClient(context.Background(), os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	mode := generate.ParseMode(os.Getenv(lambdaboot.EnvGenerationMode))
	modelName := generate.ModelName(mode)

	cfg := generate.Config{
		Model:  &generate.GeminiModel{Client: client, Name: modelName},
		Mode:   mode,
		Events: lambdaboot.InitEvents(clients.Config, lambdaboot.EnvEventBus),
	}
	// Optional dependencies stay nil interfaces when unset.
	table := os.Getenv(lambdaboot.EnvDynamoTable)
	if table != "" {
		cfg.Records = lambdaboot.InitDynamo(clients.Config, lambdaboot.EnvDynamoTable)
	}
	bucket := os.Getenv(lambdaboot.EnvUploadBucket)
	if bucket != "" {
		cfg.Uploads = lambdaboot.InitBucket(clients.S3, lambdaboot.EnvUploadBucket, "", lambdaboot.EnvUploadPublicURL)
	}

	originSecret := os.Getenv(lambdaboot.EnvOriginVerifySecret)
	handler = httputil.WithOriginVerify(originSecret)(generate.NewHandler(generate.NewService(cfg)))

	lambdaboot.StartupLog("generate-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		SSMParam("geminiKey", lambdaboot.APIKeyParam()).
		DynamoTable("records", table).
		S3Bucket("uploads", bucket).
		EventBus("events", os.Getenv(lambdaboot.EnvEventBus)).
		Config("generationMode", string(mode)).
		Config("model", modelName).
		Feature("originVerify", originSecret != "").
		Log()
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if coldStart {
			coldStart = false
			log.Debug().Str("path", req.RawPath).Msg("Cold start invocation")
		}
		return adapter.ProxyWithContext(ctx, req)
	})
}
