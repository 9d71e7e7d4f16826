// Package main is the wizard API Lambda.
//
// It keeps wizard sessions and thumbnail history in DynamoDB, lists style
// assets from S3, presigns face uploads and forwards generation to the
// generation Lambda.
//
// Environment:
//
//	DYNAMO_TABLE_NAME      sessions and history (required)
//	STYLE_BUCKET_NAME      style asset bucket (required)
//	STYLE_PREFIX           key prefix of the style assets
//	STYLE_PUBLIC_BASE_URL  CDN base for style previews
//	UPLOAD_BUCKET_NAME     optional, enables browser face uploads
//	UPLOAD_PUBLIC_BASE_URL optional CDN base for uploaded faces
//	GENERATE_LAMBDA_ARN    generation Lambda (required)
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
	"github.com/fpang/yt-thumbnail-wizard/internal/lambdaboot"
	"github.com/fpang/yt-thumbnail-wizard/internal/logging"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
	"github.com/fpang/yt-thumbnail-wizard/internal/webapi"
)

var handler http.Handler

var coldStart = true

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	db := lambdaboot.InitDynamo(clients.Config, lambdaboot.EnvDynamoTable)
	styles := lambdaboot.InitBucket(clients.S3, lambdaboot.EnvStyleBucket, lambdaboot.EnvStylePrefix, lambdaboot.EnvStylePublicBaseURL)
	lambdaClient, generateARN := lambdaboot.InitLambda(clients.Config, lambdaboot.EnvGenerateLambdaARN)
	originSecret := os.Getenv(lambdaboot.EnvOriginVerifySecret)

	cfg := webapi.Config{
		Sessions: db,
		Records:  db,
		Styles:   style.NewResolver(styles),
		Generator: &generate.LambdaClient{
			API:          lambdaClient,
			FunctionName: generateARN,
			OriginSecret: originSecret,
		},
		Events:       lambdaboot.InitEvents(clients.Config, lambdaboot.EnvEventBus),
		OriginSecret: originSecret,
	}
	if uploads := lambdaboot.InitBucketOptional(clients.S3, lambdaboot.EnvUploadBucket, "", lambdaboot.EnvUploadPublicURL); uploads != nil {
		cfg.Uploads = uploads
	}
	handler = webapi.NewServer(cfg).Routes()

	lambdaboot.StartupLog("wizard-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		DynamoTable("sessions", os.Getenv(lambdaboot.EnvDynamoTable)).
		S3Bucket("styles", styles.Name).
		S3Bucket("uploads", os.Getenv(lambdaboot.EnvUploadBucket)).
		LambdaFunc("generate", generateARN).
		EventBus("events", os.Getenv(lambdaboot.EnvEventBus)).
		Config("stylePrefix", styles.Prefix).
		Feature("faceUploads", cfg.Uploads != nil).
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
