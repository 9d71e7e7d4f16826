// Package lambdaboot provides shared Lambda cold-start bootstrap logic.
//
// Both Lambdas need some subset of: AWS config, S3 buckets, DynamoDB, SSM
// parameter fetch, EventBridge and startup logging. Each Lambda's init() is
// a short composition of these helpers.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/events"
	"github.com/fpang/yt-thumbnail-wizard/internal/logging"
	"github.com/fpang/yt-thumbnail-wizard/internal/s3util"
	"github.com/fpang/yt-thumbnail-wizard/internal/store"
)

// Environment variables read at cold start.
const (
	EnvStyleBucket        = "STYLE_BUCKET_NAME"
	EnvStylePrefix        = "STYLE_PREFIX"
	EnvStylePublicBaseURL = "STYLE_PUBLIC_BASE_URL"
	EnvUploadBucket       = "UPLOAD_BUCKET_NAME"
	EnvUploadPublicURL    = "UPLOAD_PUBLIC_BASE_URL"
	EnvDynamoTable        = "DYNAMO_TABLE_NAME"
	EnvEventBus           = "EVENT_BUS_NAME"
	EnvGenerateLambdaARN  = "GENERATE_LAMBDA_ARN"
	EnvGenerationMode     = "GENERATION_MODE"
	EnvOriginVerifySecret = "ORIGIN_VERIFY_SECRET"
	EnvSSMAPIKeyParam     = "SSM_API_KEY_PARAM"
)

// DefaultAPIKeyParam is the SSM parameter holding the Gemini API key.
const DefaultAPIKeyParam = "/thumbnail-wizard/prod/gemini-api-key"

// AWSClients holds the core AWS SDK clients used across Lambdas.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
	S3     *s3.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
	}
}

// InitBucket builds an s3util.Bucket from the given environment variables.
// Fatals if the bucket variable is empty. prefixEnvVar and baseURLEnvVar
// may be "".
func InitBucket(client *s3.Client, bucketEnvVar, prefixEnvVar, baseURLEnvVar string) *s3util.Bucket {
	bucket := os.Getenv(bucketEnvVar)
	if bucket == "" {
		log.Fatal().Str("envVar", bucketEnvVar).Msg("Bucket environment variable is required")
	}
	b := &s3util.Bucket{
		Client:  client,
		Presign: s3.NewPresignClient(client),
		Name:    bucket,
	}
	if prefixEnvVar != "" {
		b.Prefix = os.Getenv(prefixEnvVar)
	}
	if baseURLEnvVar != "" {
		b.PublicBaseURL = os.Getenv(baseURLEnvVar)
	}
	return b
}

// InitBucketOptional is InitBucket that returns nil (with a warning) when
// the bucket variable is unset.
func InitBucketOptional(client *s3.Client, bucketEnvVar, prefixEnvVar, baseURLEnvVar string) *s3util.Bucket {
	if os.Getenv(bucketEnvVar) == "" {
		log.Warn().Str("envVar", bucketEnvVar).Msg("Bucket not set, uploads disabled")
		return nil
	}
	return InitBucket(client, bucketEnvVar, prefixEnvVar, baseURLEnvVar)
}

// InitDynamo creates the DynamoDB store from the table name environment
// variable. Fatals if the env var is empty.
func InitDynamo(cfg aws.Config, tableEnvVar string) *store.DynamoStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Fatal().Str("envVar", tableEnvVar).Msg("DynamoDB table environment variable is required")
	}
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName)
}

// InitDynamoOptional creates the DynamoDB store if the env var is set.
// Returns nil (with a warning) if not configured.
func InitDynamoOptional(cfg aws.Config, tableEnvVar string) *store.DynamoStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Warn().Str("envVar", tableEnvVar).Msg("DynamoDB table not set, history disabled")
		return nil
	}
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName)
}

// InitEvents creates an EventBridge emitter when the bus variable is set.
// A nil *events.Emitter discards events.
func InitEvents(cfg aws.Config, busEnvVar string) *events.Emitter {
	bus := os.Getenv(busEnvVar)
	if bus == "" {
		log.Debug().Str("envVar", busEnvVar).Msg("Event bus not set, events disabled")
		return nil
	}
	return events.NewEmitter(eventbridge.NewFromConfig(cfg), bus)
}

// InitLambda creates a Lambda client and reads the target function from
// the given env var. Fatals if it is empty.
func InitLambda(cfg aws.Config, arnEnvVar string) (*lambdasvc.Client, string) {
	arn := os.Getenv(arnEnvVar)
	if arn == "" {
		log.Fatal().Str("envVar", arnEnvVar).Msg("Lambda ARN environment variable is required")
	}
	return lambdasvc.NewFromConfig(cfg), arn
}

// ParameterGetter is the subset of *ssm.Client used by LoadGeminiKey.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, opts ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// APIKeyParam returns the SSM parameter name for the Gemini key.
func APIKeyParam() string {
	return logging.EnvOrDefault(EnvSSMAPIKeyParam, DefaultAPIKeyParam)
}

// FetchGeminiKey returns GEMINI_API_KEY if set, otherwise the decrypted
// value of the SSM parameter.
func FetchGeminiKey(ctx context.Context, client ParameterGetter) (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}
	paramName := APIKeyParam()
	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return aws.ToString(result.Parameter.Value), nil
}

// LoadGeminiKey sets GEMINI_API_KEY from SSM Parameter Store if it is not
// already set. Fatals on error.
func LoadGeminiKey(client ParameterGetter) {
	key, err := FetchGeminiKey(context.Background(), client)
	if err != nil {
		log.Fatal().Err(err).Str("param", APIKeyParam()).Msg("Failed to read API key from SSM")
	}
	os.Setenv("GEMINI_API_KEY", key)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
