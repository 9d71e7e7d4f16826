package generate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/httputil"
)

// LambdaAPI is the subset of *lambda.Client used here.
type LambdaAPI interface {
	Invoke(ctx context.Context, in *lambdasvc.InvokeInput, opts ...func(*lambdasvc.Options)) (*lambdasvc.InvokeOutput, error)
}

// LambdaClient implements Generator by invoking the generation Lambda
// synchronously with a synthetic API Gateway request, so the proxy sees the
// same caller identity it would behind API Gateway.
type LambdaClient struct {
	API          LambdaAPI
	FunctionName string
	// OriginSecret is forwarded as x-origin-verify when set.
	OriginSecret string
}

var _ Generator = (*LambdaClient)(nil)

// Generate invokes the generation Lambda and decodes its HTTP response.
func (c *LambdaClient) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	headers := map[string]string{"content-type": "application/json"}
	if c.OriginSecret != "" {
		headers[httputil.OriginVerifyHeader] = c.OriginSecret
	}
	event := events.APIGatewayV2HTTPRequest{
		Version:  "2.0",
		RouteKey: "POST " + Route,
		RawPath:  Route,
		Headers:  headers,
		Body:     string(body),
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RouteKey: "POST " + Route,
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodPost,
				Path:   Route,
			},
		},
	}
	if owner := auth.OwnerID(ctx); owner != "" {
		event.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
				Claims: map[string]string{"sub": owner},
			},
		}
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal invoke payload: %w", err)
	}

	start := time.Now()
	out, err := c.API.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(c.FunctionName),
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to invoke generation Lambda")
		return nil, &UpstreamError{Message: "thumbnail generation failed, please try again", Err: fmt.Errorf("invoke generation lambda: %w", err)}
	}
	if out.FunctionError != nil {
		return nil, &UpstreamError{
			Message: "thumbnail generation failed, please try again",
			Err:     fmt.Errorf("generation lambda %s: %s", aws.ToString(out.FunctionError), string(out.Payload)),
		}
	}

	var httpResp events.APIGatewayV2HTTPResponse
	if err := json.Unmarshal(out.Payload, &httpResp); err != nil {
		return nil, fmt.Errorf("decode generation lambda response: %w", err)
	}
	respBody := []byte(httpResp.Body)
	if httpResp.IsBase64Encoded {
		if respBody, err = base64.StdEncoding.DecodeString(httpResp.Body); err != nil {
			return nil, fmt.Errorf("decode generation lambda body: %w", err)
		}
	}

	log.Debug().
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Generation Lambda returned")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &e)
		if e.Error == "" {
			e.Error = "thumbnail generation failed"
		}
		if httpResp.StatusCode == http.StatusBadRequest {
			return nil, &RequestError{Message: e.Error}
		}
		return nil, &UpstreamError{Message: e.Error, Err: fmt.Errorf("generation lambda status %d", httpResp.StatusCode)}
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	return &resp, nil
}
