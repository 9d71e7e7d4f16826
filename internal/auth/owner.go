package auth

import (
	"context"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
)

type ownerKey struct{}

// WithOwner returns a context that carries ownerID. The local server and
// tests use it in place of an API Gateway authorizer.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerID returns the authenticated caller's id, or "" for an anonymous
// request. An explicit WithOwner value wins over the JWT "sub" claim that
// API Gateway's authorizer attaches to the Lambda request context.
func OwnerID(ctx context.Context) string {
	if id, ok := ctx.Value(ownerKey{}).(string); ok && id != "" {
		return id
	}
	reqCtx, ok := core.GetAPIGatewayV2ContextFromContext(ctx)
	if !ok || reqCtx.Authorizer == nil || reqCtx.Authorizer.JWT == nil {
		return ""
	}
	return reqCtx.Authorizer.JWT.Claims["sub"]
}
