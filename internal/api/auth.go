package api

import (
	"context"

	"cleanbook/internal/auth"
	"cleanbook/internal/rpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// IdentityInterceptor resolves the caller from metadata and applies the rate limit.
// It never rejects anonymous calls; procedures decide what they require.
type IdentityInterceptor struct {
	identity *Identity
	limiter  *rateLimiter
}

func NewIdentityInterceptor(identity *Identity, limiter *rateLimiter) *IdentityInterceptor {
	return &IdentityInterceptor{
		identity: identity,
		limiter:  limiter,
	}
}

func (a *IdentityInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		creds := a.identity.FromMetadata(md)

		if !a.limiter.Allow(clientKeyGRPC(ctx, creds)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		ctx = rpc.WithCaller(ctx, a.identity.Resolve(ctx, creds))
		// gRPC clients hold their token themselves; there is nothing to clear.
		ctx = auth.WithSession(ctx, auth.SessionHandle{Token: creds.SessionToken, Clear: func() {}})

		return handler(ctx, req)
	}
}
