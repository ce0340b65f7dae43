package middleware

import "context"

type contextKey string

const (
	ctxExternalUserID contextKey = "external_user_id"
	ctxUserEmail      contextKey = "user_email"
	ctxUserName       contextKey = "user_name"
	ctxUserImage      contextKey = "user_image"
)

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
	ImageURL   string
}

func ExternalUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxExternalUserID).(string); ok {
		return v
	}
	return ""
}

func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	identity := Identity{ExternalID: ExternalUserIDFromContext(ctx)}
	if v, ok := ctx.Value(ctxUserEmail).(string); ok {
		identity.Email = v
	}
	if v, ok := ctx.Value(ctxUserName).(string); ok {
		identity.Name = v
	}
	if v, ok := ctx.Value(ctxUserImage).(string); ok {
		identity.ImageURL = v
	}
	return identity
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxExternalUserID, identity.ExternalID)
	ctx = context.WithValue(ctx, ctxUserEmail, identity.Email)
	ctx = context.WithValue(ctx, ctxUserName, identity.Name)
	if identity.ImageURL != "" {
		ctx = context.WithValue(ctx, ctxUserImage, identity.ImageURL)
	}
	return ctx
}
