package services

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	ErrIdentityDisabled = errors.New("identity provider not configured")
	ErrIdentityToken    = errors.New("invalid identity token")
)

// Identity is a verified external sign-in.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Provider      string
}

// IdentityVerifier checks ID tokens issued by an external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// tokenVerifier is the part of *auth.Client we call.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseIdentity verifies Firebase Auth ID tokens.
type FirebaseIdentity struct {
	client tokenVerifier
}

// NewFirebaseIdentity builds the admin SDK client. An empty credentials file
// falls back to application default credentials.
func NewFirebaseIdentity(ctx context.Context, projectID, credentialsFile string) (*FirebaseIdentity, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("services: firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("services: firebase auth: %w", err)
	}
	return &FirebaseIdentity{client: client}, nil
}

func (f *FirebaseIdentity) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if f == nil || f.client == nil {
		return nil, ErrIdentityDisabled
	}
	if idToken == "" {
		return nil, ErrIdentityToken
	}
	tok, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityToken, err)
	}
	id := &Identity{UID: tok.UID, Provider: tok.Firebase.SignInProvider}
	id.Email, _ = tok.Claims["email"].(string)
	id.EmailVerified, _ = tok.Claims["email_verified"].(bool)
	id.Name, _ = tok.Claims["name"].(string)
	id.Picture, _ = tok.Claims["picture"].(string)
	return id, nil
}
