package httpclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingToken is returned by token sources that cannot produce a token.
var ErrMissingToken = errors.New("missing API token")

// TokenSource resolves the bearer token for a request. It is called at
// build time, once per request, so rotated secrets are picked up.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f(ctx).
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken is a fixed token value.
type StaticToken string

// Token returns the token, or ErrMissingToken when it is blank.
func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrMissingToken
	}
	return string(t), nil
}

// EnvToken reads the token from the named environment variable.
type EnvToken string

// Token returns the variable's value, or ErrMissingToken when it is unset or blank.
func (e EnvToken) Token(context.Context) (string, error) {
	v := strings.TrimSpace(os.Getenv(string(e)))
	if v == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrMissingToken, string(e))
	}
	return v, nil
}

// FirstToken tries each source in order and returns the first token found.
func FirstToken(sources ...TokenSource) TokenSource {
	return TokenFunc(func(ctx context.Context) (string, error) {
		var errs []error
		for _, src := range sources {
			if src == nil {
				continue
			}
			tok, err := src.Token(ctx)
			if err == nil {
				return tok, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return "", ErrMissingToken
		}
		return "", errors.Join(errs...)
	})
}

// resolveToken resolves a token and classifies any failure as a credential error.
func resolveToken(ctx context.Context, src TokenSource) (string, error) {
	if src == nil {
		return "", NewCredentialError(ErrMissingToken)
	}
	tok, err := src.Token(ctx)
	if err != nil {
		return "", NewCredentialError(err)
	}
	if strings.TrimSpace(tok) == "" {
		return "", NewCredentialError(ErrMissingToken)
	}
	return tok, nil
}
