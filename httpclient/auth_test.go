package httpclient

import (
	"context"
	"errors"
	"testing"
)

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("abc").Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("got (%q, %v), want (abc, nil)", tok, err)
	}
	if _, err := StaticToken("  ").Token(context.Background()); !errors.Is(err, ErrMissingToken) {
		t.Errorf("blank token: got %v, want ErrMissingToken", err)
	}
}

func TestEnvToken(t *testing.T) {
	t.Setenv("APIFYKIT_TEST_TOKEN", "from-env")
	tok, err := EnvToken("APIFYKIT_TEST_TOKEN").Token(context.Background())
	if err != nil || tok != "from-env" {
		t.Fatalf("got (%q, %v), want (from-env, nil)", tok, err)
	}

	t.Setenv("APIFYKIT_TEST_TOKEN", "")
	if _, err := EnvToken("APIFYKIT_TEST_TOKEN").Token(context.Background()); !errors.Is(err, ErrMissingToken) {
		t.Errorf("unset env: got %v, want ErrMissingToken", err)
	}
}

func TestFirstToken(t *testing.T) {
	t.Setenv("APIFYKIT_TEST_TOKEN", "")
	src := FirstToken(nil, EnvToken("APIFYKIT_TEST_TOKEN"), StaticToken("fallback"))
	tok, err := src.Token(context.Background())
	if err != nil || tok != "fallback" {
		t.Fatalf("got (%q, %v), want (fallback, nil)", tok, err)
	}

	if _, err := FirstToken().Token(context.Background()); !errors.Is(err, ErrMissingToken) {
		t.Errorf("no sources: got %v, want ErrMissingToken", err)
	}
}

func TestResolveToken(t *testing.T) {
	ctx := context.Background()
	if _, err := resolveToken(ctx, nil); !IsCredential(err) {
		t.Errorf("nil source: got %v, want credential error", err)
	}

	failing := TokenFunc(func(context.Context) (string, error) { return "", errors.New("vault sealed") })
	if _, err := resolveToken(ctx, failing); !IsCredential(err) {
		t.Errorf("failing source: got %v, want credential error", err)
	}

	empty := TokenFunc(func(context.Context) (string, error) { return "", nil })
	if _, err := resolveToken(ctx, empty); !IsCredential(err) {
		t.Errorf("empty token: got %v, want credential error", err)
	}
}
