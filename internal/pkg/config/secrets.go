package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the subset of *ssm.Client used to resolve secret references.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterGetter fetches a named secret.
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParameterStore reads SecureString parameters from AWS Systems Manager.
type ParameterStore struct {
	api ssmAPI
}

// NewParameterStore wraps an SSM API implementation.
func NewParameterStore(api ssmAPI) (*ParameterStore, error) {
	if api == nil {
		return nil, errors.New("parameter store: api must not be nil")
	}
	return &ParameterStore{api: api}, nil
}

// NewDefaultParameterStore builds a ParameterStore from the default AWS
// credential chain (environment, shared config, instance role).
func NewDefaultParameterStore(ctx context.Context) (*ParameterStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("parameter store: load aws config: %w", err)
	}
	return NewParameterStore(ssm.NewFromConfig(cfg))
}

// GetParameter returns the decrypted value of name.
func (p *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("parameter store: name is required")
	}

	out, err := p.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("parameter store: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter store: parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// ResolveAPIKey returns the backend API key. An inline key wins; otherwise
// the key is fetched from the parameter named by APIKeyParameter. The getter
// is only built when a lookup is needed.
func ResolveAPIKey(ctx context.Context, b BackendConfig, newGetter func(context.Context) (ParameterGetter, error)) (string, error) {
	if b.APIKey != "" || b.APIKeyParameter == "" {
		return b.APIKey, nil
	}

	getter, err := newGetter(ctx)
	if err != nil {
		return "", err
	}
	key, err := getter.GetParameter(ctx, b.APIKeyParameter)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// DefaultParameterGetter is the production getter factory for ResolveAPIKey.
func DefaultParameterGetter(ctx context.Context) (ParameterGetter, error) {
	return NewDefaultParameterStore(ctx)
}
