// Package paramstore resolves secrets (the LLM API key, the daemon
// auth token) from AWS SSM Parameter Store so deployments do not put
// credentials into config files.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var (
	ErrNilAPI    = errors.New("paramstore: ssm api is required")
	ErrEmptyName = errors.New("paramstore: parameter name is required")
	ErrNoValue   = errors.New("paramstore: parameter has no value")
)

// ssmAPI is the slice of the AWS SSM surface the client needs.
// *ssm.Client satisfies it.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter resolves one named secret. Callers depend on this interface
// so tests never need real AWS.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client fetches decrypted parameters and caches them for the process
// lifetime. Secrets rotate by restarting the daemon.
type Client struct {
	api ssmAPI

	mu    sync.Mutex
	cache map[string]string
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, ErrNilAPI
	}
	return &Client{api: api, cache: map[string]string{}}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	c.mu.Lock()
	if v, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: %s", ErrNoValue, name)
	}

	value := *out.Parameter.Value
	c.mu.Lock()
	c.cache[name] = value
	c.mu.Unlock()
	return value, nil
}
