package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/viper"

	"github.com/lindenrealty/rentscreen/generate"
	"github.com/lindenrealty/rentscreen/llm"
	"github.com/lindenrealty/rentscreen/providers/openai"
	"github.com/lindenrealty/rentscreen/secrets/paramstore"
	"github.com/lindenrealty/rentscreen/store"
	"github.com/lindenrealty/rentscreen/store/dynamokv"
	"github.com/lindenrealty/rentscreen/store/filekv"
	"github.com/lindenrealty/rentscreen/store/mongokv"
)

// kvFromViper builds the configured state backend. The returned close
// function may be nil for backends without a connection to tear down.
func kvFromViper(ctx context.Context) (store.KV, func(context.Context) error, error) {
	driver := strings.ToLower(strings.TrimSpace(viper.GetString("store.driver")))
	switch driver {
	case "", "file":
		dir := expandHomePath(viper.GetString("store.file.dir"))
		if strings.TrimSpace(dir) == "" {
			return nil, nil, fmt.Errorf("missing store.file.dir")
		}
		return filekv.New(dir), nil, nil

	case "mongo":
		kv, disconnect, err := mongokv.Connect(ctx,
			viper.GetString("store.mongo.uri"),
			viper.GetString("store.mongo.database"),
			viper.GetString("store.mongo.collection"),
		)
		if err != nil {
			return nil, nil, err
		}
		return kv, disconnect, nil

	case "dynamo":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		kv, err := dynamokv.New(dynamodb.NewFromConfig(cfg), viper.GetString("store.dynamo.table"))
		if err != nil {
			return nil, nil, err
		}
		return kv, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store.driver: %s (want file|mongo|dynamo)", driver)
	}
}

func paramstoreFromConfig(ctx context.Context) (paramstore.Getter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return paramstore.New(ssm.NewFromConfig(cfg))
}

// resolveSecret prefers the directly configured value; the SSM
// parameter is the deployment path.
func resolveSecret(ctx context.Context, direct, ssmParameter string) (string, error) {
	if v := strings.TrimSpace(direct); v != "" {
		return v, nil
	}
	name := strings.TrimSpace(ssmParameter)
	if name == "" {
		return "", nil
	}
	getter, err := paramstoreFromConfig(ctx)
	if err != nil {
		return "", err
	}
	return getter.GetParameter(ctx, name)
}

func llmClientFromViper(ctx context.Context) (llm.Client, error) {
	apiKey, err := resolveSecret(ctx, viper.GetString("llm.api_key"), viper.GetString("llm.api_key_ssm_parameter"))
	if err != nil {
		return nil, fmt.Errorf("resolve llm api key: %w", err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing llm.api_key (set via config, RENTSCREEN_LLM_API_KEY, or llm.api_key_ssm_parameter)")
	}
	return openai.New(viper.GetString("llm.endpoint"), apiKey, viper.GetDuration("llm.request_timeout")), nil
}

func generatorFromViper(client llm.Client) *generate.Generator {
	return generate.New(client, viper.GetString("llm.model"), viper.GetString("llm.instruction"))
}

func authTokenFromViper(ctx context.Context) (string, error) {
	return resolveSecret(ctx, viper.GetString("server.auth_token"), viper.GetString("server.auth_token_ssm_parameter"))
}

func expandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
