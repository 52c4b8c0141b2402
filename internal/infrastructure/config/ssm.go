package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func loadParameterStore(ctx context.Context, prefix string) (int, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("config: load aws config: %w", err)
	}
	return exportParameters(ctx, ssm.NewFromConfig(awsCfg), prefix, os.Setenv)
}

// exportParameters copies every parameter under prefix into the environment.
// The variable name is the parameter name with the prefix stripped.
func exportParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, prefix string, setenv func(key, value string) error) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	exported := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return exported, fmt.Errorf("config: ssm parameters %s: %w", prefix, err)
		}
		for _, p := range page.Parameters {
			key := strings.TrimLeft(strings.TrimPrefix(aws.ToString(p.Name), prefix), "/")
			if key == "" {
				continue
			}
			if err := setenv(key, aws.ToString(p.Value)); err != nil {
				return exported, fmt.Errorf("config: export %s: %w", key, err)
			}
			exported++
		}
	}
	return exported, nil
}
