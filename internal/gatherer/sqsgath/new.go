package sqsgath

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SendMessageAPI is the part of *sqs.Client the reporter uses.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

func NewClient(ctx context.Context, region string) (*sqs.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

// NewSqsExitReporter sends one report per finished session to queueUrl.
func NewSqsExitReporter(client SendMessageAPI, queueUrl string, logger *slog.Logger) *sqsExitReporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqsExitReporter{
		sqsClient:   client,
		queueUrl:    queueUrl,
		logger:      logger,
		outputBytes: map[string]int64{},
	}
}
