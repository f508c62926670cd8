package sqsmq

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/zlnvch/cocreate/awsconfig"
	"github.com/zlnvch/cocreate/mq"
)

const (
	// SQS caps message delays at 15 minutes and only accepts whole seconds.
	maxDelaySeconds = 900

	longPollSeconds = 20
)

func newSQSClient(ctx context.Context, devMode bool, sqsEndpoint string) (*sqs.Client, error) {
	cfg, err := awsconfig.Load(ctx, devMode)
	if err != nil {
		return nil, err
	}

	endpoint := awsconfig.Endpoint(devMode, sqsEndpoint)
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	}), nil
}

// delaySeconds rounds up so a message is never delivered early.
func delaySeconds(delay time.Duration) int32 {
	if delay <= 0 {
		return 0
	}
	if delay >= maxDelaySeconds*time.Second {
		return maxDelaySeconds
	}
	return int32((delay + time.Second - 1) / time.Second)
}

// toMessage keys the message by its receipt handle, which is what Delete
// needs.
func toMessage(msg types.Message) *mq.Message {
	return &mq.Message{
		Id:   aws.ToString(msg.ReceiptHandle),
		Body: aws.ToString(msg.Body),
	}
}
