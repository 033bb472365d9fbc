// internal/common/aws/notifier.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/report"
)

// SESService is the subset of the SES client the notifier uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the subset of the SNS client the notifier uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type NotifierConfig struct {
	TopicARN   string
	FromEmail  string
	Recipients []string
}

// Notifier ships run summaries over SNS and SES. A nil client disables that
// channel.
type Notifier struct {
	cfg NotifierConfig
	sns SNSService
	ses SESService
}

func NewNotifier(cfg NotifierConfig, snsClient SNSService, sesClient SESService) *Notifier {
	return &Notifier{cfg: cfg, sns: snsClient, ses: sesClient}
}

// NewNotifierFromRegion builds real SNS/SES clients from the default AWS
// credential chain.
func NewNotifierFromRegion(ctx context.Context, region string, cfg NotifierConfig, enableSNS, enableSES bool) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	n := &Notifier{cfg: cfg}
	if enableSNS {
		n.sns = sns.NewFromConfig(awsCfg)
	}
	if enableSES {
		n.ses = ses.NewFromConfig(awsCfg)
	}
	return n, nil
}

func subject(s report.Summary) string {
	return fmt.Sprintf("RSD dataset run %s: %d records, seed %d", s.RunID, s.Rows, s.Seed)
}

// PublishSummary posts the rendered summary to the configured topic and
// returns the SNS message id.
func (n *Notifier) PublishSummary(ctx context.Context, s report.Summary) (string, error) {
	if n.sns == nil {
		return "", nil
	}

	out, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.TopicARN),
		Subject:  aws.String(truncate(subject(s), 100)),
		Message:  aws.String(s.String()),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"runId": {DataType: aws.String("String"), StringValue: aws.String(s.RunID)},
			"seed":  {DataType: aws.String("Number"), StringValue: aws.String(fmt.Sprint(s.Seed))},
		},
	})
	if err != nil {
		return "", errors.NewNotificationSendFailedError("sns", err)
	}
	return aws.ToString(out.MessageId), nil
}

// EmailSummary sends the rendered summary to every configured recipient.
func (n *Notifier) EmailSummary(ctx context.Context, s report.Summary) (string, error) {
	if n.ses == nil {
		return "", nil
	}

	out, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.cfg.FromEmail),
		Destination: &types.Destination{ToAddresses: n.cfg.Recipients},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject(s))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(s.String())},
			},
		},
	})
	if err != nil {
		return "", errors.NewNotificationSendFailedError("ses", err)
	}
	return aws.ToString(out.MessageId), nil
}

// NotifyAll tries both channels and returns the first failure.
func (n *Notifier) NotifyAll(ctx context.Context, s report.Summary) error {
	_, snsErr := n.PublishSummary(ctx, s)
	_, sesErr := n.EmailSummary(ctx, s)
	if snsErr != nil {
		return snsErr
	}
	return sesErr
}

// SNS subjects are limited to 100 characters.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
