// Package aws provides an SNS/SQS transport: destinations are SNS topics and
// every subscriber reads through its own SQS queue subscribed to the topic.
package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/drblury/schemaflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "aws"

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
	maxQueueNameLength  = 80
)

// DefaultConfigLoader allows overriding the AWS config loader for testing.
var DefaultConfigLoader = awsconfig.LoadDefaultConfig

// TopicResolverFactory allows overriding the topic resolver creation for testing.
var TopicResolverFactory = sns.NewGenerateArnTopicResolver

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return sns.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return sns.NewSubscriber(cfg, sqsCfg, logger)
}

func init() {
	Register()
}

// Register registers the AWS transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.AWSCapabilities)
}

// settings are the resolved values both sides of the transport share.
type settings struct {
	accountID string
	region    string
	endpoint  *url.URL
	queue     string
}

// Build creates an SNS publisher and an SNS-over-SQS subscriber.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to load AWS config", err, watermill.LogFields{"requested_region": cfg.GetAWSRegion()})
		return transport.Transport{}, err
	}

	s, err := resolveSettings(cfg, awsCfg.Region, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	logger.Info("Resolved AWS transport settings", watermill.LogFields{
		"account_id":      s.accountID,
		"region":          s.region,
		"custom_endpoint": s.endpoint != nil,
	})

	topicResolver, err := TopicResolverFactory(s.accountID, s.region)
	if err != nil {
		return transport.Transport{}, fmt.Errorf("create SNS topic resolver: %w", err)
	}
	snsOpts, sqsOpts := endpointOptions(s.endpoint)

	publisher, err := PublisherFactory(sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     awsCfg,
		OptFns:        snsOpts,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		sns.SubscriberConfig{
			AWSConfig:            awsCfg,
			OptFns:               snsOpts,
			TopicResolver:        topicResolver,
			GenerateSqsQueueName: queueNameGenerator(s.queue),
		},
		sqs.SubscriberConfig{
			AWSConfig: awsCfg,
			OptFns:    sqsOpts,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.AWSCapabilities
}

func loadAWSConfig(ctx context.Context, cfg transport.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := cfg.GetAWSRegion(); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	accessKey, secretKey := cfg.GetAWSAccessKeyID(), cfg.GetAWSSecretAccessKey()
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentials(accessKey, secretKey)))
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if region := cfg.GetAWSRegion(); region != "" {
		awsCfg.Region = region
	}
	return awsCfg, nil
}

// resolveSettings fills in the account, region and endpoint. A custom
// endpoint with a missing or malformed account id is taken to be LocalStack.
func resolveSettings(cfg transport.Config, fallbackRegion string, logger watermill.LoggerAdapter) (settings, error) {
	s := settings{
		accountID: strings.Trim(cfg.GetAWSAccountID(), "\"' "),
		region:    cfg.GetAWSRegion(),
		queue:     cfg.GetClientName(),
	}
	if s.region == "" {
		s.region = fallbackRegion
	}

	if raw := cfg.GetAWSEndpoint(); raw != "" {
		endpoint, err := url.Parse(raw)
		if err != nil {
			return settings{}, fmt.Errorf("parse AWS endpoint: %w", err)
		}
		if endpoint.Scheme == "" || endpoint.Host == "" {
			return settings{}, fmt.Errorf("parse AWS endpoint: %q is not an absolute URL", raw)
		}
		s.endpoint = endpoint

		if len(s.accountID) != awsAccountIDLength {
			logger.Info("Using LocalStack account id for custom endpoint", watermill.LogFields{"configured_account_id": s.accountID})
			s.accountID = localstackAccountID
		}
	}
	return s, nil
}

func endpointOptions(endpoint *url.URL) ([]func(*amazonsns.Options), []func(*amazonsqs.Options)) {
	if endpoint == nil {
		return nil, nil
	}
	override := smithyendpoints.Endpoint{URI: *endpoint}
	return []func(*amazonsns.Options){
			amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{Endpoint: override}),
		}, []func(*amazonsqs.Options){
			amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{Endpoint: override}),
		}
}

// queueNameGenerator names the SQS queue after the topic, suffixed with the
// client name so each service gets its own copy of every envelope.
func queueNameGenerator(clientName string) func(context.Context, sns.TopicArn) (string, error) {
	return func(ctx context.Context, topicArn sns.TopicArn) (string, error) {
		topic, err := sns.ExtractTopicNameFromTopicArn(topicArn)
		if err != nil {
			return "", err
		}
		return queueName(string(topic), clientName), nil
	}
}

func queueName(topic, clientName string) string {
	name := topic
	if clientName != "" {
		name = topic + "-" + clientName
	}
	if len(name) > maxQueueNameLength {
		name = name[:maxQueueNameLength]
	}
	return name
}

func staticCredentials(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			Source:          "schemaflow",
		}, nil
	})
}
