// Package events delivers franchise domain events to the log and to SNS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"franchise-service/internal/common/logger"
	"franchise-service/internal/common/metrics"
	"franchise-service/internal/franchise"
)

// LogDispatcher writes every event as an info line.
type LogDispatcher struct {
	logger logger.Logger
}

func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	return &LogDispatcher{logger: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event franchise.Event) error {
	d.logger.Info("franchise event", map[string]interface{}{
		"eventType":   event.Type(),
		"franchiseId": event.AggregateID(),
		"event":       event,
	})
	metrics.EventsDispatched.WithLabelValues(event.Type(), "logged").Inc()
	return nil
}

// Multi fans an event out to every dispatcher, in order. All of them are
// called even when one fails; the failures are joined.
type Multi []franchise.EventDispatcher

func (m Multi) Dispatch(ctx context.Context, event franchise.Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publisher is the subset of the SNS client used here.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSDispatcher publishes each event as a JSON message. The event type and
// franchise id are also sent as message attributes so subscriptions can filter.
type SNSDispatcher struct {
	publisher Publisher
	topicARN  string
}

func NewSNSDispatcher(publisher Publisher, topicARN string) *SNSDispatcher {
	return &SNSDispatcher{publisher: publisher, topicARN: topicARN}
}

type envelope struct {
	Type        string          `json:"type"`
	FranchiseID string          `json:"franchiseId"`
	Payload     franchise.Event `json:"payload"`
}

func (d *SNSDispatcher) Dispatch(ctx context.Context, event franchise.Event) error {
	body, err := json.Marshal(envelope{Type: event.Type(), FranchiseID: event.AggregateID(), Payload: event})
	if err != nil {
		metrics.EventsDispatched.WithLabelValues(event.Type(), "failed").Inc()
		return fmt.Errorf("encode %s event: %w", event.Type(), err)
	}

	_, err = d.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(d.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType":   {DataType: aws.String("String"), StringValue: aws.String(event.Type())},
			"franchiseId": {DataType: aws.String("String"), StringValue: aws.String(event.AggregateID())},
		},
	})
	if err != nil {
		metrics.EventsDispatched.WithLabelValues(event.Type(), "failed").Inc()
		return fmt.Errorf("publish %s event: %w", event.Type(), err)
	}

	metrics.EventsDispatched.WithLabelValues(event.Type(), "published").Inc()
	return nil
}
