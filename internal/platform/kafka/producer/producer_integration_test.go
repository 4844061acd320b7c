//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/platform/config"
	"leadgate/internal/platform/kafka/producer"
	"leadgate/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(config.KafkaConfig{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) TestProduceDeliversRecord() {
	ctx := context.Background()
	topic := "leadgate.notifications.test"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("hot_lead"),
		Value:   []byte(`{"channel":"hot_lead"}`),
		Headers: map[string]string{"channel": "hot_lead"},
	})
	s.Require().NoError(err)

	record, err := s.kafka.ReadOne(ctx, topic, 15*time.Second)
	s.Require().NoError(err)
	s.Equal("hot_lead", string(record.Key))
	s.JSONEq(`{"channel":"hot_lead"}`, string(record.Value))
}

func (s *ProducerIntegrationSuite) TestHealthAndClose() {
	ctx := context.Background()
	s.NoError(s.producer.Health(ctx))

	prod, err := producer.New(config.KafkaConfig{Brokers: s.kafka.Brokers}, nil)
	s.Require().NoError(err)
	s.Require().NoError(prod.Close())
	s.ErrorIs(prod.Health(ctx), producer.ErrClosed)
	s.ErrorIs(prod.Produce(ctx, &producer.Message{Topic: "x"}), producer.ErrClosed)
}
