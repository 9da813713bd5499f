// Package kafka publica los eventos de stock en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

// EventTypeStockChanged valor del header event_type.
const EventTypeStockChanged = "inventory.stock_changed"

var _ inventoryapp.EventPublisher = (*Publisher)(nil)

// Publisher productor síncrono: cada evento se confirma (acks=all) antes de volver.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// NewPublisher crea el productor contra los brokers dados.
func NewPublisher(brokers []string, topic string, log zerolog.Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka publisher inicializado")
	return NewPublisherWithProducer(producer, topic, log), nil
}

// NewPublisherWithProducer envuelve un productor ya construido (tests, configuración propia).
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, log zerolog.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, log: log}
}

// PublishStockChanged serializa el evento en JSON. La clave es el item, así los eventos
// de un mismo item caen en la misma partición y conservan su orden.
func (p *Publisher) PublishStockChanged(ctx context.Context, event inventoryapp.StockChangedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("item_%d", event.ItemID)),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventTypeStockChanged)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error().Err(err).
			Str("topic", p.topic).
			Int64("item_id", event.ItemID).
			Str("event_id", event.EventID).
			Msg("no se pudo publicar el evento de stock")
		return fmt.Errorf("enviar mensaje a kafka: %w", err)
	}

	p.log.Debug().
		Str("event_id", event.EventID).
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Int64("item_id", event.ItemID).
		Int64("delta", event.Delta).
		Msg("evento de stock publicado")
	return nil
}

// Close cierra el productor.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
