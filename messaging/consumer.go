package messaging

import (
	"swarmcore/protocol"
)

// Consumer subscribes to the commands topic and feeds every message
// through the protocol ingestor.
type Consumer struct {
	client   *Client
	topic    string
	ingestor *protocol.Ingestor
}

func NewConsumer(client *Client, topic string, handler *SwarmHandler) *Consumer {
	return &Consumer{
		client:   client,
		topic:    topic,
		ingestor: protocol.NewIngestor(handler, handler.Filter),
	}
}

func (c *Consumer) Start() error {
	return c.client.Subscribe(c.topic, c.handleMessage)
}

func (c *Consumer) handleMessage(_ string, payload []byte) {
	c.ingestor.HandleRaw(payload)
}
