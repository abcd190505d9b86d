package messaging

import (
	"log"
	"sync"
	"time"

	"swarmcore/store"
)

// Publisher is the part of Client the drainer needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// outboxStore is the part of store.DB the drainer needs.
type outboxStore interface {
	ListPendingOutbox(limit int) ([]*store.OutboxMessage, error)
	AckOutbox(id int64) error
	IncrementOutboxRetries(id int64) error
}

const drainBatch = 50

// OutboxDrainer periodically publishes pending outbox messages in id
// order. A message that fails to publish stays pending with its retry
// count bumped, and the rest of the batch waits for the next pass so
// order is kept.
type OutboxDrainer struct {
	db       outboxStore
	client   Publisher
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewOutboxDrainer(db *store.DB, client Publisher, interval time.Duration) *OutboxDrainer {
	return newOutboxDrainer(db, client, interval)
}

func newOutboxDrainer(db outboxStore, client Publisher, interval time.Duration) *OutboxDrainer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxDrainer{
		db:       db,
		client:   client,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	d.wg.Add(1)
	go d.run()
}

func (d *OutboxDrainer) Stop() {
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	d.wg.Wait()
}

func (d *OutboxDrainer) run() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.drain()
		}
	}
}

// drain publishes one batch and returns how many messages were sent.
func (d *OutboxDrainer) drain() int {
	if !d.client.IsConnected() {
		return 0
	}
	msgs, err := d.db.ListPendingOutbox(drainBatch)
	if err != nil {
		log.Printf("outbox: list pending: %v", err)
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if err := d.client.Publish(msg.Topic, msg.Payload); err != nil {
			log.Printf("outbox: publish msg %d to %s: %v", msg.ID, msg.Topic, err)
			if err := d.db.IncrementOutboxRetries(msg.ID); err != nil {
				log.Printf("outbox: bump retries %d: %v", msg.ID, err)
			}
			return sent
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			log.Printf("outbox: ack msg %d: %v", msg.ID, err)
			return sent
		}
		sent++
	}
	return sent
}
