package protocol

import (
	"encoding/json"
	"log"
)

// FilterFunc returns true if the message should be processed.
type FilterFunc func(hdr *RawHeader) bool

// MessageHandler defines callbacks for all protocol message types.
// Embed NoOpHandler and override only the methods you need.
type MessageHandler interface {
	// Controller -> Core
	HandleRobotRegister(env *Envelope, p *RobotRegister)
	HandleLocationRegister(env *Envelope, p *LocationRegister)
	HandleCommandEnqueue(env *Envelope, p *CommandEnqueue)
	HandleAssignGlobal(env *Envelope, p *AssignGlobal)
	HandleCommandPull(env *Envelope, p *CommandPull)
	HandleCommandComplete(env *Envelope, p *CommandComplete)
	HandleTaskOffer(env *Envelope, p *TaskOffer)
	HandleLocationStatus(env *Envelope, p *LocationStatus)

	// Core -> Controller
	HandleCommandAssigned(env *Envelope, p *CommandAssigned)
	HandleOpAck(env *Envelope, p *OpAck)
	HandleOpError(env *Envelope, p *OpError)
	HandleNotification(env *Envelope, p *Notification)
}

// Ingestor performs two-phase decode and dispatches to a MessageHandler.
type Ingestor struct {
	handler MessageHandler
	filter  FilterFunc
}

func NewIngestor(handler MessageHandler, filter FilterFunc) *Ingestor {
	return &Ingestor{
		handler: handler,
		filter:  filter,
	}
}

// HandleRaw is the entry point for raw message bytes from the messaging layer.
func (ing *Ingestor) HandleRaw(data []byte) {
	// Phase 1: decode routing header only
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		log.Printf("protocol: header decode error: %v", err)
		return
	}
	if hdr.Version != Version {
		log.Printf("protocol: dropping message %s with version %d", hdr.ID, hdr.Version)
		return
	}
	if IsExpiredHeader(&hdr) {
		log.Printf("protocol: dropping expired message %s (type=%s)", hdr.ID, hdr.Type)
		return
	}
	if ing.filter != nil && !ing.filter(&hdr) {
		return
	}

	// Phase 2: full envelope decode
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("protocol: envelope decode error: %v", err)
		return
	}

	switch env.Type {
	case TypeRobotRegister:
		decodeAndCall(ing.handler.HandleRobotRegister, &env)
	case TypeLocationRegister:
		decodeAndCall(ing.handler.HandleLocationRegister, &env)
	case TypeCommandEnqueue:
		decodeAndCall(ing.handler.HandleCommandEnqueue, &env)
	case TypeAssignGlobal:
		decodeAndCall(ing.handler.HandleAssignGlobal, &env)
	case TypeCommandPull:
		decodeAndCall(ing.handler.HandleCommandPull, &env)
	case TypeCommandComplete:
		decodeAndCall(ing.handler.HandleCommandComplete, &env)
	case TypeTaskOffer:
		decodeAndCall(ing.handler.HandleTaskOffer, &env)
	case TypeLocationStatus:
		decodeAndCall(ing.handler.HandleLocationStatus, &env)
	case TypeCommandAssigned:
		decodeAndCall(ing.handler.HandleCommandAssigned, &env)
	case TypeOpAck:
		decodeAndCall(ing.handler.HandleOpAck, &env)
	case TypeOpError:
		decodeAndCall(ing.handler.HandleOpError, &env)
	case TypeNotification:
		decodeAndCall(ing.handler.HandleNotification, &env)
	default:
		log.Printf("protocol: unknown message type: %s", env.Type)
	}
}

// decodeAndCall unmarshals the payload and calls the handler method.
func decodeAndCall[T any](fn func(*Envelope, *T), env *Envelope) {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Printf("protocol: payload decode error for %s: %v", env.Type, err)
		return
	}
	fn(env, &p)
}
