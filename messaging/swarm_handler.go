package messaging

import (
	"log"

	"swarmcore/dispatch"
	"swarmcore/protocol"
	"swarmcore/swarm"
)

// SwarmOps is the set of engine operations reachable over messaging.
type SwarmOps interface {
	RegisterRobot(actor string, id swarm.RobotID) (dispatch.Result, error)
	RegisterLocation(actor string, id swarm.LocationID, coord swarm.Coordinate, taskCapacity int) (dispatch.Result, error)
	EnqueueGlobal(actor string, cmd swarm.Command) (dispatch.Result, error)
	EnqueueFor(actor string, robot swarm.RobotID, cmd swarm.Command) (dispatch.Result, error)
	AssignGlobal(actor string, robot swarm.RobotID) (dispatch.Result, error)
	PullNext(actor string, robot swarm.RobotID) (dispatch.PullResult, error)
	ReportCompletion(actor string, robot swarm.RobotID, success bool) (dispatch.Result, error)
	OfferTask(actor string, loc swarm.LocationID, task swarm.TaskDefinition) (dispatch.Result, error)
	SetLocationStatus(actor string, loc swarm.LocationID, status swarm.LocationStatus) (dispatch.Result, error)
}

// replyQueue is where replies are parked until the outbox drainer sends them.
type replyQueue interface {
	EnqueueOutbox(topic string, payload []byte, msgType, stationID string) error
}

// SwarmHandler turns inbound controller messages into engine operations
// and answers each one with command.assigned, op.ack or op.error on the
// notify topic.
type SwarmHandler struct {
	protocol.NoOpHandler

	ops       SwarmOps
	replies   replyQueue
	stationID string
	topic     string
}

func NewSwarmHandler(ops SwarmOps, replies replyQueue, stationID, notifyTopic string) *SwarmHandler {
	return &SwarmHandler{
		ops:       ops,
		replies:   replies,
		stationID: stationID,
		topic:     notifyTopic,
	}
}

// Filter accepts only messages addressed to this core.
func (h *SwarmHandler) Filter(hdr *protocol.RawHeader) bool {
	return hdr.Dst.Role == protocol.RoleCore &&
		(hdr.Dst.Station == h.stationID || hdr.Dst.Station == "*" || hdr.Dst.Station == "")
}

func actorOf(env *protocol.Envelope) string {
	return "controller:" + env.Src.Station
}

func (h *SwarmHandler) HandleRobotRegister(env *protocol.Envelope, p *protocol.RobotRegister) {
	_, err := h.ops.RegisterRobot(actorOf(env), p.RobotID)
	h.ack(env, err)
}

func (h *SwarmHandler) HandleLocationRegister(env *protocol.Envelope, p *protocol.LocationRegister) {
	_, err := h.ops.RegisterLocation(actorOf(env), p.LocationID, swarm.Coordinate{X: p.X, Y: p.Y}, p.TaskCapacity)
	h.ack(env, err)
}

func (h *SwarmHandler) HandleCommandEnqueue(env *protocol.Envelope, p *protocol.CommandEnqueue) {
	var err error
	if p.RobotID == nil {
		_, err = h.ops.EnqueueGlobal(actorOf(env), p.Command)
	} else {
		_, err = h.ops.EnqueueFor(actorOf(env), *p.RobotID, p.Command)
	}
	h.ack(env, err)
}

func (h *SwarmHandler) HandleAssignGlobal(env *protocol.Envelope, p *protocol.AssignGlobal) {
	_, err := h.ops.AssignGlobal(actorOf(env), p.RobotID)
	h.ack(env, err)
}

func (h *SwarmHandler) HandleCommandPull(env *protocol.Envelope, p *protocol.CommandPull) {
	res, err := h.ops.PullNext(actorOf(env), p.RobotID)
	if err != nil {
		h.ack(env, err)
		return
	}
	h.reply(env, protocol.TypeCommandAssigned, &protocol.CommandAssigned{
		RobotID:    p.RobotID,
		Command:    res.Command,
		Coordinate: res.Coordinate,
	})
}

func (h *SwarmHandler) HandleCommandComplete(env *protocol.Envelope, p *protocol.CommandComplete) {
	_, err := h.ops.ReportCompletion(actorOf(env), p.RobotID, p.Success)
	h.ack(env, err)
}

func (h *SwarmHandler) HandleTaskOffer(env *protocol.Envelope, p *protocol.TaskOffer) {
	_, err := h.ops.OfferTask(actorOf(env), p.LocationID, p.Task)
	h.ack(env, err)
}

func (h *SwarmHandler) HandleLocationStatus(env *protocol.Envelope, p *protocol.LocationStatus) {
	status, err := swarm.ParseLocationStatus(p.Status)
	if err == nil {
		_, err = h.ops.SetLocationStatus(actorOf(env), p.LocationID, status)
	}
	h.ack(env, err)
}

func (h *SwarmHandler) ack(env *protocol.Envelope, err error) {
	if err != nil {
		h.reply(env, protocol.TypeOpError, &protocol.OpError{
			Op:     env.Type,
			Code:   swarm.Code(err),
			Detail: err.Error(),
		})
		return
	}
	h.reply(env, protocol.TypeOpAck, &protocol.OpAck{Op: env.Type})
}

func (h *SwarmHandler) reply(env *protocol.Envelope, msgType string, payload any) {
	reply, err := protocol.NewReply(msgType,
		protocol.Address{Role: protocol.RoleCore, Station: h.stationID},
		env.Src, env.ID, payload)
	if err != nil {
		log.Printf("swarm_handler: build %s reply: %v", msgType, err)
		return
	}
	data, err := reply.Encode()
	if err != nil {
		log.Printf("swarm_handler: encode %s reply: %v", msgType, err)
		return
	}
	if err := h.replies.EnqueueOutbox(h.topic, data, msgType, h.stationID); err != nil {
		log.Printf("swarm_handler: enqueue %s reply to %s: %v", msgType, env.Src.Station, err)
	}
}
