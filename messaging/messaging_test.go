package messaging

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"swarmcore/config"
	"swarmcore/engine"
	"swarmcore/protocol"
	"swarmcore/store"
	"swarmcore/swarm"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "messaging.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakePublisher struct {
	connected bool
	failOn    string
	sent      []string
}

func (p *fakePublisher) IsConnected() bool { return p.connected }

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	if string(payload) == p.failOn {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, topic+":"+string(payload))
	return nil
}

func TestDrainPublishesInOrder(t *testing.T) {
	db := testDB(t)
	for _, p := range []string{"a", "b", "c"} {
		if err := db.EnqueueOutbox("swarm.notifications", []byte(p), "t", "core"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	pub := &fakePublisher{connected: true}
	d := NewOutboxDrainer(db, pub, 0)

	if n := d.drain(); n != 3 {
		t.Fatalf("sent = %d, want 3", n)
	}
	want := []string{"swarm.notifications:a", "swarm.notifications:b", "swarm.notifications:c"}
	for i, w := range want {
		if pub.sent[i] != w {
			t.Errorf("sent[%d] = %q, want %q", i, pub.sent[i], w)
		}
	}
	if msgs, _ := db.ListPendingOutbox(10); len(msgs) != 0 {
		t.Errorf("pending = %d, want 0", len(msgs))
	}
}

func TestDrainStopsAtFailure(t *testing.T) {
	db := testDB(t)
	for _, p := range []string{"a", "b", "c"} {
		db.EnqueueOutbox("topic", []byte(p), "t", "core")
	}
	pub := &fakePublisher{connected: true, failOn: "b"}
	d := NewOutboxDrainer(db, pub, 0)

	if n := d.drain(); n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
	msgs, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || string(msgs[0].Payload) != "b" {
		t.Fatalf("unexpected pending: %+v", msgs)
	}
	if msgs[0].Retries != 1 || msgs[1].Retries != 0 {
		t.Errorf("retries = %d/%d, want 1/0", msgs[0].Retries, msgs[1].Retries)
	}

	pub.failOn = ""
	if n := d.drain(); n != 2 {
		t.Fatalf("second pass sent = %d, want 2", n)
	}
}

func TestDrainSkipsWhenDisconnected(t *testing.T) {
	db := testDB(t)
	db.EnqueueOutbox("topic", []byte("a"), "t", "core")
	pub := &fakePublisher{}
	if n := NewOutboxDrainer(db, pub, 0).drain(); n != 0 {
		t.Errorf("sent = %d while disconnected", n)
	}
}

// --- SwarmHandler ---

type handlerEnv struct {
	db       *store.DB
	eng      *engine.Engine
	ingestor *protocol.Ingestor
	ctrl     protocol.Address
	core     protocol.Address
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	db := testDB(t)
	cfg := config.Defaults()
	cfg.Messaging.Backend = ""
	eng, err := engine.New(engine.Config{AppConfig: cfg, DB: db, LogFunc: t.Logf})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(eng.Stop)

	h := NewSwarmHandler(eng, db, "swarmcore", "swarm.notifications")
	return &handlerEnv{
		db:       db,
		eng:      eng,
		ingestor: protocol.NewIngestor(h, h.Filter),
		ctrl:     protocol.Address{Role: protocol.RoleController, Station: "cell-1"},
		core:     protocol.Address{Role: protocol.RoleCore, Station: "swarmcore"},
	}
}

func (he *handlerEnv) send(t *testing.T, msgType string, payload any) *protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelope(msgType, he.ctrl, he.core, payload)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	he.ingestor.HandleRaw(data)
	return env
}

// lastReply decodes the newest pending outbox message.
func (he *handlerEnv) lastReply(t *testing.T) *protocol.Envelope {
	t.Helper()
	msgs, err := he.db.ListPendingOutbox(100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(msgs) == 0 {
		t.Fatal("no reply queued")
	}
	var env protocol.Envelope
	if err := json.Unmarshal(msgs[len(msgs)-1].Payload, &env); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return &env
}

func TestHandlerRegisterAck(t *testing.T) {
	he := newHandlerEnv(t)
	req := he.send(t, protocol.TypeRobotRegister, &protocol.RobotRegister{RobotID: 5})

	reply := he.lastReply(t)
	if reply.Type != protocol.TypeOpAck {
		t.Fatalf("reply type = %q, want %q", reply.Type, protocol.TypeOpAck)
	}
	if reply.CorID != req.ID {
		t.Errorf("cor = %q, want %q", reply.CorID, req.ID)
	}
	if reply.Dst != he.ctrl {
		t.Errorf("dst = %+v, want %+v", reply.Dst, he.ctrl)
	}
	if _, err := he.eng.Robot(5); err != nil {
		t.Errorf("robot not registered: %v", err)
	}
}

func TestHandlerPullAssignsCommand(t *testing.T) {
	he := newHandlerEnv(t)
	he.send(t, protocol.TypeLocationRegister, &protocol.LocationRegister{LocationID: 2, X: 7, Y: 8})
	he.send(t, protocol.TypeRobotRegister, &protocol.RobotRegister{RobotID: 1})
	robot := swarm.RobotID(1)
	he.send(t, protocol.TypeCommandEnqueue, &protocol.CommandEnqueue{RobotID: &robot, Command: swarm.GoToLocation(2)})
	he.send(t, protocol.TypeCommandPull, &protocol.CommandPull{RobotID: 1})

	reply := he.lastReply(t)
	if reply.Type != protocol.TypeCommandAssigned {
		t.Fatalf("reply type = %q, want %q", reply.Type, protocol.TypeCommandAssigned)
	}
	var a protocol.CommandAssigned
	if err := reply.DecodePayload(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Command != swarm.GoToLocation(2) {
		t.Errorf("command = %v", a.Command)
	}
	if a.Coordinate == nil || *a.Coordinate != (swarm.Coordinate{X: 7, Y: 8}) {
		t.Errorf("coordinate = %v, want (7,8)", a.Coordinate)
	}
}

func TestHandlerErrorsCarryCode(t *testing.T) {
	he := newHandlerEnv(t)
	he.send(t, protocol.TypeRobotRegister, &protocol.RobotRegister{RobotID: 1})

	cases := []struct {
		msgType string
		payload any
		code    string
	}{
		{protocol.TypeCommandPull, &protocol.CommandPull{RobotID: 1}, "queue_empty"},
		{protocol.TypeCommandPull, &protocol.CommandPull{RobotID: 9}, "invalid_robot_id"},
		{protocol.TypeRobotRegister, &protocol.RobotRegister{RobotID: 1}, "already_registered"},
		{protocol.TypeCommandComplete, &protocol.CommandComplete{RobotID: 1}, "not_in_flight"},
		{protocol.TypeLocationStatus, &protocol.LocationStatus{LocationID: 1, Status: swarm.OccupancyOccupied}, "invalid_command"},
		{protocol.TypeCommandEnqueue, &protocol.CommandEnqueue{Command: swarm.GoToLocation(4)}, "invalid_location_id"},
	}
	for _, tc := range cases {
		he.send(t, tc.msgType, tc.payload)
		reply := he.lastReply(t)
		if reply.Type != protocol.TypeOpError {
			t.Errorf("%s: reply type = %q, want op.error", tc.msgType, reply.Type)
			continue
		}
		var e protocol.OpError
		if err := reply.DecodePayload(&e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.Code != tc.code || e.Op != tc.msgType {
			t.Errorf("%s: error = %+v, want code %q", tc.msgType, e, tc.code)
		}
	}
}

func TestHandlerFilter(t *testing.T) {
	h := NewSwarmHandler(nil, nil, "swarmcore", "n")
	cases := []struct {
		dst  protocol.Address
		want bool
	}{
		{protocol.Address{Role: protocol.RoleCore, Station: "swarmcore"}, true},
		{protocol.Address{Role: protocol.RoleCore, Station: "*"}, true},
		{protocol.Address{Role: protocol.RoleCore, Station: "other"}, false},
		{protocol.Address{Role: protocol.RoleController, Station: "swarmcore"}, false},
	}
	for _, tc := range cases {
		if got := h.Filter(&protocol.RawHeader{Dst: tc.dst}); got != tc.want {
			t.Errorf("Filter(%+v) = %v, want %v", tc.dst, got, tc.want)
		}
	}
}
