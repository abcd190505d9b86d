package www

import (
	"errors"
	"net/http"

	"swarmcore/dispatch"
	"swarmcore/swarm"
)

// opResponse is the body of every successful mutating call.
type opResponse struct {
	Notifications []dispatch.Notification `json:"notifications"`
}

func (h *Handlers) committed(w http.ResponseWriter, res dispatch.Result, err error) {
	if err != nil {
		h.swarmError(w, err)
		return
	}
	notes := res.Notifications
	if notes == nil {
		notes = []dispatch.Notification{}
	}
	h.jsonOK(w, opResponse{Notifications: notes})
}

func (h *Handlers) apiRegisterRobot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID swarm.RobotID `json:"id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.RegisterRobot(h.actor(r), req.ID)
	h.committed(w, res, err)
}

func (h *Handlers) apiRegisterLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID           swarm.LocationID `json:"id"`
		X            uint32           `json:"x"`
		Y            uint32           `json:"y"`
		TaskCapacity int              `json:"task_capacity"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.RegisterLocation(h.actor(r), req.ID, swarm.Coordinate{X: req.X, Y: req.Y}, req.TaskCapacity)
	h.committed(w, res, err)
}

// apiEnqueueCommand queues to a robot when robot_id is given, otherwise
// to the global inbox.
func (h *Handlers) apiEnqueueCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RobotID *swarm.RobotID `json:"robot_id"`
		Command swarm.Command  `json:"command"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	var (
		res dispatch.Result
		err error
	)
	if req.RobotID == nil {
		res, err = h.engine.EnqueueGlobal(h.actor(r), req.Command)
	} else {
		res, err = h.engine.EnqueueFor(h.actor(r), *req.RobotID, req.Command)
	}
	h.committed(w, res, err)
}

func (h *Handlers) apiAssignGlobal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	res, err := h.engine.AssignGlobal(h.actor(r), id)
	h.committed(w, res, err)
}

// apiPullNext answers 204 when there is nothing queued.
func (h *Handlers) apiPullNext(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	p, err := h.engine.PullNext(h.actor(r), id)
	if errors.Is(err, swarm.ErrQueueEmpty) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.swarmError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{
		"command":       p.Command,
		"coordinate":    p.Coordinate,
		"notifications": p.Notifications,
	})
}

func (h *Handlers) apiReportCompletion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Success bool `json:"success"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.ReportCompletion(h.actor(r), id, req.Success)
	h.committed(w, res, err)
}

func (h *Handlers) apiExpire(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Details string `json:"details"`
	}
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.Expire(h.actor(r), id, req.Details)
	h.committed(w, res, err)
}

func (h *Handlers) apiOfferTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.locationParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Task swarm.TaskDefinition `json:"task"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.OfferTask(h.actor(r), id, req.Task)
	h.committed(w, res, err)
}

func (h *Handlers) apiSetLocationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.locationParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Status swarm.OccupancyKind `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	status, err := swarm.ParseLocationStatus(req.Status)
	if err != nil {
		h.swarmError(w, err)
		return
	}
	res, err := h.engine.SetLocationStatus(h.actor(r), id, status)
	h.committed(w, res, err)
}

func (h *Handlers) apiAdvanceTick(w http.ResponseWriter, r *http.Request) {
	tick, err := h.engine.AdvanceTick()
	if err != nil {
		h.swarmError(w, err)
		return
	}
	h.jsonOK(w, map[string]uint64{"tick": tick})
}
