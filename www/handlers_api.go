package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"swarmcore/swarm"
)

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{
		"status":    "ok",
		"messaging": h.engine.MessagingConnected(),
		"sse":       h.eventHub.ClientCount(),
	})
}

func (h *Handlers) apiSwarmSummary(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Snapshot()
	h.jsonOK(w, map[string]any{
		"tick":          st.Tick,
		"robots":        len(st.Robots),
		"active_robots": st.ActiveRobots,
		"locations":     len(st.Locations),
		"global_depth":  h.engine.Cache().GlobalDepth(),
		"queue_mode":    h.engine.Dispatcher().Mode(),
		"limits":        st.Limits,
	})
}

func (h *Handlers) apiListRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := h.engine.Cache().Robots()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, robots)
}

func (h *Handlers) apiGetRobot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	robot, err := h.engine.Cache().Robot(id)
	if err != nil {
		h.swarmError(w, err)
		return
	}
	h.jsonOK(w, robot)
}

func (h *Handlers) apiRobotQueue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	cmds, err := h.engine.Queue(id)
	if err != nil {
		h.swarmError(w, err)
		return
	}
	h.jsonOK(w, nonNil(cmds))
}

func (h *Handlers) apiRobotAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.robotParam(w, r)
	if !ok {
		return
	}
	entries, err := h.engine.DB().ListEntityAudit("robot", int64(id))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiListLocations(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Locations())
}

func (h *Handlers) apiGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.locationParam(w, r)
	if !ok {
		return
	}
	loc, err := h.engine.Cache().Location(id)
	if err != nil {
		h.swarmError(w, err)
		return
	}
	h.jsonOK(w, loc)
}

func (h *Handlers) apiGlobalQueue(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, nonNil(h.engine.GlobalQueue()))
}

func (h *Handlers) apiListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.jsonError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.engine.DB().ListAuditLog(limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

// --- helpers ---

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// swarmError writes a rejected operation with its stable error code.
func (h *Handlers) swarmError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "code": swarm.Code(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, swarm.ErrInvalidRobotID), errors.Is(err, swarm.ErrInvalidLocationID):
		return http.StatusNotFound
	case errors.Is(err, swarm.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, swarm.ErrAlreadyRegistered),
		errors.Is(err, swarm.ErrQueueFull),
		errors.Is(err, swarm.ErrCapacityFull),
		errors.Is(err, swarm.ErrOccupancyConflict),
		errors.Is(err, swarm.ErrTaskNotAvailable),
		errors.Is(err, swarm.ErrNotInFlight),
		errors.Is(err, swarm.ErrWrongQueueMode):
		return http.StatusConflict
	case errors.Is(err, swarm.ErrQueueEmpty):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) robotParam(w http.ResponseWriter, r *http.Request) (swarm.RobotID, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		h.jsonError(w, "invalid robot id", http.StatusBadRequest)
		return 0, false
	}
	return swarm.RobotID(n), true
}

func (h *Handlers) locationParam(w http.ResponseWriter, r *http.Request) (swarm.LocationID, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		h.jsonError(w, "invalid location id", http.StatusBadRequest)
		return 0, false
	}
	return swarm.LocationID(n), true
}

func nonNil(cmds []swarm.Command) []swarm.Command {
	if cmds == nil {
		return []swarm.Command{}
	}
	return cmds
}
