// Package httpapi is the client-facing HTTP surface: POST /enqueue on
// the enqueue manager, GET /dequeue, GET /dequeue/{amount}, and
// POST /update on leader/follower processes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/op/go-logging"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/jobstore"
	"github.com/hayley-d/distributed-priority-queue/internal/manager"
)

var logger = logging.MustGetLogger("httpapi")

// errEmptyHeap signals dequeueOne extracted nothing; handlers translate
// it to the literal "EmptyHeapError" body.
var errEmptyHeap = errors.New("httpapi: heap empty")

type enqueueRequestBody struct {
	Priority uint32 `json:"priority"`
	Payload  []byte `json:"payload"`
}

type enqueueResponseBody struct {
	Message string  `json:"message"`
	JobID   *uint64 `json:"job_id,omitempty"`
}

type dequeueResponseBody struct {
	JobID    uint64 `json:"job_id"`
	Priority uint32 `json:"priority"`
	Payload  []byte `json:"payload"`
}

type dequeueBatchResponseBody struct {
	Jobs []dequeueResponseBody `json:"jobs"`
}

type updateRequestBody struct {
	Priority uint32 `json:"priority"`
	JobID    uint64 `json:"job_id"`
}

type updateResponseBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("httpapi: encode response: %v", err)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`"` + body + `"`))
}

// NewManagerRouter builds the enqueue manager's router: POST /enqueue.
func NewManagerRouter(front *manager.Front) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/enqueue", handleEnqueue(front)).Methods(http.MethodPost)
	return r
}

// NewNodeRouter builds the shared router mounted on leader/follower
// processes: GET /dequeue, GET /dequeue/{amount}, POST /update. clk is
// the node's own logical clock; every route that touches the heap
// recomputes effective priorities against it first.
func NewNodeRouter(h *heap.AgingHeap, store jobstore.Store, clk *clock.Lamport) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/dequeue", handleDequeue(h, store, clk)).Methods(http.MethodGet)
	r.HandleFunc("/dequeue/{amount}", handleDequeueBatch(h, store, clk)).Methods(http.MethodGet)
	r.HandleFunc("/update", handleUpdate(h, store, clk)).Methods(http.MethodPost)
	return r
}

func handleEnqueue(front *manager.Front) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body enqueueRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusInternalServerError, enqueueResponseBody{Message: "malformed request body"})
			return
		}
		front.Enqueue(body.Priority, body.Payload)
		writeJSON(w, http.StatusOK, enqueueResponseBody{Message: "enqueued"})
	}
}

// dequeueOne recomputes effective priorities against clk's current tick,
// extracts the top heap node, and reads its payload from the store. The
// heap and store can briefly disagree (a node's row is only ever written
// by the leader that committed it) so a store miss still maps to
// DatabaseError rather than silently dropping the payload.
func dequeueOne(ctx context.Context, h *heap.AgingHeap, store jobstore.Store, clk *clock.Lamport) (dequeueResponseBody, error) {
	h.Recompute(clk.Now())
	node, ok := h.ExtractTop()
	if !ok {
		return dequeueResponseBody{}, errEmptyHeap
	}
	job, err := store.Select(ctx, node.JobID)
	if err != nil {
		return dequeueResponseBody{}, err
	}
	return dequeueResponseBody{JobID: node.JobID, Priority: node.EffectivePriority, Payload: job.Payload}, nil
}

func handleDequeue(h *heap.AgingHeap, store jobstore.Store, clk *clock.Lamport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := dequeueOne(r.Context(), h, store, clk)
		if err == errEmptyHeap {
			writeErrorBody(w, http.StatusInternalServerError, "EmptyHeapError")
			return
		}
		if err != nil {
			writeErrorBody(w, http.StatusInternalServerError, "DatabaseError: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func handleDequeueBatch(h *heap.AgingHeap, store jobstore.Store, clk *clock.Lamport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amountStr := mux.Vars(r)["amount"]
		amount, err := strconv.Atoi(amountStr)
		if err != nil {
			writeErrorBody(w, http.StatusInternalServerError, "Provided non numerical amount")
			return
		}

		jobs := make([]dequeueResponseBody, 0, amount)
		for i := 0; i < amount; i++ {
			body, err := dequeueOne(r.Context(), h, store, clk)
			if err == errEmptyHeap {
				writeErrorBody(w, http.StatusInternalServerError, "EmptyHeapError")
				return
			}
			if err != nil {
				writeErrorBody(w, http.StatusInternalServerError, "DatabaseError: "+err.Error())
				return
			}
			jobs = append(jobs, body)
		}
		writeJSON(w, http.StatusOK, dequeueBatchResponseBody{Jobs: jobs})
	}
}

func handleUpdate(h *heap.AgingHeap, store jobstore.Store, clk *clock.Lamport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErrorBody(w, http.StatusInternalServerError, "malformed request body")
			return
		}

		// heap updated before the store; does not verify job_id exists
		// first, the heap silently no-ops if it is missing.
		h.Recompute(clk.Now())
		h.ChangePriority(body.JobID, body.Priority)

		if err := store.UpdatePriority(r.Context(), body.JobID, body.Priority); err != nil {
			writeErrorBody(w, http.StatusInternalServerError, "DatabaseError: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updateResponseBody{Message: "updated"})
	}
}
