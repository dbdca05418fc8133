package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/jobstore"
	"github.com/hayley-d/distributed-priority-queue/internal/loadbalancer"
	"github.com/hayley-d/distributed-priority-queue/internal/manager"
)

func TestHandleEnqueueBuffersRequest(t *testing.T) {
	bal := loadbalancer.New(nil, nil)
	front := manager.New(clock.New(), bal)
	router := NewManagerRouter(front)

	body, _ := json.Marshal(enqueueRequestBody{Priority: 5, Payload: []byte("hi")})
	req := httptest.NewRequest(http.MethodPost, "/enqueue", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, bal.BufferLen())
}

func TestHandleDequeueEmptyHeap(t *testing.T) {
	h := heap.New(0)
	store := jobstore.NewMemoryStore()
	router := NewNodeRouter(h, store, clock.New())

	req := httptest.NewRequest(http.MethodGet, "/dequeue", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `"EmptyHeapError"`, rec.Body.String())
}

func TestHandleDequeueReturnsTopJob(t *testing.T) {
	h := heap.New(0)
	store := jobstore.NewMemoryStore()
	jobID, err := store.Insert(context.Background(), 5, []byte("payload"))
	require.NoError(t, err)
	h.Insert(5, jobID, 0)

	router := NewNodeRouter(h, store, clock.New())
	req := httptest.NewRequest(http.MethodGet, "/dequeue", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dequeueResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobID, resp.JobID)
	assert.Equal(t, []byte("payload"), resp.Payload)
}

func TestHandleDequeueBatchNonNumericAmount(t *testing.T) {
	h := heap.New(0)
	store := jobstore.NewMemoryStore()
	router := NewNodeRouter(h, store, clock.New())

	req := httptest.NewRequest(http.MethodGet, "/dequeue/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `"Provided non numerical amount"`, rec.Body.String())
}

func TestHandleDequeueBatchEmptiesMidBatch(t *testing.T) {
	h := heap.New(0)
	store := jobstore.NewMemoryStore()
	jobID, err := store.Insert(context.Background(), 5, []byte("x"))
	require.NoError(t, err)
	h.Insert(5, jobID, 0)

	router := NewNodeRouter(h, store, clock.New())
	req := httptest.NewRequest(http.MethodGet, "/dequeue/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `"EmptyHeapError"`, rec.Body.String())
}

func TestHandleUpdateUpdatesHeapAndStore(t *testing.T) {
	h := heap.New(0)
	store := jobstore.NewMemoryStore()
	jobID, err := store.Insert(context.Background(), 5, []byte("x"))
	require.NoError(t, err)
	h.Insert(5, jobID, 0)

	router := NewNodeRouter(h, store, clock.New())
	body, _ := json.Marshal(updateRequestBody{JobID: jobID, Priority: 9})
	req := httptest.NewRequest(http.MethodPost, "/update", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	node, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, uint32(9), node.Priority)

	row, err := store.Select(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), row.Priority)
}

func TestHandleDequeueRecomputesAgingBeforeExtract(t *testing.T) {
	h := heap.New(1)
	store := jobstore.NewMemoryStore()
	lowJobID, err := store.Insert(context.Background(), 5, []byte("low"))
	require.NoError(t, err)
	highJobID, err := store.Insert(context.Background(), 100, []byte("high"))
	require.NoError(t, err)
	// with the clock advanced to 96 before dequeue recomputes, low ages to
	// 0 and high to 4, so low overtakes high.
	h.Insert(5, lowJobID, 0)
	h.Insert(100, highJobID, 0)

	clk := clock.New()
	for i := 0; i < 96; i++ {
		clk.Tick()
	}
	router := NewNodeRouter(h, store, clk)

	req := httptest.NewRequest(http.MethodGet, "/dequeue", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dequeueResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, lowJobID, resp.JobID)
}

func TestHandleUpdateMissingJobStillAttemptsStoreUpdate(t *testing.T) {
	h := heap.New(0)
	store := jobstore.NewMemoryStore()
	router := NewNodeRouter(h, store, clock.New())

	body, _ := json.Marshal(updateRequestBody{JobID: 999, Priority: 1})
	req := httptest.NewRequest(http.MethodPost, "/update", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "DatabaseError")
}
