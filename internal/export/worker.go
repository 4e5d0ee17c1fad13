// Package export renders data product snapshots to downloadable artifacts.
// Jobs run asynchronously on a single worker goroutine; artifacts are written
// to a blob store and tracked per job.
package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"datamesh/internal/blob"
	"datamesh/internal/core"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// Status describes the lifecycle stage of an export job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Source provides the product state to export. Data products satisfy it
// through their Snapshot method.
type Source interface {
	Snapshot() core.Snapshot
}

// Artifact describes one stored export output.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Job tracks an export request and its resulting artifacts.
type Job struct {
	ID          string     `json:"id"`
	Product     string     `json:"data_product"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (j Job) copy() Job {
	cp := j
	cp.Formats = append([]Format(nil), j.Formats...)
	cp.Artifacts = append([]Artifact(nil), j.Artifacts...)
	if j.CompletedAt != nil {
		completed := *j.CompletedAt
		cp.CompletedAt = &completed
	}
	return cp
}

// Request enqueues a product export.
type Request struct {
	Source      Source
	Formats     []Format
	RequestedBy string
	Reason      string
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Product    string    `json:"data_product"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Worker executes export jobs asynchronously.
type Worker struct {
	store blob.Store
	audit AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id     string
	source Source
}

// NewWorker constructs an export worker writing artifacts to store. The audit
// logger may be nil.
func NewWorker(store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing queued jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, req Request) (Job, error) {
	if req.Source == nil {
		return Job{}, fmt.Errorf("export source required")
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	seen := make(map[Format]struct{}, len(formats))
	uniq := make([]Format, 0, len(formats))
	for _, format := range formats {
		switch format {
		case FormatJSON, FormatCSV, FormatSQLite:
		default:
			return Job{}, fmt.Errorf("unsupported export format %q", format)
		}
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}
		uniq = append(uniq, format)
	}

	name := req.Source.Snapshot().Metadata.Name
	id := newID()
	now := time.Now().UTC()
	job := Job{
		ID:          id,
		Product:     name,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &job
	queued := job.copy()
	w.mu.Unlock()

	w.record(ctx, AuditEntry{
		ID:         newID(),
		Action:     "product_export",
		Actor:      req.RequestedBy,
		Product:    name,
		Status:     StatusQueued,
		Reason:     req.Reason,
		OccurredAt: now,
	})

	select {
	case w.queue <- task{id: id, source: req.Source}:
	default:
		return Job{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// GetJob returns a snapshot of the job record.
func (w *Worker) GetJob(id string) (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

func (w *Worker) process(t task) {
	w.setStatus(t.id, StatusRunning, "")

	snap := t.source.Snapshot()
	w.mu.RLock()
	job, ok := w.jobs[t.id]
	var formats []Format
	if ok {
		formats = append(formats, job.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		payload, contentType, err := materialize(format, snap)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		artifact, err := w.storeArtifact(t.id, snap.Metadata.Name, format, contentType, payload)
		if err != nil {
			w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
			return
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(t.id, artifacts)
}

func (w *Worker) storeArtifact(jobID, name string, format Format, contentType string, payload []byte) (Artifact, error) {
	key := fmt.Sprintf("exports/%s/%s.%s", jobID, name, format)
	artifact := Artifact{
		Key:         key,
		Format:      format,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		CreatedAt:   time.Now().UTC(),
	}
	if w.store == nil {
		return artifact, nil
	}
	info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"data_product": name, "format": string(format)},
	})
	if err != nil {
		return Artifact{}, err
	}
	artifact.URL = info.URL
	if info.Size > 0 {
		artifact.SizeBytes = info.Size
	}
	return artifact, nil
}

func (w *Worker) setStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	product, actor := "", ""
	if job, ok := w.jobs[id]; ok {
		job.Status = status
		job.Error = message
		job.UpdatedAt = now
		product, actor = job.Product, job.RequestedBy
	}
	w.mu.Unlock()
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "product_export",
		Actor:      actor,
		Product:    product,
		Status:     status,
		Note:       message,
		OccurredAt: now,
	})
}

// complete and fail record their audit entry before flipping job status so
// that observers polling GetJob see a finished trail once the job is
// terminal.
func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	product, actor := w.identity(id)
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "product_export",
		Actor:      actor,
		Product:    product,
		Status:     StatusSucceeded,
		OccurredAt: now,
	})
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = StatusSucceeded
		job.Error = ""
		job.Artifacts = artifacts
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	w.mu.Unlock()
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	product, actor := w.identity(id)
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "product_export",
		Actor:      actor,
		Product:    product,
		Status:     StatusFailed,
		Note:       reason,
		OccurredAt: now,
	})
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = StatusFailed
		job.Error = reason
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	w.mu.Unlock()
}

func (w *Worker) identity(id string) (productName, actor string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if job, ok := w.jobs[id]; ok {
		return job.Product, job.RequestedBy
	}
	return "", ""
}

func (w *Worker) record(ctx context.Context, entry AuditEntry) {
	if w.audit != nil {
		w.audit.Record(ctx, entry)
	}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
