package web

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pixelhoard/gallery/internal/pipeline"
)

// JobStatus is the externally visible state of an enrichment job.
type JobStatus struct {
	ID         string             `json:"id"`
	Folder     string             `json:"folder"`
	Generation uint64             `json:"generation"`
	Pipelines  map[string]*Phase  `json:"pipelines"`
	Done       bool               `json:"done"`
	Stale      bool               `json:"stale"`
	Errors     []string           `json:"errors,omitempty"`
}

// Phase tracks one pipeline's progress within a job.
type Phase struct {
	Processed int  `json:"processed"`
	Total     int  `json:"total"`
	Done      bool `json:"done"`
}

// JobManager tracks enrichment jobs started by the load endpoint.
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
}

// NewJobManager creates an empty job manager.
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*JobStatus)}
}

// Create registers a new job and returns its ID.
func (m *JobManager) Create(folder string, generation uint64, pipelines ...pipeline.Name) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	job := &JobStatus{
		ID:         id,
		Folder:     folder,
		Generation: generation,
		Pipelines:  make(map[string]*Phase, len(pipelines)),
	}
	for _, name := range pipelines {
		job.Pipelines[string(name)] = &Phase{}
	}
	m.jobs[id] = job
	return id
}

// Get returns a snapshot of the job, or nil when unknown.
func (m *JobManager) Get(id string) *JobStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil
	}

	snapshot := *job
	snapshot.Pipelines = make(map[string]*Phase, len(job.Pipelines))
	for name, phase := range job.Pipelines {
		p := *phase
		snapshot.Pipelines[name] = &p
	}
	snapshot.Errors = append([]string(nil), job.Errors...)
	return &snapshot
}

// Apply folds a pipeline event into the job state.
func (m *JobManager) Apply(id string, ev pipeline.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return
	}

	phase, ok := job.Pipelines[string(ev.Pipeline)]
	if !ok {
		phase = &Phase{}
		job.Pipelines[string(ev.Pipeline)] = phase
	}
	phase.Processed = ev.Processed
	phase.Total = ev.Total
	if ev.Done {
		phase.Done = true
	}
	if ev.Stale {
		job.Stale = true
	}
	if ev.Err != nil {
		job.Errors = append(job.Errors, ev.Path+": "+ev.Err.Error())
	}

	job.Done = true
	for _, p := range job.Pipelines {
		if !p.Done {
			job.Done = false
			break
		}
	}
}
