package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type JobStatus string

const (
	// No task has been handed out yet.
	JobStatusPending JobStatus = "pending"
	// At least one task has been assigned.
	JobStatusWorking JobStatus = "working"
	// Every non-ignored task is complete.
	JobStatusComplete JobStatus = "complete"
	// Reserved: the protocol carries no failure report yet, so nothing
	// produces this status today.
	JobStatusFailed JobStatus = "failed"
	// Operator override: no new assignments, results still accepted.
	JobStatusPaused JobStatus = "paused"
)

const InfoTypeRender = "render"

// JobInfo is the polymorphic job payload, keyed by a persisted type tag.
type JobInfo interface {
	InfoType() string
}

// RenderJobInfo describes a render job: frames [FrameRange[0], FrameRange[1])
// of the scene file at FileURL, at Resolution.
type RenderJobInfo struct {
	FileURL    string `json:"file_url" validate:"required,url"`
	FrameRange [2]int `json:"frame_range" validate:"required"`
	Resolution [2]int `json:"resolution"`
}

func (RenderJobInfo) InfoType() string { return InfoTypeRender }

// Job is a unit of submitted render work decomposed into Tasks. The Job owns
// its Tasks; the store owns the Job.
type Job struct {
	JobID        string
	Status       JobStatus
	Info         JobInfo
	Tasks        []*Task
	WorkingTasks []string
}

// NewRenderJob materializes one task per frame of the half-open range, in
// frame order. Each task gets its own copy of the resolution, so editing the
// job info later does not rewrite already-materialized tasks.
func NewRenderJob(info *RenderJobInfo) *Job {
	if info.Resolution == [2]int{} {
		info.Resolution = [2]int{1920, 1080}
	}
	job := &Job{
		JobID:  uuid.New().String(),
		Status: JobStatusPending,
		Info:   info,
	}
	for frame := info.FrameRange[0]; frame < info.FrameRange[1]; frame++ {
		job.Tasks = append(job.Tasks, NewRenderTask(job.JobID, &RenderTaskInfo{
			Frame:      frame,
			Resolution: info.Resolution,
		}))
	}
	return job
}

// Schedulable reports whether the scheduler may assign tasks from this job.
func (j *Job) Schedulable() bool {
	switch j.Status {
	case JobStatusPending, JobStatusWorking:
		return true
	}
	return false
}

// NextAssignableTask returns the first assignable task in insertion order, or
// nil. Callers must hold the store lock; checking and flipping in_progress
// must be one critical section.
func (j *Job) NextAssignableTask() *Task {
	for _, t := range j.Tasks {
		if t.Assignable() {
			return t
		}
	}
	return nil
}

func (j *Job) Task(taskID string) *Task {
	for _, t := range j.Tasks {
		if t.TaskID == taskID {
			return t
		}
	}
	return nil
}

// Assign hands the task to worker and records the transition on the job.
func (j *Job) Assign(t *Task, worker string) {
	t.InProgress = true
	t.HoldBy(worker)
	j.WorkingTasks = append(j.WorkingTasks, t.TaskID)
	if j.Status == JobStatusPending {
		j.Status = JobStatusWorking
	}
}

// CompleteTask records a reported result. Complete is terminal; in_progress
// clears so the slot is released, and the job flips to complete once every
// non-ignored task is done. A paused job accepts results but keeps its
// operator-set status.
func (j *Job) CompleteTask(t *Task, worker string) {
	t.Complete = true
	t.InProgress = false
	t.Release(worker)
	for i, id := range j.WorkingTasks {
		if id == t.TaskID {
			j.WorkingTasks = append(j.WorkingTasks[:i], j.WorkingTasks[i+1:]...)
			if len(j.WorkingTasks) == 0 {
				j.WorkingTasks = nil
			}
			break
		}
	}
	if j.Status == JobStatusWorking && j.AllTasksComplete() {
		j.Status = JobStatusComplete
	}
}

// AllTasksComplete reports whether every non-ignored task has a result.
func (j *Job) AllTasksComplete() bool {
	for _, t := range j.Tasks {
		if !t.Ignore && !t.Complete {
			return false
		}
	}
	return true
}

type jobDoc struct {
	JobID        string          `json:"job_id"`
	Status       JobStatus       `json:"status"`
	InfoType     string          `json:"job_info_type"`
	Info         json.RawMessage `json:"job_info"`
	Tasks        []*Task         `json:"tasks,omitempty"`
	WorkingTasks []string        `json:"working_tasks,omitempty"`
}

func (j *Job) doc(net bool) (*jobDoc, error) {
	doc := &jobDoc{
		JobID:  j.JobID,
		Status: j.Status,
	}
	if j.Info != nil {
		raw, err := json.Marshal(j.Info)
		if err != nil {
			return nil, errors.Wrap(err, "job.doc.Info")
		}
		doc.InfoType = j.Info.InfoType()
		doc.Info = raw
	}
	if !net {
		doc.Tasks = j.Tasks
		doc.WorkingTasks = j.WorkingTasks
	}
	return doc, nil
}

func (j *Job) MarshalJSON() ([]byte, error) {
	doc, err := j.doc(false)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// NetJSON is the network form: the task list is omitted to bound response
// size, everything else matches the persisted form.
func (j *Job) NetJSON() (json.RawMessage, error) {
	doc, err := j.doc(true)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (j *Job) UnmarshalJSON(data []byte) error {
	var doc jobDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "job.UnmarshalJSON")
	}
	j.JobID = doc.JobID
	j.Status = doc.Status
	j.Tasks = doc.Tasks
	j.WorkingTasks = doc.WorkingTasks
	switch doc.InfoType {
	case InfoTypeRender:
		info := &RenderJobInfo{}
		if err := json.Unmarshal(doc.Info, info); err != nil {
			return errors.Wrap(err, "job.UnmarshalJSON.render")
		}
		j.Info = info
	case "":
		j.Info = nil
	default:
		return errors.Errorf("unknown job info type %q", doc.InfoType)
	}
	return nil
}
