package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TaskInfo is the polymorphic task payload, keyed by a persisted type tag.
// Only the render variant exists today; new variants plug in through
// decodeTaskInfo without touching the model elsewhere.
type TaskInfo interface {
	InfoType() string
}

type RenderTaskInfo struct {
	Frame      int    `json:"frame"`
	Resolution [2]int `json:"resolution"`
}

func (RenderTaskInfo) InfoType() string { return InfoTypeRender }

// Task is one frame's worth of work within a Job, assignable to exactly one
// worker at a time. The job_id back-reference is a relation only; the owning
// Job controls the Task's lifetime.
type Task struct {
	TaskID         string
	JobID          string
	Ignore         bool
	InProgress     bool
	Complete       bool
	Info           TaskInfo
	WorkersHolding []string
}

func NewRenderTask(jobID string, info *RenderTaskInfo) *Task {
	return &Task{
		TaskID: uuid.New().String(),
		JobID:  jobID,
		Info:   info,
	}
}

// Assignable reports whether the scheduler may hand this task out. Ignored
// tasks are skipped permanently, complete is terminal, and an in-progress
// task stays unavailable until its result is reported.
func (t *Task) Assignable() bool {
	return !t.Ignore && !t.Complete && !t.InProgress
}

func (t *Task) HoldBy(worker string) {
	for _, w := range t.WorkersHolding {
		if w == worker {
			return
		}
	}
	t.WorkersHolding = append(t.WorkersHolding, worker)
}

func (t *Task) Release(worker string) {
	for i, w := range t.WorkersHolding {
		if w == worker {
			t.WorkersHolding = append(t.WorkersHolding[:i], t.WorkersHolding[i+1:]...)
			if len(t.WorkersHolding) == 0 {
				t.WorkersHolding = nil
			}
			return
		}
	}
}

type taskDoc struct {
	TaskID         string          `json:"task_id"`
	JobID          string          `json:"job_id"`
	Ignore         bool            `json:"ignore"`
	InProgress     bool            `json:"in_progress"`
	Complete       bool            `json:"complete"`
	InfoType       string          `json:"task_info_type"`
	Info           json.RawMessage `json:"task_info"`
	WorkersHolding []string        `json:"workers_holding,omitempty"`
}

func (t *Task) MarshalJSON() ([]byte, error) {
	doc := taskDoc{
		TaskID:         t.TaskID,
		JobID:          t.JobID,
		Ignore:         t.Ignore,
		InProgress:     t.InProgress,
		Complete:       t.Complete,
		WorkersHolding: t.WorkersHolding,
	}
	if t.Info != nil {
		raw, err := json.Marshal(t.Info)
		if err != nil {
			return nil, errors.Wrap(err, "task.MarshalJSON.Info")
		}
		doc.InfoType = t.Info.InfoType()
		doc.Info = raw
	}
	return json.Marshal(doc)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var doc taskDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "task.UnmarshalJSON")
	}
	t.TaskID = doc.TaskID
	t.JobID = doc.JobID
	t.Ignore = doc.Ignore
	t.InProgress = doc.InProgress
	t.Complete = doc.Complete
	t.WorkersHolding = doc.WorkersHolding
	info, err := decodeTaskInfo(doc.InfoType, doc.Info)
	if err != nil {
		return err
	}
	t.Info = info
	return nil
}

func decodeTaskInfo(infoType string, raw json.RawMessage) (TaskInfo, error) {
	switch infoType {
	case InfoTypeRender:
		info := &RenderTaskInfo{}
		if err := json.Unmarshal(raw, info); err != nil {
			return nil, errors.Wrap(err, "task.decodeTaskInfo.render")
		}
		return info, nil
	case "":
		return nil, nil
	default:
		return nil, errors.Errorf("unknown task info type %q", infoType)
	}
}
