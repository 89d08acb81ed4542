package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func renderInfo(start, end int) *RenderJobInfo {
	return &RenderJobInfo{
		FileURL:    "http://example.com/scene.blend",
		FrameRange: [2]int{start, end},
		Resolution: [2]int{1280, 720},
	}
}

func TestNewRenderJobMaterializesOneTaskPerFrame(t *testing.T) {
	job := NewRenderJob(renderInfo(0, 3))

	if job.Status != JobStatusPending {
		t.Fatalf("new job status = %s, want pending", job.Status)
	}
	if len(job.Tasks) != 3 {
		t.Fatalf("materialized %d tasks, want 3", len(job.Tasks))
	}
	for i, task := range job.Tasks {
		info := task.Info.(*RenderTaskInfo)
		if info.Frame != i {
			t.Fatalf("task %d renders frame %d, want %d", i, info.Frame, i)
		}
		if info.Resolution != [2]int{1280, 720} {
			t.Fatalf("task %d resolution = %v", i, info.Resolution)
		}
		if task.JobID != job.JobID {
			t.Fatalf("task %d back-reference = %q, want %q", i, task.JobID, job.JobID)
		}
	}
}

func TestTaskResolutionIsDenormalized(t *testing.T) {
	info := renderInfo(0, 1)
	job := NewRenderJob(info)

	info.Resolution = [2]int{64, 64}
	got := job.Tasks[0].Info.(*RenderTaskInfo).Resolution
	if got != [2]int{1280, 720} {
		t.Fatalf("job-level resolution change leaked into a materialized task: %v", got)
	}
}

func TestJobRoundTrip(t *testing.T) {
	job := NewRenderJob(renderInfo(4, 7))
	job.Assign(job.Tasks[0], "node-1")
	job.CompleteTask(job.Tasks[0], "node-1")
	job.Assign(job.Tasks[1], "node-2")
	job.Tasks[2].Ignore = true

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored := &Job{}
	if err = json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(job, restored) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", restored, job)
	}
}

func TestNetFormOmitsTasks(t *testing.T) {
	job := NewRenderJob(renderInfo(0, 5))

	net, err := job.NetJSON()
	if err != nil {
		t.Fatalf("NetJSON: %v", err)
	}
	var doc map[string]interface{}
	if err = json.Unmarshal(net, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["tasks"]; ok {
		t.Fatal("net form must omit the task list")
	}
	if doc["job_id"] != job.JobID {
		t.Fatalf("net form job_id = %v", doc["job_id"])
	}
	if doc["job_info_type"] != InfoTypeRender {
		t.Fatalf("net form job_info_type = %v", doc["job_info_type"])
	}
}

func TestUnknownInfoTypeIsAnError(t *testing.T) {
	data := []byte(`{"job_id":"j1","status":"pending","job_info_type":"simulate","job_info":{}}`)
	if err := json.Unmarshal(data, &Job{}); err == nil {
		t.Fatal("unknown job info type must fail to decode")
	}
}

func TestStatusTransitions(t *testing.T) {
	job := NewRenderJob(renderInfo(0, 2))
	job.Tasks[1].Ignore = true

	job.Assign(job.Tasks[0], "node-1")
	if job.Status != JobStatusWorking {
		t.Fatalf("status after first assignment = %s, want working", job.Status)
	}
	if !job.Tasks[0].InProgress {
		t.Fatal("assigned task not marked in progress")
	}

	// The ignored task does not hold the job open.
	job.CompleteTask(job.Tasks[0], "node-1")
	if job.Status != JobStatusComplete {
		t.Fatalf("status after last result = %s, want complete", job.Status)
	}
	if job.Tasks[0].InProgress {
		t.Fatal("completed task still in progress")
	}
	if len(job.WorkingTasks) != 0 {
		t.Fatalf("working task set not drained: %v", job.WorkingTasks)
	}
}

func TestNextAssignableTaskSkipRules(t *testing.T) {
	job := NewRenderJob(renderInfo(0, 4))
	job.Tasks[0].Ignore = true
	job.Tasks[1].Complete = true
	job.Tasks[2].InProgress = true

	task := job.NextAssignableTask()
	if task != job.Tasks[3] {
		t.Fatalf("picked %+v, want the only assignable task", task)
	}

	job.Tasks[3].Complete = true
	if job.NextAssignableTask() != nil {
		t.Fatal("drained job still produced a task")
	}
}

func TestPausedJobIsNotSchedulable(t *testing.T) {
	job := NewRenderJob(renderInfo(0, 2))
	if !job.Schedulable() {
		t.Fatal("pending job must be schedulable")
	}
	job.Status = JobStatusPaused
	if job.Schedulable() {
		t.Fatal("paused job must not be schedulable")
	}
	job.Status = JobStatusComplete
	if job.Schedulable() {
		t.Fatal("complete job must not be schedulable")
	}
}
