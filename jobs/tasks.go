// Package jobs hosts the Asynq background worker and its task handlers.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAbuseScan is the task type for the periodic login abuse scan.
	TaskAbuseScan = "security:abuse_scan"
)

// AbuseScanPayload tunes one abuse scan run.
type AbuseScanPayload struct {
	// WindowHours bounds how far back the scan reads login attempts.
	WindowHours int `json:"window_hours"`
	// FailureThreshold is the failed-attempt count per IP that gets
	// reported as suspicious.
	FailureThreshold int `json:"failure_threshold"`
}

// NewAbuseScanTask constructs an Asynq task.
func NewAbuseScanTask(payload AbuseScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAbuseScan, data), nil
}
