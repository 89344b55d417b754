package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskWorkOrderReminder = "workorders.reminder"

type WorkOrderReminderPayload struct {
	WorkOrderID    string `json:"workOrderId"`
	AssignedUserID string `json:"assignedUserId"`
}

func NewWorkOrderReminderTask(payload WorkOrderReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkOrderReminder, data), nil
}

func ParseWorkOrderReminderPayload(task *asynq.Task) (WorkOrderReminderPayload, error) {
	var payload WorkOrderReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WorkOrderReminderPayload{}, err
	}
	return payload, nil
}
