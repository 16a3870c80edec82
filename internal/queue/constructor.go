package queue

import (
	"github.com/maheshrc27/socialsync-api/internal/service"
)

type Queue struct {
	as service.AnalyticsService
}

func NewQueue(as service.AnalyticsService) *Queue {
	return &Queue{
		as: as,
	}
}

const TaskTypeAnalyticsRefresh = "analytics:refresh"

type AnalyticsRefreshPayload struct {
	AccountID int64 `json:"account_id"`
}
