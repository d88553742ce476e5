package models

import (
	"time"

	"github.com/google/uuid"
)

// CascadeStep шаг каскадного удаления возможности.
type CascadeStep string

const (
	CascadeStepNone        CascadeStep = ""
	CascadeStepSessions    CascadeStep = "sessions"
	CascadeStepBookmarks   CascadeStep = "bookmarks"
	CascadeStepOpportunity CascadeStep = "opportunity"
)

// CascadeSteps порядок выполнения шагов.
var CascadeSteps = []CascadeStep{
	CascadeStepSessions,
	CascadeStepBookmarks,
	CascadeStepOpportunity,
}

// Next возвращает шаг, следующий за текущим, или CascadeStepNone после последнего.
func (s CascadeStep) Next() CascadeStep {
	for i, step := range CascadeSteps {
		if step == s && i+1 < len(CascadeSteps) {
			return CascadeSteps[i+1]
		}
	}
	if s == CascadeStepNone {
		return CascadeSteps[0]
	}
	return CascadeStepNone
}

// OpportunityDeletion хранит прогресс каскадного удаления,
// чтобы прерванное удаление можно было продолжить.
type OpportunityDeletion struct {
	OpportunityID uuid.UUID   `db:"opportunity_id" json:"opportunity_id" bson:"_id"`
	HostID        uuid.UUID   `db:"host_id" json:"host_id" bson:"host_id"`
	CompletedStep CascadeStep `db:"completed_step" json:"completed_step" bson:"completed_step"`
	FailedStep    CascadeStep `db:"failed_step" json:"failed_step,omitempty" bson:"failed_step"`
	LastError     *string     `db:"last_error" json:"last_error,omitempty" bson:"last_error,omitempty"`
	Attempts      int         `db:"attempts" json:"attempts" bson:"attempts"`
	Done          bool        `db:"done" json:"done" bson:"done"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at" bson:"updated_at"`
}
