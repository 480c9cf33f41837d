package v1

import (
	"time"

	"github.com/sanops/asbuilt/internal/models"
)

func (s *Status) FromModel(m models.CollectorStatus) {
	s.State = string(m.State)
	s.LastRunID = m.LastRunID
	s.Completeness = m.Completeness
	s.Error = m.Error
}

// NewRunFromModel converts a models.Run summary to an API run.
func NewRunFromModel(run models.Run) Run {
	return Run{
		Id:           run.ID,
		Cluster:      run.Cluster,
		ApiRevision:  run.Revision.String(),
		Firmware:     run.Firmware,
		Completeness: run.Completeness,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
	}
}
