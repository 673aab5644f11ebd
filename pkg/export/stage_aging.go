package export

import (
	"context"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
)

// StageAgingSource adapts a stage-aging report to a DataSource. Headers
// are passed in already translated.
type StageAgingSource struct {
	Items   []backend.StageAgingItem
	SLADays float64
	Sheet   string
	Labels  StageAgingLabels
}

type StageAgingLabels struct {
	Application string
	Stage       string
	Age         string
	AgeSeconds  string
	OverSLA     string
	Yes         string
	No          string
}

func DefaultStageAgingLabels() StageAgingLabels {
	return StageAgingLabels{
		Application: "Application",
		Stage:       "Stage",
		Age:         "Age",
		AgeSeconds:  "Age (seconds)",
		OverSLA:     "Over SLA",
		Yes:         "yes",
		No:          "no",
	}
}

func (s *StageAgingSource) SheetName() string {
	if s.Sheet == "" {
		return "Stage aging"
	}
	return s.Sheet
}

func (s *StageAgingSource) Headers() []string {
	l := s.Labels
	return []string{l.Application, l.Stage, l.Age, l.AgeSeconds, l.OverSLA}
}

func (s *StageAgingSource) Rows(ctx context.Context) ([][]any, error) {
	rows := make([][]any, 0, len(s.Items))
	for _, item := range s.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		over := s.Labels.No
		if lifecycle.Breached(item, s.SLADays) {
			over = s.Labels.Yes
		}
		rows = append(rows, []any{
			item.ApplicationID,
			item.CurrentStage,
			lifecycle.FormatDuration(item.AgeSeconds),
			item.AgeSeconds,
			over,
		})
	}
	return rows, nil
}
