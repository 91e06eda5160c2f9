package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vinoprice/pricesync/internal/batch"
	"github.com/vinoprice/pricesync/internal/domain"
)

// TargetOutcome is the per-variant result of one sweep unit.
type TargetOutcome struct {
	VariantID string            `json:"variant_id"`
	Action    domain.SyncAction `json:"action"`
	NewPrice  *float64          `json:"new_price,omitempty"`
}

// SweepReport summarizes one page of the scheduled sweep.
type SweepReport struct {
	RunID      string `json:"run_id"`
	Processed  int    `json:"processed"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// SyncPage drives the full pipeline over one page of catalog candidates under
// the batch concurrency ceiling. Item failures are isolated; only page fetch
// failure (or missing credentials) aborts.
func (s *Service) SyncPage(ctx context.Context, limit int, cursor string, concurrency int) (SweepReport, error) {
	page, err := s.FetchCandidates(ctx, limit, cursor)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{
		RunID:      "sweep_" + uuid.NewString(),
		Processed:  len(page.Items),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}

	results := batch.Run(ctx, concurrency, len(page.Items), func(ctx context.Context, i int) (TargetOutcome, error) {
		return s.syncTarget(ctx, page.Items[i])
	})

	for _, r := range results {
		switch {
		case r.Err != nil:
			report.Failed++
		case r.Value.Action == domain.ActionUpdate:
			report.Updated++
		default:
			report.Skipped++
		}
	}

	return report, nil
}

func (s *Service) syncTarget(ctx context.Context, t domain.SyncTarget) (TargetOutcome, error) {
	analysis, err := s.Analyze(ctx, AnalyzeInput{
		ProductID:    t.ProductID,
		VariantID:    t.VariantID,
		ProductTitle: t.Title,
		Cost:         t.Cost,
		CurrentPrice: t.CurrentPrice,
	})
	if err != nil {
		return TargetOutcome{}, err
	}

	calc := s.CalculateTarget(ctx, CalculateInput{
		ProductID:       t.ProductID,
		VariantID:       t.VariantID,
		ProductTitle:    t.Title,
		CompetitorPrice: analysis.LowestPrice,
		Cost:            t.Cost,
		CurrentPrice:    t.CurrentPrice,
	})

	out := TargetOutcome{
		VariantID: t.VariantID,
		Action:    calc.Action,
		NewPrice:  calc.NewPrice,
	}

	if calc.Action != domain.ActionUpdate || calc.NewPrice == nil {
		return out, nil
	}

	exec, err := s.ExecuteUpdate(ctx, t.ProductID, t.VariantID, *calc.NewPrice)
	if err != nil {
		return TargetOutcome{}, err
	}
	if exec.Status != "success" {
		return TargetOutcome{}, fmt.Errorf("catalog rejected update for variant %s", t.VariantID)
	}

	return out, nil
}
