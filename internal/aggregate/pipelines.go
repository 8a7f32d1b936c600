package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

const (
	DefaultTopN = 10
	MatrixLimit = 15
	// OutletSep joins channel and outlet into the outlet key ("TV - Globo").
	OutletSep = " - "
)

func InvestmentDistribution(recs []models.Record, topN int) models.InvestmentDistribution {
	return models.InvestmentDistribution{
		ByMarket:   investmentByMarket(recs, topN),
		ByMonth:    investmentByMonth(recs, topN),
		ByCampaign: investmentByCampaign(recs, topN),
		ByChannel:  investmentByChannel(recs, topN),
	}
}

func DeliveryReach(recs []models.Record, topN int) models.DeliveryReach {
	return models.DeliveryReach{
		ByOutlet:  insertionsByOutlet(recs, topN),
		ByFormat:  insertionsByFormat(recs, topN),
		ByMarket:  insertionsByMarket(recs, topN),
		ByChannel: insertionsByChannel(recs, topN),
	}
}

// PerformanceAnalysis uses volume-weighted CPM per outlet and channel, and a
// record-level average for CPC.
func PerformanceAnalysis(recs []models.Record, topN int) models.PerformanceAnalysis {
	return models.PerformanceAnalysis{
		CPMByOutlet:  cpmByOutlet(recs, topN),
		CPMByChannel: cpmByChannel(recs, topN),
		CPCByOutlet:  cpcByOutlet(recs, topN),
		Matrix:       Matrix(recs),
	}
}

// Matrix pairs net investment and impressions per outlet, keeping outlets
// where both are positive, in encounter order.
func Matrix(recs []models.Record) []models.MatrixPoint {
	groups := Collect(recs, Spec{Key: Field(Outlet), Value: NetInvestment, Denom: Impressions, Mode: Ratio})
	out := make([]models.MatrixPoint, 0, len(groups))
	for _, g := range groups {
		if g.Total <= 0 || g.Denom <= 0 {
			continue
		}
		out = append(out, models.MatrixPoint{Outlet: g.Key, Investment: g.Total, Impressions: g.Denom})
	}
	return truncate(out, MatrixLimit)
}

// KPISummary is the single-group case: totals over the whole plan plus the
// plain mean of positive per-record CPM values.
func KPISummary(recs []models.Record) models.KPISummary {
	all := Constant("all")
	one := func(s Spec) Group {
		s.Key = all
		gs := Collect(recs, s)
		if len(gs) == 0 {
			return Group{}
		}
		return gs[0]
	}
	cpm := one(Spec{Value: CPM, Mode: Average})
	return models.KPISummary{
		Records:         len(recs),
		TotalInvestment: one(Spec{Value: NetInvestment}).Total,
		TotalImpress:    one(Spec{Value: Impressions}).Total,
		TotalClicks:     one(Spec{Value: Clicks}).Total,
		TotalInsertions: one(Spec{Value: Insertions}).Total,
		AverageCPM:      safeDiv(cpm.Total, float64(cpm.Count)),
	}
}

// BuildDashboard fans the four pipelines out over the same read-only slice.
func BuildDashboard(ctx context.Context, recs []models.Record, topN int) (models.Dashboard, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	var d models.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		d.KPI = KPISummary(recs)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		d.Investment = InvestmentDistribution(recs, topN)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		d.Delivery = DeliveryReach(recs, topN)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		d.Perf = PerformanceAnalysis(recs, topN)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Dashboard{}, err
	}
	return d, nil
}
