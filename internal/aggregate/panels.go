package aggregate

import (
	"sort"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

// PanelFunc computes one named result array.
type PanelFunc func(recs []models.Record, topN int) []models.Entry

func sumBy(k KeyFunc, v ValueFunc, sorted bool) PanelFunc {
	return func(recs []models.Record, topN int) []models.Entry {
		s := Spec{Key: k, Value: v, Sorted: sorted}
		if sorted {
			s.TopN = topN
		}
		return Run(recs, s)
	}
}

// cpmBy is the volume-weighted CPM: net investment / impressions * 1000.
func cpmBy(k KeyFunc, limited bool) PanelFunc {
	return func(recs []models.Record, topN int) []models.Entry {
		s := Spec{
			Key: k, Value: NetInvestment, Denom: Impressions,
			Mode: Ratio, Scale: 1000,
			DropZero: true, Sorted: true,
		}
		if limited {
			s.TopN = topN
		}
		return Run(recs, s)
	}
}

func avgBy(k KeyFunc, v ValueFunc) PanelFunc {
	return func(recs []models.Record, topN int) []models.Entry {
		return Run(recs, Spec{Key: k, Value: v, Mode: Average, DropZero: true, Sorted: true, TopN: topN})
	}
}

var (
	investmentByMarket   = sumBy(Field(Market), GrossInvestment, true)
	investmentByMonth    = sumBy(Field(Month), GrossInvestment, false)
	investmentByCampaign = func(recs []models.Record, _ int) []models.Entry {
		return Run(recs, Spec{Key: Field(Campaign), Value: GrossInvestment, Sorted: true})
	}
	investmentByChannel = sumBy(Field(Channel), GrossInvestment, false)

	insertionsByOutlet  = sumBy(Composite(OutletSep, Channel, Outlet), Insertions, true)
	insertionsByFormat  = sumBy(Field(Format), Insertions, false)
	insertionsByMarket  = sumBy(Field(Market), Insertions, true)
	insertionsByChannel = sumBy(Field(Channel), Insertions, false)

	cpmByOutlet  = cpmBy(Field(Outlet), true)
	cpmByChannel = cpmBy(Field(Channel), false)
	cpcByOutlet  = avgBy(Field(Outlet), CPC)
)

var panels = map[string]PanelFunc{
	"investment.by_market":       investmentByMarket,
	"investment.by_month":        investmentByMonth,
	"investment.by_campaign":     investmentByCampaign,
	"investment.by_channel":      investmentByChannel,
	"delivery.by_outlet":         insertionsByOutlet,
	"delivery.by_format":         insertionsByFormat,
	"delivery.by_market":         insertionsByMarket,
	"delivery.by_channel":        insertionsByChannel,
	"performance.cpm_by_outlet":  cpmByOutlet,
	"performance.cpm_by_channel": cpmByChannel,
	"performance.cpc_by_outlet":  cpcByOutlet,
}

// Panel looks up a panel by name ("delivery.by_outlet").
func Panel(name string) (PanelFunc, bool) {
	p, ok := panels[name]
	return p, ok
}

func PanelNames() []string {
	out := make([]string, 0, len(panels))
	for k := range panels {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
