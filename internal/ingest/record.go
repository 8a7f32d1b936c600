package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

// toRecord maps a normalized row onto a Record. Numeric cells are carried
// as-is; reading them is the currency parser's job.
func toRecord(row map[string]any) models.Record {
	return models.Record{
		Campaign:       text(row[models.ColCampaign]),
		Market:         text(row[models.ColMarket]),
		Channel:        text(row[models.ColChannel]),
		Outlet:         text(row[models.ColOutlet]),
		Placement:      text(row[models.ColPlacement]),
		Format:         text(row[models.ColFormat]),
		Month:          text(row[models.ColMonth]),
		MediaStatus:    text(row[models.ColMediaStatus]),
		MaterialStatus: text(row[models.ColMaterialStatus]),
		Checking:       text(row[models.ColChecking]),

		Insertions:      value(row[models.ColInsertions]),
		UnitTablePrice:  value(row[models.ColUnitTablePrice]),
		Discount:        value(row[models.ColDiscount]),
		UnitNegotiated:  value(row[models.ColUnitNegotiated]),
		NetInvestment:   value(row[models.ColNetInvestment]),
		GrossInvestment: value(row[models.ColGrossInvestment]),
		AudienceIndex:   value(row[models.ColAudienceIndex]),
		GRP:             value(row[models.ColGRP]),
		Impressions:     value(row[models.ColImpressions]),
		CPM:             value(row[models.ColCPM]),
		Universe:        value(row[models.ColUniverse]),
		Clicks:          value(row[models.ColClicks]),
		CTR:             value(row[models.ColCTR]),
		CPC:             value(row[models.ColCPC]),
		Leads:           value(row[models.ColLeads]),
		CPL:             value(row[models.ColCPL]),
		Conversions:     value(row[models.ColConversions]),
		CPA:             value(row[models.ColCPA]),
		Revenue:         value(row[models.ColRevenue]),
	}
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func value(v any) models.Value {
	switch t := v.(type) {
	case nil:
		return models.Value{}
	case string:
		return models.Text(t)
	case float64:
		return models.Number(t)
	case json.Number:
		// fuera de rango para float64: se trata como celda vacía
		f, err := t.Float64()
		if err != nil {
			return models.Value{}
		}
		return models.Number(f)
	default:
		return models.Value{}
	}
}
