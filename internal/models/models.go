package models

import (
	"strconv"

	"github.com/AngelCh415/mediaplan-go/internal/currency"
)

// Column names as they appear in the media-plan exports, after header
// normalization (NFC, collapsed whitespace, upper case).
const (
	ColCampaign        = "CAMPANHA"
	ColMarket          = "PRAÇA"
	ColChannel         = "MEIO"
	ColOutlet          = "VEÍCULO"
	ColMonth           = "MÊS"
	ColFormat          = "FORMATO"
	ColPlacement       = "APROVEITAMENTO / PROGRAMAÇÃO"
	ColMediaStatus     = "STATUS MIDIA"
	ColMaterialStatus  = "STATUS MATERIAL"
	ColChecking        = "CHECKING"
	ColInsertions      = "INS"
	ColUnitTablePrice  = "R$ TABELA UNITÁRIO"
	ColDiscount        = "DESC."
	ColUnitNegotiated  = "R$ NEGOCIADO UNITÁRIO"
	ColNetInvestment   = "R$ NEGOCIADO TOTAL (LÍQUIDO)"
	ColGrossInvestment = "R$ NEGOCIADO TOTAL (BRUTO 20%)"
	ColAudienceIndex   = "IA"
	ColGRP             = "GRP"
	ColImpressions     = "IMPACTOS ESTIMADOS"
	ColCPM             = "CPM"
	ColUniverse        = "UNIVERSO"
	ColClicks          = "CLIQUES"
	ColCTR             = "CTR"
	ColCPC             = "CPC"
	ColLeads           = "LEAD"
	ColCPL             = "CPL"
	ColConversions     = "CONVERSÃO"
	ColCPA             = "CPA"
	ColRevenue         = "RECEITA (R$)"
)

// RequiredFields must be present as keys on the first record of a payload.
var RequiredFields = []string{ColCampaign, ColMarket, ColChannel, ColOutlet, ColMonth}

// Value is a numeric cell as it arrived: a number, a display string, or nothing.
type Value struct {
	Num   float64
	Text  string
	IsNum bool
	Set   bool
}

func Number(f float64) Value { return Value{Num: f, IsNum: true, Set: true} }
func Text(s string) Value    { return Value{Text: s, Set: true} }

// Float reads the cell through the currency parser; absent or malformed cells are 0.
func (v Value) Float() float64 {
	switch {
	case !v.Set:
		return 0
	case v.IsNum:
		return currency.Parse(v.Num)
	default:
		return currency.ParseString(v.Text)
	}
}

func (v Value) String() string {
	switch {
	case !v.Set:
		return ""
	case v.IsNum:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Record is one line item of a media plan.
type Record struct {
	Campaign       string
	Market         string
	Channel        string
	Outlet         string
	Placement      string
	Format         string
	Month          string
	MediaStatus    string
	MaterialStatus string
	Checking       string

	Insertions      Value
	UnitTablePrice  Value
	Discount        Value
	UnitNegotiated  Value
	NetInvestment   Value
	GrossInvestment Value
	AudienceIndex   Value
	GRP             Value
	Impressions     Value
	CPM             Value
	Universe        Value
	Clicks          Value
	CTR             Value
	CPC             Value
	Leads           Value
	CPL             Value
	Conversions     Value
	CPA             Value
	Revenue         Value
}

// Entry is one row of an aggregation result.
type Entry struct {
	Key    string  `json:"key"`
	Metric float64 `json:"metric"`
	Count  int     `json:"count,omitempty"`
}

type MatrixPoint struct {
	Outlet      string  `json:"outlet"`
	Investment  float64 `json:"investment"`
	Impressions float64 `json:"impressions"`
}

type InvestmentDistribution struct {
	ByMarket   []Entry `json:"by_market"`
	ByMonth    []Entry `json:"by_month"`
	ByCampaign []Entry `json:"by_campaign"`
	ByChannel  []Entry `json:"by_channel"`
}

type DeliveryReach struct {
	ByOutlet  []Entry `json:"by_outlet"`
	ByFormat  []Entry `json:"by_format"`
	ByMarket  []Entry `json:"by_market"`
	ByChannel []Entry `json:"by_channel"`
}

type PerformanceAnalysis struct {
	CPMByOutlet  []Entry       `json:"cpm_by_outlet"`
	CPMByChannel []Entry       `json:"cpm_by_channel"`
	CPCByOutlet  []Entry       `json:"cpc_by_outlet"`
	Matrix       []MatrixPoint `json:"matrix"`
}

type KPISummary struct {
	Records         int     `json:"records"`
	TotalInvestment float64 `json:"total_investment"`
	TotalImpress    float64 `json:"total_impressions"`
	TotalClicks     float64 `json:"total_clicks"`
	TotalInsertions float64 `json:"total_insertions"`
	AverageCPM      float64 `json:"average_cpm"`
}

type Dashboard struct {
	DatasetID  string                 `json:"dataset_id,omitempty"`
	KPI        KPISummary             `json:"kpi"`
	Investment InvestmentDistribution `json:"investment"`
	Delivery   DeliveryReach          `json:"delivery"`
	Perf       PerformanceAnalysis    `json:"performance"`
}
