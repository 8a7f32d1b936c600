package ingest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

const planJSON = `[
  {"CAMPANHA":"Verão","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"Globo","MÊS":"JAN","FORMATO":"30\"","INS":5,
   "R$ NEGOCIADO TOTAL \n(LÍQUIDO)":"R$ 1.234,56","R$ NEGOCIADO  TOTAL\n(BRUTO 20%)":"R$ 1.543,20",
   "IMPACTOS                   ESTIMADOS":120000,"CPM":"R$ 10,29","CLIQUES":0,"CPC":"R$-"},
  {"CAMPANHA":"Verão","PRAÇA":"RJ","MEIO":"Rádio","VEÍCULO":"CBN","MÊS":"JAN","INS":"3"}
]`

func TestParseJSONArray(t *testing.T) {
	recs, err := Parse([]byte(planJSON), "application/json", "plan.json")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	r := recs[0]
	assert.Equal(t, "Verão", r.Campaign)
	assert.Equal(t, "SP", r.Market)
	assert.Equal(t, "TV", r.Channel)
	assert.Equal(t, "Globo", r.Outlet)
	assert.Equal(t, "JAN", r.Month)
	assert.Equal(t, `30"`, r.Format)
	assert.Equal(t, 5.0, r.Insertions.Float())
	assert.InDelta(t, 1234.56, r.NetInvestment.Float(), 1e-9)
	assert.InDelta(t, 1543.20, r.GrossInvestment.Float(), 1e-9)
	assert.Equal(t, 120000.0, r.Impressions.Float())
	assert.True(t, r.Impressions.IsNum)
	assert.InDelta(t, 10.29, r.CPM.Float(), 1e-9)
	assert.Zero(t, r.CPC.Float())

	// campos ausentes quedan vacíos, nunca fallan
	assert.Equal(t, "", recs[1].Format)
	assert.False(t, recs[1].NetInvestment.Set)
	assert.Equal(t, 3.0, recs[1].Insertions.Float())
}

func TestParseSingleObject(t *testing.T) {
	obj := `{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"Globo","MÊS":"FEV","INS":2}`
	single, err := Parse([]byte(obj), "", "")
	require.NoError(t, err)
	wrapped, err := Parse([]byte("["+obj+"]"), "", "")
	require.NoError(t, err)
	assert.Equal(t, wrapped, single)
	assert.Len(t, single, 1)
}

func TestParseMissingFields(t *testing.T) {
	_, err := Parse([]byte(`[{"CAMPANHA":"X"}]`), "application/json", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFields)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, KindMissingFields, ve.Kind)
	assert.Equal(t, []string{"PRAÇA", "MEIO", "VEÍCULO", "MÊS"}, ve.Fields)
	assert.Equal(t, "missing required fields: PRAÇA, MEIO, VEÍCULO, MÊS", ve.Error())
}

func TestParseOnlyFirstRecordIsValidated(t *testing.T) {
	payload := `[{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN"},{"INS":4}]`
	recs, err := Parse([]byte(payload), "", "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "", recs[1].Market)
}

func TestParseDecomposedHeaders(t *testing.T) {
	// PRAÇA, VEÍCULO y MÊS en NFD (exportaciones de macOS)
	payload := "[{\"CAMPANHA\":\"X\",\"PRAC\u0327A\":\"SP\",\"meio\":\"TV\",\"VEI\u0301CULO\":\"G\",\" ME\u0302S \":\"JAN\"}]"
	recs, err := Parse([]byte(payload), "", "")
	require.NoError(t, err)
	assert.Equal(t, "SP", recs[0].Market)
	assert.Equal(t, "TV", recs[0].Channel)
	assert.Equal(t, "JAN", recs[0].Month)
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    error
	}{
		{"empty array", `[]`, ErrEmptyPayload},
		{"syntax", `[{"CAMPANHA":`, ErrMalformedPayload},
		{"empty body", ``, ErrMalformedPayload},
		{"scalar", `42`, ErrMalformedPayload},
		{"array of scalars", `[1,2]`, ErrMalformedPayload},
		{"trailing data", `{"CAMPANHA":"X"} x`, ErrMalformedPayload},
		{"extra closing bracket", `[{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN"}]]`, ErrMalformedPayload},
		{"extra closing brace", `{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN"}}`, ErrMalformedPayload},
		{"second document", `{"CAMPANHA":"X"} {"CAMPANHA":"Y"}`, ErrMalformedPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := Parse([]byte(tc.payload), "application/json", "")
			assert.Nil(t, recs)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatXLSX, Detect(nil, "", "Plano.XLSX"))
	assert.Equal(t, FormatJSON, Detect([]byte("PK\x03\x04"), "", "plan.json"))
	assert.Equal(t, FormatXLSX, Detect(nil, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ""))
	assert.Equal(t, FormatXLSX, Detect([]byte("PK\x03\x04rest"), "application/octet-stream", ""))
	assert.Equal(t, FormatJSON, Detect([]byte("[]"), "", ""))
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	// la segunda hoja se ignora
	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "CAMPANHA"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := workbook(t, [][]any{
		{"CAMPANHA", "PRAÇA", "MEIO", "VEÍCULO", "MÊS", "INS", "R$ NEGOCIADO TOTAL \n(LÍQUIDO)", "IMPACTOS   ESTIMADOS"},
		{"Verão", "SP", "TV", "Globo", "JAN", 5, "R$ 1.234,56", 1500.5},
		{},
		{"Verão", "RJ", "Rádio", "CBN", "FEV", "3"},
	})
	recs, err := Parse(data, "application/octet-stream", "plano.xlsx")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Globo", recs[0].Outlet)
	assert.True(t, recs[0].Insertions.IsNum)
	assert.Equal(t, 5.0, recs[0].Insertions.Float())
	assert.InDelta(t, 1234.56, recs[0].NetInvestment.Float(), 1e-9)
	// número nativo con punto decimal no pasa por el formato pt-BR
	assert.Equal(t, 1500.5, recs[0].Impressions.Float())

	assert.Equal(t, "FEV", recs[1].Month)
	assert.Equal(t, 3.0, recs[1].Insertions.Float())
	assert.False(t, recs[1].NetInvestment.Set)
}

func TestParseXLSXValidation(t *testing.T) {
	headerOnly := workbook(t, [][]any{{"CAMPANHA", "PRAÇA", "MEIO", "VEÍCULO", "MÊS"}})
	_, err := Parse(headerOnly, "", "plan.xlsx")
	assert.ErrorIs(t, err, ErrEmptyPayload)

	missingCols := workbook(t, [][]any{{"CAMPANHA", "MEIO"}, {"X", "TV"}})
	_, err = Parse(missingCols, "", "plan.xlsx")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"PRAÇA", "VEÍCULO", "MÊS"}, ve.Fields)

	_, err = Parse([]byte("PK\x03\x04not really a zip"), "", "")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestFromRowsRecordShape(t *testing.T) {
	recs, err := FromRows([]map[string]any{{
		models.ColCampaign: "C", models.ColMarket: nil, models.ColChannel: "TV",
		models.ColOutlet: "G", models.ColMonth: 3.0,
	}})
	require.NoError(t, err)
	assert.Equal(t, "", recs[0].Market)
	assert.Equal(t, "3", recs[0].Month)
}

func TestParseCollidingHeadersIsDeterministic(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    float64
	}{
		// la grafía exacta del vocabulario gana
		{"exact spelling wins", `{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN","CPM ":"R$ 20,00","CPM":"R$ 10,00"}`, 10},
		// sin grafía exacta, el primer valor en orden de clave
		{"sorted raw keys", `{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN","cpm":"R$ 30,00"," CPM":"R$ 20,00"}`, 20},
		{"exact but null", `{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN","CPM":null,"cpm":"R$ 30,00"}`, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				recs, err := Parse([]byte(tc.payload), "application/json", "")
				require.NoError(t, err)
				require.Equal(t, tc.want, recs[0].CPM.Float(), "run %d", i)
			}
		})
	}
}

func TestParseXLSXDuplicateColumnsLeftmostWins(t *testing.T) {
	data := workbook(t, [][]any{
		{"CAMPANHA", "PRAÇA", "MEIO", "VEÍCULO", "MÊS", "CPM", "INS", " cpm "},
		{"Verão", "SP", "TV", "Globo", "JAN", "R$ 10,00", 1, "R$ 20,00"},
		{"Verão", "RJ", "TV", "Band", "JAN", "", 1, "R$ 30,00"},
	})
	for i := 0; i < 20; i++ {
		recs, err := Parse(data, "", "plano.xlsx")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, 10.0, recs[0].CPM.Float())
		// columna izquierda vacía: se usa la siguiente con valor
		assert.Equal(t, 30.0, recs[1].CPM.Float())
	}
}

func TestParseOutOfRangeNumberIsZero(t *testing.T) {
	payload := `[{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN","INS":1e400,"IMPACTOS ESTIMADOS":"1.2E+07"}]`
	recs, err := Parse([]byte(payload), "application/json", "")
	require.NoError(t, err)
	assert.False(t, recs[0].Insertions.Set)
	assert.Zero(t, recs[0].Insertions.Float())
	assert.Equal(t, 12000000.0, recs[0].Impressions.Float())
}

func TestParseCarriesEveryColumn(t *testing.T) {
	payload := `[{"CAMPANHA":"X","PRAÇA":"SP","MEIO":"TV","VEÍCULO":"G","MÊS":"JAN",
		"STATUS MATERIAL":"OK","CHECKING":"pendente","DESC.":"20,00%","IA":"1,5","UNIVERSO":"1.000.000"}]`
	recs, err := Parse([]byte(payload), "application/json", "")
	require.NoError(t, err)
	r := recs[0]
	assert.Equal(t, "OK", r.MaterialStatus)
	assert.Equal(t, "pendente", r.Checking)
	assert.Equal(t, 20.0, r.Discount.Float())
	assert.Equal(t, 1.5, r.AudienceIndex.Float())
	assert.Equal(t, 1000000.0, r.Universe.Float())
}
