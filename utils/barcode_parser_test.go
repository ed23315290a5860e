package utils

import (
	"testing"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBarcodeFieldsEmpty(t *testing.T) {
	assert.Nil(t, ParseBarcodeFields(""))
	assert.Nil(t, ParseBarcodeFields("  \n "))
}

func TestParseBarcodeFieldsMRZ(t *testing.T) {
	text := "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\nL898902C36UTO7408122F1204159ZE184226B<<<<<10"

	result := ParseBarcodeFields(text)
	require.NotNil(t, result)
	assert.Equal(t, BarcodeFormatMRZ, result.Format)
	assert.Equal(t, text, result.RawText)
	assert.True(t, result.ChecksumValid)

	doc := result.Fields[dto.FieldDocumentNumber]
	assert.Equal(t, "L898902C3", doc.StringValue())
	assert.Equal(t, dto.SourceBarcode, doc.Source)
	assert.Equal(t, 100, doc.Confidence)
}

func TestParseBarcodeFieldsInvalidMRZ(t *testing.T) {
	text := "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\nL898902C37UTO7408122F1204159ZE184226B<<<<<10"

	result := ParseBarcodeFields(text)
	require.NotNil(t, result)
	assert.Equal(t, BarcodeFormatMRZ, result.Format)
	assert.False(t, result.ChecksumValid)
	assert.Equal(t, 40, result.Fields[dto.FieldDocumentNumber].Confidence)
	assert.NotEmpty(t, result.Fields[dto.FieldDocumentNumber].Issues)
}

func TestParseBarcodeFieldsJSON(t *testing.T) {
	text := `{"documentNumber":"X1234567","surname":"Smith","dateOfBirth":"01/02/1990","unknownKey":"x","sex":7}`

	result := ParseBarcodeFields(text)
	require.NotNil(t, result)
	assert.Equal(t, BarcodeFormatJSON, result.Format)
	assert.Len(t, result.Fields, 3)
	assert.Equal(t, "X1234567", result.Fields[dto.FieldDocumentNumber].StringValue())
	assert.Equal(t, "1990-02-01", result.Fields[dto.FieldDateOfBirth].StringValue())
	assert.Equal(t, BarcodeConfidence, result.Fields[dto.FieldSurname].Confidence)
}

func TestParseBarcodeFieldsAAMVA(t *testing.T) {
	text := "@\n\x1e\rANSI 636014040002DL00410278ZC03190024\n" +
		"DLDAQD1234562\n" +
		"DCSSMITH\n" +
		"DACJOHN\n" +
		"DADNONE\n" +
		"DBB01311990\n" +
		"DBA06302028\n" +
		"DBC1\n" +
		"DAG123 MAIN STREET\n" +
		"DCGUSA\n"

	result := ParseBarcodeFields(text)
	require.NotNil(t, result)
	assert.Equal(t, BarcodeFormatAAMVA, result.Format)

	expected := map[string]string{
		dto.FieldDocumentNumber: "D1234562",
		dto.FieldSurname:        "SMITH",
		dto.FieldGivenNames:     "JOHN",
		dto.FieldDateOfBirth:    "1990-01-31",
		dto.FieldExpiryDate:     "2028-06-30",
		dto.FieldSex:            "M",
		dto.FieldAddress:        "123 MAIN STREET",
		dto.FieldIssuingState:   "USA",
	}
	for id, want := range expected {
		assert.Equal(t, want, result.Fields[id].StringValue(), id)
		assert.Equal(t, dto.SourceBarcode, result.Fields[id].Source, id)
	}
}

func TestParseBarcodeFieldsCanadianDates(t *testing.T) {
	text := "ANSI 636012\nDAQ123456789\nDBB19900131\nDCGCAN\n"
	result := ParseBarcodeFields(text)
	require.NotNil(t, result)
	assert.Equal(t, "1990-01-31", result.Fields[dto.FieldDateOfBirth].StringValue())
}

func TestParseBarcodeFieldsRaw(t *testing.T) {
	result := ParseBarcodeFields("https://example.org/ticket/42")
	require.NotNil(t, result)
	assert.Equal(t, BarcodeFormatRaw, result.Format)
	assert.Empty(t, result.Fields)
}
