package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Aashish23092/travel-document-verification/config"
	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const evaluateRequest = `{
  "documents": [{"ocrText": [
    "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
    "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
  ]}],
  "applicant": {"fullName": "Anna Maria Eriksson", "passportNumber": "L898902C3", "nationality": "UTO", "visaType": "tourist", "intendedTravelDate": "2011-06-01"}
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	c, err := config.Load(config.New(), "")
	require.NoError(t, err)
	return c
}

func TestEvaluateCommandFromStdin(t *testing.T) {
	c := testConfig(t)
	var out bytes.Buffer

	require.NoError(t, evaluate(context.Background(), c, "-", strings.NewReader(evaluateRequest), &out))

	var resp dto.VerificationResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, dto.DecisionApproved, resp.Decision.Status)
}

func TestEvaluateCommandUsesPolicyFile(t *testing.T) {
	c := testConfig(t)
	dir := t.TempDir()
	c.Policy.File = filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(c.Policy.File, []byte("blacklistedNationalities: [UTO]\n"), 0o600))
	input := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(input, []byte(evaluateRequest), 0o600))

	var out bytes.Buffer
	require.NoError(t, evaluate(context.Background(), c, input, nil, &out))

	var resp dto.VerificationResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, dto.DecisionRejected, resp.Decision.Status)
}

func TestEvaluateCommandRejectsEmptyRequest(t *testing.T) {
	c := testConfig(t)
	err := evaluate(context.Background(), c, "-", strings.NewReader(`{"documents": []}`), &bytes.Buffer{})
	assert.ErrorIs(t, err, dto.ErrNoDocuments)
}
