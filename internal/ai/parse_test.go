package ai

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_StripsFences(t *testing.T) {
	inputs := []string{
		`{"client_name":"Acme","total_amount":100}`,
		"```json\n{\"client_name\":\"Acme\",\"total_amount\":100}\n```",
		"```JSON{\"client_name\":\"Acme\",\"total_amount\":100}```",
		"```\n{\"client_name\":\"Acme\",\"total_amount\":100}\n```",
		"  \n```json\n{\"client_name\":\"Acme\",\"total_amount\":100}\n```  \n",
	}
	for _, in := range inputs {
		got, err := ParseResponse(in)
		require.NoError(t, err, in)
		assert.Equal(t, "Acme", got["client_name"])
		assert.Equal(t, json.Number("100"), got["total_amount"])
	}
}

func TestParseResponse_KeepsExactNumbers(t *testing.T) {
	got, err := ParseResponse(`{"items":[{"unit_price":19.99}]}`)
	require.NoError(t, err)

	items := got["items"].([]any)
	assert.Equal(t, json.Number("19.99"), items[0].(map[string]any)["unit_price"])
}

func TestParseResponse_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		op   string
		is   error
	}{
		{"empty", "   ", "parse", ErrEmptyResponse},
		{"empty fence", "```json\n```", "parse", ErrEmptyResponse},
		{"prose", "Sorry, I cannot help with that.", "parse", nil},
		{"array", `[{"client_name":"Acme"}]`, "parse", ErrNotJSONObject},
		{"model error", `{"error":"image is blurry"}`, "extract", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.in)
			require.Error(t, err)

			var extErr *ExtractionError
			require.True(t, errors.As(err, &extErr))
			assert.Equal(t, tt.op, extErr.Op)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
		})
	}
}

func TestParseResponse_ErrorKeyWithData(t *testing.T) {
	got, err := ParseResponse(`{"error":null,"client_name":"Acme"}`)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got["client_name"])
}

func TestParseResponse_ModelErrorMessage(t *testing.T) {
	_, err := ParseResponse(`{"error":"image is blurry"}`)
	assert.Contains(t, err.Error(), "image is blurry")
}

func TestClassifyMedia(t *testing.T) {
	assert.Equal(t, MediaImage, ClassifyMedia("image/png"))
	assert.Equal(t, MediaImage, ClassifyMedia("IMAGE/JPEG"))
	assert.Equal(t, MediaPDF, ClassifyMedia("application/pdf"))
	assert.Equal(t, MediaAudio, ClassifyMedia("audio/mpeg"))
	assert.Equal(t, MediaAudio, ClassifyMedia("audio/wave; codecs=1"))
	assert.Equal(t, MediaAudio, ClassifyMedia("video/mp4"))
	assert.Equal(t, MediaUnsupported, ClassifyMedia("text/plain"))
	assert.Equal(t, MediaUnsupported, ClassifyMedia(""))
}

func TestInvoiceSchemaJSON(t *testing.T) {
	schema, err := invoiceSchemaJSON()
	require.NoError(t, err)

	for _, field := range []string{"client_name", "invoice_number", "items", "unit_price", "total_amount", "currency"} {
		assert.Contains(t, schema, `"`+field+`"`)
	}
	assert.NotContains(t, schema, "$ref")
}
