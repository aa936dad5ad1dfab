package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth/internal/core"
	"wealth/internal/log"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{`12.5`, Amount{Value: 12.5, Set: true}, false},
		{`"1,234.56"`, Amount{Value: 1234.56, Set: true}, false},
		{`"$40"`, Amount{Value: 40, Set: true}, false},
		{`null`, Amount{}, false},
		{`"  "`, Amount{}, false},
		{`"abc"`, Amount{}, true},
		{`true`, Amount{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tt.in), &a)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	decode := func(body string) error {
		var dst map[string]any
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return decodeJSON(httptest.NewRecorder(), r, &dst)
	}

	assert.NoError(t, decode(`{"a":1}`))
	assert.ErrorIs(t, decode(``), errEmptyBody)
	assert.ErrorContains(t, decode(`{"a":`), "invalid JSON")
	assert.ErrorContains(t, decode(`{"a":1}{"b":2}`), "trailing data")
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\x00\tb\x07 "))
	assert.Nil(t, optionalString(nil))
	s := " x "
	assert.Equal(t, "x", *optionalString(&s))
}

func TestErrorResponseShape(t *testing.T) {
	rr := httptest.NewRecorder()
	BadRequestError("Invalid request body", errEmptyBody).Write(rr)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"message":"Invalid request body","error":"request body is empty"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	MessageResponse(http.StatusNotFound, "Asset not found").Write(rr)
	assert.JSONEq(t, `{"message":"Asset not found"}`, rr.Body.String())
}

func TestWriteContext_UnencodableBody(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &logs})
	ctx := log.NewContext(context.Background(), logger)

	rr := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]float64{"netWorth": math.Inf(1)}).WriteContext(ctx, rr)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to encode response", body.Message)
	assert.Contains(t, body.Error, "unsupported value")
	assert.Contains(t, logs.String(), "Failed to encode response body")

	rr = httptest.NewRecorder()
	NewJSONResponse().Body(math.NaN()).Write(rr)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Body.String())
}
