package app

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHealth(t *testing.T) {
	app, _ := newTestApplication(t)

	rec := executeRequest(t, app, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var got HealthcheckResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, "UP", got.Status)
	assert.Equal(t, "test", got.SystemInfo.Environment)
}
