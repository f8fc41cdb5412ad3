package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwagger_RegistradoYValido(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	paths := parsed["paths"].(map[string]any)
	assert.Contains(t, paths, "/api/billing/drafts/{id}/commit")
	assert.Contains(t, paths, "/api/webhooks/bank-transfer")
}
