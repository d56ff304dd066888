package latefee

import (
	"testing"

	"github.com/gharbeti/backend/internal/domain/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Run("valid growing policy", func(t *testing.T) {
		raw := []byte(`{
			"enabled": true,
			"gracePeriodDays": 5,
			"type": "percentage",
			"amount": "2",
			"compounding": true,
			"maxLateFeeAmount": "1000",
			"appliesTo": "rent"
		}`)
		p, err := ParseDocument(raw)
		require.NoError(t, err)
		assert.True(t, p.Enabled)
		assert.Equal(t, 5, p.GracePeriodDays)
		assert.Equal(t, PolicyTypePercentage, p.Type)
		assert.True(t, p.Compounding)
		assert.True(t, p.IsGrowing())
		assert.Equal(t, int64(100_000), p.MaxLateFee.Paisa())
		assert.Equal(t, billing.RecordTypeRent, p.AppliesTo)
	})

	t.Run("cam scope maps to CAM records", func(t *testing.T) {
		raw := []byte(`{"enabled":true,"gracePeriodDays":0,"type":"fixed","amount":"500","appliesTo":"cam"}`)
		p, err := ParseDocument(raw)
		require.NoError(t, err)
		assert.Equal(t, billing.RecordTypeCAM, p.AppliesTo)
		assert.True(t, p.MaxLateFee.IsZero())
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := ParseDocument([]byte(`{"enabled":`))
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		raw := []byte(`{"enabled":true,"type":"weekly","amount":"500","appliesTo":"rent"}`)
		_, err := ParseDocument(raw)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("unknown scope rejected", func(t *testing.T) {
		raw := []byte(`{"enabled":true,"type":"fixed","amount":"500","appliesTo":"parking"}`)
		_, err := ParseDocument(raw)
		assert.Error(t, err)
	})

	t.Run("compounding on non-percentage rejected", func(t *testing.T) {
		raw := []byte(`{"enabled":true,"type":"simple_daily","amount":"1","compounding":true,"appliesTo":"rent"}`)
		_, err := ParseDocument(raw)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		raw := []byte(`{"enabled":true,"type":"fixed","amount":"0","appliesTo":"rent"}`)
		_, err := ParseDocument(raw)
		assert.Error(t, err)
	})
}
