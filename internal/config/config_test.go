package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("INCLUDE_CUSTOMER_NAME", "")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "")
	t.Setenv("APP_URL", "https://app.example.com/")

	cfg := Load()
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	assert.False(t, cfg.IncludeCustomerName)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, "https://app.example.com", cfg.AppURL)
}

func TestLoadIncludeCustomerName(t *testing.T) {
	t.Setenv("INCLUDE_CUSTOMER_NAME", "true")
	assert.True(t, Load().IncludeCustomerName)

	t.Setenv("INCLUDE_CUSTOMER_NAME", "nope")
	assert.False(t, Load().IncludeCustomerName)
}

func TestValidateProcessor(t *testing.T) {
	err := Config{}.ValidateProcessor()
	require.Error(t, err)

	var missing *MissingKeysError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"OPENAI_API_KEY", "APP_URL", "SHOPIFY_API_SECRET"}, missing.Keys)

	ok := Config{OpenAIAPIKey: "sk", AppURL: "https://app", SharedSecret: "s"}
	assert.NoError(t, ok.ValidateProcessor())
}

func TestValidateIngest(t *testing.T) {
	assert.Error(t, Config{}.ValidateIngest())
	assert.NoError(t, Config{SharedSecret: "s"}.ValidateIngest())
}

func TestClassificationHolderDefaults(t *testing.T) {
	holder, err := NewClassificationHolder(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultClassificationConfig(), holder.Get())
}

func TestValidateClassificationConfig(t *testing.T) {
	assert.NoError(t, validateClassificationConfig(DefaultClassificationConfig()))

	bad := DefaultClassificationConfig()
	bad.FirstTimeWindow = 0
	assert.Error(t, validateClassificationConfig(bad))

	bad = DefaultClassificationConfig()
	bad.VIPOrderCount = 1
	assert.Error(t, validateClassificationConfig(bad))
}
