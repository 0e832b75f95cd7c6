package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaErrorListsColumns(t *testing.T) {
	err := &SchemaError{Missing: []string{"ticker_symbol"}, Available: []string{"trade_date", "close"}}
	assert.Contains(t, err.Error(), "ticker_symbol")
	assert.Contains(t, err.Error(), "trade_date, close")
}

func TestRemoteUnwraps(t *testing.T) {
	cause := errors.New("access denied")
	err := fmt.Errorf("upload partition: %w", Remote("s3", "HeadObject", cause))

	var remote *RemoteServiceError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "s3", remote.Service)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, Remote("s3", "PutObject", nil))
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Key: "GLUE_JOB_NAME"}
	assert.Equal(t, "configuration: GLUE_JOB_NAME is not set", err.Error())
}
