package config

import (
	"errors"
	"testing"
	"time"

	"github.com/kasuboski/reelwatch/config/mocks"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNew_ReadInConfigFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	cu := mocks.NewMockConfigUnmarshaler(ctrl)

	wantErr := errors.New("expected testing error")
	cu.EXPECT().ConfigFileUsed().Times(1).Return("fake-config.yaml")
	cu.EXPECT().ReadInConfig().Times(1).Return(wantErr)

	_, err := New(cu)
	require.ErrorIs(t, err, wantErr)
}

func TestNew_AppliesDefaultsThenFileOverrides(t *testing.T) {
	cu := viper.New()
	cu.SetConfigFile("./testdata/config.yaml")

	c, err := New(cu)
	require.NoError(t, err)

	assert.Equal(t, "api.example.test", c.Metadata.Host)
	assert.Equal(t, "my-api-key", c.Metadata.APIKey)
	// untouched by the file, so the built-in default survives
	assert.Equal(t, 8, c.Jobs.WorkerCount)
	assert.Equal(t, 5, c.Resilience.FailureThreshold)
}

func TestNew_NoFileUsesDefaults(t *testing.T) {
	cu := viper.New()
	cu.SetConfigFile("")

	c, err := New(cu)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, c.Jobs.SearchCooldown)
	assert.Equal(t, int64(50*1024*1024), c.Import.MinVideoBytes)
}
