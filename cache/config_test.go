package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{Prefix: "product"}.WithDefaults()

	assert.Equal(t, "product", opts.Prefix)
	assert.Equal(t, 60*time.Second, opts.TTL)
	assert.Equal(t, int64(100), opts.ScanBatchSize)

	custom := Options{Prefix: "product", TTL: 50 * time.Second, ScanBatchSize: 7}.WithDefaults()
	assert.Equal(t, 50*time.Second, custom.TTL)
	assert.Equal(t, int64(7), custom.ScanBatchSize)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantField string
	}{
		{name: "valid", opts: Options{Prefix: "product", TTL: time.Second, ScanBatchSize: 10}},
		{name: "missing prefix", opts: Options{TTL: time.Second, ScanBatchSize: 10}, wantField: "Prefix"},
		{name: "sub-millisecond ttl", opts: Options{Prefix: "p", TTL: time.Microsecond, ScanBatchSize: 10}, wantField: "TTL"},
		{name: "negative batch size", opts: Options{Prefix: "p", TTL: time.Second, ScanBatchSize: -1}, wantField: "ScanBatchSize"},
		{name: "zero ttl without defaults", opts: Options{Prefix: "p", ScanBatchSize: 10}, wantField: "TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestDefaultMemoryConfig(t *testing.T) {
	cfg := DefaultMemoryConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10000, cfg.Capacity)
	assert.Equal(t, time.Hour, cfg.MaxTTL)
}

func TestErrors_Messages(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "cache config error in field Transport: cache transport not provided", MissingTransport().Error())
	assert.Equal(t, `cache transport GET "product_1": boom`, (&TransportError{Op: "GET", Key: "product_1", Err: cause}).Error())
	assert.Equal(t, "cache transport DEL: boom", (&TransportError{Op: "DEL", Err: cause}).Error())
	assert.Equal(t, `clearing namespace "product" failed during scan: boom`, (&InvalidationError{Prefix: "product", Stage: "scan", Err: cause}).Error())

	corrupt := &CacheCorruptionError{Key: "product_1", Err: cause}
	assert.ErrorIs(t, corrupt, ErrCacheCorruption)
	assert.ErrorIs(t, corrupt, cause)
}
