package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local")(&cfg)

	opt := options(cfg)
	assert.Equal(t, clickhouse.Native, opt.Protocol)
	assert.Equal(t, []string{"ch.local:9000"}, opt.Addr)
	assert.Equal(t, "fincast", opt.Auth.Database)
	assert.Equal(t, "default", opt.Auth.Username)
	assert.Empty(t, opt.Settings)
	require.Len(t, opt.ClientInfo.Products, 1)
	assert.Equal(t, "fincast", opt.ClientInfo.Products[0].Name)
}

func TestOptionsSettings(t *testing.T) {
	cfg := defaultConfig()
	for _, o := range []ClientOption{
		WithHost("ch.local"),
		WithPort(8123),
		WithHTTP(true),
		WithDatabase("history"),
		WithCredentials("", "secret"),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(90 * time.Second),
		WithTimeouts(time.Second, 2*time.Second, 3*time.Second),
	} {
		o(&cfg)
	}

	opt := options(cfg)
	assert.Equal(t, clickhouse.HTTP, opt.Protocol)
	assert.Equal(t, []string{"ch.local:8123"}, opt.Addr)
	assert.Equal(t, "history", opt.Auth.Database)
	assert.Equal(t, "default", opt.Auth.Username)
	assert.Equal(t, "secret", opt.Auth.Password)
	assert.Equal(t, clickhouse.Settings{
		"max_execution_time":    90,
		"async_insert":          1,
		"wait_for_async_insert": 1,
	}, opt.Settings)
	assert.Equal(t, time.Second, opt.DialTimeout)
	assert.Equal(t, 2*time.Second, opt.ReadTimeout)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithHost(""))
	assert.Error(t, err)
}
