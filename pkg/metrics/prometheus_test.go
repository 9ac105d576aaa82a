package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinCast/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordForecast("gold", 21, false, 20*time.Millisecond)
	r.RecordForecast("btc", 21, true, time.Millisecond)
	r.RecordSignal("gold", models.DirectionBuy)
	r.RecordSignal("gold", models.DirectionBuy)
	r.RecordError("model_unavailable")
	r.RecordLastPrice("gold", 2050.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("btc", "degraded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.signals.WithLabelValues("gold", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("model_unavailable")))
	assert.Equal(t, 2050.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("gold")))
}
