package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(Config{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, tp)
}

func TestInitTracerAppliesDefaults(t *testing.T) {
	tp, err := InitTracer(Config{
		Enabled:      true,
		OTLPEndpoint: "localhost:4318",
		SamplingRate: -1, // out of range, keeps everything
	})
	require.NoError(t, err)
	require.NotNil(t, tp)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestBusinessEventsWorkWithoutProvider(t *testing.T) {
	ctx, span := GetBusinessEvents().TraceShare(context.Background(), "user-1", ShareEventAttrs{
		ContentID: "content-1",
		ShareKind: "feed",
	})
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	FinishShare(span, ShareEventAttrs{Outcome: "success"})
	span.End()
}
