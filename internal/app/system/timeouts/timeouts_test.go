package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigureKeepsZeroFields(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Refresh: 5 * time.Minute})
	if Refresh() != 5*time.Minute {
		t.Errorf("Refresh() = %v", Refresh())
	}
	if Medium() != DefaultMedium || Ping() != DefaultPing || Short() != DefaultShort {
		t.Errorf("unset fields changed: %+v", Current())
	}

	Reset()
	if Refresh() != DefaultRefresh {
		t.Errorf("Reset() did not restore Refresh: %v", Refresh())
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 10*time.Millisecond, zap.NewNop(), "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v", ctx.Err())
	}
}
