package cronjob_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ripple-mq/ripple-chat/internal/cronjob"
	"github.com/stretchr/testify/assert"
)

func TestCronJobScheduler_Schedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{
			name:     "run at every second",
			schedule: "@every 1s",
			wantErr:  false,
		},
		{
			name:     "invalid schedule string",
			schedule: "100seconds",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := cronjob.NewCronJobScheduler()
			defer tr.Shutdown()

			var runs atomic.Int32
			_, err := tr.Schedule(tt.schedule, func() { runs.Add(1) })
			if (err != nil) != tt.wantErr {
				t.Errorf("CronJobScheduler.Schedule() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
		})
	}
}

func TestCronJobScheduler_Stop(t *testing.T) {
	tr := cronjob.NewCronJobScheduler()
	defer tr.Shutdown()

	var runs atomic.Int32
	id, err := tr.Schedule("@every 1s", func() { runs.Add(1) })
	if err != nil {
		t.Fatalf("CronJobScheduler.Schedule() error = %v", err)
	}
	tr.Stop(id)

	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}
