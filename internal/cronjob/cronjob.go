package cronjob

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// CronJobScheduler runs periodic node tasks. Each node owns its own scheduler.
type CronJobScheduler struct {
	cron *cron.Cron
}

func NewCronJobScheduler() *CronJobScheduler {
	c := cron.New()
	c.Start()
	return &CronJobScheduler{cron: c}
}

func (t *CronJobScheduler) Schedule(schedule string, task func()) (int, error) {
	id, err := t.cron.AddFunc(schedule, task)
	if err != nil {
		return 0, fmt.Errorf("failed to schedule job: %s %v", schedule, err)
	}
	return int(id), nil
}

func (t *CronJobScheduler) Stop(taskId int) {
	t.cron.Remove(cron.EntryID(taskId))
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (t *CronJobScheduler) Shutdown() {
	<-t.cron.Stop().Done()
}
