package jobs

import (
	"context"

	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/metrics"
)

// MetricsExportJob writes the metrics registry to a node-exporter textfile
type MetricsExportJob struct {
	recorder *metrics.Recorder
	path     string
	schedule string
	logger   *logger.Logger
}

// NewMetricsExportJob creates a new metrics export job
func NewMetricsExportJob(rec *metrics.Recorder, path, schedule string, log *logger.Logger) *MetricsExportJob {
	return &MetricsExportJob{
		recorder: rec,
		path:     path,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *MetricsExportJob) Name() string {
	return "metrics_export"
}

// Schedule returns the cron schedule
func (j *MetricsExportJob) Schedule() string {
	return j.schedule
}

// Run writes the textfile
func (j *MetricsExportJob) Run(ctx context.Context) (string, error) {
	if err := j.recorder.WriteTextfile(j.path); err != nil {
		return "", err
	}
	j.logger.WithField("path", j.path).Debug("Metrics textfile written")
	return "", nil
}
