package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const metricNamespace = "ZSmokeShop/Pickup"

// MetricsEmitter publishes sweep counters to CloudWatch.
type MetricsEmitter struct {
	CloudWatch CloudWatchAPI
}

// NewMetricsEmitter returns a MetricsEmitter backed by the given client.
func NewMetricsEmitter(cw CloudWatchAPI) *MetricsEmitter {
	return &MetricsEmitter{CloudWatch: cw}
}

// PutSweepMetrics publishes one datapoint per counter under the pickup namespace.
func (m *MetricsEmitter) PutSweepMetrics(ctx context.Context, at time.Time, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	data := make([]cwtypes.MetricDatum, 0, len(counts))
	for name, n := range counts {
		metricName := name
		value := float64(n)
		ts := at
		data = append(data, cwtypes.MetricDatum{
			MetricName: &metricName,
			Timestamp:  &ts,
			Value:      &value,
			Unit:       cwtypes.StandardUnitCount,
		})
	}

	namespace := metricNamespace
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &namespace,
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
