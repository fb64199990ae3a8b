// Package metricspush ships the pipeline registry to a Prometheus
// Pushgateway or a remote_write endpoint on an interval. It is off unless
// METRICS_PUSH_EXPORTER is set.
package metricspush

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/orderpulse/internal/config"
	obstracing "github.com/smallbiznis/orderpulse/internal/observability/tracing"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const (
	ExporterRemoteWrite = "prometheus_remote_write"
	ExporterPushgateway = "prometheus_pushgateway"

	defaultPushTimeout = 5 * time.Second
)

var (
	ErrEndpointRequired = errors.New("metrics_push_endpoint_required")
	ErrJobRequired      = errors.New("metrics_push_job_required")
)

// Pusher sends one snapshot of a registry.
type Pusher interface {
	Push(ctx context.Context, gatherer prometheus.Gatherer) error
}

// NewPusher builds the pusher named by the config. A missing or unusable
// setting is logged and yields nil so serving is never blocked by it.
func NewPusher(cfg config.Config, log *zap.Logger) Pusher {
	if log == nil {
		log = zap.NewNop()
	}
	exporter := strings.ToLower(strings.TrimSpace(cfg.MetricsPushExporter))
	if exporter == "" {
		return nil
	}
	endpoint := strings.TrimSpace(cfg.MetricsPushEndpoint)
	if endpoint == "" {
		log.Warn("metrics push disabled", zap.Error(ErrEndpointRequired))
		return nil
	}

	switch exporter {
	case ExporterRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			log.Warn("metrics push disabled", zap.Error(fmt.Errorf("invalid METRICS_PUSH_ENDPOINT: %w", err)))
			return nil
		}
		return NewRemoteWritePusher(endpoint, cfg.MetricsPushToken, nil)
	case ExporterPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName, map[string]string{
			"environment": cfg.Environment,
			"version":     cfg.AppVersion,
		})
	default:
		log.Warn("metrics push disabled", zap.String("exporter", exporter))
		return nil
	}
}

// RemoteWritePusher posts snappy-compressed WriteRequests.
type RemoteWritePusher struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	now        func() time.Time
}

// NewRemoteWritePusher returns a remote_write pusher. A nil now uses the
// wall clock for sample timestamps.
func NewRemoteWritePusher(endpoint, authToken string, now func() time.Time) *RemoteWritePusher {
	if now == nil {
		now = time.Now
	}
	return &RemoteWritePusher{
		endpoint:  endpoint,
		authToken: strings.TrimSpace(authToken),
		httpClient: obstracing.WrapHTTPClient(&http.Client{
			Timeout: defaultPushTimeout,
		}),
		now: now,
	}
}

func (p *RemoteWritePusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	if p == nil || gatherer == nil {
		return nil
	}

	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	series := BuildSeries(families, p.now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	payload, err := proto.Marshal(protoadapt.MessageV2Of(&prompb.WriteRequest{Timeseries: series}))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(snappy.Encode(nil, payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// PushgatewayPusher replaces the job's group on a Pushgateway.
type PushgatewayPusher struct {
	endpoint string
	job      string
	grouping map[string]string
}

func NewPushgatewayPusher(endpoint, job string, grouping map[string]string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint: strings.TrimSpace(endpoint),
		job:      strings.TrimSpace(job),
		grouping: grouping,
	}
}

func (p *PushgatewayPusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	if p == nil || gatherer == nil {
		return nil
	}
	if p.endpoint == "" {
		return ErrEndpointRequired
	}
	if p.job == "" {
		return ErrJobRequired
	}

	pusher := push.New(p.endpoint, p.job).Gatherer(gatherer)
	for key, value := range p.grouping {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pusher = pusher.Grouping(key, value)
	}
	return pusher.PushContext(ctx)
}

// BuildSeries flattens gathered families into remote_write series.
// Histograms expand into _bucket, _sum and _count series; summaries and
// untyped families are skipped.
func BuildSeries(families []*dto.MetricFamily, timestampMs int64) []prompb.TimeSeries {
	series := make([]prompb.TimeSeries, 0, len(families))
	for _, family := range families {
		name := family.GetName()
		for _, m := range family.GetMetric() {
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				if m.GetCounter() != nil {
					series = append(series, sample(name, m.GetLabel(), nil, m.GetCounter().GetValue(), timestampMs))
				}
			case dto.MetricType_GAUGE:
				if m.GetGauge() != nil {
					series = append(series, sample(name, m.GetLabel(), nil, m.GetGauge().GetValue(), timestampMs))
				}
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				if h == nil {
					continue
				}
				for _, b := range h.GetBucket() {
					le := prompb.Label{Name: "le", Value: strconv.FormatFloat(b.GetUpperBound(), 'g', -1, 64)}
					series = append(series, sample(name+"_bucket", m.GetLabel(), &le, float64(b.GetCumulativeCount()), timestampMs))
				}
				inf := prompb.Label{Name: "le", Value: "+Inf"}
				series = append(series,
					sample(name+"_bucket", m.GetLabel(), &inf, float64(h.GetSampleCount()), timestampMs),
					sample(name+"_sum", m.GetLabel(), nil, h.GetSampleSum(), timestampMs),
					sample(name+"_count", m.GetLabel(), nil, float64(h.GetSampleCount()), timestampMs),
				)
			}
		}
	}
	return series
}

func sample(name string, pairs []*dto.LabelPair, extra *prompb.Label, value float64, timestampMs int64) prompb.TimeSeries {
	labels := make([]prompb.Label, 0, len(pairs)+2)
	labels = append(labels, prompb.Label{Name: "__name__", Value: name})
	for _, pair := range pairs {
		labels = append(labels, prompb.Label{Name: pair.GetName(), Value: pair.GetValue()})
	}
	if extra != nil {
		labels = append(labels, *extra)
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i].Name < labels[j].Name
	})
	return prompb.TimeSeries{
		Labels:  labels,
		Samples: []prompb.Sample{{Value: value, Timestamp: timestampMs}},
	}
}
