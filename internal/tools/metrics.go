package tools

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/remedybench/remedybench/internal/sim"
)

// Metric names accepted by query_metrics.
const (
	MetricErrorRate  = "error_rate"
	MetricLatencyP95 = "latency_p95"
	MetricQPS        = "qps"
)

// Query window bounds, in minutes.
const (
	MinQueryMinutes = 1
	MaxQueryMinutes = 120
)

// Status tiers attached to metric readings.
const (
	StatusGood       = "good"
	StatusAcceptable = "acceptable"
	StatusConcerning = "concerning"
	StatusInfo       = "info"
)

type queryMetricsTool struct{}

func (queryMetricsTool) Name() string { return ToolQueryMetrics }

func (queryMetricsTool) Execute(env *sim.Env, args Args) Result {
	service, err := args.String("service")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	namespace, err := args.String("namespace")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	metric, err := args.String("metric")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	minutes, err := args.Int("minutes")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	if metric != MetricErrorRate && metric != MetricLatencyP95 && metric != MetricQPS {
		return failure(ErrorArgument, "invalid metric: %s", metric)
	}
	if minutes < MinQueryMinutes || minutes > MaxQueryMinutes {
		return failure(ErrorArgument, "minutes out of range: %d", minutes)
	}
	dep, ok := env.Deployment(service, namespace)
	if !ok {
		return failure(ErrorUnknownResource, "unknown deployment: %s in %s", service, namespace)
	}

	reading := SyntheticReading(env.Seed, service, namespace, metric, minutes, dep.Replicas)
	return success(map[string]any{
		"metric":         metric,
		"minutes":        minutes,
		"value":          reading.Value,
		"status":         reading.Status,
		"recommendation": reading.Recommendation,
	})
}

// Reading is one synthetic metric observation.
type Reading struct {
	Value          float64
	Status         string
	Recommendation string
}

// SyntheticReading computes a deterministic metric value for a deployment.
// The generator is a pure function of (seed, service, namespace, metric,
// minutes): identical inputs always yield bit-identical output, which is what
// makes recorded fixtures reproducible. More replicas bias error rate and
// latency down and throughput up.
func SyntheticReading(seed int64, service, namespace, metric string, minutes, replicas int) Reading {
	rng := metricRNG(seed, service, namespace, metric, minutes)

	switch metric {
	case MetricErrorRate:
		base := math.Max(0.005, 0.06-0.006*float64(replicas))
		value := math.Max(0, base+uniform(rng, -0.003, 0.003))
		switch {
		case value < 0.015:
			return Reading{value, StatusGood, "Error rate is acceptable"}
		case value < 0.025:
			return Reading{value, StatusAcceptable, "Error rate improved but could be better"}
		default:
			return Reading{value, StatusConcerning, "Error rate still high, consider further scaling"}
		}

	case MetricLatencyP95:
		base := math.Max(80, 300-20*float64(replicas))
		value := math.Max(0, base+uniform(rng, -10, 10))
		switch {
		case value < 120:
			return Reading{value, StatusGood, "Latency is acceptable"}
		case value < 200:
			return Reading{value, StatusAcceptable, "Latency improved but could be better"}
		default:
			return Reading{value, StatusConcerning, "Latency still high, consider further scaling"}
		}

	default: // qps
		base := 50 * float64(replicas)
		value := math.Max(0, base+uniform(rng, -10, 10))
		return Reading{value, StatusInfo, fmt.Sprintf("Current throughput with %d replicas", replicas)}
	}
}

// metricRNG builds a generator seeded from a stable hash of the query key
// combined with the environment seed. A fresh generator per query avoids any
// ordering dependence between queries.
func metricRNG(seed int64, service, namespace, metric string, minutes int) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%s:%s:%d", service, namespace, metric, minutes)
	return rand.New(rand.NewSource(int64(h.Sum64() ^ uint64(seed))))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
