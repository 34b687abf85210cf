package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AzielCF/az-wap/domains/audit"
	"github.com/AzielCF/az-wap/domains/metrics"
	"github.com/AzielCF/az-wap/providers"
	"github.com/sirupsen/logrus"
)

type metricKey struct {
	name   string
	labels string
}

type MetricsRegistry struct {
	mu         sync.Mutex
	counters   map[metricKey]float64
	gauges     map[metricKey]float64
	startedAt  time.Time
	audit      audit.IAppender
	log        *logrus.Logger
	provs      providers.Set
	adminEmail string
	adminPhone string
}

func NewMetricsRegistry(appender audit.IAppender, log *logrus.Logger, provs providers.Set, adminEmail, adminPhone string) *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[metricKey]float64), gauges: make(map[metricKey]float64),
		startedAt: time.Now().UTC(), audit: appender, log: log, provs: provs,
		adminEmail: adminEmail, adminPhone: adminPhone,
	}
}

func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

func (m *MetricsRegistry) IncCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := metricKey{name, labelKey(labels)}
	m.counters[k]++
}

func (m *MetricsRegistry) SetGauge(name string, labels map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := metricKey{name, labelKey(labels)}
	m.gauges[k] = value
}

// Render emits Prometheus text exposition format: one TYPE line per metric
// name, then one sample line per label-tuple.
func (m *MetricsRegistry) Render() string {
	m.mu.Lock()
	m.gauges[metricKey{"mcp_uptime_seconds", ""}] = time.Since(m.startedAt).Seconds()
	defer m.mu.Unlock()

	var b strings.Builder
	emit := func(kind string, values map[metricKey]float64) {
		byName := make(map[string][]metricKey)
		for k := range values {
			byName[k.name] = append(byName[k.name], k)
		}
		names := make([]string, 0, len(byName))
		for n := range byName {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "# TYPE %s %s\n", name, kind)
			ks := byName[name]
			sort.Slice(ks, func(i, j int) bool { return ks[i].labels < ks[j].labels })
			for _, k := range ks {
				if k.labels == "" {
					fmt.Fprintf(&b, "%s %v\n", name, values[k])
				} else {
					fmt.Fprintf(&b, "%s{%s} %v\n", name, k.labels, values[k])
				}
			}
		}
	}
	emit("gauge", m.gauges)
	emit("counter", m.counters)
	return b.String()
}

// Alert implements spec §4.10's severity ladder: LOW is metrics-only,
// MEDIUM/HIGH also append to the audit chain, CRITICAL additionally pages
// the configured admin contact over WhatsApp or email.
func (m *MetricsRegistry) Alert(severity metrics.Severity, message string, labels map[string]string) {
	m.IncCounter("mcp_alerts_total", map[string]string{"severity": string(severity)})

	if severity == metrics.SeverityLow {
		return
	}

	ctx := context.Background()
	if m.audit != nil {
		_ = m.audit.Append(ctx, audit.Entry{
			EventType: "alert_raised", Actor: "system", Target: string(severity), Details: message,
		})
	}

	if severity != metrics.SeverityCritical {
		return
	}

	if m.provs.WhatsApp != nil && m.adminPhone != "" {
		if _, err := m.provs.WhatsApp.SendFreeform(ctx, providers.SmsRequest{To: m.adminPhone, Body: "CRITICAL: " + message}); err != nil {
			m.log.WithError(err).Error("critical alert whatsapp notification failed")
		}
	} else if m.provs.Email != nil && m.adminEmail != "" {
		if _, err := m.provs.Email.Send(ctx, providers.EmailRequest{To: m.adminEmail, Subject: "CRITICAL alert", Body: message}); err != nil {
			m.log.WithError(err).Error("critical alert email notification failed")
		}
	}
}
