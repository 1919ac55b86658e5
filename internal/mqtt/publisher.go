package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"pv-sizer/internal/sizing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Publisher pushes sizing results to an MQTT broker so dashboards and
// home automation can track the latest design. A disabled publisher
// is a no-op, which keeps call sites free of feature flags.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			zap.S().Warnf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			zap.S().Info("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
	}, nil
}

// PublishReport publishes the headline figures on individual topics
// and the full report as a retained JSON document.
func (p *Publisher) PublishReport(rep *sizing.Report) error {
	if p == nil || !p.enabled {
		return nil
	}

	topics := map[string]interface{}{
		"required_wp":  float64(rep.RequiredWp),
		"installed_wp": rep.Totals.TotalWp,
		"prod_kwh_day": rep.Totals.ProdKWhDay,
		"coverage_pct": rep.Totals.CoveragePct,
		"compatible":   rep.StringCheck.IsCompatible,
		"n_series":     rep.Inputs.NSeries,
		"n_parallel":   rep.Inputs.NParallel,
	}

	for name, value := range topics {
		topic := fmt.Sprintf("%s/sizing/%s", p.topicPrefix, name)
		payload := fmt.Sprintf("%v", value)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			zap.S().Warnf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	token := p.client.Publish(p.topicPrefix+"/sizing/report", 0, true, raw)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish report: %w", token.Error())
	}

	return nil
}

// PublishLive publishes a live observation from the monitor loop.
func (p *Publisher) PublishLive(payload any) error {
	if p == nil || !p.enabled {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal live payload: %w", err)
	}

	token := p.client.Publish(p.topicPrefix+"/live", 0, true, raw)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish live payload: %w", token.Error())
	}
	return nil
}

func (p *Publisher) IsConnected() bool {
	if p == nil || !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

// Close is safe on a nil or disabled publisher, so callers can tear
// down unconditionally even when the broker connection never came up.
func (p *Publisher) Close() {
	if p != nil && p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
