// Package kafka carries vessel updates, tick output and alerts over Kafka.
package kafka

import (
	"fmt"
	"net"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultVesselTopic = "vessel_updates"
	DefaultRiskTopic   = "vessel_risk"
	DefaultAlertTopic  = "collision_alerts"
)

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
}

// Topics lists the topics the detector reads and writes, single partition
// and unreplicated.
func Topics(vesselTopic, riskTopic, alertTopic string) []TopicConfig {
	names := []string{vesselTopic, riskTopic, alertTopic}
	cfgs := make([]TopicConfig, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		cfgs = append(cfgs, TopicConfig{Topic: n, NumPartitions: 1, ReplicationFactor: 1})
	}
	return cfgs
}

// CreateTopics ensures each topic exists with the given config. Topics that
// already exist are left alone.
func CreateTopics(broker string, configs []TopicConfig) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("dial %s: %w", broker, err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	hostPort := net.JoinHostPort(controller.Host, fmt.Sprint(controller.Port))
	ctrlConn, err := kafka.Dial("tcp", hostPort)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", hostPort, err)
	}
	defer ctrlConn.Close()

	topics := make([]kafka.TopicConfig, 0, len(configs))
	for _, cfg := range configs {
		topics = append(topics, kafka.TopicConfig{
			Topic:             cfg.Topic,
			NumPartitions:     cfg.NumPartitions,
			ReplicationFactor: cfg.ReplicationFactor,
		})
	}
	if err := ctrlConn.CreateTopics(topics...); err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	return nil
}
