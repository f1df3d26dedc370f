package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

// groupConfig tunes the consumer group for replenishment intake. The
// initial offset is the oldest available: warehouse events published
// before the group's first commit (first deploy, group reset) must still
// be applied, and Replenish tolerates the resulting replays.
func groupConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Net.DialTimeout = 5 * time.Second
	return cfg
}

func NewGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	return sarama.NewConsumerGroup(brokers, groupID, groupConfig())
}
