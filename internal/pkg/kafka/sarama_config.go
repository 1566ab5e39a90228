package kafka

import (
	"Inkwell/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

// newSaramaConfig 统一初始化生产者使用的 sarama.Config
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Return.Successes = false
	c.Producer.Return.Errors = true
	c.Producer.Retry.Max = 0
	c.ChannelBufferSize = 1024
	c.Producer.Timeout = 3 * time.Second
	c.Net.DialTimeout = 3 * time.Second

	return c
}
