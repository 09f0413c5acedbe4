package mqtt

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"grdiag/config"
	"grdiag/logger"
	"grdiag/sampler"
)

// Client periodically publishes the latest snapshot as JSON.
type Client struct {
	flags      *config.MQTTFlags
	client     mqtt.Client
	stopChan   chan struct{}
	dataSource func() *sampler.Snapshot
}

func NewClient(flags *config.MQTTFlags, dataSource func() *sampler.Snapshot) *Client {
	return &Client{
		flags:      flags,
		stopChan:   make(chan struct{}),
		dataSource: dataSource,
	}
}

func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.flags.Broker)
	opts.SetClientID("grdiag-2gr")
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("connected to mqtt broker", zap.String("broker", c.flags.Broker))
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// StartPublishing publishes the latest snapshot on every tick until
// StopPublishing is called.
func (c *Client) StartPublishing() {
	logger.Info("publishing snapshots",
		zap.String("topic", c.flags.Topic),
		zap.Duration("interval", c.flags.UpdateInterval))

	go func() {
		ticker := time.NewTicker(c.flags.UpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopChan:
				return
			case <-ticker.C:
				c.publish()
			}
		}
	}()
}

func (c *Client) StopPublishing() {
	close(c.stopChan)
}

func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

func (c *Client) publish() {
	snapshot := c.dataSource()
	if snapshot == nil || snapshot.Empty() {
		logger.Debug("nothing to publish")
		return
	}

	data, err := snapshot.ToJSON()
	if err != nil {
		logger.Error("couldn't serialize snapshot", zap.Error(err))
		return
	}

	token := c.client.Publish(c.flags.Topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		logger.Warn("mqtt publish failed", zap.Error(token.Error()))
	}
}
