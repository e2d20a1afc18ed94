package clientmqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"showbridge/internal/logger"
	"showbridge/internal/protocol"
)

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	dmxDataCh chan<- DataCh

	mu     sync.Mutex
	topics map[nameTopic]int
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
		topics:    map[nameTopic]int{},
	}
}

func (c *ClientMQTT) Start(ctx context.Context, dmxDataCh chan<- DataCh) error {
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.dmxDataCh = dmxDataCh

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return fmt.Errorf("connect to broker: %w", c.ctx.Err())
	}

	c.log.Module("mqtt").Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.Module("mqtt").Info("client connected to server")
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Module("mqtt").Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.Module("mqtt").Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())
	d, err := c.decode(msg.Topic(), msg.Payload())
	if err != nil {
		c.log.Module("mqtt").Errorf("message dropped: %v", err)
		return
	}
	select {
	case c.dmxDataCh <- d:
	case <-c.ctx.Done():
	}
}

// decode maps a message on a show topic to a DMX update for that show.
func (c *ClientMQTT) decode(topic string, payload []byte) (DataCh, error) {
	c.mu.Lock()
	show, ok := c.topics[nameTopic(topic)]
	c.mu.Unlock()
	if !ok {
		return DataCh{}, fmt.Errorf("topic %s is not a show topic", topic)
	}

	var data Payload
	if err := json.Unmarshal(payload, &data); err != nil {
		return DataCh{}, fmt.Errorf("message could not be parsed (%s): %w", payload, err)
	}
	return DataCh{Show: show, Data: data}, nil
}

// ShowTopic returns the DMX topic of show index: <prefix>/<name>.<index>.
func ShowTopic(prefix, name string, index int) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "show"
	}
	return fmt.Sprintf("%s/%s.%d", prefix, name, index)
}

// PublishBridges publishes the discovered bridges as one retained JSON array.
func (c *ClientMQTT) PublishBridges(bridges []protocol.ShowBridge) error {
	msg, err := json.Marshal(bridgeMessages(bridges))
	if err != nil {
		return fmt.Errorf("bridges: %w", err)
	}
	c.publish(c.cfgClient.Prefix+"/bridges", true, msg)
	return nil
}

// PublishShows publishes the shows as one retained JSON array and creates a
// DMX topic per show.
func (c *ClientMQTT) PublishShows(shows []protocol.Show) error {
	messages := c.showMessages(shows)
	msg, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("shows: %w", err)
	}
	c.publish(c.cfgClient.Prefix+"/shows", true, msg)
	for _, m := range messages {
		c.PubTopic(m.Topic, m.Index)
	}
	return nil
}

func bridgeMessages(bridges []protocol.ShowBridge) []BridgeMessage {
	out := make([]BridgeMessage, len(bridges))
	for i, b := range bridges {
		out[i] = BridgeMessage{
			Index:     i,
			Address:   b.Addr.String(),
			Version:   b.Version,
			MaxPPS:    b.MaxPPS,
			MaxPoints: b.MaxPoints,
		}
	}
	return out
}

func (c *ClientMQTT) showMessages(shows []protocol.Show) []ShowMessage {
	out := make([]ShowMessage, len(shows))
	for i, s := range shows {
		out[i] = ShowMessage{
			Index:      i,
			ID:         s.ID,
			Name:       s.Name,
			Port:       s.Port,
			Online:     s.Dac.Online(),
			ExternMode: s.Dac.ExternMode(),
			Topic:      ShowTopic(c.cfgClient.Prefix, s.Name, i),
		}
	}
	return out
}

// PubTopic publishes an idle payload on a show topic and then subscribes to it.
func (c *ClientMQTT) PubTopic(topic string, show int) {
	c.mu.Lock()
	if _, ok := c.topics[nameTopic(topic)]; ok {
		c.mu.Unlock()
		c.log.Module("mqtt").Debug("topic существует: ", topic)
		return
	}
	c.topics[nameTopic(topic)] = show
	c.mu.Unlock()

	msg, err := json.Marshal(Payload{
		DMXCommand{Channel: 0, Value: 0}, DMXCommand{Channel: 1, Value: 0}, DMXCommand{Channel: 2, Value: 0},
	})
	if err != nil {
		c.log.Module("mqtt").Errorf("public topic. msg: %v", err)
		return
	}
	c.publish(topic, false, msg, c.sub)
}

func (c *ClientMQTT) publish(topic string, retained bool, msg []byte, then ...func(string)) {
	token := c.client.Publish(topic, c.cfgClient.Qos, retained, msg)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Module("mqtt").Errorf("error publish topic %s. %v", topic, token.Error())
				return
			}
			for _, fn := range then {
				fn(topic)
			}
		}
	}()
}

func (c *ClientMQTT) sub(topic string) {
	token := c.client.Subscribe(topic, c.cfgClient.Qos, nil)
	select {
	case <-c.ctx.Done():
		return
	case <-token.Done():
		if token.Error() != nil {
			c.log.Module("mqtt").Errorf("topic %s subscription error. %v", topic, token.Error())
			return
		}
	}
	c.log.Module("mqtt").Debugf("topic %s subscribed", topic)
}
