package mesh

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// FitRequest is the payload accepted on the requests topic and by the
// HTTP fit endpoint.
type FitRequest struct {
	Body    MeshDocument `json:"body"`
	Garment MeshDocument `json:"garment"`
	Gender  string       `json:"gender,omitempty"`
}

// RequestHandler is called for each fitting request received over MQTT.
// rawPayload is provided so callers can log or archive the original message.
type RequestHandler func(rawPayload []byte, req *FitRequest, err error)

// MQTTClient manages the MQTT connection and the fitting-request
// subscription.
type MQTTClient struct {
	client      mqtt.Client
	config      *Config
	handler     RequestHandler
	isConnected bool
	mu          sync.RWMutex
}

// PublishPrefixFor resolves the topic prefix: MQTT_PUBLISH_PREFIX env
// var, then config, then "tryon".
func PublishPrefixFor(config *Config) string {
	if prefix := os.Getenv("MQTT_PUBLISH_PREFIX"); prefix != "" {
		return prefix
	}
	if config != nil && config.MQTT.PublishPrefix != "" {
		return config.MQTT.PublishPrefix
	}
	return "tryon"
}

// InitMQTT connects to the broker from config (the MQTT_BROKER env var
// takes precedence) and subscribes to <prefix>/requests. Returns nil
// when no broker is configured: MQTT is optional.
func InitMQTT(config *Config, handler RequestHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil {
		broker = config.MQTT.Broker
	}
	if broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, nil
	}

	c := &MQTTClient{config: config, handler: handler}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config != nil && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "tryon"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config != nil && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config != nil && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		log.Printf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		c.setConnected(true)
		if err := c.subscribe(client); err != nil {
			log.Printf("Error subscribing to request topic: %v", err)
		}
	})

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("MQTT connect timeout for broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", err)
	}

	return c, nil
}

// RequestTopic returns the topic fitting requests are expected on.
func (c *MQTTClient) RequestTopic() string {
	return PublishPrefixFor(c.config) + "/requests"
}

func (c *MQTTClient) subscribe(client mqtt.Client) error {
	topic := c.RequestTopic()
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		c.HandleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("subscribe timeout for %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	log.Printf("Subscribed to %s", topic)
	return nil
}

// HandleMessage decodes a fitting-request payload and dispatches it to
// the registered handler.
func (c *MQTTClient) HandleMessage(topic string, payload []byte) {
	if c.handler == nil {
		return
	}
	var req FitRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.handler(payload, nil, fmt.Errorf("decoding fit request on %s: %w", topic, err))
		return
	}
	c.handler(payload, &req, nil)
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// IsConnected reports whether the client currently has a broker connection.
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// Client exposes the underlying mqtt.Client for the Publisher.
func (c *MQTTClient) Client() mqtt.Client {
	return c.client
}

// Disconnect closes the broker connection.
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}
