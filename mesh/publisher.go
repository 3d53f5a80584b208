package mesh

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes fitting results to MQTT for downstream consumers
// such as the external visualizer.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	events        map[string]FittingEvent
	mu            sync.RWMutex
}

// NewPublisher creates a result publisher. A nil client disables
// publishing (for testing).
func NewPublisher(client mqtt.Client, config *Config) *Publisher {
	return &Publisher{
		client:        client,
		publishPrefix: PublishPrefixFor(config),
		qos:           0,    // Fire and forget for result events
		retain:        true, // Retain the latest fitted mesh per garment
		events:        make(map[string]FittingEvent),
	}
}

// PublishResult publishes the fitting event to <prefix>/results and the
// fitted mesh document to <prefix>/fitted/<garment name>.
func (p *Publisher) PublishResult(gender Gender, result *FitResult) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	name := result.Garment.Name
	if name == "" {
		name = "garment"
	}

	event := FittingEvent{
		Garment:    name,
		Gender:     string(gender),
		Converged:  result.ICP.Converged,
		Iterations: result.ICP.Iterations,
		Error:      result.ICP.Error,
		Scale:      result.Transform.Scale,
		Timestamp:  time.Now().Unix(),
	}

	p.mu.Lock()
	p.events[name] = event
	p.mu.Unlock()

	if err := p.publishJSON(p.publishPrefix+"/results", event); err != nil {
		log.Printf("Error publishing fitting event for %s: %v", name, err)
		return err
	}

	doc := DocumentFromMesh(result.Garment)
	topic := fmt.Sprintf("%s/fitted/%s", p.publishPrefix, name)
	if err := p.publishJSON(topic, doc); err != nil {
		log.Printf("Error publishing fitted mesh for %s: %v", name, err)
		return err
	}

	return nil
}

// LastEvent returns the most recent fitting event for a garment name.
func (p *Publisher) LastEvent(garment string) (FittingEvent, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	event, ok := p.events[garment]
	return event, ok
}

func (p *Publisher) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for %s", topic)
	}
	return token.Error()
}
