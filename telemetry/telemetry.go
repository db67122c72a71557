// Package telemetry reports product events. Reporting is fire-and-forget:
// callers discard the returned error on purpose.
package telemetry

import (
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
)

const namespace = "pingbot."

type Event struct {
	Name string
	Tags map[string]string
}

type Publisher interface {
	Publish(event Event) error
}

type StatsdPublisher struct {
	client statsd.ClientInterface
}

func NewStatsdPublisher(addr string) (*StatsdPublisher, error) {
	client, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		return nil, err
	}
	return &StatsdPublisher{client: client}, nil
}

func NewStatsdPublisherWithClient(client statsd.ClientInterface) *StatsdPublisher {
	return &StatsdPublisher{client: client}
}

func (p *StatsdPublisher) Publish(event Event) error {
	return p.client.Incr(event.Name, Tags(event.Tags), 1)
}

func (p *StatsdPublisher) Close() error {
	return p.client.Close()
}

// Tags turns a map into statsd "key:value" tags.
func Tags(tags map[string]string) []string {
	res := make([]string, 0, len(tags))
	for k, v := range tags {
		res = append(res, fmt.Sprintf("%s:%s", k, v))
	}
	return res
}

// NoopPublisher drops every event, used when no statsd agent is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(event Event) error {
	return nil
}
