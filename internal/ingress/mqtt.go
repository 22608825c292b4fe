/*
Copyright 2024 Tim St. Pierre
*/
package ingress

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	mqtt "github.com/soypat/natiu-mqtt"
)

// MQTT subscribes to Topic; every message published there is one request.
//
// Payloads are the text itself. A trailing '\n' or NUL counts as the
// terminator, otherwise one is added.
type MQTT struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

func (m *MQTT) String() string {
	return "mqtt:" + m.Broker + "/" + m.Topic
}

func (m *MQTT) Serve(ctx context.Context, w io.Writer) error {
	l := log.WithField("source", m.String())
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.Broker)
	if err != nil {
		return fmt.Errorf("ingress: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
		OnPub: func(_ mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			payload, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			if _, err := w.Write(frame(payload)); err != nil {
				l.WithError(err).WithField("topic", string(varPub.TopicName)).Warn("request failed")
			}
			return nil
		},
	})

	id := m.ClientID
	if id == "" {
		id = "lcd2004-" + uuid.NewString()[:8]
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(id))
	// Nothing is published, so no pings are sent either.
	varconn.KeepAlive = 0
	if m.Username != "" {
		varconn.Username = []byte(m.Username)
		if m.Password != "" {
			varconn.Password = []byte(m.Password)
		}
	}
	if err := client.Connect(ctx, conn, &varconn); err != nil {
		return fmt.Errorf("ingress: mqtt connect %s: %w", m.Broker, err)
	}
	err = client.Subscribe(ctx, mqtt.VariablesSubscribe{
		PacketIdentifier: 1,
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(m.Topic), QoS: mqtt.QoS0},
		},
	})
	if err != nil {
		return fmt.Errorf("ingress: mqtt subscribe %s: %w", m.Topic, err)
	}
	l.WithField("client", id).Info("subscribed")

	for {
		if err := client.HandleNext(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingress: mqtt %s: %w", m.Broker, err)
		}
	}
}

func frame(payload []byte) []byte {
	if n := len(payload); n > 0 && (payload[n-1] == '\n' || payload[n-1] == 0) {
		return payload
	}
	return append(payload, 0)
}
