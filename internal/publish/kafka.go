// Package publish fans decoded MRT records out to Kafka as JSON, one
// topic per configured destination, mirroring internal/kafka's consumer
// client construction but configured to produce instead.
package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/route-beacon/mrt-decoder/internal/metrics"
	"github.com/route-beacon/mrt-decoder/internal/mrt"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"go.uber.org/zap"
)

// Topics names the one topic each record kind is published to.
type Topics struct {
	Rib     string
	State   string
	Message string
}

// Publisher wraps one *kgo.Client configured for producing. Each record
// kind is published to its own topic (Topics), keyed so a downstream
// consumer can partition by prefix or peer.
type Publisher struct {
	client *kgo.Client
	topics Topics
	logger *zap.Logger
}

func NewPublisher(brokers []string, topics Topics, clientID string, tlsCfg *tls.Config, saslMech sasl.Mechanism, logger *zap.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
	}
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if saslMech != nil {
		opts = append(opts, kgo.SASL(saslMech))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("publish: new client: %w", err)
	}
	return &Publisher{client: client, topics: topics, logger: logger}, nil
}

// Ping verifies connectivity to the Kafka cluster; used by
// internal/health's readiness check.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Publisher) Close() { p.client.Close() }

type ribEnvelope struct {
	Kind   string   `json:"kind"`
	SeqNum uint32   `json:"seq_num"`
	Prefix string   `json:"prefix"`
	Peer   []string `json:"peer,omitempty"`
}

func newRibEnvelope(rib *mrt.Rib) ribEnvelope {
	return ribEnvelope{
		Kind:   "rib",
		SeqNum: rib.SeqNum,
		Prefix: fmt.Sprintf("%s/%d", rib.Prefix.Address.IP, rib.Prefix.PrefixLen),
	}
}

// PublishRib JSON-encodes rib and produces it keyed by its prefix.
func (p *Publisher) PublishRib(ctx context.Context, rib *mrt.Rib) error {
	env := newRibEnvelope(rib)
	return p.produce(ctx, p.topics.Rib, []byte(env.Prefix), env)
}

type stateEnvelope struct {
	Kind     string `json:"kind"`
	SrcAS    uint32 `json:"src_as"`
	DstAS    uint32 `json:"dst_as"`
	Src      string `json:"src"`
	Dst      string `json:"dst"`
	OldState uint16 `json:"old_state"`
	NewState uint16 `json:"new_state"`
}

func newStateEnvelope(st *mrt.BgpState) stateEnvelope {
	return stateEnvelope{
		Kind: "state", SrcAS: st.SrcAS, DstAS: st.DstAS,
		Src: st.Src.IP.String(), Dst: st.Dst.IP.String(),
		OldState: st.OldState, NewState: st.NewState,
	}
}

// PublishState JSON-encodes st and produces it keyed by the peer pair.
func (p *Publisher) PublishState(ctx context.Context, st *mrt.BgpState) error {
	env := newStateEnvelope(st)
	key := fmt.Sprintf("%s-%s", env.Src, env.Dst)
	return p.produce(ctx, p.topics.State, []byte(key), env)
}

type msgEnvelope struct {
	Kind  string `json:"kind"`
	SrcAS uint32 `json:"src_as"`
	DstAS uint32 `json:"dst_as"`
	Src   string `json:"src"`
	Dst   string `json:"dst"`
	Raw   []byte `json:"raw"`
}

func newMsgEnvelope(msg *mrt.BgpMsg) msgEnvelope {
	return msgEnvelope{
		Kind: "message", SrcAS: msg.SrcAS, DstAS: msg.DstAS,
		Src: msg.Src.IP.String(), Dst: msg.Dst.IP.String(), Raw: msg.Raw,
	}
}

// PublishMessage JSON-encodes msg and produces it keyed by the peer pair.
func (p *Publisher) PublishMessage(ctx context.Context, msg *mrt.BgpMsg) error {
	env := newMsgEnvelope(msg)
	key := fmt.Sprintf("%s-%s", env.Src, env.Dst)
	return p.produce(ctx, p.topics.Message, []byte(key), env)
}

func (p *Publisher) produce(ctx context.Context, topic string, key []byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("publish: marshal: %w", err)
	}

	record := &kgo.Record{Topic: topic, Key: key, Value: payload}
	result := p.client.ProduceSync(ctx, record)
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("publish: produce: %w", err)
	}
	metrics.KafkaPublishedTotal.WithLabelValues(topic).Inc()
	return nil
}
