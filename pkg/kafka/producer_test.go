package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewProducerAppliesOptions(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatal("expected error without brokers")
	}

	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithBatchBytes(2048),
		WithCompression("lz4"),
		WithHashByKey(true),
	)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()

	if p.writer.BatchBytes != 2048 {
		t.Fatalf("expected batch bytes 2048, got %d", p.writer.BatchBytes)
	}
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer for keyed ordering, got %T", p.writer.Balancer)
	}
	if p.writer.Compression != kafka.Lz4 {
		t.Fatalf("unexpected compression %v", p.writer.Compression)
	}
}

func TestEncode(t *testing.T) {
	b, err := encode(map[string]string{"side": "buy"})
	if err != nil || string(b) != `{"side":"buy"}` {
		t.Fatalf("unexpected json encoding %q %v", b, err)
	}
	if b, _ := encode("raw"); string(b) != "raw" {
		t.Fatalf("strings must pass through, got %q", b)
	}
}
