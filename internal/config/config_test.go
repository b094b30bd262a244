package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, splitCSV("kafka-1:9092, kafka-2:9092"))
	assert.Equal(t, []string{"kafka:9092"}, splitCSV("kafka:9092,"))
	assert.Empty(t, splitCSV(" , "))
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.NotEmpty(t, cfg.HTTPAddr)
	assert.NotEmpty(t, cfg.KafkaBrokers)
}
