package shipper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{Servers: []ServerConfig{{Host: "127.0.0.1"}}}
	assert.NoError(t, valid.Validate())

	noServers := Config{}
	assert.Error(t, noServers.Validate())

	badPacket := Config{Servers: valid.Servers, MaxPacketSize: 10}
	assert.Error(t, badPacket.Validate())

	badTTL := Config{Servers: valid.Servers, TimeToLive: 300}
	assert.Error(t, badTTL.Validate())

	badPrecision := Config{Servers: valid.Servers, TimePrecision: "fortnights"}
	assert.Error(t, badPrecision.Validate())
}

func TestConfig_Defaults(t *testing.T) {
	var c Config
	assert.Equal(t, DefaultPacketSize, c.PacketSize())
	assert.Equal(t, PrecisionMillisecond, c.Precision())
}
