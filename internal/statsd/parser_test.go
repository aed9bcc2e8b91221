package statsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Counter(t *testing.T) {
	r, err := ParseLine("page.views:3|c")
	require.NoError(t, err)
	assert.Equal(t, Record{Name: "page.views", Kind: Counter, Value: 3, Rate: 1.0}, r)
}

func TestParseLine_CounterSampleRate(t *testing.T) {
	r, err := ParseLine("page.views:2|c|@0.5")
	require.NoError(t, err)
	assert.Equal(t, "page.views", r.Name)
	assert.Equal(t, Counter, r.Kind)
	assert.Equal(t, 2.0, r.Value)
	assert.Equal(t, 0.5, r.Rate)
}

func TestParseLine_GaugeAbsolute(t *testing.T) {
	r, err := ParseLine("temp:10|g")
	require.NoError(t, err)
	assert.False(t, r.GaugeDelta)
	assert.Equal(t, 10.0, r.Value)
}

func TestParseLine_GaugeDelta(t *testing.T) {
	for _, line := range []string{"temp:+5|g", "temp:-2|g"} {
		r, err := ParseLine(line)
		require.NoError(t, err)
		assert.True(t, r.GaugeDelta, line)
	}
}

func TestParseLine_Timer(t *testing.T) {
	r, err := ParseLine("rq:100|ms")
	require.NoError(t, err)
	assert.Equal(t, Timer, r.Kind)
	assert.Equal(t, 100.0, r.Value)
}

func TestParseLine_Set(t *testing.T) {
	r, err := ParseLine("users:alice|s")
	require.NoError(t, err)
	assert.Equal(t, Set, r.Kind)
	assert.Equal(t, "alice", r.Member)
}

func TestParseLine_NameWithColon(t *testing.T) {
	r, err := ParseLine("host:port:1337:3|c")
	require.NoError(t, err)
	assert.Equal(t, "host:port:1337", r.Name)
	assert.Equal(t, 3.0, r.Value)
}

func TestParseLine_SampleRateInvalidOnGauge(t *testing.T) {
	_, err := ParseLine("temp:10|g|@0.5")
	assert.Error(t, err)
}

func TestParseLine_SampleRateInvalidOnSet(t *testing.T) {
	_, err := ParseLine("users:alice|s|@0.5")
	assert.Error(t, err)
}

func TestParseLine_SampleRateOutOfRange(t *testing.T) {
	for _, line := range []string{"x:1|c|@0", "x:1|c|@1.5", "x:1|c|@-1"} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"bad|c",
		"no_kind:1",
		"x:1|unknown",
		"x::|c",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}

func TestParseLine_ValueMustBeFullyConsumed(t *testing.T) {
	_, err := ParseLine("x:1abc|c")
	assert.Error(t, err)
}

func TestParseDatagram_PartialFailureIsolated(t *testing.T) {
	var ok []Record
	var bad []ParseFailure
	ParseDatagram([]byte("good:1|c\nbad|c\nfine:2|g\n"), func(r Record) {
		ok = append(ok, r)
	}, func(f ParseFailure) {
		bad = append(bad, f)
	})

	require.Len(t, ok, 2)
	assert.Equal(t, "good", ok[0].Name)
	assert.Equal(t, "fine", ok[1].Name)
	require.Len(t, bad, 1)
	assert.Equal(t, "bad|c", bad[0].Line)
}

func TestParseDatagram_SkipsEmptyLines(t *testing.T) {
	var n int
	ParseDatagram([]byte("\n\nx:1|c\n\n"), func(Record) { n++ }, nil)
	assert.Equal(t, 1, n)
}
