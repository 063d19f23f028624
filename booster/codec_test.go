package booster

import (
	"bufio"
	"bytes"
	"fmt"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func frame(body []byte) []byte {
	head := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	return append([]byte(head), body...)
}

func binaryFrame(t *testing.T, value interface{}) []byte {
	t.Helper()
	payload, err := msgpack.Marshal(value)
	require.NoError(t, err)
	return frame(append([]byte{BinaryMarker}, payload...))
}

func boostedChannel() *Channel {
	ch := NewChannel()
	ch.markBoosted()
	return ch
}

func readerFor(frames ...[]byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(bytes.Join(frames, nil)))
}

func TestReadUnboostedMatchesPlainCodec(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true,"n":3}}`)

	var got, want map[string]interface{}
	codec := NewDualCodec(NewChannel(), "", nil)
	require.NoError(t, codec.ReadObject(readerFor(frame(body)), &got))
	require.NoError(t, jsonrpc2.VSCodeObjectCodec{}.ReadObject(readerFor(frame(body)), &want))
	require.Equal(t, want, got)
}

func TestReadMixedBinaryAndJSONFrames(t *testing.T) {
	msg1 := map[string]interface{}{"jsonrpc": "2.0", "method": "one", "params": map[string]interface{}{"n": int8(1)}}
	msg3 := map[string]interface{}{"jsonrpc": "2.0", "method": "three"}

	stream := readerFor(
		binaryFrame(t, msg1),
		frame([]byte(`{"jsonrpc":"2.0","method":"two"}`)),
		binaryFrame(t, msg3),
	)
	codec := NewDualCodec(boostedChannel(), "", nil)

	var first, second, third map[string]interface{}
	require.NoError(t, codec.ReadObject(stream, &first))
	require.NoError(t, codec.ReadObject(stream, &second))
	require.NoError(t, codec.ReadObject(stream, &third))

	require.Equal(t, "one", first["method"])
	require.Equal(t, map[string]interface{}{"n": float64(1)}, first["params"])
	require.Equal(t, "two", second["method"])
	require.Equal(t, "three", third["method"])

	stats := codec.channel.Stats()
	require.Equal(t, int64(3), stats.Frames)
	require.Equal(t, int64(2), stats.BinaryFrames)
}

func TestReadRestoresFalseToken(t *testing.T) {
	msg := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "flags",
		"params": map[string]interface{}{
			"on":   true,
			"off":  DefaultFalseToken,
			"list": []interface{}{DefaultFalseToken, "keep"},
		},
	}
	codec := NewDualCodec(boostedChannel(), "", nil)

	var got map[string]interface{}
	require.NoError(t, codec.ReadObject(readerFor(binaryFrame(t, msg)), &got))
	params := got["params"].(map[string]interface{})
	require.Equal(t, false, params["off"])
	require.Equal(t, true, params["on"])
	require.Equal(t, []interface{}{false, "keep"}, params["list"])
}

func TestReadBinaryNonObjectFallsBackToJSON(t *testing.T) {
	// Structurally valid MessagePack, but not a message object. The same
	// body must be retried as JSON; here the retry fails too, which is a
	// fatal framing error.
	codec := NewDualCodec(boostedChannel(), "", nil)
	var got map[string]interface{}
	err := codec.ReadObject(readerFor(binaryFrame(t, 42)), &got)
	require.Error(t, err)
	require.Contains(t, err.Error(), "neither binary nor JSON")
}

func TestReadMalformedBinaryIsFatal(t *testing.T) {
	// 0xc1 is a reserved MessagePack byte, and "#\xc1" is not JSON either.
	codec := NewDualCodec(boostedChannel(), "", nil)
	var got map[string]interface{}
	err := codec.ReadObject(readerFor(frame([]byte{BinaryMarker, 0xc1})), &got)
	require.Error(t, err)
	require.Contains(t, err.Error(), "neither binary nor JSON")
}

func TestReadBoostedPlainJSONFrames(t *testing.T) {
	// A boosted channel still carries plain JSON messages.
	codec := NewDualCodec(boostedChannel(), "", nil)
	var got map[string]interface{}
	require.NoError(t, codec.ReadObject(readerFor(frame([]byte(`{"jsonrpc":"2.0","id":7,"result":null}`))), &got))
	require.Equal(t, float64(7), got["id"])
}

func TestReadDisabledGateTakesPlainPath(t *testing.T) {
	enabled := false
	codec := NewDualCodec(boostedChannel(), "", func() bool { return enabled })

	var got map[string]interface{}
	require.NoError(t, codec.ReadObject(readerFor(frame([]byte(`{"jsonrpc":"2.0","method":"m"}`))), &got))
	require.Equal(t, "m", got["method"])

	// Re-enabling re-engages the binary path on the already tagged channel.
	enabled = true
	msg := map[string]interface{}{"jsonrpc": "2.0", "method": "bin"}
	require.NoError(t, codec.ReadObject(readerFor(binaryFrame(t, msg)), &got))
	require.Equal(t, "bin", got["method"])
}

func TestReadTruncatedFrameSurfacesIOError(t *testing.T) {
	codec := NewDualCodec(boostedChannel(), "", nil)
	var got map[string]interface{}
	err := codec.ReadObject(readerFor([]byte("Content-Length: 50\r\n\r\n{\"jsonrpc\"")), &got)
	require.Error(t, err)
}

func TestWriteObjectUsesPlainFraming(t *testing.T) {
	var buf bytes.Buffer
	codec := NewDualCodec(boostedChannel(), "", nil)
	require.NoError(t, codec.WriteObject(&buf, map[string]string{"k": "v"}))

	var plain bytes.Buffer
	require.NoError(t, jsonrpc2.VSCodeObjectCodec{}.WriteObject(&plain, map[string]string{"k": "v"}))
	require.Equal(t, plain.Bytes(), buf.Bytes())
}
