package booster

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/vmihailenco/msgpack/v5"
)

// BinaryMarker prefixes booster-encoded frame bodies. A frame body starting
// with any other byte is plain JSON.
const BinaryMarker = '#'

// DualCodec decodes both plain JSON frames and booster binary frames from a
// Content-Length framed stream. It is a drop-in replacement for
// jsonrpc2.VSCodeObjectCodec: on a channel that is not boosted, or while the
// feature is disabled, every read takes the plain path untouched.
//
// On a boosted channel the codec buffers the whole declared-length body
// before looking at it, so the first-byte check never consumes stream
// position and a failed binary attempt can retry the identical bytes as
// JSON. The stream is left at the start of the next frame either way.
type DualCodec struct {
	channel    *Channel
	falseToken string
	enabled    func() bool
	plain      jsonrpc2.VSCodeObjectCodec
}

// NewDualCodec builds a codec bound to ch. enabled gates the boosted path at
// read time; a nil func means always on.
func NewDualCodec(ch *Channel, falseToken string, enabled func() bool) *DualCodec {
	if falseToken == "" {
		falseToken = DefaultFalseToken
	}
	return &DualCodec{channel: ch, falseToken: falseToken, enabled: enabled}
}

// WriteObject frames obj exactly like the plain codec. Client-to-server
// traffic is always JSON; only the server-to-client direction is re-encoded
// by the booster.
func (c *DualCodec) WriteObject(stream io.Writer, obj interface{}) error {
	return c.plain.WriteObject(stream, obj)
}

// ReadObject consumes exactly one message from stream and decodes it into v.
func (c *DualCodec) ReadObject(stream *bufio.Reader, v interface{}) error {
	if !c.boosted() {
		return c.plain.ReadObject(stream, v)
	}
	body, err := readFrame(stream)
	if err != nil {
		return err
	}
	binary := body[0] == BinaryMarker
	c.channel.countFrame(len(body), binary)
	if !binary {
		return json.Unmarshal(body, v)
	}
	if err := c.decodeBinary(body[1:], v); err == nil {
		return nil
	}
	// The booster may interleave plain JSON frames with binary-looking ones.
	// Retry the same bytes as JSON before declaring the stream corrupt; a
	// frame that decodes as neither format is fatal, since guessing past it
	// would desynchronize every following message.
	if jsonErr := json.Unmarshal(body, v); jsonErr != nil {
		return fmt.Errorf("booster: frame decodes as neither binary nor JSON: %w", jsonErr)
	}
	return nil
}

func (c *DualCodec) boosted() bool {
	if !c.channel.Boosted() {
		return false
	}
	return c.enabled == nil || c.enabled()
}

// decodeBinary unmarshals a MessagePack payload and re-frames it as the JSON
// message v expects. The payload must carry a message object at top level;
// anything else is rejected so the caller can fall back.
func (c *DualCodec) decodeBinary(payload []byte, v interface{}) error {
	var value interface{}
	if err := msgpack.Unmarshal(payload, &value); err != nil {
		return err
	}
	obj, ok := restoreFalse(value, c.falseToken).(map[string]interface{})
	if !ok {
		return fmt.Errorf("booster: binary payload is not a message object")
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// restoreFalse replaces the agreed stand-in token with JSON false. The
// booster encodes false as this token so that false and absent fields stay
// distinguishable after re-encoding.
func restoreFalse(value interface{}, token string) interface{} {
	switch val := value.(type) {
	case string:
		if val == token {
			return false
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = restoreFalse(item, token)
		}
		return val
	case map[string]interface{}:
		for k, item := range val {
			val[k] = restoreFalse(item, token)
		}
		return val
	default:
		return value
	}
}

// readFrame reads one Content-Length framed body. Header handling mirrors
// jsonrpc2.VSCodeObjectCodec so boosted and unboosted streams stay byte
// compatible.
func readFrame(stream *bufio.Reader) ([]byte, error) {
	var contentLength uint64
	for {
		line, err := stream.ReadString('\r')
		if err != nil {
			return nil, err
		}
		b, err := stream.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != '\n' {
			return nil, fmt.Errorf(`booster: header line endings must be \r\n`)
		}
		if line == "\r" {
			break
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "Content-Length: "))
			contentLength, err = strconv.ParseUint(line, 10, 32)
			if err != nil {
				return nil, err
			}
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("booster: no Content-Length header found")
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(stream, body); err != nil {
		return nil, err
	}
	return body, nil
}
