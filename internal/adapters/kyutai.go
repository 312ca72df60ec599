package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

// kyutaiVoices is KYUTAI_VOICES from the reference implementation's
// kyutai.py: this backend does not clone voices, it selects one of a
// fixed set of emotional deliveries.
var kyutaiVoices = map[string]bool{
	"happy": true, "sad": true, "angry": true, "calm": true,
	"confused": true, "fearful": true, "sleepy": true,
	"neutral": true, "default": true,
}

const (
	kyutaiHandshakeTimeout = 10 * time.Second
	kyutaiEndEvent         = "end"
)

// kyutaiAdapter speaks a websocket protocol, reassigned from the
// reference implementation's plain REST call to exercise this
// gateway's streaming-style emotion taxonomy row: a JSON config frame,
// a JSON text frame, then a run of binary audio frames terminated by a
// JSON control frame carrying {"event":"end"}. Grounded on
// harunnryd-ranya's gorilla/websocket ElevenLabsTTS client for the
// Dial/WriteJSON/ReadMessage/Close shape; the end-of-response control
// frame is this adapter's own addition, since that client streams
// continuously and relies on an external Close instead of a bounded
// terminal frame.
type kyutaiAdapter struct {
	wsURL       string
	dialer      *websocket.Dialer
	callTimeout time.Duration
}

func newKyutaiAdapter(baseURL string, profile core.BackendProfile) *kyutaiAdapter {
	wsURL := toWebsocketURL(baseURL) + "/v1/stream"

	timeout := time.Duration(profile.CallTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &kyutaiAdapter{
		wsURL:       wsURL,
		dialer:      &websocket.Dialer{HandshakeTimeout: kyutaiHandshakeTimeout},
		callTimeout: timeout,
	}
}

func toWebsocketURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	return strings.TrimRight(u.String(), "/")
}

func (a *kyutaiAdapter) Kind() string { return profiles.Kyutai }

func (a *kyutaiAdapter) SupportsVoice(voice string) bool {
	return kyutaiVoices[strings.ToLower(voice)]
}

// VoiceNames reports kyutai's fixed emotion catalog, for merging into
// the voice registry's listing.
func (a *kyutaiAdapter) VoiceNames() []string {
	return mapKeys(kyutaiVoices)
}

type kyutaiConfigFrame struct {
	Type    string `json:"type"`
	Emotion string `json:"emotion"`
}

type kyutaiTextFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type kyutaiControlFrame struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// Synthesize ignores req.FormatHint: this protocol streams raw wav
// frames only.
func (a *kyutaiAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	conn, _, err := a.dialer.DialContext(ctx, a.wsURL, nil)
	if err != nil {
		return AdapterOutput{}, wrapTransientErr(err, "kyutai websocket dial failed")
	}
	defer conn.Close()

	config := kyutaiConfigFrame{Type: "config", Emotion: strings.ToLower(req.Voice)}
	if err := conn.WriteJSON(config); err != nil {
		return AdapterOutput{}, core.NewError(core.KindBackendTransient, "failed to send kyutai config frame: "+err.Error(), err)
	}

	text := kyutaiTextFrame{Type: "text", Text: req.Text}
	if err := conn.WriteJSON(text); err != nil {
		return AdapterOutput{}, core.NewError(core.KindBackendTransient, "failed to send kyutai text frame: "+err.Error(), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	data, err := a.assembleFrames(conn)
	if err != nil {
		return AdapterOutput{}, err
	}

	return AdapterOutput{Data: data, Format: "wav"}, nil
}

// assembleFrames reads websocket messages until the server's "end"
// control frame arrives, concatenating every binary frame received in
// between into one audio payload.
func (a *kyutaiAdapter) assembleFrames(conn *websocket.Conn) ([]byte, error) {
	var audioData []byte

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, wrapTransientErr(err, "kyutai websocket read failed")
		}

		if msgType == websocket.BinaryMessage {
			audioData = append(audioData, data...)

			continue
		}

		var ctrl kyutaiControlFrame
		if jsonErr := json.Unmarshal(data, &ctrl); jsonErr != nil {
			return nil, core.NewError(core.KindBackendTransient, fmt.Sprintf("kyutai returned unparseable control frame: %s", string(data)), jsonErr)
		}

		if ctrl.Error != "" {
			return nil, core.NewError(core.KindBackendDefinitive, "kyutai rejected request: "+ctrl.Error, nil)
		}

		if ctrl.Event == kyutaiEndEvent {
			if len(audioData) == 0 {
				return nil, core.NewError(core.KindBackendTransient, "kyutai ended session with no audio frames", nil)
			}

			return audioData, nil
		}
	}
}

func (a *kyutaiAdapter) HealthCheck(ctx context.Context) error {
	conn, _, err := a.dialer.DialContext(ctx, a.wsURL, nil)
	if err != nil {
		return wrapTransientErr(err, "kyutai health check failed")
	}
	defer conn.Close()

	return nil
}
