package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"nhooyr.io/websocket"
)

const (
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	deepgramModel    = "nova-3"

	chunkMs = 200
)

// DeepgramConfig tunes the live engine. Zero values pick sensible defaults.
type DeepgramConfig struct {
	Model      string
	SampleRate int // PCM16 mono sample rate fed by the audio source
	Endpoint   string
}

// NewDeepgramFactory returns a Factory producing fresh live-streaming engine
// instances against the Deepgram listen API. Each instance owns one
// WebSocket; a spent instance is never redialed.
func NewDeepgramFactory(apiKey string, source AudioSource, cfg DeepgramConfig) Factory {
	if cfg.Model == "" {
		cfg.Model = deepgramModel
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = deepgramEndpoint
	}
	return func() (Engine, error) {
		return &deepgramEngine{apiKey: apiKey, source: source, cfg: cfg}, nil
	}
}

type deepgramEngine struct {
	apiKey string
	source AudioSource
	cfg    DeepgramConfig

	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn

	audioCh  chan []byte
	stopOnce sync.Once

	mu      sync.Mutex
	feedBuf []byte
	closing bool
	index   int
}

func (e *deepgramEngine) Start(cfg StartConfig, h Handlers) error {
	endpoint, err := url.Parse(e.cfg.Endpoint)
	if err != nil {
		return err
	}
	q := endpoint.Query()
	q.Set("model", e.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", e.cfg.SampleRate))
	q.Set("channels", "1")
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	if cfg.InterimResults {
		q.Set("interim_results", "true")
	}
	endpoint.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+e.apiKey)

	e.ctx, e.cancel = context.WithCancel(context.Background())
	conn, _, err := websocket.Dial(e.ctx, endpoint.String(), &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		e.cancel()
		return fmt.Errorf("deepgram dial: %w", err)
	}
	e.conn = conn
	e.audioCh = make(chan []byte, 128)

	if err := e.source.Start(e.feed); err != nil {
		e.cancel()
		conn.Close(websocket.StatusNormalClosure, "")
		return fmt.Errorf("audio source: %w", err)
	}

	go e.runSender()
	go e.runReceiver(h)
	return nil
}

// Stop is best-effort and idempotent: errors from an engine that never
// dialed or already closed are swallowed.
func (e *deepgramEngine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.closing = true
		e.mu.Unlock()

		e.source.Stop()
		if e.conn != nil {
			_ = e.conn.Write(e.ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`))
			_ = e.conn.Close(websocket.StatusNormalClosure, "")
		}
		if e.cancel != nil {
			e.cancel()
		}
	})
}

// feed runs on the audio callback thread: it slices incoming PCM into fixed
// chunks and hands them to the sender without blocking capture.
func (e *deepgramEngine) feed(pcm []byte) {
	chunkBytes := e.cfg.SampleRate * 2 * chunkMs / 1000

	e.mu.Lock()
	if e.closing {
		e.mu.Unlock()
		return
	}
	e.feedBuf = append(e.feedBuf, pcm...)
	var chunks [][]byte
	for len(e.feedBuf) >= chunkBytes {
		chunk := make([]byte, chunkBytes)
		copy(chunk, e.feedBuf[:chunkBytes])
		e.feedBuf = e.feedBuf[chunkBytes:]
		chunks = append(chunks, chunk)
	}
	e.mu.Unlock()

	for _, chunk := range chunks {
		select {
		case e.audioCh <- chunk:
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *deepgramEngine) runSender() {
	for {
		select {
		case chunk := <-e.audioCh:
			if err := e.conn.Write(e.ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *deepgramEngine) runReceiver(h Handlers) {
	for {
		_, data, err := e.conn.Read(e.ctx)
		if err != nil {
			e.mu.Lock()
			closing := e.closing
			e.mu.Unlock()
			if closing {
				// Intentional stop: the instance is superseded, not ended.
				return
			}
			// The server closing mid-session (silence timeout, transient
			// network failure) is the live equivalent of the engine ending:
			// report it and let end-handling decide about a restart. The
			// instance is spent, so release the audio source and cancel the
			// sender before handing off — a successor cannot start capture
			// while this one still holds it.
			e.Stop()
			if h.Error != nil {
				h.Error(fmt.Errorf("deepgram stream: %w", err))
			}
			if h.End != nil {
				h.End()
			}
			return
		}

		e.mu.Lock()
		idx := e.index
		e.mu.Unlock()

		ev, ok := decodeDeepgramMessage(data, idx)
		if !ok {
			continue
		}
		if len(ev.Results) > 0 && ev.Results[0].Final {
			e.mu.Lock()
			e.index++
			e.mu.Unlock()
		}
		if h.Result != nil {
			h.Result(ev)
		}
	}
}

type deepgramResponse struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// decodeDeepgramMessage maps one live API message onto a ResultEvent at the
// given stream index. Non-result messages (metadata, utterance markers) and
// empty transcripts report ok=false.
func decodeDeepgramMessage(data []byte, index int) (ResultEvent, bool) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ResultEvent{}, false
	}
	if resp.Type != "Results" {
		return ResultEvent{}, false
	}

	var alts []Alternative
	for _, a := range resp.Channel.Alternatives {
		text := strings.TrimSpace(a.Transcript)
		if text == "" {
			continue
		}
		alts = append(alts, Alternative{Text: text, Confidence: a.Confidence})
	}
	if len(alts) == 0 {
		return ResultEvent{}, false
	}

	final := resp.IsFinal || resp.SpeechFinal
	return ResultEvent{
		Index:   index,
		Results: []Result{{Final: final, Alternatives: alts}},
	}, true
}
