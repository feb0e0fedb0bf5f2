package logger

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeInserter struct {
	mu   sync.Mutex
	docs []LogDocument
}

func (f *fakeInserter) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs = append(f.docs, d.(LogDocument))
	}
	return &mongo.InsertManyResult{}, nil
}

func (f *fakeInserter) all() []LogDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LogDocument(nil), f.docs...)
}

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))
}

func TestWithCtxReturnsInjected(t *testing.T) {
	var buf bytes.Buffer
	reqLog := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc")
	ctx := InjectLogger(context.Background(), reqLog)

	WithCtx(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=abc")
}

func TestSetupProductionWritesJSON(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev; slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup("production", &buf)
	Info("started", "port", "8080")
	Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"started"`)
	assert.NotContains(t, out, "hidden")
}

func TestMongoHandlerFlushesOnClose(t *testing.T) {
	sink := &fakeInserter{}
	h := newMongoHandler(sink, slog.LevelInfo)

	log := slog.New(h).With("request_id", "rid-1")
	log.Info("order created", "total", 20.0)
	log.Debug("below level")
	log.WithGroup("http").Warn("slow", "ms", 1200)

	h.Close()
	h.Close()

	docs := sink.all()
	require.Len(t, docs, 2)
	assert.Equal(t, "order created", docs[0].Msg)
	assert.Equal(t, "rid-1", docs[0].RequestID)
	assert.Equal(t, 20.0, docs[0].Attrs["total"])
	assert.Equal(t, "WARN", docs[1].Level)
	assert.Contains(t, docs[1].Attrs, "http.ms")
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(m)
	log.Info("info line")
	log.Error("error line")

	assert.Contains(t, a.String(), "info line")
	assert.Contains(t, a.String(), "error line")
	assert.NotContains(t, b.String(), "info line")
	assert.Contains(t, b.String(), "error line")
}
