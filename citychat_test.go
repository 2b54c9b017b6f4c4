package citychat_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/gateway"
	"github.com/aretw0/citychat/pkg/menu"
	"github.com/aretw0/citychat/pkg/view"
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/verticals/all/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AQ":[{"node_id":"AQ-VN00-00","pm25":"10 ug"}]}`))
	})
	mux.HandleFunc("/chatbot-api/query", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"26°C"}`))
	})
	mux.HandleFunc("/chatbot-api/debug", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_temporal":true,"node_data":{"WE-VN00-00":{"filtered_data":{"we":{"data":[
			{"timestamp":"2024-05-01T10:00:00Z","temperature":"25"},
			{"timestamp":"2024-05-01T11:00:00Z","temperature":"26"}]}}}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newEngine(t *testing.T, opts ...citychat.Option) *citychat.Engine {
	t.Helper()
	srv := backend(t)
	opts = append([]citychat.Option{citychat.WithGateway(gateway.New(gateway.WithBaseURL(srv.URL)))}, opts...)
	eng, err := citychat.New(opts...)
	require.NoError(t, err)
	return eng
}

func TestEngine_Conversation(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	s, err := eng.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, menu.Root, s.CurrentNode)

	again, err := eng.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.Generation, again.Generation, "starting an existing session resumes it")

	s, err = eng.Send(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, menu.BuildingNode, s.CurrentNode)

	stored, err := eng.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.Generation, stored.Generation)
	assert.Len(t, stored.Messages, len(s.Messages))
}

func TestEngine_StartGeneratesID(t *testing.T) {
	eng := newEngine(t)
	s, err := eng.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)

	ids, err := eng.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{s.ID}, ids)
}

func TestEngine_SendUnknownSession(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Send(context.Background(), "missing", "1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_QuestionAndChart(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1")
	require.NoError(t, err)
	var s *domain.Session
	for _, in := range []string{"4", "1", "Show the temperature over the last day"} {
		s, err = eng.Send(ctx, "s1", in)
		require.NoError(t, err)
	}

	idx := len(s.Messages) - 2
	assert.Equal(t, "26°C", s.Messages[idx].Text)

	chart, err := eng.Chart(ctx, "s1", idx)
	require.NoError(t, err)
	assert.Equal(t, view.ChartLine, chart.Type)
	assert.Equal(t, "temperature", chart.Parameter)
	assert.Equal(t, []string{"2024-05-01 10:00:00", "2024-05-01 11:00:00"}, chart.Labels)

	_, err = eng.Chart(ctx, "s1", 0)
	assert.ErrorIs(t, err, citychat.ErrNothingToChart)
}

func TestEngine_EditRestartEnd(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = eng.Send(ctx, "s1", "1")
	require.NoError(t, err)

	s, err := eng.Edit(ctx, "s1", 1, "2")
	require.NoError(t, err)
	assert.Equal(t, menu.VerticalNode, s.CurrentNode)

	s, err = eng.Restart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, menu.Root, s.CurrentNode)
	assert.Len(t, s.Messages, 1)

	require.NoError(t, eng.End(ctx, "s1"))
	_, err = eng.Session(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_ProgressHook(t *testing.T) {
	var mu sync.Mutex
	var pending int
	eng := newEngine(t, citychat.WithLifecycleHooks(domain.LifecycleHooks{
		OnProgress: func(ctx context.Context, e *domain.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			pending++
		},
	}))
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1")
	require.NoError(t, err)
	for _, in := range []string{"3", "AQ-VN00-00"} {
		_, err = eng.Send(ctx, "s1", in)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, pending)
}

func TestEngine_ConcurrentSendsAreSerialized(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	_, err := eng.Start(ctx, "s1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Send(ctx, "s1", "nope")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := eng.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), s.Generation)
	assert.Len(t, s.Messages, 1+10*3)
}
