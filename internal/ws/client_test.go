package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/models"
)

type titleFetcher struct {
	opps []models.Opportunity
}

func (f titleFetcher) Search(_ context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, o := range f.opps {
		if filter.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func newLiveServer(t *testing.T, hub *Hub, fetcher discovery.Fetcher) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, fetcher, discovery.WithDebounce(5*time.Millisecond)).Run(r.Context())
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil читает кадры, пока match не вернёт true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Frame) bool) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func TestClient_StreamsResults(t *testing.T) {
	fetcher := titleFetcher{opps: []models.Opportunity{
		{ID: uuid.New(), Title: "Go backend", Format: models.FormatVirtual},
		{ID: uuid.New(), Title: "Дизайн", Format: models.FormatInPerson},
	}}
	hub := NewHub()
	conn := dial(t, newLiveServer(t, hub, fetcher))

	require.NoError(t, conn.WriteJSON(QueryMessage{Q: "go"}))
	f := readUntil(t, conn, func(f Frame) bool { return f.Phase == discovery.PhaseApplied.String() })

	assert.Equal(t, FrameState, f.Type)
	require.Len(t, f.Opportunities, 1)
	assert.Equal(t, "Go backend", f.Opportunities[0].Title)
	assert.Equal(t, 1, f.Total)
	assert.Equal(t, f.Seq, f.AppliedSeq)
	assert.Equal(t, 1, hub.Count())
}

func TestClient_FlushAndFilters(t *testing.T) {
	fetcher := titleFetcher{opps: []models.Opportunity{
		{ID: uuid.New(), Title: "A", Format: models.FormatVirtual},
		{ID: uuid.New(), Title: "B", Format: models.FormatHybrid},
	}}
	conn := dial(t, newLiveServer(t, NewHub(), fetcher))

	require.NoError(t, conn.WriteJSON(QueryMessage{
		Filters: map[string]string{discovery.FilterFormat: models.FormatHybrid},
		Flush:   true,
	}))
	f := readUntil(t, conn, func(f Frame) bool { return f.Phase == discovery.PhaseApplied.String() })
	require.Len(t, f.Opportunities, 1)
	assert.Equal(t, "B", f.Opportunities[0].Title)
}

func TestClient_RejectsUnknownFilter(t *testing.T) {
	conn := dial(t, newLiveServer(t, NewHub(), titleFetcher{}))

	require.NoError(t, conn.WriteJSON(QueryMessage{Filters: map[string]string{"salary": "high"}}))
	f := readUntil(t, conn, func(f Frame) bool { return f.Type == FrameError })
	assert.Contains(t, f.Error, "salary")
}

func TestHub_CloseAllDisconnects(t *testing.T) {
	hub := NewHub()
	conn := dial(t, newLiveServer(t, hub, titleFetcher{}))

	require.NoError(t, conn.WriteJSON(QueryMessage{Q: "x", Flush: true}))
	readUntil(t, conn, func(f Frame) bool { return f.Type == FrameState })

	hub.CloseAll()
	assert.Equal(t, 0, hub.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Закрытый хаб не принимает новых клиентов.
	late := dial(t, newLiveServer(t, hub, titleFetcher{}))
	require.NoError(t, late.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := late.ReadMessage()
	assert.Error(t, err)
}
