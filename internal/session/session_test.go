package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/engine"
	"github.com/inamate/whiteboard/internal/store"
)

func newStore(t *testing.T) *store.File {
	t.Helper()
	st, err := store.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func testClient(s *Session, id string) *Client {
	return &Client{session: s, send: make(chan []byte, 256), ClientID: id}
}

func start(t *testing.T, st engine.Persistence) (*Session, context.CancelFunc) {
	t.Helper()
	s, err := New("board", engine.DefaultOptions(), st, asset.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return s, cancel
}

// next returns the first message of type typ that satisfies ok.
func next(t *testing.T, c *Client, typ string, ok func(*Message) bool) *Message {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case data, open := <-c.send:
			if !open {
				t.Fatalf("client closed while waiting for %s", typ)
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatal(err)
			}
			if msg.Type == typ && (ok == nil || ok(&msg)) {
				return &msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func submit(t *testing.T, s *Session, c *Client, typ string, payload any) {
	t.Helper()
	msg := &Message{Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		msg.Payload = data
	}
	if !s.Submit(c, msg) {
		t.Fatal("session stopped")
	}
}

func renderOf(t *testing.T, msg *Message) RenderPayload {
	t.Helper()
	var p RenderPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func countOps(p RenderPayload, op string) int {
	n := 0
	for _, c := range p.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestSessionDrawAndAutosave(t *testing.T) {
	st := newStore(t)
	s, _ := start(t, st)
	c := testClient(s, "c1")
	if !s.Register(c) {
		t.Fatal("register failed")
	}

	welcome := next(t, c, TypeWelcome, nil)
	var w WelcomePayload
	if err := json.Unmarshal(welcome.Payload, &w); err != nil {
		t.Fatal(err)
	}
	if w.Board != "board" || w.SessionID != s.ID {
		t.Errorf("welcome = %+v", w)
	}

	submit(t, s, c, TypeToolSelect, ToolPayload{Tool: "rect"})
	submit(t, s, c, TypePointerDown, PointerPayload{X: 10, Y: 10})
	submit(t, s, c, TypePointerMove, PointerPayload{X: 60, Y: 50})
	submit(t, s, c, TypePointerUp, PointerPayload{X: 60, Y: 50})

	msg := next(t, c, TypeRender, func(m *Message) bool {
		p := renderOf(t, m)
		return countOps(p, "path") == 1 && p.State == "idle"
	})
	p := renderOf(t, msg)
	if len(p.Selection) != 1 || !p.CanUndo || p.Tool != "select" {
		t.Errorf("render = %+v", p)
	}

	s.Unregister(c)
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after its last client left")
	}

	data, err := st.ReadBytes(context.Background(), "board")
	if err != nil {
		t.Fatalf("board not autosaved: %v", err)
	}
	proj, err := document.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(proj.Objects) != 1 {
		t.Errorf("saved objects = %d, want 1", len(proj.Objects))
	}
}

func TestSessionImageInsert(t *testing.T) {
	s, _ := start(t, nil)
	c := testClient(s, "c1")
	s.Register(c)

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatal(err)
	}
	submit(t, s, c, TypeImageInsert, ImagePayload{Name: "a.png", Data: buf.Bytes(), X: 100, Y: 100})

	msg := next(t, c, TypeRender, func(m *Message) bool {
		return countOps(renderOf(t, m), "image") == 1
	})
	if p := renderOf(t, msg); len(p.Selection) != 1 {
		t.Errorf("inserted image not selected: %v", p.Selection)
	}

	submit(t, s, c, TypeImageInsert, ImagePayload{Name: "bad.png", Data: []byte("nope")})
	note := next(t, c, TypeNotify, nil)
	var n NotifyPayload
	if err := json.Unmarshal(note.Payload, &n); err != nil {
		t.Fatal(err)
	}
	if n.Severity != string(engine.SeverityError) {
		t.Errorf("notify = %+v", n)
	}
}

func TestSessionErrors(t *testing.T) {
	s, _ := start(t, nil)
	c := testClient(s, "c1")
	s.Register(c)

	for _, tc := range []struct {
		name    string
		typ     string
		payload any
	}{
		{"unknown type", "teleport", nil},
		{"missing payload", TypePointerDown, nil},
		{"group nothing", TypeGroup, nil},
		{"bad opacity", TypeStyleSet, map[string]float64{"opacity": 3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			submit(t, s, c, tc.typ, tc.payload)
			next(t, c, TypeError, nil)
		})
	}
}

func TestSessionLoadRejectsCorruptBoard(t *testing.T) {
	st := newStore(t)
	if err := st.WriteBytes(context.Background(), "board", []byte(`{"version": 1, "objects": {}}`)); err != nil {
		t.Fatal(err)
	}
	s, err := New("board", engine.DefaultOptions(), st, asset.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	err = s.Load(context.Background())
	var le *document.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LoadError", err)
	}
}

func TestManagerRestartsStoppedSession(t *testing.T) {
	m := NewManager(newStore(t), asset.NewMemory(), engine.DefaultOptions())
	defer m.Stop()
	ctx := context.Background()

	s1, err := m.Open(ctx, "board")
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := m.Open(ctx, "board"); again != s1 {
		t.Error("second open started a new session")
	}

	c := testClient(s1, "c1")
	s1.Register(c)
	s1.Unregister(c)
	<-s1.Done()
	if m.Len() != 0 {
		t.Errorf("sessions = %d after last client left", m.Len())
	}

	s2, err := m.Open(ctx, "board")
	if err != nil {
		t.Fatal(err)
	}
	if s2 == s1 || s2.ID == s1.ID {
		t.Error("stopped session was reused")
	}
	if s1.Register(testClient(s1, "late")) {
		t.Error("register on a stopped session succeeded")
	}
}
