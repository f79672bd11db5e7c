package model_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	m "github.com/callegarimattia/battleship-core/internal/model"
)

func testConfig() m.GameConfiguration {
	return m.GameConfiguration{
		BoardWidth:      10,
		BoardHeight:     10,
		ShipMargin:      2,
		FleetDefinition: "1x2",
	}
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// newRunningGame builds a two-player game with both players' single
// destroyer placed at known, non-overlapping coordinates and both boards
// confirmed, so shot resolution is deterministic.
func newRunningGame(t *testing.T) (*m.Game, string, string) {
	t.Helper()

	g := m.NewGame("game-1", testConfig())
	if err := g.Join(m.Player{ID: "p1", Username: "Alice"}, testRNG()); err != nil {
		t.Fatalf("Join(p1) error = %v", err)
	}
	if err := g.Join(m.Player{ID: "p2", Username: "Bob"}, testRNG()); err != nil {
		t.Fatalf("Join(p2) error = %v", err)
	}

	for _, id := range []string{"p1", "p2"} {
		board, ok := g.BoardFor(id)
		if !ok {
			t.Fatalf("BoardFor(%s) not found", id)
		}
		if err := board.Clear(); err != nil {
			t.Fatalf("Clear(%s) error = %v", id, err)
		}
		if err := board.Place(m.Ship{Size: 2}, m.Coordinate{X: 0, Y: 0}, m.Horizontal); err != nil {
			t.Fatalf("Place(%s) error = %v", id, err)
		}
	}

	if _, err := g.ConfirmBoard("p1", time.Now()); err != nil {
		t.Fatalf("ConfirmBoard(p1) error = %v", err)
	}
	if _, err := g.ConfirmBoard("p2", time.Now()); err != nil {
		t.Fatalf("ConfirmBoard(p2) error = %v", err)
	}

	if g.Status != m.StatusRunning {
		t.Fatalf("Status = %v, want StatusRunning", g.Status)
	}
	return g, "p1", "p2"
}

func TestGame_Join_Transitions(t *testing.T) {
	t.Parallel()

	g := m.NewGame("g1", testConfig())
	if g.Status != m.StatusWaiting {
		t.Fatalf("new game status = %v, want StatusWaiting", g.Status)
	}

	if err := g.Join(m.Player{ID: "p1", Username: "Alice"}, testRNG()); err != nil {
		t.Fatalf("Join(p1) error = %v", err)
	}
	if g.Status != m.StatusWaiting {
		t.Errorf("status after first join = %v, want StatusWaiting", g.Status)
	}

	if err := g.Join(m.Player{ID: "p2", Username: "Bob"}, testRNG()); err != nil {
		t.Fatalf("Join(p2) error = %v", err)
	}
	if g.Status != m.StatusSetup {
		t.Errorf("status after second join = %v, want StatusSetup", g.Status)
	}

	if err := g.Join(m.Player{ID: "p3", Username: "Carl"}, testRNG()); !errors.Is(err, m.ErrGameFull) {
		t.Errorf("third Join() error = %v, want ErrGameFull", err)
	}
}

func TestGame_ConfirmBoard_StartsGame(t *testing.T) {
	t.Parallel()

	g := m.NewGame("g1", testConfig())
	_ = g.Join(m.Player{ID: "p1", Username: "Alice"}, testRNG())
	_ = g.Join(m.Player{ID: "p2", Username: "Bob"}, testRNG())

	evs, err := g.ConfirmBoard("p1", time.Now())
	if err != nil {
		t.Fatalf("ConfirmBoard(p1) error = %v", err)
	}
	if len(evs) != 1 {
		t.Errorf("ConfirmBoard(p1) produced %d events, want 1 (no start yet)", len(evs))
	}
	if g.Status != m.StatusSetup {
		t.Errorf("status after one confirm = %v, want StatusSetup", g.Status)
	}

	evs, err = g.ConfirmBoard("p2", time.Now())
	if err != nil {
		t.Fatalf("ConfirmBoard(p2) error = %v", err)
	}
	if len(evs) != 2 {
		t.Errorf("ConfirmBoard(p2) produced %d events, want 2 (confirm + start)", len(evs))
	}
	if g.Status != m.StatusRunning {
		t.Errorf("status after both confirm = %v, want StatusRunning", g.Status)
	}
	if g.CurrentTurnPlayerID != "p1" {
		t.Errorf("CurrentTurnPlayerID = %q, want p1 (first joiner)", g.CurrentTurnPlayerID)
	}

	if _, err := g.ConfirmBoard("p1", time.Now()); !errors.Is(err, m.ErrNotInSetup) {
		t.Errorf("ConfirmBoard() once running error = %v, want ErrNotInSetup", err)
	}
}

func TestGame_FireShot_TurnLogic(t *testing.T) {
	t.Parallel()

	g, p1, p2 := newRunningGame(t)

	if _, _, err := g.FireShot(p2, m.Coordinate{X: 9, Y: 9}, time.Now()); !errors.Is(err, m.ErrNotYourTurn) {
		t.Errorf("FireShot(p2) out of turn error = %v, want ErrNotYourTurn", err)
	}

	result, _, err := g.FireShot(p1, m.Coordinate{X: 9, Y: 9}, time.Now())
	if err != nil {
		t.Fatalf("FireShot(p1 miss) error = %v", err)
	}
	if result != m.ResultMiss {
		t.Errorf("FireShot(p1 miss) = %v, want ResultMiss", result)
	}
	if g.CurrentTurnPlayerID != p2 {
		t.Errorf("turn after miss = %q, want %q", g.CurrentTurnPlayerID, p2)
	}

	result, _, err = g.FireShot(p2, m.Coordinate{X: 0, Y: 0}, time.Now())
	if err != nil {
		t.Fatalf("FireShot(p2 hit) error = %v", err)
	}
	if result != m.ResultHit {
		t.Errorf("FireShot(p2 hit) = %v, want ResultHit", result)
	}
	if g.CurrentTurnPlayerID != p2 {
		t.Errorf("turn after hit = %q, want %q (retained)", g.CurrentTurnPlayerID, p2)
	}
}

func TestGame_FireShot_AlreadyShotAndSunk(t *testing.T) {
	t.Parallel()

	g, p1, p2 := newRunningGame(t)

	if _, _, err := g.FireShot(p1, m.Coordinate{X: 0, Y: 0}, time.Now()); err != nil {
		t.Fatalf("FireShot(p1, 0,0) error = %v", err)
	}

	// turn retained on hit, fire the same cell again
	result, _, err := g.FireShot(p1, m.Coordinate{X: 0, Y: 0}, time.Now())
	if err != nil {
		t.Fatalf("FireShot(p1, repeat) error = %v", err)
	}
	if result != m.ResultAlreadyShot {
		t.Errorf("FireShot(p1, repeat) = %v, want ResultAlreadyShot", result)
	}

	result, evs, err := g.FireShot(p1, m.Coordinate{X: 1, Y: 0}, time.Now())
	if err != nil {
		t.Fatalf("FireShot(p1, 1,0) error = %v", err)
	}
	if result != m.ResultSunk {
		t.Errorf("FireShot(p1, 1,0) = %v, want ResultSunk", result)
	}
	if g.Status != m.StatusFinished {
		t.Errorf("status after fleet sunk = %v, want StatusFinished", g.Status)
	}
	if g.WinnerPlayerID != p1 {
		t.Errorf("WinnerPlayerID = %q, want %q", g.WinnerPlayerID, p1)
	}

	foundFinish := false
	for _, e := range evs {
		if e.EventType() == "GAME_FINISHED" {
			foundFinish = true
		}
	}
	if !foundFinish {
		t.Error("sinking the last ship should emit GAME_FINISHED")
	}

	if _, _, err := g.FireShot(p2, m.Coordinate{X: 5, Y: 5}, time.Now()); !errors.Is(err, m.ErrNotInPlay) {
		t.Errorf("FireShot() after game over error = %v, want ErrNotInPlay", err)
	}
}

func TestGame_PauseAndResumeHandshake(t *testing.T) {
	t.Parallel()

	g, p1, p2 := newRunningGame(t)

	if _, err := g.Pause(p1, time.Now()); err != nil {
		t.Fatalf("Pause(p1) error = %v", err)
	}
	if g.Status != m.StatusPaused {
		t.Fatalf("status after pause = %v, want StatusPaused", g.Status)
	}

	complete, _, err := g.RequestResume(p1, false, time.Now())
	if err != nil {
		t.Fatalf("RequestResume(p1, phase one) error = %v", err)
	}
	if complete {
		t.Error("RequestResume(p1) alone should not complete the handshake")
	}
	if g.Status != m.StatusPaused {
		t.Errorf("status after phase one = %v, want StatusPaused", g.Status)
	}

	complete, _, err = g.RequestResume(p1, false, time.Now())
	if err != nil {
		t.Fatalf("RequestResume(p1, repeat) error = %v", err)
	}
	if complete {
		t.Error("repeating the same player's resume request should not complete the handshake")
	}

	complete, _, err = g.RequestResume(p2, false, time.Now())
	if !errors.Is(err, m.ErrResumeRejected) {
		t.Errorf("RequestResume(p2) with opponent not connected error = %v, want ErrResumeRejected", err)
	}
	if complete {
		t.Error("handshake should not complete when both players are not connected")
	}

	complete, _, err = g.RequestResume(p2, true, time.Now())
	if err != nil {
		t.Fatalf("RequestResume(p2, both connected) error = %v", err)
	}
	if !complete {
		t.Error("RequestResume(p2) with both connected should complete the handshake")
	}
	if g.Status != m.StatusRunning {
		t.Errorf("status after handshake completes = %v, want StatusRunning", g.Status)
	}
}

func TestGame_Forfeit(t *testing.T) {
	t.Parallel()

	g, p1, p2 := newRunningGame(t)

	evs, err := g.Forfeit(p1, time.Now())
	if err != nil {
		t.Fatalf("Forfeit(p1) error = %v", err)
	}
	if g.Status != m.StatusFinished {
		t.Errorf("status after forfeit = %v, want StatusFinished", g.Status)
	}
	if g.WinnerPlayerID != p2 {
		t.Errorf("WinnerPlayerID = %q, want %q (opponent)", g.WinnerPlayerID, p2)
	}
	if len(evs) != 2 {
		t.Errorf("Forfeit() produced %d events, want 2 (forfeited + finished)", len(evs))
	}
}

func TestGame_AddMessage(t *testing.T) {
	t.Parallel()

	g, p1, _ := newRunningGame(t)

	msg, err := g.AddMessage(p1, "gg", time.Now())
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if msg.SenderName != "Alice" {
		t.Errorf("SenderName = %q, want Alice", msg.SenderName)
	}

	if _, err := g.AddMessage(p1, "", time.Now()); !errors.Is(err, m.ErrInvalidMessage) {
		t.Errorf("AddMessage(empty) error = %v, want ErrInvalidMessage", err)
	}

	if _, err := g.AddMessage("ghost", "hi", time.Now()); !errors.Is(err, m.ErrUnknownPlayer) {
		t.Errorf("AddMessage(unknown sender) error = %v, want ErrUnknownPlayer", err)
	}
}
