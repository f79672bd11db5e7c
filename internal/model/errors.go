package model

import (
	"errors"

	"github.com/callegarimattia/battleship-core/internal/apierr"
)

// Sentinel errors for the board and game aggregate. Each is wrapped with its
// apierr.Kind at the point it's returned so the HTTP boundary never has to
// guess a status code from a bare message.
var (
	ErrShipOutOfBounds  = errors.New("ship placement out of bounds")
	ErrShipOverlap      = errors.New("ship placement overlaps with another ship")
	ErrBoardLocked      = errors.New("board is locked")
	ErrInvalidFleet     = errors.New("invalid fleet definition")
	ErrFleetTooBig      = errors.New("fleet does not fit on the board")
	ErrShotOutOfBounds  = errors.New("shot coordinate is out of bounds")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
	ErrGameFull         = errors.New("game already has two players")
	ErrNotInSetup       = errors.New("game is not in setup")
	ErrNotInPlay        = errors.New("game is not running")
	ErrNotPaused        = errors.New("game is not paused")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrBoardNotLocked   = errors.New("board is not confirmed yet")
	ErrResumeRejected   = errors.New("resume is not allowed in this status")
	ErrInvalidMessage   = errors.New("chat message is empty or too long")
)

func badRequest(err error) error     { return apierr.New(apierr.KindBadRequest, err) }
func forbidden(err error) error      { return apierr.New(apierr.KindForbidden, err) }
func illegalState(err error) error   { return apierr.New(apierr.KindIllegalState, err) }
func outOfTurn(err error) error      { return apierr.New(apierr.KindOutOfTurn, err) }
func invalidConfig(err error) error  { return apierr.New(apierr.KindInvalidConfig, err) }
