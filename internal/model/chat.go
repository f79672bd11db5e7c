package model

import (
	"time"
	"unicode/utf8"
)

// maxChatMessageLength bounds a single chat message, per spec §4.J/§9.
const maxChatMessageLength = 500

// ChatMessage is a single append-only lobby/game chat entry.
type ChatMessage struct {
	SenderID   string
	SenderName string
	Text       string
	At         time.Time
}

// AddMessage appends a chat message from a game participant, looking up the
// sender's display name from the game's own player list. Chat is available
// regardless of game status — spectating a paused or finished game is still
// a valid time to talk.
func (g *Game) AddMessage(senderID, text string, now time.Time) (ChatMessage, error) {
	sender, ok := g.PlayerByID(senderID)
	if !ok {
		return ChatMessage{}, forbidden(ErrUnknownPlayer)
	}
	if text == "" || utf8.RuneCountInString(text) > maxChatMessageLength {
		return ChatMessage{}, badRequest(ErrInvalidMessage)
	}

	msg := ChatMessage{SenderID: sender.ID, SenderName: sender.Username, Text: text, At: now}
	g.Messages = append(g.Messages, msg)
	return msg, nil
}
