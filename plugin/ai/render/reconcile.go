package render

import (
	"strings"
	"time"

	"github.com/Arvoid00/seamless-ai/store"
)

const titleMaxRunes = 64

// Append adds one completed dispatch cycle to a transcript: the user turn
// and its response turn, in that order. Existing turns are never touched.
// The transcript title is derived from the first user turn when still empty.
func Append(transcript *store.Transcript, userTurn, responseTurn store.Turn) *store.Transcript {
	now := time.Now().Unix()
	if userTurn.CreatedTs == 0 {
		userTurn.CreatedTs = now
	}
	if responseTurn.CreatedTs == 0 {
		responseTurn.CreatedTs = now
	}

	transcript.Turns = append(transcript.Turns, userTurn, responseTurn)
	transcript.UpdatedTs = now
	if transcript.Title == "" {
		transcript.Title = deriveTitle(userTurn.Content)
	}
	return transcript
}

// deriveTitle truncates the first user message into a transcript title.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = string(runes[:titleMaxRunes]) + "…"
	}
	return title
}
