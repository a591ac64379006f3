package ports

import (
	"rydm/internal/domain"
)

type FocusState int

const (
	GlobalFocus FocusState = iota
	ComponentFocus
)

type ChangeFocusMsg struct{ NewFocus FocusState }

type SearchResultsMsg struct{ Tracks []domain.Track }
type SearchErrorMsg struct{ Err error }

type PlaylistLoadedMsg struct{ Tracks []domain.Track }
type PlaylistErrorMsg struct{ Err error }

type HistoryLoadedMsg struct{ Entries []domain.HistoryEntry }
type HistoryErrorMsg struct{ Err error }
type DeleteFromHistoryMsg struct{ TrackIDs []string }

type PlayTrackMsg struct{ Track domain.Track }
type PlayErrorMsg struct{ Err error }
type PlayerStateUpdateMsg struct{ State PlayerState }
