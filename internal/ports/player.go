package ports

type PlayerState struct {
	IsPlaying bool
	Idle      bool
	Position  float64
	Duration  float64
	Volume    float64
}

type PlayerService interface {
	Play(url string) error
	SetPaused(paused bool) error
	TogglePause() error
	Stop() error
	Seek(seconds float64) error
	GetState() (PlayerState, error)
	Close() error
}
