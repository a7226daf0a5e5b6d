package core

import "github.com/benbjohnson/clock"

// Clock abstracts wall-clock reads so scheduling logic stays
// deterministic under test (clock.NewMock).
type Clock = clock.Clock

func NewClock() Clock { return clock.New() }
