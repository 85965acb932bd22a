package report

import "time"

// Failure is one player a scan could not report on.
type Failure struct {
	PlayerID string `json:"player_id" yaml:"player_id"`
	Reason   string `json:"reason" yaml:"reason"`
	Err      error  `json:"-" yaml:"-"`
}

// Snapshot is the result of one batch scan turned into a digest.
type Snapshot struct {
	Season    int       `json:"season" yaml:"season"`
	Generated time.Time `json:"generated" yaml:"generated"`
	Evaluated int       `json:"evaluated" yaml:"evaluated"`
	Digest    Digest    `json:"digest" yaml:"digest"`
	Failures  []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Date labels the snapshot in a rendered digest.
func (s *Snapshot) Date() string { return s.Generated.Format(time.DateOnly) }
