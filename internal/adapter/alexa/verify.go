package alexa

import (
	"fmt"
	"time"
)

// Verifier rejects envelopes that were not meant for this skill or that are
// too old to be replayed safely.
type Verifier struct {
	SkillID   string
	Tolerance time.Duration
	Now       func() time.Time
}

func (v Verifier) Verify(env *RequestEnvelope) error {
	if v.SkillID != "" && env.ApplicationID() != v.SkillID {
		return fmt.Errorf("application id %q does not match skill", env.ApplicationID())
	}

	if v.Tolerance > 0 {
		ts, err := env.RequestTime()
		if err != nil {
			return err
		}
		now := time.Now
		if v.Now != nil {
			now = v.Now
		}
		skew := now().Sub(ts)
		if skew < 0 {
			skew = -skew
		}
		if skew > v.Tolerance {
			return fmt.Errorf("request timestamp is %s away from server time", skew.Round(time.Second))
		}
	}
	return nil
}
