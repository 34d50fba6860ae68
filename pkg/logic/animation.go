package logic

import (
	"github.com/aretw0/ultracard/pkg/condition"
	"github.com/aretw0/ultracard/pkg/domain"
)

// AnimationNone disables the state-triggered animation.
const AnimationNone = "none"

// AnimationDecision is the animation a renderer should apply to a module.
type AnimationDecision struct {
	Intro    string `json:"intro,omitempty"`
	Outro    string `json:"outro,omitempty"`
	Active   string `json:"active,omitempty"`
	Duration string `json:"duration,omitempty"`
	Delay    string `json:"delay,omitempty"`
	Timing   string `json:"timing,omitempty"`
}

// Animation decides which animations apply. The state-triggered animation is active
// when the watched entity (or one of its attributes, for the attribute trigger) equals
// the configured state.
func Animation(a domain.Animation, snap condition.Snapshot) AnimationDecision {
	d := AnimationDecision{
		Intro:    a.IntroAnimation,
		Outro:    a.OutroAnimation,
		Duration: a.AnimationDuration,
		Delay:    a.AnimationDelay,
		Timing:   a.AnimationTiming,
	}
	if a.AnimationType == "" || a.AnimationType == AnimationNone || a.AnimationEntity == "" {
		return d
	}
	st, ok := snap.State(a.AnimationEntity)
	if !ok {
		return d
	}
	observed := st.State
	if a.AnimationTriggerType == domain.TriggerAttribute {
		if a.AnimationAttribute == "" {
			return d
		}
		v, ok := st.Attribute(a.AnimationAttribute)
		if !ok {
			return d
		}
		observed = domain.StringValue(v)
	}
	if observed == a.AnimationState {
		d.Active = a.AnimationType
	}
	return d
}
