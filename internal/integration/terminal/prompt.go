package terminal

import (
	"strconv"
	"strings"
)

// PromptPhase is the shell integration phase reported with OSC 133.
type PromptPhase int

const (
	PromptUnknown  PromptPhase = iota
	PromptStart                // A: prompt is being drawn
	PromptInput                // B: user is typing a command
	PromptOutput               // C: command is running
	PromptFinished             // D: command finished
)

// String returns the phase name.
func (p PromptPhase) String() string {
	switch p {
	case PromptStart:
		return "prompt"
	case PromptInput:
		return "input"
	case PromptOutput:
		return "output"
	case PromptFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PromptState tracks semantic prompt marks.
type PromptState struct {
	Phase PromptPhase
	// ExitCode is the status reported with the last D mark.
	// It is only meaningful when HasExitCode is true.
	ExitCode    int
	HasExitCode bool
	// Commands counts completed commands.
	Commands int
}

// apply returns the state after an OSC 133 payload such as "A", "C" or
// "D;1". Unknown marks leave the state unchanged.
func (p PromptState) apply(payload string) PromptState {
	mark, rest, _ := strings.Cut(payload, ";")
	switch mark {
	case "A":
		p.Phase = PromptStart
	case "B":
		p.Phase = PromptInput
	case "C":
		p.Phase = PromptOutput
	case "D":
		p.Phase = PromptFinished
		p.Commands++
		p.ExitCode, p.HasExitCode = 0, false
		code, _, _ := strings.Cut(rest, ";")
		if n, err := strconv.Atoi(code); err == nil {
			p.ExitCode, p.HasExitCode = n, true
		}
	}
	return p
}
