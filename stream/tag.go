package stream

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

type tagState int

const (
	tsText tagState = iota
	tsPotentialTag
	tsToolName
	tsParams
)

// tagContext tracks where within a tool call (if any) the parser currently
// sits; it doubles as the key into the candidate-tag table, mirroring the
// reference parser's single tag_context field.
type tagContext int

const (
	ctxNone tagContext = iota
	ctxToolCall
	ctxToolName
	ctxAfterName
	ctxParams
	ctxAfterParams
)

// TagParser is the character-level state machine of §4.2's tag mode: it
// treats the provider's output as plain text and recovers tool calls
// encoded in a configurable tag vocabulary, working one rune at a time so
// it is immune to arbitrary chunk boundaries.
type TagParser struct {
	cfg TagConfig

	state tagState
	ctx   tagContext

	tagBuffer    string
	nameBuffer   string
	paramsBuffer string
	activeID     string
}

// NewTagParser returns a parser using cfg's tag vocabulary.
func NewTagParser(cfg TagConfig) *TagParser {
	return &TagParser{cfg: cfg}
}

// Feed processes a fragment of provider text and returns the events it
// produces, in order. Fragments may split at arbitrary byte offsets,
// including mid-tag and mid-rune-boundary-safe points; callers should feed
// whole chunks as they arrive.
func (p *TagParser) Feed(text string) []Event {
	var events []Event
	for _, ch := range text {
		events = append(events, p.step(ch)...)
	}
	return events
}

// Flush finalizes any in-progress tag or call at stream end, per rule 6:
// a mid-tag buffer is emitted as text, and a call left open is closed out
// with whatever arguments were accumulated.
func (p *TagParser) Flush() []Event {
	var events []Event

	if p.state == tsPotentialTag {
		flushed := p.tagBuffer
		p.tagBuffer = ""
		switch p.ctx {
		case ctxNone:
			if flushed != "" {
				events = append(events, Text(flushed))
			}
		case ctxParams:
			p.paramsBuffer += flushed
		case ctxToolName:
			p.nameBuffer += flushed
		}
	}

	if p.activeID != "" {
		args := strings.TrimSpace(p.paramsBuffer)
		events = append(events, ToolCallEnd(p.activeID, args, json.Valid([]byte(args))))
	}

	p.reset()
	return events
}

func (p *TagParser) reset() {
	p.state = tsText
	p.ctx = ctxNone
	p.tagBuffer = ""
	p.nameBuffer = ""
	p.paramsBuffer = ""
	p.activeID = ""
}

func (p *TagParser) step(ch rune) []Event {
	switch p.state {
	case tsText:
		return p.handleText(ch)
	case tsPotentialTag:
		return p.handlePotentialTag(ch)
	case tsToolName:
		return p.handleToolName(ch)
	case tsParams:
		return p.handleParams(ch)
	default:
		return nil
	}
}

func (p *TagParser) handleText(ch rune) []Event {
	candidates := p.candidates()
	if isPrefixOfAny(string(ch), candidates) {
		p.state = tsPotentialTag
		p.tagBuffer = string(ch)
		return nil
	}
	if p.ctx == ctxNone {
		return []Event{Text(string(ch))}
	}
	// Inside a tool call body between tags: incidental bytes (usually
	// whitespace) are absorbed without producing an event.
	return nil
}

func (p *TagParser) handlePotentialTag(ch rune) []Event {
	p.tagBuffer += string(ch)
	candidates := p.candidates()

	if !isPrefixOfAny(p.tagBuffer, candidates) {
		flushed := p.tagBuffer
		p.tagBuffer = ""
		switch p.ctx {
		case ctxNone:
			p.state = tsText
			return []Event{Text(flushed)}
		case ctxParams:
			p.paramsBuffer += flushed
			p.state = tsParams
			return []Event{ToolCallArgs(p.activeID, flushed)}
		case ctxToolName:
			p.nameBuffer += flushed
			p.state = tsToolName
			return nil
		default:
			p.state = tsText
			return nil
		}
	}

	if matched := exactMatch(p.tagBuffer, candidates); matched != "" {
		p.tagBuffer = ""
		return p.handleMatchedTag(matched)
	}
	return nil
}

func (p *TagParser) handleToolName(ch rune) []Event {
	if ch == rune(p.cfg.ToolNameEnd[0]) {
		p.state = tsPotentialTag
		p.tagBuffer = string(ch)
		return nil
	}
	p.nameBuffer += string(ch)
	return nil
}

func (p *TagParser) handleParams(ch rune) []Event {
	if ch == rune(p.cfg.ToolParamsEnd[0]) {
		p.state = tsPotentialTag
		p.tagBuffer = string(ch)
		return nil
	}
	p.paramsBuffer += string(ch)
	return []Event{ToolCallArgs(p.activeID, string(ch))}
}

func (p *TagParser) handleMatchedTag(tag string) []Event {
	switch tag {
	case p.cfg.ToolCallStart:
		p.ctx = ctxToolCall
		p.state = tsText
		return nil

	case p.cfg.ToolNameStart:
		p.ctx = ctxToolName
		p.state = tsToolName
		p.nameBuffer = ""
		return nil

	case p.cfg.ToolNameEnd:
		p.ctx = ctxAfterName
		p.state = tsText
		p.activeID = uuid.NewString()
		return []Event{ToolCallStart(p.activeID, strings.TrimSpace(p.nameBuffer))}

	case p.cfg.ToolParamsStart:
		p.ctx = ctxParams
		p.state = tsParams
		p.paramsBuffer = ""
		return nil

	case p.cfg.ToolParamsEnd:
		p.ctx = ctxAfterParams
		p.state = tsText
		return nil

	case p.cfg.ToolCallEnd:
		args := strings.TrimSpace(p.paramsBuffer)
		ev := ToolCallEnd(p.activeID, args, json.Valid([]byte(args)))
		p.ctx = ctxNone
		p.state = tsText
		p.activeID = ""
		p.paramsBuffer = ""
		p.nameBuffer = ""
		return []Event{ev}

	default:
		return nil
	}
}

func (p *TagParser) candidates() []string {
	switch p.ctx {
	case ctxNone:
		return []string{p.cfg.ToolCallStart}
	case ctxToolCall:
		return []string{p.cfg.ToolNameStart, p.cfg.ToolCallEnd}
	case ctxToolName:
		return []string{p.cfg.ToolNameEnd}
	case ctxAfterName:
		return []string{p.cfg.ToolParamsStart, p.cfg.ToolCallEnd}
	case ctxParams:
		return []string{p.cfg.ToolParamsEnd}
	case ctxAfterParams:
		return []string{p.cfg.ToolCallEnd}
	default:
		return nil
	}
}

func isPrefixOfAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.HasPrefix(c, s) {
			return true
		}
	}
	return false
}

// exactMatch returns the candidate equal to buf, but only once buf is no
// longer a strict prefix of some other, longer candidate still in the
// running — the longest-first tie-break of rule 5.
func exactMatch(buf string, candidates []string) string {
	exact := ""
	longerPending := false
	for _, c := range candidates {
		if c == buf {
			exact = c
		} else if strings.HasPrefix(c, buf) && len(c) > len(buf) {
			longerPending = true
		}
	}
	if exact != "" && !longerPending {
		return exact
	}
	return ""
}
