package scene

import (
	"regexp"
	"strings"
)

// Kind marks a scene's role in the story arc.
type Kind int

const (
	Hook Kind = iota
	Beat
	Cta
)

func (k Kind) String() string {
	switch k {
	case Hook:
		return "hook"
	case Cta:
		return "cta"
	default:
		return "beat"
	}
}

// BackgroundMode selects how a scene's background is produced.
type BackgroundMode int

const (
	ModeGradient BackgroundMode = iota
	ModeAi
	ModeUpload
)

func (m BackgroundMode) String() string {
	switch m {
	case ModeAi:
		return "ai"
	case ModeUpload:
		return "upload"
	default:
		return "gradient"
	}
}

// BackgroundSpec describes the requested background for one scene.
// UploadedImage is only consulted when Mode is ModeUpload.
type BackgroundSpec struct {
	Mode          BackgroundMode
	UploadedImage []byte
}

// Scene is one timed unit of the output video.
type Scene struct {
	Text        string
	Keywords    []string
	DurationSec float64
	Kind        Kind
	Background  BackgroundSpec
}

const (
	hookDurationSec = 4.0
	beatDurationSec = 5.0
	ctaDurationSec  = 4.0
)

var sentenceEndRegex = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// Split breaks a prompt into scenes. The first sentence becomes the Hook,
// the last becomes the Cta, and everything in between is a Beat. A prompt
// that yields a single sentence is split in half on a word boundary so the
// result always has exactly one Hook and one Cta.
func Split(prompt string, mode BackgroundMode) []Scene {
	texts := splitSentences(prompt)
	if len(texts) == 0 {
		return nil
	}
	if len(texts) == 1 {
		texts = bisectWords(texts[0])
	}

	scenes := make([]Scene, 0, len(texts))
	for i, text := range texts {
		kind := Beat
		dur := beatDurationSec
		switch i {
		case 0:
			kind = Hook
			dur = hookDurationSec
		case len(texts) - 1:
			kind = Cta
			dur = ctaDurationSec
		}
		scenes = append(scenes, Scene{
			Text:        text,
			Keywords:    Keywords(text),
			DurationSec: dur,
			Kind:        kind,
			Background:  BackgroundSpec{Mode: mode},
		})
	}
	return scenes
}

// splitSentences splits text at sentence-ending punctuation, keeping the
// punctuation attached to each sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := sentenceEndRegex.Split(text, -1)
	ends := sentenceEndRegex.FindAllString(text, -1)

	var sentences []string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(ends) {
			part += strings.TrimSpace(ends[i])
		}
		sentences = append(sentences, part)
	}
	return sentences
}

// bisectWords splits a single sentence into two halves on a word boundary.
func bisectWords(text string) []string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return []string{text, text}
	}
	mid := len(words) / 2
	return []string{
		strings.Join(words[:mid], " "),
		strings.Join(words[mid:], " "),
	}
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"he": true, "her": true, "his": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "our": true, "she": true,
	"that": true, "the": true, "their": true, "then": true, "they": true,
	"this": true, "to": true, "was": true, "we": true, "were": true,
	"will": true, "with": true, "you": true, "your": true,
}

var nonWordRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Keywords extracts up to five significant lowercase words from text, used
// for image-generation prompts and tint theme matching.
func Keywords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = nonWordRegex.ReplaceAllString(word, "")
		if len(word) < 3 || stopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
		if len(out) == 5 {
			break
		}
	}
	return out
}
