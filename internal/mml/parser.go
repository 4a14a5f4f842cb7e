package mml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var noteOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

// Parse reads a music file. Lines starting with '#' are directives: #TITLE names the
// file, #SONG starts a new song, #LENGTH, #ECHO and #VIBRATO apply to the current song. Any other
// text is MML for the current song, with ';' separating channels. A file without #SONG
// holds a single untitled song.
func (p *Parser) Parse(input string) (*Album, error) {
	album := &Album{}
	var (
		cur  *rawSong
		raws []*rawSong
	)
	for lineNo, line := range strings.Split(stripComments(input), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if trimmed == "" {
				continue
			}
			if cur == nil {
				cur = &rawSong{}
				raws = append(raws, cur)
			}
			cur.body.WriteString(line)
			cur.body.WriteByte('\n')
			continue
		}
		name, value, ok := parseDirective(trimmed)
		if !ok {
			return nil, fmt.Errorf("line %d: malformed directive %q", lineNo+1, trimmed)
		}
		switch name {
		case "TITLE":
			album.Title = value
		case "SONG":
			cur = &rawSong{title: value}
			raws = append(raws, cur)
		case "LENGTH", "ECHO", "VIBRATO":
			if cur == nil {
				cur = &rawSong{}
				raws = append(raws, cur)
			}
			if err := cur.apply(name, value); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
		default:
			return nil, fmt.Errorf("line %d: unknown directive #%s", lineNo+1, name)
		}
	}

	for i, raw := range raws {
		song, err := p.parseSong(raw)
		if err != nil {
			return nil, fmt.Errorf("song %d: %w", i+1, err)
		}
		if len(song.Tracks) == 0 {
			continue
		}
		album.Songs = append(album.Songs, song)
	}
	return album, nil
}

type rawSong struct {
	title    string
	body     strings.Builder
	lengthMs int
	echo     *EchoParams
	vibrato  *VibratoParams
}

func (r *rawSong) apply(name, value string) error {
	nums, err := parseCSVFloats(value)
	if err != nil {
		return fmt.Errorf("#%s: %w", name, err)
	}
	switch name {
	case "LENGTH":
		if len(nums) != 1 || nums[0] < 0 {
			return fmt.Errorf("#LENGTH expects one non-negative value")
		}
		r.lengthMs = int(nums[0])
	case "ECHO":
		if len(nums) != 3 {
			return fmt.Errorf("#ECHO expects delayMs,feedback,wet")
		}
		r.echo = &EchoParams{DelayMs: nums[0], Feedback: nums[1], Wet: nums[2]}
	case "VIBRATO":
		if len(nums) < 2 || len(nums) > 3 || nums[0] < 0 || nums[1] < 0 {
			return fmt.Errorf("#VIBRATO expects depth,rate[,shape]")
		}
		v := &VibratoParams{Depth: nums[0], RateHz: nums[1]}
		if len(nums) == 3 {
			v.Shape = int(nums[2])
		}
		r.vibrato = v
	}
	return nil
}

func (p *Parser) parseSong(raw *rawSong) (Song, error) {
	song := Song{
		Title:      raw.title,
		Resolution: p.cfg.Resolution,
		InitialBPM: p.cfg.DefaultBPM,
		LengthMs:   raw.lengthMs,
		Echo:       raw.echo,
		Vibrato:    raw.vibrato,
	}
	for _, part := range strings.Split(raw.body.String(), ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(song.Tracks) >= p.cfg.MaxTracks {
			return Song{}, fmt.Errorf("more than %d channels", p.cfg.MaxTracks)
		}
		tr, err := p.parseTrack(part)
		if err != nil {
			return Song{}, fmt.Errorf("channel %d: %w", len(song.Tracks)+1, err)
		}
		song.Tracks = append(song.Tracks, tr)
	}
	return song, nil
}

type parseState struct {
	tick       int
	octave     int
	defaultLen int
	volume     int
	program    int
	pan        int
	gate       int
}

func (p *Parser) parseTrack(input string) (Track, error) {
	expanded, err := expandLoops(input)
	if err != nil {
		return Track{}, err
	}
	st := parseState{
		octave:     p.cfg.DefaultOctave,
		defaultLen: p.cfg.Resolution / p.cfg.DefaultLValue,
		volume:     p.cfg.DefaultVolume,
		gate:       p.cfg.DefaultGate,
	}
	events := make([]Event, 0, 128)
	i := 0
	for i < len(expanded) {
		ch := lower(expanded[i])
		if isSpace(ch) {
			i++
			continue
		}
		switch {
		case isNote(ch):
			evt, next, e := p.parseNote(expanded, i, &st)
			if e != nil {
				return Track{}, e
			}
			events = append(events, evt)
			st.tick += evt.Duration
			i = next
		case ch == 'r':
			dur, next, e := parseLengthWithTie(expanded, i+1, st.defaultLen, p.cfg.Resolution)
			if e != nil {
				return Track{}, e
			}
			events = append(events, Event{Type: EventRest, Tick: st.tick, Duration: dur})
			st.tick += dur
			i = next
		case ch == 'l':
			length, next, e := parseLengthToken(expanded, i+1, st.defaultLen, p.cfg.Resolution)
			if e != nil {
				return Track{}, e
			}
			st.defaultLen = length
			i = next
		case ch == 't':
			val, next, e := parseNumberDefault(expanded, i+1, int(p.cfg.DefaultBPM))
			if e != nil {
				return Track{}, e
			}
			if val <= 0 {
				return Track{}, fmt.Errorf("tempo must be positive at %d", i)
			}
			events = append(events, Event{Type: EventTempo, Tick: st.tick, BPM: float64(val)})
			i = next
		case ch == 'o':
			val, next, e := parseNumberDefault(expanded, i+1, st.octave)
			if e != nil {
				return Track{}, e
			}
			if val < p.cfg.MinOctave || val > p.cfg.MaxOctave {
				return Track{}, fmt.Errorf("octave out of range at %d", i)
			}
			st.octave = val
			i = next
		case ch == '<' || ch == '>':
			val, next, e := parseNumberDefault(expanded, i+1, 1)
			if e != nil {
				return Track{}, e
			}
			if ch == '<' {
				val = -val
			}
			st.octave = clampInt(st.octave+val, p.cfg.MinOctave, p.cfg.MaxOctave)
			i = next
		case ch == 'v':
			val, next, e := parseNumberDefault(expanded, i+1, st.volume)
			if e != nil {
				return Track{}, e
			}
			st.volume = clampInt(val, 0, 15)
			i = next
		case ch == '@':
			val, next, e := parseNumberDefault(expanded, i+1, st.program)
			if e != nil {
				return Track{}, e
			}
			st.program = val
			i = next
		case ch == 'p':
			val, next, e := parseNumberDefault(expanded, i+1, st.pan+64)
			if e != nil {
				return Track{}, e
			}
			st.pan = clampInt(val, 0, 128) - 64
			i = next
		case ch == 'q':
			val, next, e := parseNumberDefault(expanded, i+1, st.gate)
			if e != nil {
				return Track{}, e
			}
			st.gate = clampInt(val, 1, 8)
			i = next
		default:
			return Track{}, fmt.Errorf("unexpected %q at %d", expanded[i], i)
		}
	}
	return Track{Events: events, EndTick: st.tick}, nil
}

func (p *Parser) parseNote(s string, at int, st *parseState) (Event, int, error) {
	base := noteOffsets[lower(s[at])]
	i, shift := at+1, 0
accidentals:
	for ; i < len(s); i++ {
		switch s[i] {
		case '#', '+':
			shift++
		case '-':
			shift--
		default:
			break accidentals
		}
	}
	dur, next, err := parseLengthWithTie(s, i, st.defaultLen, p.cfg.Resolution)
	if err != nil {
		return Event{}, at, err
	}
	gate := dur * st.gate / 8
	if gate < 1 {
		gate = 1
	}
	return Event{
		Type:     EventNote,
		Tick:     st.tick,
		Duration: dur,
		Gate:     gate,
		Note:     clampInt(st.octave*12+base+shift, 0, 127),
		Volume:   st.volume,
		Program:  st.program,
		Pan:      st.pan,
	}, next, nil
}

func parseLengthWithTie(s string, at int, defaultLen int, resolution int) (int, int, error) {
	dur, i, err := parseLengthToken(s, at, defaultLen, resolution)
	if err != nil {
		return 0, at, err
	}
	for i < len(s) && s[i] == '^' {
		extra, next, e := parseLengthToken(s, i+1, defaultLen, resolution)
		if e != nil {
			return 0, at, e
		}
		dur += extra
		i = next
	}
	return dur, i, nil
}

func parseLengthToken(s string, at int, defaultLen int, resolution int) (int, int, error) {
	val, i, err := parseNumberOptional(s, at)
	if err != nil {
		return 0, at, err
	}
	base := defaultLen
	if val == 0 {
		return 0, at, fmt.Errorf("zero length at %d", at)
	}
	if val > 0 {
		base = resolution / val
	}
	dur, term := base, base
	for i < len(s) && s[i] == '.' {
		term >>= 1
		dur += term
		i++
	}
	return dur, i, nil
}

func parseNumberDefault(s string, at int, def int) (int, int, error) {
	v, i, err := parseNumberOptional(s, at)
	if err != nil {
		return 0, at, err
	}
	if v == -1 {
		return def, i, nil
	}
	return v, i, nil
}

// parseNumberOptional returns -1 when no digits are present at s[at].
func parseNumberOptional(s string, at int) (int, int, error) {
	i := at
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if i == at {
		return -1, i, nil
	}
	n, err := strconv.Atoi(s[at:i])
	if err != nil {
		return 0, at, err
	}
	return n, i, nil
}

// parseDirective splits "#NAME{value}" into its upper-cased name and value.
func parseDirective(line string) (string, string, bool) {
	body := strings.TrimPrefix(line, "#")
	open := strings.IndexByte(body, '{')
	if open <= 0 || !strings.HasSuffix(body, "}") {
		return "", "", false
	}
	name := strings.ToUpper(strings.TrimSpace(body[:open]))
	return name, strings.TrimSpace(body[open+1 : len(body)-1]), true
}

func parseCSVFloats(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func stripComments(src string) string {
	var out strings.Builder
	out.Grow(len(src))
	for i := 0; i < len(src); i++ {
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '*' {
			i += 2
			for i < len(src) {
				if src[i] == '\n' {
					out.WriteByte('\n')
				}
				if i+1 < len(src) && src[i] == '*' && src[i+1] == '/' {
					i++
					break
				}
				i++
			}
			continue
		}
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '/' {
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				out.WriteByte('\n')
			}
			continue
		}
		out.WriteByte(src[i])
	}
	return out.String()
}

func expandLoops(src string) (string, error) {
	out, i, err := expandSpan(src, 0, 0)
	if err != nil {
		return "", err
	}
	if i != len(src) {
		return "", fmt.Errorf("unmatched ']' at %d", i)
	}
	return out, nil
}

// expandSpan copies src from at until an unmatched ']' (depth > 0) or the end,
// replacing every [body]n with n copies of body. A '|' inside a block marks where the
// final pass stops.
func expandSpan(src string, at, depth int) (string, int, error) {
	var pre, post strings.Builder
	breakHit := false
	for at < len(src) {
		ch := src[at]
		switch {
		case ch == '[':
			body, next, err := expandSpan(src, at+1, depth+1)
			if err != nil {
				return "", at, err
			}
			if breakHit {
				post.WriteString(body)
			} else {
				pre.WriteString(body)
			}
			at = next
			continue
		case ch == '|' && depth > 0:
			breakHit = true
			at++
			continue
		case ch == ']':
			if depth == 0 {
				return pre.String(), at, nil
			}
			repeat, next, err := parseNumberDefault(src, at+1, 2)
			if err != nil {
				return "", at, err
			}
			if repeat < 1 {
				repeat = 1
			}
			var out strings.Builder
			for i := 0; i < repeat; i++ {
				out.WriteString(pre.String())
				if i < repeat-1 || !breakHit {
					out.WriteString(post.String())
				}
			}
			return out.String(), next, nil
		}
		if breakHit {
			post.WriteByte(ch)
		} else {
			pre.WriteByte(ch)
		}
		at++
	}
	if depth > 0 {
		return "", at, fmt.Errorf("unclosed '['")
	}
	return pre.String(), at, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\r' || b == '\t' }
func isNote(b byte) bool  { _, ok := noteOffsets[b]; return ok }
