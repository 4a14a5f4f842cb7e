package effects

const (
	stereoEchoMs       = 60
	stereoFeedbackRate = 0.6
)

// StereoEcho widens the image with a short cross-fed echo. Depth 0 is a clean
// pass-through; larger depths raise both the echo level and its feedback.
type StereoEcho struct {
	delay *Delay
	depth float32
}

func NewStereoEcho(sampleRate int) *StereoEcho {
	return &StereoEcho{delay: NewDelay(sampleRate, stereoEchoMs, 0, 1, 0)}
}

func (s *StereoEcho) SetDepth(depth float32) {
	depth = clamp(depth, 0, 1)
	if depth == 0 && s.depth != 0 {
		s.delay.Reset()
	}
	s.depth = depth
	s.delay.SetMix(depth*stereoFeedbackRate, 1, depth)
}

func (s *StereoEcho) Depth() float32 { return s.depth }

func (s *StereoEcho) Process(l, r float32) (float32, float32) {
	if s.depth == 0 {
		return l, r
	}
	// Keep the dry signal at full level and add the crossed echo on top.
	el, er := s.delay.Process(l, r)
	dry := 1 - s.depth
	return l + (el-l*dry)/2, r + (er-r*dry)/2
}

func (s *StereoEcho) Reset() { s.delay.Reset() }
