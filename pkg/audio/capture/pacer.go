// ABOUTME: Real-time pacing for generated and file-backed audio
// ABOUTME: Sleeps so that frames are produced no faster than the sample rate
package capture

import "time"

// pacer delays reads so that synthetic sources behave like a sound card
type pacer struct {
	rate   int
	start  time.Time
	frames int64
	sleep  func(time.Duration)
}

func newPacer(rate int) *pacer {
	return &pacer{rate: rate, sleep: time.Sleep}
}

// wait accounts for frames and blocks until they are due
func (p *pacer) wait(frames int) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.frames += int64(frames)
	if d := time.Until(p.due()); d > 0 {
		p.sleep(d)
	}
}

// due is the time the accounted frames finish playing. Whole seconds and the
// remainder are scaled separately so long sessions do not overflow.
func (p *pacer) due() time.Time {
	rate := int64(p.rate)
	secs := time.Duration(p.frames/rate) * time.Second
	rest := time.Duration(p.frames%rate) * time.Second / time.Duration(rate)
	return p.start.Add(secs + rest)
}
