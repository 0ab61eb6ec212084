package confetti

import (
	"math"
	"math/rand"
	"time"
)

var palette = []string{"#ff5252", "#ffb74d", "#ffd54f", "#81c784", "#64b5f6", "#ba68c8"}

const (
	gravity        = 0.035
	drag           = 0.995
	fallAccel      = 1.002
	wrapMargin     = 20.0
	overflowMargin = 40.0
	maxParticles   = 240
	areaPerPiece   = 14000
)

// Shape is how a particle is drawn.
type Shape string

const (
	ShapeRect   Shape = "rect"
	ShapeCircle Shape = "circle"
)

type particle struct {
	x, y   float64
	vx, vy float64
	rot    float64
	vrot   float64

	born       float64 // ms after the burst starts
	size       float64
	color      string
	alphaBase  float64
	shape      Shape
	swayAmp    float64
	swayPeriod float64
	phase      float64
	windScale  float64
}

// Particle is a drawable snapshot of one particle.
type Particle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Rot   float64 `json:"rot"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
	Shape Shape   `json:"shape"`
}

// Frame is the set of visible particles at one point of the effect.
type Frame struct {
	Elapsed   time.Duration
	Particles []Particle
}

// Burst is one run of the effect: its own particles on its own viewport.
type Burst struct {
	width, height float64
	duration      float64
	particles     []particle
}

// ParticleCount returns how many particles fit a w×h viewport.
func ParticleCount(w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	n := w * h / areaPerPiece
	if n > maxParticles {
		n = maxParticles
	}
	return n
}

// NewBurst scatters particles above a w×h viewport. Some start late, up to
// 60% into d.
func NewBurst(rng *rand.Rand, w, h int, d time.Duration) *Burst {
	durMS := float64(d) / float64(time.Millisecond)
	between := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	b := &Burst{width: float64(w), height: float64(h), duration: durMS}
	n := ParticleCount(w, h)
	b.particles = make([]particle, n)
	for i := range b.particles {
		angle := rng.Float64() * 2 * math.Pi
		shape := ShapeRect
		if rng.Float64() >= 0.4 && rng.Float64() < 0.5 {
			shape = ShapeCircle
		}
		b.particles[i] = particle{
			x:          rng.Float64() * b.width,
			y:          -40 - rng.Float64()*200,
			born:       rng.Float64() * durMS * 0.6,
			size:       between(6, 12),
			color:      palette[rng.Intn(len(palette))],
			alphaBase:  between(0.75, 1),
			shape:      shape,
			vx:         math.Cos(angle) * between(0.2, 2.2),
			vy:         between(2.4, 4),
			rot:        rng.Float64() * math.Pi,
			vrot:       (rng.Float64() - 0.5) * 0.35,
			swayAmp:    between(0.8, 6),
			swayPeriod: between(280, 950),
			phase:      rng.Float64() * 1000,
			windScale:  between(0.3, 1.3),
		}
	}
	return b
}

// Len returns the number of particles in the burst.
func (b *Burst) Len() int { return len(b.particles) }

func wind(elapsed float64) float64 {
	return math.Sin(elapsed/700)*0.6 + math.Sin(elapsed/1230)*0.4 + math.Sin(elapsed/310)*0.2
}

// Step advances every born particle by one frame at elapsed and returns the
// snapshot to draw.
func (b *Burst) Step(elapsed time.Duration) Frame {
	t := float64(elapsed) / float64(time.Millisecond)
	w := wind(t)
	frame := Frame{Elapsed: elapsed, Particles: make([]Particle, 0, len(b.particles))}

	for i := range b.particles {
		p := &b.particles[i]
		if t < p.born {
			continue
		}
		sway := math.Sin((t+p.phase)/p.swayPeriod) * p.swayAmp
		p.x += p.vx + w*p.windScale + sway*0.08

		p.y += p.vy
		p.vy += gravity
		p.vx *= drag
		p.vy *= fallAccel
		p.rot += p.vrot

		if p.x < -wrapMargin {
			p.x = b.width + wrapMargin
		}
		if p.x > b.width+wrapMargin {
			p.x = -wrapMargin
		}

		frame.Particles = append(frame.Particles, Particle{
			X:     p.x,
			Y:     p.y,
			Rot:   p.rot,
			Size:  p.size,
			Color: p.color,
			Alpha: p.alphaBase * (0.9 + 0.1*math.Sin((t+p.phase)/200)),
			Shape: p.shape,
		})
	}
	return frame
}

// Exited reports whether every particle has been born and fallen past the
// bottom of the viewport by elapsed.
func (b *Burst) Exited(elapsed time.Duration) bool {
	t := float64(elapsed) / float64(time.Millisecond)
	for i := range b.particles {
		p := &b.particles[i]
		if t < p.born || p.y <= b.height+overflowMargin {
			return false
		}
	}
	return true
}
