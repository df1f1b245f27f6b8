// Package waveform computes the decorative line drawn under the audio player.
// It only consumes playback state and never reports back to the session.
package waveform

import "math"

// Canvas defaults.
const (
	DefaultWidth  = 600
	DefaultHeight = 100
	LineWidth     = 2
	PhaseStep     = 0.05
)

const (
	idleSegments    = 40
	playingSegments = 80
	colorPurple     = "#8B5CF6"
	colorPink       = "#EC4899"
)

// Point is one vertex of the line in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ColorStop is one stop of a horizontal linear gradient.
type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Frame is the canvas size and the animation phase to draw at.
type Frame struct {
	Width  float64
	Height float64
	Phase  float64
}

// Line is a stroke ready to draw.
type Line struct {
	Points    []Point     `json:"points"`
	Stroke    []ColorStop `json:"stroke"`
	LineWidth float64     `json:"lineWidth"`
	Animated  bool        `json:"animated"`
}

// Render draws the idle line when isPlaying is false and the animated line
// at frame.Phase otherwise. audioRef does not change the shape; a new
// reference restarts the animation in Animator.
func Render(isPlaying bool, _ *string, frame Frame) Line {
	if frame.Width <= 0 {
		frame.Width = DefaultWidth
	}

	if frame.Height <= 0 {
		frame.Height = DefaultHeight
	}

	if !isPlaying {
		return idleLine(frame)
	}

	return playingLine(frame)
}

func idleLine(frame Frame) Line {
	baseY := frame.Height / 2
	amplitude := frame.Height / 4
	segmentWidth := frame.Width / idleSegments

	points := make([]Point, 0, idleSegments+1)
	for i := 0; i <= idleSegments; i++ {
		index := float64(i)
		points = append(points, Point{
			X: index * segmentWidth,
			Y: baseY + math.Sin(index*0.5)*amplitude*0.3,
		})
	}

	return Line{
		Points:    points,
		Stroke:    []ColorStop{{Offset: 0, Color: colorPurple}},
		LineWidth: LineWidth,
		Animated:  false,
	}
}

func playingLine(frame Frame) Line {
	baseY := frame.Height / 2
	amplitude := frame.Height / 3
	segmentWidth := frame.Width / playingSegments
	phase := frame.Phase

	points := make([]Point, 0, playingSegments+1)
	for i := 0; i <= playingSegments; i++ {
		index := float64(i)
		points = append(points, Point{
			X: index * segmentWidth,
			Y: baseY +
				math.Sin(index*0.2+phase)*amplitude*0.5 +
				math.Sin(index*0.1+phase*0.7)*amplitude*0.3,
		})
	}

	return Line{
		Points: points,
		Stroke: []ColorStop{
			{Offset: 0, Color: colorPurple},
			{Offset: 0.5, Color: colorPink},
			{Offset: 1, Color: colorPurple},
		},
		LineWidth: LineWidth,
		Animated:  true,
	}
}

// Animator owns the phase of one waveform. It is not safe for concurrent use.
type Animator struct {
	width    float64
	height   float64
	phase    float64
	playing  bool
	audioRef string
}

// NewAnimator creates an Animator for a canvas of the given size.
func NewAnimator(width, height float64) *Animator {
	return &Animator{
		width:    width,
		height:   height,
		phase:    0,
		playing:  false,
		audioRef: "",
	}
}

// Next returns the line for the next animation frame. The phase advances
// only while playing and restarts whenever playback starts or the audio
// reference changes.
func (a *Animator) Next(isPlaying bool, audioRef *string) Line {
	ref := ""
	if audioRef != nil {
		ref = *audioRef
	}

	if isPlaying != a.playing || ref != a.audioRef {
		a.phase = 0
		a.playing = isPlaying
		a.audioRef = ref
	}

	line := Render(isPlaying, audioRef, Frame{Width: a.width, Height: a.height, Phase: a.phase})

	if isPlaying {
		a.phase += PhaseStep
	}

	return line
}

// Phase returns the phase the next playing frame will be drawn at.
func (a *Animator) Phase() float64 {
	return a.phase
}
