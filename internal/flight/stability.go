package flight

import (
	"errors"
	"fmt"
	"math"

	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// Failure causes reported by the engine
var (
	ErrUnknownMotor       = errors.New("unknown motor")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	ErrNoLiftoff          = errors.New("thrust does not lift the rocket off the rail")
	ErrDiverged           = errors.New("integration diverged")
	ErrUnknownFin         = errors.New("unknown fin category")
	ErrInvalidTrigger     = errors.New("invalid parachute trigger")
)

// Aerodynamics summarizes the normal-force coefficient slope and center of
// pressure of the whole vehicle, positions measured from the tail.
type Aerodynamics struct {
	NoseCNa       float64
	NoseCP        float64
	FinsCNa       float64
	FinsCP        float64
	CenterOfPress float64
}

// validateGeometry rejects configurations the aerodynamic model cannot represent
func validateGeometry(c rocket.Configuration) error {
	switch {
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius %.4f", ErrDegenerateGeometry, c.Radius)
	case c.RocketLength <= 0:
		return fmt.Errorf("%w: rocket length %.4f", ErrDegenerateGeometry, c.RocketLength)
	case c.ConeLength <= 0 || c.ConeLength >= c.RocketLength:
		return fmt.Errorf("%w: cone length %.4f for body %.4f", ErrDegenerateGeometry, c.ConeLength, c.RocketLength)
	case c.Mass <= 0:
		return fmt.Errorf("%w: mass %.4f", ErrDegenerateGeometry, c.Mass)
	case c.CenterOfMass <= 0 || c.CenterOfMass >= c.RocketLength:
		return fmt.Errorf("%w: center of mass %.4f outside body", ErrDegenerateGeometry, c.CenterOfMass)
	case c.NumberOfFins < 1:
		return fmt.Errorf("%w: %d fins", ErrDegenerateGeometry, c.NumberOfFins)
	case c.RootChord <= 0 || c.Span <= 0 || c.TipChord < 0:
		return fmt.Errorf("%w: fin chords %.4f/%.4f span %.4f", ErrDegenerateGeometry, c.RootChord, c.TipChord, c.Span)
	case c.FinsPosition < 0 || c.FinsPosition+c.RootChord > c.RocketLength-c.ConeLength:
		return fmt.Errorf("%w: fins at %.4f overlap the nose cone", ErrDegenerateGeometry, c.FinsPosition)
	}
	return nil
}

// ComputeAerodynamics applies the Barrowman equations to a von Karman nose
// and one fin set. The fin leading edge sits at fins position + root chord.
func ComputeAerodynamics(c rocket.Configuration) (Aerodynamics, error) {
	if err := validateGeometry(c); err != nil {
		return Aerodynamics{}, err
	}

	var a Aerodynamics
	d := 2 * c.Radius

	// Nose: CNa = 2, CP at half the cone length for a von Karman ogive
	a.NoseCNa = 2
	a.NoseCP = c.RocketLength - 0.5*c.ConeLength

	cr := c.RootChord
	s := c.Span
	n := float64(c.NumberOfFins)

	var ct, midChord, xf float64
	switch c.FinCategory {
	case rocket.FinTrapezoidal:
		// Straight trailing edge: the leading edge is swept by cr - ct
		ct = c.TipChord
		sweep := cr - ct
		midChord = math.Hypot(s, sweep+ct/2-cr/2)
		xf = sweep/3*(cr+2*ct)/(cr+ct) + (cr+ct-cr*ct/(cr+ct))/6
	case rocket.FinElliptical:
		midChord = s
		xf = 0.288 * cr
	default:
		return Aerodynamics{}, fmt.Errorf("%w: %q", ErrUnknownFin, c.FinCategory)
	}

	interference := 1 + c.Radius/(s+c.Radius)
	ratio := s / d
	a.FinsCNa = interference * 4 * n * ratio * ratio /
		(1 + math.Sqrt(1+math.Pow(2*midChord/(cr+ct), 2)))
	a.FinsCP = c.FinsPosition + cr - xf

	a.CenterOfPress = (a.NoseCNa*a.NoseCP + a.FinsCNa*a.FinsCP) / (a.NoseCNa + a.FinsCNa)
	return a, nil
}

// CenterOfMassAt returns the vehicle center of mass at time t with the
// motor nozzle at the tail.
func CenterOfMassAt(c rocket.Configuration, m Motor, t float64) float64 {
	propellant := m.PropellantRemaining(t)
	total := c.Mass + m.DryMass + propellant
	moment := c.Mass*c.CenterOfMass + m.DryMass*m.DryCoM + propellant*m.GrainsCoM
	return moment / total
}

// StaticMargin returns the static margin in calibers at motor burnout.
// Positive values mean the center of mass is ahead of the center of pressure.
func StaticMargin(c rocket.Configuration, m Motor) (float64, error) {
	aero, err := ComputeAerodynamics(c)
	if err != nil {
		return 0, err
	}
	cg := CenterOfMassAt(c, m, m.BurnTime)
	return (cg - aero.CenterOfPress) / (2 * c.Radius), nil
}
