// Package allocation assigns concrete seat identities to passengers.
// One Pool exists per InventoryKey; callers serialize access through
// the owning inventory entry lock.
package allocation

import (
	"strconv"

	"railbook/internal/apperr"
	"railbook/internal/models"
)

// rotationOrder is the deterministic fallback order used when a
// passenger has no preference or the preferred berth type is exhausted.
// The cursor advances one step after every fallback pick so berth types
// stay balanced across a coach.
var rotationOrder = []models.BerthType{
	models.BerthLower,
	models.BerthMiddle,
	models.BerthUpper,
	models.BerthSideLower,
	models.BerthSideUpper,
}

// classLayout describes the physical coach layout per class.
type classLayout struct {
	coachPrefix   string
	seatsPerCoach int
	berthPattern  []models.BerthType
}

var layouts = map[models.CoachClass]classLayout{
	models.ClassSL: {"S", 72, []models.BerthType{
		models.BerthLower, models.BerthMiddle, models.BerthUpper,
		models.BerthLower, models.BerthMiddle, models.BerthUpper,
		models.BerthSideLower, models.BerthSideUpper,
	}},
	models.Class3A: {"B", 64, []models.BerthType{
		models.BerthLower, models.BerthMiddle, models.BerthUpper,
		models.BerthLower, models.BerthMiddle, models.BerthUpper,
		models.BerthSideLower, models.BerthSideUpper,
	}},
	models.Class2A: {"A", 46, []models.BerthType{
		models.BerthLower, models.BerthUpper,
		models.BerthLower, models.BerthUpper,
		models.BerthSideLower, models.BerthSideUpper,
	}},
	models.Class1A: {"H", 18, []models.BerthType{
		models.BerthLower, models.BerthUpper,
	}},
	models.ClassCC: {"C", 78, []models.BerthType{
		models.BerthLower, models.BerthMiddle, models.BerthUpper,
		models.BerthSideLower, models.BerthSideUpper,
	}},
}

var defaultLayout = classLayout{"D", 72, rotationOrder}

// Layout returns the coach layout for a class.
func layoutFor(class models.CoachClass) classLayout {
	if l, ok := layouts[class]; ok {
		return l
	}
	return defaultLayout
}

// Pool holds the free seat slots of one InventoryKey. The free-slot
// count is the available_seats counter: it only changes inside the
// caller's critical section, together with assignment.
type Pool struct {
	class    models.CoachClass
	free     map[models.BerthType][]models.SeatAssignment
	count    int
	total    int
	rotation int
}

// NewPool generates the seat universe for a key coach by coach and
// removes the already-sold labels. totalSeats counts sold seats too.
func NewPool(class models.CoachClass, totalSeats int, sold map[string]bool) *Pool {
	layout := layoutFor(class)
	p := &Pool{
		class: class,
		free:  make(map[models.BerthType][]models.SeatAssignment),
		total: totalSeats,
	}

	generated := 0
	for coach := 1; generated < totalSeats; coach++ {
		label := layout.coachPrefix + strconv.Itoa(coach)
		for seat := 1; seat <= layout.seatsPerCoach && generated < totalSeats; seat++ {
			generated++
			a := models.SeatAssignment{
				CoachLabel: label,
				SeatNumber: seat,
				Berth:      layout.berthPattern[(seat-1)%len(layout.berthPattern)],
			}
			if sold[a.Label()] {
				continue
			}
			p.free[a.Berth] = append(p.free[a.Berth], a)
			p.count++
		}
	}

	return p
}

// Available returns the free seat count. Never negative: seats leave
// the pool only through successful allocation.
func (p *Pool) Available() int {
	return p.count
}

// Total returns the seat universe size of the key.
func (p *Pool) Total() int {
	return p.total
}

// Utilization returns the booked share of the key in [0, 1].
func (p *Pool) Utilization() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.total-p.count) / float64(p.total)
}

// Allocate assigns one seat per preference, in request order. A nil
// preference means no preference. All-or-nothing: on shortfall nothing
// is taken and a CapacityExceededError reports needed vs available.
func (p *Pool) Allocate(prefs []*models.BerthType) ([]models.SeatAssignment, error) {
	needed := len(prefs)
	if needed > p.count {
		return nil, apperr.CapacityExceeded(needed, p.count)
	}

	assignments := make([]models.SeatAssignment, 0, needed)
	for _, pref := range prefs {
		a, ok := p.takePreferred(pref)
		if !ok {
			a, ok = p.takeRotation()
		}
		if !ok {
			// Cannot happen after the count check, but restore
			// the taken slots rather than trust the invariant.
			p.Release(assignments)
			return nil, apperr.CapacityExceeded(needed, p.count)
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}

// Release returns previously assigned slots to the pool.
func (p *Pool) Release(assignments []models.SeatAssignment) {
	for _, a := range assignments {
		p.free[a.Berth] = append(p.free[a.Berth], a)
		p.count++
	}
}

func (p *Pool) takePreferred(pref *models.BerthType) (models.SeatAssignment, bool) {
	if pref == nil {
		return models.SeatAssignment{}, false
	}
	return p.pop(*pref)
}

func (p *Pool) takeRotation() (models.SeatAssignment, bool) {
	for i := 0; i < len(rotationOrder); i++ {
		berth := rotationOrder[(p.rotation+i)%len(rotationOrder)]
		if a, ok := p.pop(berth); ok {
			p.rotation = (p.rotation + i + 1) % len(rotationOrder)
			return a, true
		}
	}
	return models.SeatAssignment{}, false
}

func (p *Pool) pop(berth models.BerthType) (models.SeatAssignment, bool) {
	slots := p.free[berth]
	if len(slots) == 0 {
		return models.SeatAssignment{}, false
	}
	a := slots[0]
	p.free[berth] = slots[1:]
	p.count--
	return a, true
}
