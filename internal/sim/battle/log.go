package battle

type Side int

const (
	Challenger Side = iota
	Defender
)

func (s Side) Other() Side { return 1 - s }

func (s Side) String() string {
	if s == Challenger {
		return "challenger"
	}
	return "defender"
}

type EventKind string

const (
	EventAttack   EventKind = "attack"
	EventMiss     EventKind = "miss"
	EventSkill    EventKind = "skill"
	EventHeal     EventKind = "heal"
	EventBuff     EventKind = "buff"
	EventDead     EventKind = "dead"
	EventTurnEnd  EventKind = "turn_end"
	EventTimeOver EventKind = "time_over"
)

// Event is one step of a fight. Value is damage, healing or the remaining HP
// depending on Kind.
type Event struct {
	Turn     int
	Actor    Side
	Kind     EventKind
	Value    int64
	Critical bool
	SkillID  int
	BuffID   int
}

type Result string

const (
	ResultWin      Result = "win"
	ResultLose     Result = "lose"
	ResultTimeOver Result = "time_over"
)

// Log is the full record of one fight.
type Log struct {
	Events []Event
	Result Result
	Turns  int
	// Damage is the total damage dealt by each side.
	Damage [2]int64
	// RemainingHP of each side when the fight ended.
	RemainingHP [2]int64
}

func (l *Log) add(e Event) { l.Events = append(l.Events, e) }

// Won reports whether the challenger defeated the defender.
func (l *Log) Won() bool { return l.Result == ResultWin }

// Iter returns a cursor at the first event.
func (l *Log) Iter() *Cursor { return &Cursor{log: l} }

// Cursor walks a Log's events. It can be rewound with Reset; the log is
// never modified.
type Cursor struct {
	log *Log
	pos int
}

func (c *Cursor) Next() (Event, bool) {
	if c.pos >= len(c.log.Events) {
		return Event{}, false
	}
	e := c.log.Events[c.pos]
	c.pos++
	return e, true
}

func (c *Cursor) Reset() { c.pos = 0 }

// Count returns how many events of kind the actor produced.
func (l *Log) Count(actor Side, kind EventKind) int {
	n := 0
	for it := l.Iter(); ; {
		e, ok := it.Next()
		if !ok {
			return n
		}
		if e.Actor == actor && e.Kind == kind {
			n++
		}
	}
}
