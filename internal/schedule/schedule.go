package schedule

// SchemaVersion identifies the persisted document layout. Documents read
// with a different version are treated as absent and regenerated.
const SchemaVersion = 1

// Template is a reusable event blueprint rotated across days to produce
// concrete events. Templates are loaded once from the seed catalog and
// never mutated at runtime; their order is significant for rotation.
type Template struct {
	ID       string
	Name     string
	Time     string
	Duration string
	Capacity int
}

// Registrant identifies a person on an event's registration list. Identity
// for matching purposes is the (name, surname) pair compared
// case-insensitively; see IdentityKey.
type Registrant struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// Event is a concrete occurrence derived from a template for one day, or
// created directly by an administrator. The ID is stable across
// regenerations of the same date and template, which is how registrations
// survive a rebuild of the week.
type Event struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Date       string       `json:"date"`
	Time       string       `json:"time"`
	Duration   string       `json:"duration"`
	Host       string       `json:"host"`
	Capacity   int          `json:"capacity"`
	Registered []Registrant `json:"registered"`
}

// Vacant reports the remaining capacity of the event, floored at zero.
func (e Event) Vacant() int {
	vacant := e.Capacity - len(e.Registered)
	if vacant < 0 {
		return 0
	}
	return vacant
}

// Day is one calendar day of the visible week.
type Day struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Document is the full weekly schedule as persisted: an anchor date, the
// seven days starting at the anchor, and the events bucketed by day key.
// Every event's Date equals the key of the bucket it is stored under.
type Document struct {
	SchemaVersion int                `json:"schemaVersion"`
	Anchor        string             `json:"anchor"`
	Days          []Day              `json:"days"`
	Events        map[string][]Event `json:"events"`
}

// Index flattens the document's day buckets into an id-keyed lookup. The
// returned pointers alias the document's slices, so mutations through them
// are visible in the document. The index must be rebuilt after any
// structural change to the buckets (regeneration, admin insert or remove).
func Index(doc *Document) map[string]*Event {
	if doc == nil {
		return nil
	}
	index := make(map[string]*Event)
	for key := range doc.Events {
		bucket := doc.Events[key]
		for i := range bucket {
			index[bucket[i].ID] = &bucket[i]
		}
	}
	return index
}
