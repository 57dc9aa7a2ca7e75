package timezone

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

//go:embed zones.txt
var embeddedZones string

// Table is an immutable set of timezone rules keyed by IANA id. Converters
// take a Table instead of consulting process-wide state.
type Table struct {
	names []string
	locs  map[string]*time.Location
}

// NewTable loads every name with load and keeps the ones that resolve.
func NewTable(names []string, load func(string) (*time.Location, error)) *Table {
	t := &Table{locs: make(map[string]*time.Location, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if _, dup := t.locs[name]; dup {
			continue
		}
		loc, err := load(name)
		if err != nil {
			continue
		}
		t.locs[name] = loc
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t
}

// DefaultTable is built from the embedded IANA name list and the Go runtime's
// zone database.
func DefaultTable() *Table {
	return NewTable(strings.Split(embeddedZones, "\n"), time.LoadLocation)
}

func (t *Table) Resolve(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty timezone", model.ErrInvalidTimezone)
	}
	loc, ok := t.locs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidTimezone, id)
	}
	return loc, nil
}

// Names returns the supported ids in lexical order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
