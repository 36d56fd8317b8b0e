package layout

import (
	"fmt"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/mapping"
)

// NewMapping builds a local-to-global mapping whose first slots enumerate
// the owned range in order, followed by the ghost indices.
func (l *Layout) NewMapping(ghosts []int) (*mapping.Mapping, error) {
	if err := l.setUp(); err != nil {
		return nil, err
	}
	idx := make([]int, 0, l.n+len(ghosts))
	for g := l.rstart; g < l.rend; g++ {
		idx = append(idx, g)
	}
	for _, g := range ghosts {
		if g < 0 || g >= l.size {
			return nil, fmt.Errorf("layout: ghost: %w", whale.OutOfRange(g, 0, l.size))
		}
		idx = append(idx, g)
	}
	return mapping.New(l.c, len(idx), idx, whale.OwnPointer,
		mapping.WithLogger(l.logger), mapping.WithResource(l.rc))
}

// SetMapping attaches m (by reference) as the scalar local-to-global mapping,
// releasing the previous one. A nil m detaches.
func (l *Layout) SetMapping(m *mapping.Mapping) error {
	return l.attach(&l.mapping, m)
}

// Mapping returns the attached scalar mapping, or nil.
func (l *Layout) Mapping() *mapping.Mapping { return l.mapping }

// SetBlockMapping attaches m (by reference) as the block local-to-global
// mapping, releasing the previous one. A nil m detaches.
func (l *Layout) SetBlockMapping(m *mapping.Mapping) error {
	return l.attach(&l.bmapping, m)
}

// BlockMapping returns the attached block mapping, or nil.
func (l *Layout) BlockMapping() *mapping.Mapping { return l.bmapping }

func (l *Layout) attach(slot **mapping.Mapping, m *mapping.Mapping) error {
	if err := l.alive(); err != nil {
		return err
	}
	if m == *slot {
		return nil
	}
	if m != nil {
		ref, err := m.Reference()
		if err != nil {
			return err
		}
		m = ref
	}
	if err := (*slot).Destroy(); err != nil {
		_ = m.Destroy()
		return err
	}
	*slot = m
	return nil
}
