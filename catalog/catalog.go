package catalog

import (
	"fmt"
	"strings"

	"memory-match-server/sessionerrors"
)

// Catalog maps every card face to its matching partner. Each pair is keyed by
// the face that appears first in its definition. A Catalog is never mutated
// after construction.
type Catalog struct {
	name     string
	faces    []string
	partner  map[string]string
	pairKey  map[string]string
	payloads map[string]string
}

// NewCatalog builds a catalog from face pairs. payload renders the display
// payload of a face; nil means the face itself is the payload.
func NewCatalog(name string, pairs [][2]string, payload func(face string) string) (*Catalog, error) {
	c := &Catalog{
		name:     name,
		faces:    make([]string, 0, 2*len(pairs)),
		partner:  make(map[string]string, 2*len(pairs)),
		pairKey:  make(map[string]string, 2*len(pairs)),
		payloads: make(map[string]string, 2*len(pairs)),
	}
	for i, p := range pairs {
		a, b := strings.TrimSpace(p[0]), strings.TrimSpace(p[1])
		if a == "" || b == "" {
			return nil, fmt.Errorf("catalog %s: pair %d has an empty face", name, i)
		}
		if a == b {
			return nil, fmt.Errorf("catalog %s: pair %d pairs %q with itself", name, i, a)
		}
		for _, f := range []string{a, b} {
			if _, dup := c.partner[f]; dup {
				return nil, fmt.Errorf("catalog %s: face %q appears twice", name, f)
			}
		}
		c.partner[a], c.partner[b] = b, a
		c.pairKey[a], c.pairKey[b] = a, a
		c.faces = append(c.faces, a, b)
		for _, f := range []string{a, b} {
			if payload != nil {
				c.payloads[f] = payload(f)
			} else {
				c.payloads[f] = f
			}
		}
	}
	return c, nil
}

// Name returns the variant name.
func (c *Catalog) Name() string { return c.name }

// PairCount returns the number of pairs the catalog defines.
func (c *Catalog) PairCount() int { return len(c.faces) / 2 }

// Faces returns every face in definition order; the two faces of a pair are
// adjacent.
func (c *Catalog) Faces() []string {
	out := make([]string, len(c.faces))
	copy(out, c.faces)
	return out
}

// PartnerOf returns the face that matches face.
func (c *Catalog) PartnerOf(face string) (string, bool) {
	p, ok := c.partner[face]
	return p, ok
}

// PairKey returns the key shared by face and its partner.
func (c *Catalog) PairKey(face string) (string, bool) {
	k, ok := c.pairKey[face]
	return k, ok
}

// Payload returns what the renderer shows for face, or "" for unknown faces.
func (c *Catalog) Payload(face string) string {
	return c.payloads[face]
}

// IsPair reports whether a and b are partners. Unknown faces never match.
func (c *Catalog) IsPair(a, b string) bool {
	p, ok := c.partner[a]
	return ok && p == b
}

// ByName returns the built-in catalog for a variant name.
func ByName(name string) (*Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "image", "images":
		return Images(), nil
	case "fraction", "fractions":
		return Fractions(), nil
	default:
		return nil, fmt.Errorf("catalog %q: %w", name, sessionerrors.ErrUnknownVariant)
	}
}
