package catalog

import (
	"strings"
	"unicode"

	"rydm/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normArtist folds an artist name to a bucket key: lower case, diacritics
// stripped, every run of characters outside a-z0-9 collapsed to one space.
func normArtist(s string) string {
	if s == "" {
		s = "Unknown"
	}
	folded := strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if out, _, err := transform.String(t, folded); err == nil {
		folded = out
	}

	var b strings.Builder
	gap := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}

// buckets groups tracks by artist key, keeping first-seen order.
type buckets struct {
	keys  []string
	items map[string][]domain.Track
}

func newBuckets() *buckets {
	return &buckets{items: map[string][]domain.Track{}}
}

func (b *buckets) add(key string, t domain.Track) {
	if _, ok := b.items[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.items[key] = append(b.items[key], t)
}

func (b *buckets) lists() [][]domain.Track {
	out := make([][]domain.Track, 0, len(b.keys))
	for _, k := range b.keys {
		out = append(out, b.items[k])
	}
	return out
}

type capTracker struct {
	perArtist int
	left      map[string]int
}

func (c *capTracker) remaining(key string) int {
	if n, ok := c.left[key]; ok {
		return n
	}
	return c.perArtist
}

func (c *capTracker) take(key string) {
	c.left[key] = max(0, c.remaining(key)-1)
}

// mix builds the discover playlist: one guaranteed track per seeded artist,
// then round-robin over seeded and other artists under the per-artist cap,
// then any remaining unique tracks that still fit the cap.
func (c *ITunesClient) mix(unique []domain.Track, seeds []string) []domain.Track {
	limit := c.cfg.Limit
	seeded := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seeded[normArtist(s)] = true
	}

	seededBuckets, otherBuckets := newBuckets(), newBuckets()
	for _, t := range unique {
		key := normArtist(t.Artist)
		if seeded[key] {
			seededBuckets.add(key, t)
		} else {
			otherBuckets.add(key, t)
		}
	}

	c.mu.Lock()
	for _, b := range []*buckets{seededBuckets, otherBuckets} {
		for _, k := range b.keys {
			list := b.items[k]
			c.rand.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
		}
	}
	c.mu.Unlock()

	caps := &capTracker{perArtist: c.cfg.PerArtistCap, left: map[string]int{}}

	var must []domain.Track
	for _, k := range seededBuckets.keys {
		list := seededBuckets.items[k]
		if len(list) == 0 {
			continue
		}
		must = append(must, list[0])
		seededBuckets.items[k] = list[1:]
		caps.take(k)
	}

	mixed := make([]domain.Track, 0, limit)
	for _, t := range must {
		if len(mixed) >= limit {
			break
		}
		mixed = append(mixed, t)
	}
	mixed = roundRobin(seededBuckets.lists(), mixed, limit, caps)
	mixed = roundRobin(otherBuckets.lists(), mixed, limit, caps)

	if len(mixed) < limit {
		picked := make(map[string]bool, len(mixed))
		for _, t := range mixed {
			picked[t.ID] = true
		}
		for _, t := range unique {
			if len(mixed) >= limit {
				break
			}
			key := normArtist(t.Artist)
			if picked[t.ID] || caps.remaining(key) <= 0 {
				continue
			}
			mixed = append(mixed, t)
			picked[t.ID] = true
			caps.take(key)
		}
	}
	return mixed
}

// roundRobin takes at most one track per bucket per pass until out is full
// or a pass makes no progress. Tracks over their artist's cap are skipped.
func roundRobin(lists [][]domain.Track, out []domain.Track, limit int, caps *capTracker) []domain.Track {
	progressed := true
	for len(out) < limit && progressed {
		progressed = false
		for i := 0; i < len(lists) && len(out) < limit; i++ {
			for len(lists[i]) > 0 && len(out) < limit {
				t := lists[i][0]
				lists[i] = lists[i][1:]
				key := normArtist(t.Artist)
				if caps.remaining(key) > 0 {
					out = append(out, t)
					caps.take(key)
					progressed = true
					break
				}
			}
		}
		live := lists[:0]
		for _, l := range lists {
			if len(l) > 0 {
				live = append(live, l)
			}
		}
		lists = live
	}
	return out
}
