// Package schedule maps a gestational week or baby age onto a messageset,
// its delivery schedule and the sequence number a new subscriber starts at.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hub/internal/ports"
)

// ErrUnknownMessageset is returned when the catalog has no entry for a short name.
var ErrUnknownMessageset = errors.New("messageset not found")

const whatsappPrefix = "whatsapp_"

// batch is one numbered slice of a program. Positions at or above lower
// select it; sequence numbers count from origin.
type batch struct {
	lower  int
	origin int
}

// programs lists the batched programs by kind and authority. Kinds not listed
// here are delivered as a single batch counted from position 0.
var programs = map[string][]batch{
	"pmtct_prebirth.*": {
		{lower: 0, origin: 7},
		{lower: 30, origin: 30},
		{lower: 35, origin: 35},
	},
	"pmtct_postbirth.*": {
		{lower: 0, origin: 0},
		{lower: 2, origin: 2},
	},
	"momconnect_prebirth.hw_full": {
		{lower: 0, origin: 5},
		{lower: 32, origin: 32},
		{lower: 36, origin: 36},
		{lower: 37, origin: 37},
		{lower: 38, origin: 38},
		{lower: 39, origin: 39},
	},
	"momconnect_postbirth.*": {
		{lower: 0, origin: 0},
		{lower: 15, origin: 15},
	},
}

var single = []batch{{lower: 0, origin: 0}}

func lookup(kind, authority string) []batch {
	base := strings.TrimPrefix(kind, whatsappPrefix)
	if b, ok := programs[base+"."+authority]; ok {
		return b
	}
	if b, ok := programs[base+".*"]; ok {
		return b
	}
	return single
}

// selectBatch returns the 1-based batch for position. Below the first
// threshold clamps to batch 1; above the last clamps to the last batch.
func selectBatch(batches []batch, position int) int {
	n := 1
	for i, b := range batches {
		if position >= b.lower {
			n = i + 1
		}
	}
	return n
}

// ShortName returns the catalog key "<kind>.<authority>.<batch>" for position.
// kind may carry a whatsapp_ prefix, which is preserved.
func ShortName(kind, authority string, position int) string {
	n := selectBatch(lookup(kind, authority), position)
	return fmt.Sprintf("%s.%s.%d", kind, authority, n)
}

// Key is a parsed catalog short name.
type Key struct {
	Kind      string
	Authority string
	Batch     int
}

// ParseKey splits a short name produced by ShortName.
func ParseKey(shortName string) (Key, error) {
	parts := strings.Split(shortName, ".")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("malformed messageset short name %q", shortName)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return Key{}, fmt.Errorf("malformed messageset batch in %q", shortName)
	}
	return Key{Kind: parts[0], Authority: parts[1], Batch: n}, nil
}

// Origin is the position at which the batch's sequence number is 1.
func (k Key) Origin() int {
	batches := lookup(k.Kind, k.Authority)
	if k.Batch > len(batches) {
		return batches[len(batches)-1].origin
	}
	return batches[k.Batch-1].origin
}

// Sequence computes the start position within a batch, never below 1.
func Sequence(origin, position, messagesPerCycle int) int {
	seq := (position-origin)*messagesPerCycle + 1
	if seq < 1 {
		return 1
	}
	return seq
}

// MessagesPerCycle counts the delivery days encoded in a schedule's day_of_week.
func MessagesPerCycle(dayOfWeek string) int {
	if strings.TrimSpace(dayOfWeek) == "" {
		return 1
	}
	return len(strings.Split(dayOfWeek, ","))
}

// Resolution is where a new subscriber starts.
type Resolution struct {
	MessagesetID int
	ScheduleID   int
	Sequence     int
}

// Sequencer resolves catalog keys against the Subscription Service catalog.
type Sequencer struct {
	catalog ports.Catalog
}

// NewSequencer builds a Sequencer over catalog.
func NewSequencer(catalog ports.Catalog) *Sequencer {
	return &Sequencer{catalog: catalog}
}

// Resolve looks up shortName and computes the sequence number for position.
func (s *Sequencer) Resolve(ctx context.Context, shortName string, position int) (Resolution, error) {
	key, err := ParseKey(shortName)
	if err != nil {
		return Resolution{}, err
	}
	sets, err := s.catalog.ListMessagesets(ctx, shortName)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s: %w", shortName, err)
	}
	if len(sets) == 0 {
		return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownMessageset, shortName)
	}
	set := sets[0]
	sched, err := s.catalog.GetSchedule(ctx, set.DefaultSchedule)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s schedule: %w", shortName, err)
	}
	return Resolution{
		MessagesetID: set.ID,
		ScheduleID:   sched.ID,
		Sequence:     Sequence(key.Origin(), position, MessagesPerCycle(sched.DayOfWeek)),
	}, nil
}

// ResolveFor is ShortName followed by Resolve.
func (s *Sequencer) ResolveFor(ctx context.Context, kind, authority string, position int) (string, Resolution, error) {
	name := ShortName(kind, authority, position)
	res, err := s.Resolve(ctx, name, position)
	return name, res, err
}
