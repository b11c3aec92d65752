package layout

import (
	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/transform"
)

// Labels records which cells are print targets, keyed by cell name. It is
// produced by the labeling pre-pass and consumed read-only by Resolve.
type Labels map[string]bool

// Targets returns the labeled cell names in library order.
func (l Labels) Targets(lib *Library) []string {
	var names []string
	for _, c := range lib.Cells {
		if l[c.Name] {
			names = append(names, c.Name)
		}
	}
	return names
}

// ApplyLabels runs the target predicate over every cell in the library
// exactly once. The pass is idempotent: the same predicate and library always
// produce the same labels, and no cell is left unlabeled.
func ApplyLabels(lib *Library, predicate func(*Cell) bool) Labels {
	labels := make(Labels, len(lib.Cells))
	for _, c := range lib.Cells {
		labels[c.Name] = predicate(c)
	}
	return labels
}

// Target is a resolved print placement: a labeled cell together with the
// absolute transform composed from the root down to this instance. Repeated
// placements yield one Target per instance.
type Target struct {
	Cell      *Cell
	Transform transform.Transform
}

// Resolve walks the hierarchy breadth-first from top with the identity
// transform. Labeled cells are emitted as targets and not descended into;
// for every other cell each child reference is expanded into its array
// instances and enqueued with the composed transform. Sibling order is
// reference order, so the resulting target order is stable for identical
// input and later drives stage movement sequencing.
//
// Returns a NO_TARGETS error when the hierarchy contains no labeled cell,
// so callers can tell a misconfigured predicate from an empty result.
func Resolve(top *Cell, labels Labels) ([]Target, error) {
	type item struct {
		cell *Cell
		tr   transform.Transform
	}

	queue := []item{{cell: top, tr: transform.Identity()}}
	var targets []Target

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if labels[current.cell.Name] {
			targets = append(targets, Target{Cell: current.cell, Transform: current.tr})
			continue
		}

		for _, ref := range current.cell.Refs {
			for _, placement := range ref.Placements() {
				queue = append(queue, item{
					cell: ref.Cell,
					tr:   transform.Compose(current.tr, placement),
				})
			}
		}
	}

	if len(targets) == 0 {
		return nil, errors.New(errors.ErrCodeNoTargets,
			"no print targets found under cell %q", top.Name)
	}
	return targets, nil
}

// TargetBounds returns the axis-aligned bounding box over the origins of the
// given targets. ok is false for an empty slice.
func TargetBounds(targets []Target) (min, max transform.Vec2, ok bool) {
	for _, target := range targets {
		origin := target.Transform.Origin
		if !ok {
			min, max = origin, origin
			ok = true
			continue
		}
		if origin.X < min.X {
			min.X = origin.X
		}
		if origin.Y < min.Y {
			min.Y = origin.Y
		}
		if origin.X > max.X {
			max.X = origin.X
		}
		if origin.Y > max.Y {
			max.Y = origin.Y
		}
	}
	return min, max, ok
}
