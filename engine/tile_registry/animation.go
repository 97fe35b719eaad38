package tile_registry

import (
	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_surface"
)

// AnimationFrameDuration is the number of ticks a frame stays on screen.
const AnimationFrameDuration = 50

// AnimationHandle identifies one submitted animated sprite. Handles are never reused within
// a registry's lifetime.
type AnimationHandle uint64

// animatedEntry is one animated sprite plus its playback state.
type animatedEntry struct {
	handle AnimationHandle
	sprite common.AnimatedSprite

	currentFrame        int
	framesSinceLastDraw int

	// command and surface hold what the entry last drew. surface is nil when nothing is drawn.
	command common.DrawCommand
	surface tile_surface.TileSurface
}

// reset rewinds playback so the next tick draws frame 0.
func (e *animatedEntry) reset() {
	e.currentFrame = 0
	e.framesSinceLastDraw = AnimationFrameDuration
	e.surface = nil
}

func (r *tileRegistry) DrawAnimatedSpritesBatched(sprites []common.AnimatedSprite) []AnimationHandle {
	r.mustReady("DrawAnimatedSpritesBatched")
	if len(sprites) == 0 {
		return nil
	}

	handles := make([]AnimationHandle, 0, len(sprites))
	for _, s := range sprites {
		r.nextHandle++
		e := &animatedEntry{
			handle: r.nextHandle,
			sprite: s,
		}
		e.reset()
		r.animated = append(r.animated, e)
		handles = append(handles, e.handle)
	}
	return handles
}

func (r *tileRegistry) RemoveAnimated(h AnimationHandle) bool {
	r.mustReady("RemoveAnimated")
	for i, e := range r.animated {
		if e.handle != h {
			continue
		}
		r.animated = append(r.animated[:i], r.animated[i+1:]...)
		if e.surface != nil && e.sprite.Z == r.activeZ {
			r.submitAnimated(r.activeZ)
		}
		return true
	}
	return false
}

func (r *tileRegistry) RemoveAnimatedBatch(hs []AnimationHandle) int {
	r.mustReady("RemoveAnimatedBatch")
	if len(hs) == 0 || len(r.animated) == 0 {
		return 0
	}

	drop := make(map[AnimationHandle]struct{}, len(hs))
	for _, h := range hs {
		drop[h] = struct{}{}
	}

	kept := r.animated[:0]
	removed := 0
	redraw := false
	for _, e := range r.animated {
		if _, ok := drop[e.handle]; !ok {
			kept = append(kept, e)
			continue
		}
		removed++
		if e.surface != nil && e.sprite.Z == r.activeZ {
			redraw = true
		}
	}
	clear(r.animated[len(kept):])
	r.animated = kept

	if redraw {
		r.submitAnimated(r.activeZ)
	}
	return removed
}

func (r *tileRegistry) UpdateAnimatedSprites(activeZ int32) {
	r.mustReady("UpdateAnimatedSprites")
	r.activeZ = activeZ

	advanced := false
	for _, e := range r.animated {
		if r.tick(e) {
			advanced = true
		}
	}
	if advanced {
		r.submitAnimated(activeZ)
	}
}

// tick advances one entry by one tick and reports whether its frame changed.
func (r *tileRegistry) tick(e *animatedEntry) bool {
	n := len(e.sprite.Indices)
	if n == 0 {
		return false
	}
	if e.framesSinceLastDraw < AnimationFrameDuration {
		e.framesSinceLastDraw++
		return false
	}

	previous := e.currentFrame
	e.currentFrame = (e.currentFrame + 1) % n
	e.framesSinceLastDraw = 0

	// The owning surface is chosen by the frame becoming current, while the sprite drawn is
	// the frame being retired.
	surface := r.surfaceFor(e.sprite.Indices[e.currentFrame])
	if surface == nil {
		e.surface = nil
		return true
	}
	drawn := e.sprite.Indices[previous]
	if start, _, _ := surface.Range(); drawn < start {
		e.surface = nil
		return true
	}

	e.command = r.drawCommand(surface.LocalIndex(drawn), e.sprite.Position, e.sprite.Layer, e.sprite.RotateDeg)
	e.surface = surface
	return true
}

// submitAnimated replaces the animated segment of every surface with the last commands of the
// entries on z-level z, in submission order.
func (r *tileRegistry) submitAnimated(z int32) {
	groups := make(map[tile_surface.TileSurface][]common.DrawCommand, len(r.surfaces))
	for _, e := range r.animated {
		if e.surface == nil || e.sprite.Z != z {
			continue
		}
		groups[e.surface] = append(groups[e.surface], e.command)
	}
	for _, s := range r.surfaces {
		s.AppendSpriteLocalIndexBatched(groups[s])
	}
}
