package room

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

// reactionAggregator batches spectator reactions into one burst per window.
// It is owned by the room goroutine; only the timer callback runs elsewhere,
// and it does nothing but hand a generation tag back to the room.
type reactionAggregator struct {
	clock    clockwork.Clock
	window   time.Duration
	cooldown time.Duration

	buffer     map[string]int
	cooldowns  map[string]time.Time
	timer      clockwork.Timer
	generation uint64

	onFire func(gen uint64)
}

func newReactionAggregator(clock clockwork.Clock, window, cooldown time.Duration, onFire func(gen uint64)) *reactionAggregator {
	return &reactionAggregator{
		clock:     clock,
		window:    window,
		cooldown:  cooldown,
		buffer:    make(map[string]int),
		cooldowns: make(map[string]time.Time),
		onFire:    onFire,
	}
}

// add records a reaction from sender. It reports whether it was accepted.
func (a *reactionAggregator) add(sender, emoji string, count *float64) bool {
	if !protocol.ValidEmoji(emoji) {
		return false
	}

	now := a.clock.Now()
	if last, ok := a.cooldowns[sender]; ok && now.Sub(last) < a.cooldown {
		return false
	}
	a.cooldowns[sender] = now
	a.buffer[emoji] += protocol.ClampReactionCount(count)

	if a.timer == nil {
		gen := a.generation
		a.timer = a.clock.AfterFunc(a.window, func() { a.onFire(gen) })
	}
	return true
}

// drain empties the buffer for the flush tagged gen. A tag from a timer that
// was cancelled or already drained yields nothing.
func (a *reactionAggregator) drain(gen uint64) []protocol.ReactionCount {
	if gen != a.generation || a.timer == nil {
		return nil
	}
	a.timer = nil
	a.generation++

	reactions := make([]protocol.ReactionCount, 0, len(a.buffer))
	for _, emoji := range protocol.Emojis {
		if count := a.buffer[emoji]; count > 0 {
			reactions = append(reactions, protocol.ReactionCount{Emoji: emoji, Count: count})
		}
	}
	clear(a.buffer)
	return reactions
}

// forget drops the cooldown entry of a departed spectator
func (a *reactionAggregator) forget(sender string) {
	delete(a.cooldowns, sender)
}

// reset cancels any pending flush and clears all buffered state
func (a *reactionAggregator) reset() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.generation++
	clear(a.buffer)
	clear(a.cooldowns)
}

func (a *reactionAggregator) pending() bool {
	return a.timer != nil
}

func (a *reactionAggregator) buffered() int {
	total := 0
	for _, count := range a.buffer {
		total += count
	}
	return total
}

// handleReaction feeds a spectator reaction to the aggregator
func (r *Room) handleReaction(sender string, msg *protocol.SendReaction) {
	if _, ok := r.spectators[sender]; !ok {
		return
	}
	if !r.reactions.add(sender, msg.Emoji, msg.Count) {
		r.logger.Debug().
			Str("connection_id", sender).
			Str("emoji", msg.Emoji).
			Msg("Reaction dropped")
	}
}

// flushReactions broadcasts the buffered burst to every connection in the room
func (r *Room) flushReactions(gen uint64) {
	reactions := r.reactions.drain(gen)
	if len(reactions) == 0 {
		return
	}

	total := 0
	for _, rc := range reactions {
		total += rc.Count
	}

	r.broadcast(protocol.NewReactionBurst(reactions, r.clock.Now().UnixMilli()))
	r.publish(events.EventReactionBurst, events.BurstPayload{Total: total, Distinct: len(reactions)})
}
