// Package state keeps an in-memory view of the guilds, channels, and recent
// messages seen over the gateway. It is fed from the dispatch path and is
// safe for concurrent reads from application code.
package state

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/concordhq/concord-go/pkg/events"
	"github.com/concordhq/concord-go/pkg/types"
)

// DefaultMessageCacheSize bounds the LRU message cache.
const DefaultMessageCacheSize = 1024

// Cache is the concurrency-safe state store.
type Cache struct {
	mu       sync.RWMutex
	guilds   map[types.Snowflake]*types.Guild
	channels map[types.Snowflake]*types.Channel
	messages *lru.Cache[types.Snowflake, *types.Message]
}

// New creates a cache. messageCap <= 0 uses DefaultMessageCacheSize.
func New(messageCap int) *Cache {
	if messageCap <= 0 {
		messageCap = DefaultMessageCacheSize
	}
	msgs, _ := lru.New[types.Snowflake, *types.Message](messageCap)
	return &Cache{
		guilds:   make(map[types.Snowflake]*types.Guild),
		channels: make(map[types.Snowflake]*types.Channel),
		messages: msgs,
	}
}

// Apply folds one dispatched event into the cache. Events the cache does not
// track are ignored.
func (c *Cache) Apply(ev *events.Event) {
	switch e := ev.Payload.(type) {
	case *events.GuildCreate:
		c.putGuild(&e.Guild)
	case *events.GuildUpdate:
		c.putGuild(&e.Guild)
	case *events.GuildDelete:
		c.deleteGuild(e.ID)
	case *events.ChannelCreate:
		c.putChannel(&e.Channel)
	case *events.ChannelUpdate:
		c.putChannel(&e.Channel)
	case *events.ChannelDelete:
		c.mu.Lock()
		delete(c.channels, e.Channel.ID)
		c.mu.Unlock()
	case *events.MessageCreate:
		c.messages.Add(e.ID, &e.Message)
	case *events.MessageUpdate:
		// Partial updates only patch what the cache already holds.
		if prev, ok := c.messages.Get(e.ID); ok {
			merged := *prev
			if e.Content != "" {
				merged.Content = e.Content
			}
			if e.EditedAt != nil {
				merged.EditedAt = e.EditedAt
			}
			c.messages.Add(e.ID, &merged)
		}
	case *events.MessageDelete:
		c.messages.Remove(e.ID)
	}
}

func (c *Cache) putGuild(g *types.Guild) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *g
	c.guilds[g.ID] = &cp
	// GuildCreate carries the guild's channels inline; index them too.
	for i := range g.Channels {
		ch := g.Channels[i]
		if ch.GuildID == "" {
			ch.GuildID = g.ID
		}
		c.channels[ch.ID] = &ch
	}
}

func (c *Cache) deleteGuild(id types.Snowflake) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, id)
	for chID, ch := range c.channels {
		if ch.GuildID == id {
			delete(c.channels, chID)
		}
	}
}

func (c *Cache) putChannel(ch *types.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *ch
	c.channels[ch.ID] = &cp
}

// Guild returns a cached guild, or nil.
func (c *Cache) Guild(id types.Snowflake) *types.Guild {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guilds[id]
}

// Channel returns a cached channel, or nil.
func (c *Cache) Channel(id types.Snowflake) *types.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[id]
}

// Message returns a cached message, or nil once it ages out of the LRU.
func (c *Cache) Message(id types.Snowflake) *types.Message {
	if m, ok := c.messages.Get(id); ok {
		return m
	}
	return nil
}

// GuildCount returns the number of cached guilds.
func (c *Cache) GuildCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.guilds)
}
