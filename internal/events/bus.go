package events

// Bus is the interface for publishing and subscribing to game events.
type Bus interface {
	// Publish publishes an event to all subscribers of its game code topic.
	Publish(event Event)
	// Subscribe subscribes to events for a single game code, or "*" for
	// every game.
	Subscribe(gameCode string) (sub Subscription, out <-chan Event)
	// Close shuts the bus down and drops every subscriber.
	Close()
}

// Subscription represents a subscription to a topic.
type Subscription interface {
	Unsubscribe()
}
