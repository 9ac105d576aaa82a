package logger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Publisher ships aggregated entries. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // unique entries that force a flush
	Topic          string
	MinLevel       zerolog.Level // events below are ignored, default warn
}

type AggregatedLogEntry struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// LogCollector is a zerolog hook that folds repeated warnings and errors
// into counted entries and publishes them in batches. Entries collected
// before a publisher is attached are held until the next flush.
type LogCollector struct {
	config CollectionConfig

	mu        sync.Mutex
	logMap    map[string]*AggregatedLogEntry
	publisher Publisher
	now       func() time.Time
	closed    bool

	flushes chan []AggregatedLogEntry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

func NewLogCollector(config CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	if config.MinLevel == zerolog.NoLevel || config.MinLevel < zerolog.WarnLevel {
		config.MinLevel = zerolog.WarnLevel
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &LogCollector{
		config:  config,
		logMap:  make(map[string]*AggregatedLogEntry),
		now:     time.Now,
		flushes: make(chan []AggregatedLogEntry, 8),
		cancel:  cancel,
	}
	c.wg.Add(2)
	go c.periodicFlush(ctx)
	go c.sender()
	return c
}

// SetPublisher attaches the destination once it exists.
func (c *LogCollector) SetPublisher(p Publisher) {
	c.mu.Lock()
	c.publisher = p
	c.mu.Unlock()
}

// Run implements zerolog.Hook.
func (c *LogCollector) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level < c.config.MinLevel || level == zerolog.NoLevel {
		return
	}
	c.AddLog(level.String(), msg)
}

func (c *LogCollector) AddLog(level, message string) {
	now := c.now()
	key := level + "|" + message

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if entry, ok := c.logMap[key]; ok {
		entry.Count++
		entry.LastSeen = now
	} else {
		c.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	if len(c.logMap) >= c.config.CountThreshold {
		c.flushLocked()
	}
}

// Pending reports how many distinct entries await a flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.logMap)
}

func (c *LogCollector) periodicFlush(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-ctx.Done():
			c.mu.Lock()
			c.flushLocked()
			c.closed = true
			close(c.flushes)
			c.mu.Unlock()
			return
		}
	}
}

// flushLocked hands the current batch to the sender. A full queue drops the
// batch rather than blocking the logging call site.
func (c *LogCollector) flushLocked() {
	if c.closed || len(c.logMap) == 0 || c.publisher == nil {
		return
	}
	batch := make([]AggregatedLogEntry, 0, len(c.logMap))
	for _, entry := range c.logMap {
		batch = append(batch, *entry)
	}
	c.logMap = make(map[string]*AggregatedLogEntry)
	select {
	case c.flushes <- batch:
	default:
	}
}

func (c *LogCollector) sender() {
	defer c.wg.Done()
	for batch := range c.flushes {
		c.mu.Lock()
		p := c.publisher
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = p.Publish(ctx, c.config.Topic, nil, batch)
		cancel()
	}
}

// Close flushes what is left and waits for the sender. Events logged after
// Close are dropped.
func (c *LogCollector) Close() {
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
	})
}
