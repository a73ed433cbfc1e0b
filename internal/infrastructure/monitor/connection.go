package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Probe checks one dependency. Check may return a short detail string
// that is reported next to the probe state.
type Probe struct {
	Name     string
	Required bool
	Timeout  time.Duration
	Check    func(ctx context.Context) (string, error)
}

type Monitor struct {
	probes []Probe

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger, probes ...Probe) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Components: map[string]Component{}},
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every required probe passed on the last refresh.
// A monitor that has not refreshed yet is offline.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status.LastCheck.IsZero() {
		return false
	}
	for _, component := range m.status.Components {
		if component.Required && !component.Online {
			return false
		}
	}
	return true
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	components := make(map[string]Component, len(m.status.Components))
	for name, component := range m.status.Components {
		components[name] = component
	}
	return Status{Components: components, LastCheck: m.status.LastCheck}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the outcome.
func (m *Monitor) Refresh(ctx context.Context) {
	components := make(map[string]Component, len(m.probes))
	for _, probe := range m.probes {
		components[probe.Name] = m.run(ctx, probe)
	}

	m.mu.Lock()
	m.status = Status{Components: components, LastCheck: time.Now().UTC()}
	m.mu.Unlock()
}

func (m *Monitor) run(ctx context.Context, probe Probe) Component {
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	component := Component{Required: probe.Required}
	detail, err := probe.Check(probeCtx)
	component.Detail = detail
	if err != nil {
		m.logger.Warn("health probe failed", zap.String("probe", probe.Name), zap.Error(err))
		component.Error = err.Error()
		return component
	}
	component.Online = true
	return component
}

// PostgresProbe pings a pgx pool.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return Probe{
		Name:     "postgresql",
		Required: true,
		Check: func(ctx context.Context) (string, error) {
			if pool == nil {
				return "", fmt.Errorf("postgres pool not configured")
			}
			stat := pool.Stat()
			return fmt.Sprintf("connections=%d", stat.TotalConns()), pool.Ping(ctx)
		},
	}
}

// SQLProbe pings a database/sql handle, such as the one underneath gorm.
func SQLProbe(name string, db *sql.DB) Probe {
	return Probe{
		Name:     name,
		Required: true,
		Check: func(ctx context.Context) (string, error) {
			if db == nil {
				return "", fmt.Errorf("%s not configured", name)
			}
			return fmt.Sprintf("open=%d", db.Stats().OpenConnections), db.PingContext(ctx)
		},
	}
}

// RedisProbe pings a redis client.
func RedisProbe(client redislib.UniversalClient, required bool) Probe {
	return Probe{
		Name:     "redis",
		Required: required,
		Timeout:  2 * time.Second,
		Check: func(ctx context.Context) (string, error) {
			if client == nil {
				return "", fmt.Errorf("redis client not configured")
			}
			return "", client.Ping(ctx).Err()
		},
	}
}

// Sizer is implemented by stores that can report how many entries they hold.
type Sizer interface {
	Size() (int, error)
}

// JournalProbe reports the activity journal size. The journal is best-effort,
// so a failing journal never marks the service offline.
func JournalProbe(journal Sizer) Probe {
	return Probe{
		Name: "journal",
		Check: func(context.Context) (string, error) {
			if journal == nil {
				return "", fmt.Errorf("journal not configured")
			}
			size, err := journal.Size()
			return fmt.Sprintf("entries=%d", size), err
		},
	}
}
