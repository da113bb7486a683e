package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
)

// Check is a single named health check.
type Check interface {
	Check(ctx context.Context) error
	Name() string
}

// Status is the outcome of the last run of a check.
type Status struct {
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	LastError string    `json:"error,omitempty"`
}

// Checker runs its checks periodically and keeps their latest status.
type Checker struct {
	mu       sync.RWMutex
	checks   map[string]Check
	status   map[string]Status
	interval time.Duration
}

func NewChecker(interval time.Duration) *Checker {
	return &Checker{
		checks:   make(map[string]Check),
		status:   make(map[string]Status),
		interval: interval,
	}
}

func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := check.Name()
	c.checks[name] = check
	c.status[name] = Status{Healthy: true, LastCheck: time.Now()}

	log.Debugf("health: added check %s", name)
}

// Start runs the checks immediately and then on every interval until ctx is done.
func (c *Checker) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunChecks(ctx)

	for {
		select {
		case <-ticker.C:
			c.RunChecks(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// RunChecks runs every check concurrently and waits for them to finish.
func (c *Checker) RunChecks(ctx context.Context) {
	c.mu.RLock()
	checks := make([]Check, 0, len(c.checks))
	for _, check := range c.checks {
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(check Check) {
			defer wg.Done()

			err := check.Check(ctx)
			status := Status{Healthy: err == nil, LastCheck: time.Now()}
			if err != nil {
				status.LastError = err.Error()
				log.Errorf("health: check %s failed: %v", check.Name(), err)
			}

			c.mu.Lock()
			c.status[check.Name()] = status
			c.mu.Unlock()
		}(check)
	}
	wg.Wait()
}

func (c *Checker) GetStatus() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Status, len(c.status))
	for name, status := range c.status {
		result[name] = status
	}
	return result
}

// Names returns the registered check names in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, status := range c.status {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// FuncCheck adapts a function into a Check.
type FuncCheck struct {
	name      string
	checkFunc func(ctx context.Context) error
}

func NewFuncCheck(name string, checkFunc func(ctx context.Context) error) *FuncCheck {
	return &FuncCheck{name: name, checkFunc: checkFunc}
}

func (f *FuncCheck) Check(ctx context.Context) error {
	return f.checkFunc(ctx)
}

func (f *FuncCheck) Name() string {
	return f.name
}
