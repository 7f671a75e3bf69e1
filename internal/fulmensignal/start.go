package fulmensignal

import (
	"context"
	"os"
	"os/signal"
)

// Start begins listening for OS delivery of every signal that
// currently has at least one registered handler, dispatching each
// through Handle as it arrives. It returns immediately; call Stop to
// unwind the listener goroutine.
func (m *Manager) Start(ctx context.Context) error {
	descriptors, err := m.descriptorsByName()
	if err != nil {
		return err
	}

	m.mu.Lock()
	seen := make(map[string]bool, len(m.handlers))
	for name := range m.handlers {
		seen[name] = true
	}
	m.mu.Unlock()
	// SIGHUP's config-reload flow runs from an installed ConfigValidator
	// rather than a RegisterHandler call, so it needs to be listened for
	// even with no registered handler on file.
	if m.configValidate != nil {
		seen["SIGHUP"] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sigCh := make(chan os.Signal, len(names))
	nameBySignal := make(map[os.Signal]string, len(names))
	for _, name := range names {
		d, ok := descriptors[name]
		if !ok || !platformSupports(d) {
			continue
		}
		sig := nativeSignal(d)
		nameBySignal[sig] = name
		signal.Notify(sigCh, sig)
	}

	go func() {
		for {
			select {
			case <-m.stopCh:
				signal.Stop(sigCh)
				return
			case <-ctx.Done():
				signal.Stop(sigCh)
				return
			case sig := <-sigCh:
				name, ok := nameBySignal[sig]
				if !ok {
					continue
				}
				_ = m.Handle(ctx, name)
			}
		}
	}()
	return nil
}

// Stop halts the listener goroutine started by Start. Safe to call
// more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}
