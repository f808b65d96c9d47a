package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ADRFlow/internal/basket"
	"ADRFlow/internal/model"
	"ADRFlow/internal/provider"
	"ADRFlow/internal/report"
	"ADRFlow/internal/resolver"
)

var target = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

func newTestScheduler(t *testing.T, sender Sender) *Scheduler {
	t.Helper()
	def, err := basket.Parse([]byte(`
version: 1
cross_listing: {local: YPFD.BA, foreign: YPF}
baskets:
  - {name: adr, label: ADRs, currency: USD, symbols: [YPF, GGAL]}
  - {name: panel_lider, label: Panel Líder, currency: ARS, normalize: true, symbols: [YPFD.BA]}
`))
	require.NoError(t, err)

	p := provider.NewStaticProvider().
		AddClose("YPF", target, 20, 100).
		AddClose("GGAL", target, 30, 10).
		AddClose("YPFD.BA", target, 1000, 4).
		AddClose("YPF", target.AddDate(0, 0, -7), 20, 50)
	agg := basket.NewAggregator(resolver.New(p, resolver.Options{}, nil, nil), 1, nil)
	b := report.NewBuilder(def, agg, time.UTC, nil, nil)
	return NewScheduler(context.Background(), b, def, sender, time.UTC, nil)
}

func TestHandleCommand(t *testing.T) {
	s := newTestScheduler(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		command  string
		contains []string
	}{
		{"single date", "/report 2024-05-10", []string{"ADR flow | 2024-05-10", "Ratio YPFD.BA/YPF: 50", "• ADRs [USD]: 2,300"}},
		{"bot suffix", "/report@adrflow_bot 2024-05-10", []string{"ADR flow | 2024-05-10"}},
		{"compare", "/report 2024-05-03 2024-05-10", []string{"ADR flow | 2024-05-03", "Change 2024-05-03 → 2024-05-10", "• adr: 1,000 → 2,300 (+130.0%)"}},
		{"bad date", "/report 10/05/2024", []string{"invalid date"}},
		{"too many", "/report 2024-05-01 2024-05-02 2024-05-03", []string{"at most two dates"}},
		{"future", "/report 2999-01-01", []string{"date is in the future"}},
		{"baskets", "/baskets", []string{"ADRs (USD): 2 symbols, raw", "Panel Líder (ARS): 1 symbols, normalized"}},
		{"help", "/start", []string{"Available commands", "/report"}},
		{"empty", "   ", []string{"Available commands"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := s.HandleCommand(ctx, tt.command)
			for _, want := range tt.contains {
				assert.Contains(t, reply, want)
			}
		})
	}
}

func TestRunNow_SendsTodaysReport(t *testing.T) {
	sender := &fakeSender{}
	s := newTestScheduler(t, sender)

	s.RunNow()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "ADR flow | "+s.Builder.Today().Format(model.DateLayout))
}

func TestRunNow_SendFailureIsLogged(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	s := newTestScheduler(t, sender)

	assert.NotPanics(t, s.RunNow)
	assert.Len(t, sender.sent, 1)
}

func TestRunNow_NoSender(t *testing.T) {
	s := newTestScheduler(t, nil)
	assert.NotPanics(t, s.RunNow)
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(t, nil)
	require.NoError(t, s.Register("0 30 18 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("every day"))

	s.Start()
	s.Stop()
}
