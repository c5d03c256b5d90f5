package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
)

const DefaultDigestSpec = "@hourly"

// TaskSource is the read side of the task service.
type TaskSource interface {
	Tasks() []model.Task
	Today() model.Date
}

type DigestOptions struct {
	Spec     string
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Digest periodically reports how many of today's tasks are still open.
type Digest struct {
	source   TaskSource
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	cron     *cron.Cron
	spec     string
}

func NewDigest(source TaskSource, notifier Notifier, opts DigestOptions) (*Digest, error) {
	if opts.Spec == "" {
		opts.Spec = DefaultDigestSpec
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	d := &Digest{
		source:   source,
		notifier: notifier,
		logger:   opts.Logger,
		now:      opts.Now,
		cron:     cron.New(cron.WithLocation(opts.Location)),
		spec:     opts.Spec,
	}
	if _, err := d.cron.AddFunc(opts.Spec, func() { d.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("reminder: invalid digest schedule %q: %w", opts.Spec, err)
	}
	return d, nil
}

func (d *Digest) Spec() string {
	return d.spec
}

func (d *Digest) Start() {
	d.cron.Start()
}

func (d *Digest) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

// RunOnce sends the digest when today has open tasks and returns the count.
func (d *Digest) RunOnce(ctx context.Context) int {
	open := calendar.OpenOn(d.source.Tasks(), d.source.Today())
	if open == 0 {
		d.logger.Debug("digest skipped, nothing open today")
		return 0
	}
	if err := d.notifier.Send(ctx, model.DigestNotice(open, d.now())); err != nil {
		d.logger.Warn("digest notification failed", "error", err)
	}
	return open
}

// DailySpec converts "HH:MM" into a cron schedule firing once a day.
func DailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// ScheduleSpec accepts a cron expression, a descriptor such as @hourly, a
// Go duration (run every interval) or an HH:MM daily time.
func ScheduleSpec(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return DefaultDigestSpec, nil
	case strings.HasPrefix(raw, "@"):
		return raw, nil
	case strings.Count(raw, ":") == 1 && !strings.Contains(raw, " "):
		return DailySpec(raw)
	}
	if dur, err := time.ParseDuration(raw); err == nil {
		if dur < time.Second {
			return "", fmt.Errorf("interval %s is too short", dur)
		}
		return "@every " + dur.String(), nil
	}
	if _, err := cron.ParseStandard(raw); err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", raw, err)
	}
	return raw, nil
}
