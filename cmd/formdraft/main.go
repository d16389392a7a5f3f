package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	formdraft "github.com/goliatone/go-formdraft"
	"github.com/goliatone/go-formdraft/internal/config"
	"github.com/goliatone/go-formdraft/pkg/attachment"
	"github.com/goliatone/go-formdraft/pkg/contract"
	"github.com/goliatone/go-formdraft/pkg/entity"
	"github.com/goliatone/go-formdraft/pkg/events"
	"github.com/goliatone/go-formdraft/pkg/form"
	"github.com/goliatone/go-formdraft/pkg/metrics"
	"github.com/goliatone/go-formdraft/pkg/notify"
	"github.com/goliatone/go-formdraft/pkg/renderers/tui"
	"github.com/goliatone/go-formdraft/pkg/schema"
	"github.com/goliatone/go-formdraft/pkg/submit"
	"github.com/goliatone/go-formdraft/pkg/view"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to a YAML config file")
		entityFlag  = flag.String("entity", "customer", "Form to fill (proforma, user, customer)")
		previewFlag = flag.Bool("preview", false, "Print the draft values before asking to submit")
		themeFlag   = flag.String("theme", "", "Terminal theme (overrides config)")
		variantFlag = flag.String("variant", "", "Terminal theme variant (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	kind, err := entity.ParseKind(strings.TrimSpace(*entityFlag))
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts, err := formOptions(ctx, cfg, kind, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	themeName, variant := cfg.Theme.Name, cfg.Theme.Variant
	if *themeFlag != "" {
		themeName = *themeFlag
	}
	if *variantFlag != "" {
		variant = *variantFlag
	}
	selector, err := tui.NewManifestSelector()
	if err != nil {
		log.Fatalf("themes: %v", err)
	}
	th, err := tui.ResolveTheme(selector, themeName, variant)
	if err != nil {
		log.Fatalf("theme: %v (available: %v)", err, selector.Names())
	}

	engine, err := view.NewEngine()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	bus := events.New(events.WithLogger(logger))
	desc, _ := entity.Describe(kind)
	bus.Subscribe(desc.Topic, "cli", events.HandlerFunc(func(_ context.Context, evt events.Invalidation) error {
		logger.Info("list invalidated", "topic", evt.Topic, "id", evt.ID)
		return nil
	}))

	dialog := submit.NewDialog()
	opts = append(opts,
		formdraft.WithNotifier(notify.Multi{tui.NewNotifier(os.Stdout, th), notify.LogNotifier{Logger: logger}}),
		formdraft.WithInvalidator(bus),
		formdraft.WithView(dialog),
	)

	s := session{
		prompter: tui.NewPrompter(tui.NewSurveyDriver(os.Stdout, th.Icons()), th),
		engine:   engine,
		preview:  *previewFlag,
		out:      os.Stdout,
		logger:   logger,
	}

	switch kind {
	case entity.KindProforma:
		err = withForm(ctx, s, formdraft.NewProforma, opts, nil)
	case entity.KindUser:
		store, storeErr := attachment.NewFileStore(cfg.Attachment.PreviewDir)
		if storeErr != nil {
			log.Fatalf("preview store: %v", storeErr)
		}
		err = attachment.Scoped(ctx, store, func(h *attachment.Handler) error {
			return withForm(ctx, s, formdraft.NewUser, append(opts, formdraft.WithAttachments(h)), nil)
		}, attachment.WithMaxSize(cfg.Attachment.MaxSize), attachment.WithLogger(logger))
	case entity.KindCustomer:
		err = withForm(ctx, s, formdraft.NewCustomer, opts, func(c entity.Customer) error {
			return s.showCustomer(c)
		})
	}
	if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stdout, "aborted")
		return
	}
	if err != nil {
		log.Fatalf("%s form: %v", kind, err)
	}
}

func formOptions(ctx context.Context, cfg config.Config, kind entity.Kind, logger *slog.Logger) ([]formdraft.Option, error) {
	httpOpts := []submit.HTTPOption{submit.WithHTTPClient(&http.Client{Timeout: cfg.Timeout})}
	for key, value := range cfg.Headers {
		httpOpts = append(httpOpts, submit.WithHeader(key, value))
	}

	opts := []formdraft.Option{
		formdraft.WithBaseURL(cfg.BaseURL, httpOpts...),
		formdraft.WithLogger(logger),
		formdraft.WithPath(cfg.Endpoint(kind)),
	}

	var (
		api *contract.Contract
		err error
	)
	if cfg.Contract != "" {
		api, err = contract.LoadFile(ctx, cfg.Contract)
	} else {
		api, err = contract.Default(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("contract: %w", err)
	}
	opts = append(opts, formdraft.WithContract(api))

	if cfg.Overlay != "" {
		overlay, err := schema.LoadOverlay(cfg.Overlay)
		if err != nil {
			return nil, err
		}
		opts = append(opts, formdraft.WithOverlay(overlay))
	}

	if cfg.MetricsAddr != "" {
		collector := metrics.New(metrics.DefaultNamespace, metrics.WithRuntimeMetrics())
		serveMetrics(ctx, cfg.MetricsAddr, collector.Handler(), logger)
		opts = append(opts, formdraft.WithMetrics(collector))
	}
	return opts, nil
}

func serveMetrics(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
}

type session struct {
	prompter *tui.Prompter
	engine   *view.Engine
	preview  bool
	out      io.Writer
	logger   *slog.Logger
}

func withForm[D any](ctx context.Context, s session, build func(...formdraft.Option) (*formdraft.Form[D], error), opts []formdraft.Option, done func(D) error) error {
	f, err := build(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(context.Background()); err != nil {
			s.logger.Warn("release attachment", "error", err)
		}
	}()

	for {
		ok, err := tui.Fill(ctx, f.Controller(), s.prompter, f.Layout()...)
		if err != nil {
			return err
		}
		if s.preview {
			draft := f.Controller().Snapshot()
			if _, err := view.Preview(s.engine, f.Controller().Schema(), &draft, f.Controller().Errors(), s.out); err != nil {
				return err
			}
		}
		if !ok {
			return nil
		}

		outcome, err := f.Submit(ctx)
		var invalid *form.ValidationError
		switch {
		case errors.As(err, &invalid):
			continue
		case err != nil:
			return err
		case outcome.Succeeded():
			if done != nil {
				return done(f.Controller().Snapshot())
			}
			return nil
		}

		for _, path := range f.Controller().Errors().Paths() {
			if err := s.prompter.Notice(ctx, path+": "+f.Controller().Errors().First(path)); err != nil {
				return err
			}
		}
		retry, err := s.prompter.Confirm(ctx, "Edit and try again?", true)
		if err != nil || !retry {
			return err
		}
	}
}

func (s session) showCustomer(c entity.Customer) error {
	card := view.NewCustomerCard()
	card.Load(&c)
	card.Toggle()
	_, err := card.Render(s.engine, s.out)
	return err
}
