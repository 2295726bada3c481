package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/syncs"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/kmsglast/app/console"
	"github.com/umputun/kmsglast/app/metrics"
	"github.com/umputun/kmsglast/app/notify"
	"github.com/umputun/kmsglast/app/service"
	"github.com/umputun/kmsglast/app/web"
)

var opts struct {
	Region       string        `short:"r" long:"region" env:"REGION" default:"/dev/shm/kmsglast.region" description:"capture region file, empty for process memory"`
	Capacity     int           `short:"s" long:"capacity" env:"CAPACITY" default:"8192" description:"capture ring size in bytes"`
	Source       string        `long:"source" env:"SOURCE" description:"console source file or fifo, - for stdin"`
	Command      string        `short:"c" long:"command" env:"COMMAND" description:"command producing console output"`
	Prefix       bool          `long:"prefix" env:"PREFIX" description:"prefix captured command output lines with the command"`
	CaptureSelf  bool          `long:"capture-self" env:"CAPTURE_SELF" description:"capture own log output"`
	SyncInterval time.Duration `long:"sync" env:"SYNC" default:"10s" description:"capture region flush interval, 0 to disable"`
	Dbg          bool          `long:"dbg" env:"DEBUG" description:"debug mode"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"10" description:"how many times restart failed command"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial duration"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"REPEATER"`

	Web struct {
		Enabled      bool    `long:"enabled" env:"ENABLED" description:"enable web server"`
		Address      string  `long:"address" env:"ADDRESS" default:":8080" description:"web server listen address"`
		BaseURL      string  `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /kmsg)"`
		PasswordHash string  `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash of the password for user kmsglast"`
		DisableErase bool    `long:"disable-erase" env:"DISABLE_ERASE" description:"reject erase requests"`
		EraseRate    float64 `long:"erase-rate" env:"ERASE_RATE" default:"1" description:"erase requests per second per client"`
		Metrics      bool    `long:"metrics" env:"METRICS" description:"serve prometheus metrics on /metrics"`
	} `group:"web" namespace:"web" env-namespace:"WEB"`

	Notify struct {
		SMTPHost     string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort     int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS      bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPStartTLS bool          `long:"smtp-starttls" env:"SMTP_STARTTLS" description:"enable SMTP StartTLS"`
		SMTPTimeOut  time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail    string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails     []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		Webhooks     []string      `long:"webhook" env:"WEBHOOK" description:"webhook URL(s)" env-delim:","`
		MaxLogLines  int           `long:"max-log" env:"MAX_LOG" default:"100" description:"max number of recovered lines sent"`
		Template     string        `long:"template" env:"TEMPLATE" description:"custom html template file"`
		HostName     string        `long:"host" env:"HOSTNAME" description:"host name shown in notifications"`
		Retries      int           `long:"retries" env:"RETRIES" default:"3" description:"delivery attempts per destination"`
		Timeout      time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"notification timeout"`
	} `group:"notify" namespace:"notify" env-namespace:"NOTIFY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"/var/log/kmsglast.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max number of days to keep old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"LOG"`
}

var revision = "unknown"

func main() {
	fmt.Printf("kmsglast %s\n", revision)

	p := flags.NewParser(&opts, flags.Default)
	p.NamespaceDelimiter = "."
	p.EnvNamespaceDelimiter = "_"
	p.EnvNamespace = "KMSGLAST"
	if _, err := p.Parse(); err != nil {
		os.Exit(2)
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	con := console.New()
	logOut := setupLogs()
	if opts.CaptureSelf {
		logOut = io.MultiWriter(logOut, console.NewPrefixer(con, "kmsglast"))
	}
	setupLogger(logOut, opts.Dbg)

	rec := service.NewRecorder(service.Params{Capacity: opts.Capacity, Allocator: makeAllocator()})
	rec.Attach(con)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 4)
	task := func(name string, fn func(ctx context.Context) error) func(ctx context.Context) {
		return func(ctx context.Context) {
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}
	}

	grp := syncs.NewSizedGroup(4, syncs.Context(ctx))
	grp.Go(task("recorder", func(ctx context.Context) error {
		rp := service.RunParams{SyncInterval: opts.SyncInterval, NotifyTimeout: opts.Notify.Timeout}
		if n := makeNotifier(); n != nil {
			rp.Notifier = n
		}
		return rec.Run(ctx, rp)
	}))

	if opts.Source != "" {
		grp.Go(task("source", func(ctx context.Context) error {
			src, err := console.OpenSource(ctx, opts.Source)
			if err != nil {
				return err
			}
			defer src.Close()
			return console.Pump(ctx, src, con)
		}))
	}

	if opts.Command != "" {
		grp.Go(task("command", func(ctx context.Context) error {
			var out io.Writer = con
			if opts.Prefix {
				out = console.NewPrefixer(con, opts.Command)
			}
			cmd := console.Command{Line: opts.Command, Out: out, Repeater: repeater.New(&strategy.Backoff{
				Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
				Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter})}
			return cmd.Run(ctx)
		}))
	}

	if opts.Web.Enabled {
		srv, err := makeWebServer(rec)
		if err != nil {
			cancel()
			grp.Wait()
			return err
		}
		grp.Go(task("web", func(ctx context.Context) error { return srv.Run(ctx, opts.Web.Address) }))
	}

	grp.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Printf("[INFO] terminated")
	return nil
}

func makeAllocator() service.Allocator {
	if opts.Region == "" {
		log.Printf("[WARN] no capture region file, console history won't survive restart")
		return service.HeapAllocator{}
	}
	return service.FileAllocator{Path: opts.Region}
}

func makeWebServer(rec *service.Recorder) (*web.Server, error) {
	cfg := web.Config{
		Snapshot:     rec.Snapshot(),
		Status:       rec,
		BaseURL:      validateBaseURL(opts.Web.BaseURL),
		Hostname:     makeHostName(),
		Version:      revision,
		PasswordHash: opts.Web.PasswordHash,
		DisableErase: opts.Web.DisableErase,
		EraseRate:    opts.Web.EraseRate,
	}
	if opts.Web.Metrics {
		cfg.Metrics = metrics.New(rec)
	}
	srv, err := web.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("can't make web server: %w", err)
	}
	return srv, nil
}

func makeNotifier() *notify.Service {
	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "kmsglast@" + makeHostName()
	}
	return notify.NewService(
		notify.Params{
			Host:       makeHostName(),
			MaxLines:   opts.Notify.MaxLogLines,
			Template:   opts.Notify.Template,
			Retries:    opts.Notify.Retries,
			RetryDelay: time.Second,
		},
		notify.SendersParams{
			SMTPHost:       opts.Notify.SMTPHost,
			SMTPPort:       opts.Notify.SMTPPort,
			SMTPUsername:   opts.Notify.SMTPUsername,
			SMTPPassword:   opts.Notify.SMTPPassword,
			SMTPTLS:        opts.Notify.SMTPTLS,
			SMTPStartTLS:   opts.Notify.SMTPStartTLS,
			SMTPTimeout:    opts.Notify.SMTPTimeOut,
			FromEmail:      opts.Notify.FromEmail,
			ToEmails:       opts.Notify.ToEmails,
			WebhookURLs:    opts.Notify.Webhooks,
			WebhookTimeout: opts.Notify.Timeout,
		},
	)
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// validateBaseURL normalizes base URL, drops trailing slash and treats "/" as empty
func validateBaseURL(u string) string {
	return strings.TrimSuffix(u, "/")
}

// setupLogs returns the writer for log output, rotated file if enabled or stdout
func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
}

func setupLogger(out io.Writer, dbg bool) {
	if dbg {
		log.Setup(log.Out(out), log.Err(out), log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return
	}
	log.Setup(log.Out(out), log.Err(out), log.Msec)
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
