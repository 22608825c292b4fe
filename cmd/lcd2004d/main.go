/*
Copyright 2024 Tim St. Pierre
lcd2004d hosts one or more 2004 displays and feeds them write requests
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/tstpierre-tc/lcd2004"
	"github.com/tstpierre-tc/lcd2004/internal/config"
	"github.com/tstpierre-tc/lcd2004/internal/ingress"
	"github.com/tstpierre-tc/lcd2004/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	verbose := flag.Bool("v", false, "debug logging")
	simulate := flag.Bool("simulate", false, "drive a simulated display on the terminal")
	flag.Parse()

	log.SetOutput(colorable.NewColorableStderr())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := mainImpl(*configPath, *verbose, *simulate); err != nil {
		log.Fatal(err)
	}
}

func mainImpl(configPath string, verbose, simulate bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	cfg.Simulate = cfg.Simulate || simulate
	log.SetLevel(cfg.Level())
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := newHost(cfg.Simulate)
	defer h.close()
	if err := h.probe(cfg.Displays); err != nil {
		return err
	}

	sources, err := buildSources(cfg, h)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range sources {
		g.Go(func() error {
			log.WithField("source", s.src.String()).WithField("device", s.dev.Name()).Info("serving")
			if err := s.src.Serve(ctx, s.w); err != nil {
				return fmt.Errorf("%s: %w", s.src, err)
			}
			return nil
		})
	}
	for _, m := range h.models {
		g.Go(func() error { return render(ctx, m) })
	}
	return g.Wait()
}

// hosting owns the buses and display instances for the life of the process.
type hosting struct {
	simulate bool
	buses    map[string]i2c.BusCloser
	devs     []*lcd2004.Dev
	writers  []*lcd2004.Dispatcher
	models   []*sim.Model
}

func newHost(simulate bool) *hosting {
	return &hosting{simulate: simulate, buses: map[string]i2c.BusCloser{}}
}

// probe brings up every configured display, in order, so that its index is
// its ordinal.
func (h *hosting) probe(displays []config.Display) error {
	if !h.simulate {
		if _, err := host.Init(); err != nil {
			return err
		}
	}
	for i := range displays {
		opts, err := displays[i].Opts()
		if err != nil {
			return err
		}
		var d *lcd2004.Dev
		if h.simulate {
			m := sim.New()
			h.models = append(h.models, m)
			d, err = lcd2004.New(m, i, &opts)
		} else {
			var bus i2c.Bus
			if bus, err = h.bus(displays[i].Bus); err != nil {
				return err
			}
			d, err = lcd2004.NewI2C(bus, i, &opts)
		}
		if err != nil {
			return fmt.Errorf("display %d: %w", i, err)
		}
		log.WithField("device", d.Name()).WithField("address", fmt.Sprintf("%#x", opts.I2CAddr)).Info("probed")
		h.devs = append(h.devs, d)
		h.writers = append(h.writers, lcd2004.NewDispatcher(d))
	}
	return nil
}

func (h *hosting) bus(name string) (i2c.Bus, error) {
	if b, ok := h.buses[name]; ok {
		return b, nil
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I²C %q: %w", name, err)
	}
	h.buses[name] = b
	return b, nil
}

// close halts the displays and releases the buses.
func (h *hosting) close() {
	for _, d := range h.devs {
		if err := d.Halt(); err != nil {
			log.WithField("device", d.Name()).WithError(err).Warn("halt failed")
		}
		log.WithField("device", d.Name()).Info("removed")
	}
	for _, b := range h.buses {
		_ = b.Close()
	}
}

type source struct {
	src ingress.Source
	w   io.Writer
	dev *lcd2004.Dev
}

func buildSources(cfg *config.Config, h *hosting) ([]source, error) {
	var out []source
	add := func(src ingress.Source, display int) {
		out = append(out, source{src: src, w: h.writers[display], dev: h.devs[display]})
	}
	in := cfg.Ingress
	if in.Stdin != nil {
		add(&ingress.Stream{Name: "stdin", R: os.Stdin}, in.Stdin.Display)
	}
	for _, f := range in.Files {
		add(&ingress.File{Path: f.Path}, f.Display)
	}
	for _, s := range in.Serial {
		add(&ingress.Serial{Device: s.Device, Baud: s.Baud}, s.Display)
	}
	for _, t := range in.TCP {
		src, err := ingress.ListenTCP(t.Listen)
		if err != nil {
			return nil, err
		}
		src.Announce = t.Announce
		src.Instance = t.Instance
		if src.Instance == "" {
			src.Instance = h.devs[t.Display].Name()
		}
		src.Text = []string{"device=" + h.devs[t.Display].Name()}
		add(src, t.Display)
	}
	for _, m := range in.MQTT {
		add(&ingress.MQTT{
			Broker:   m.Broker,
			Topic:    m.Topic,
			ClientID: m.ClientID,
			Username: m.Username,
			Password: m.Password,
		}, m.Display)
	}
	return out, nil
}

// render redraws a simulated display until ctx is done.
func render(ctx context.Context, m *sim.Model) error {
	out := colorable.NewColorableStdout()
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			_, _ = io.WriteString(out, "\033[H\033[2J")
			if err := m.Render(out, nil); err != nil {
				return err
			}
		}
	}
}
