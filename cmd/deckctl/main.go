package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/seagrayinc/streamdeck-hid/pkg/hid"
	"github.com/seagrayinc/streamdeck-hid/pkg/streamdeck"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: deckctl [flags] <command> [args]

commands:
  list                 list attached stream decks
  info                 print device identity and capabilities
  reset                blank all displays and show the idle logo
  brightness <0-100>   set the key backlight
  image <key> <file>   show an image file on one key
  clear [key|all]      blank one key or every key (default all)
  monitor              print input events until interrupted

flags:
`)
	flag.PrintDefaults()
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	serial := flag.String("serial", "", "select the device by serial number")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	if err := run(ctx, *serial, flag.Args()); err != nil {
		slog.Error("deckctl failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, serial string, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}

	mgr, err := hid.NewManager()
	if err != nil {
		return err
	}

	if args[0] == "list" {
		return list(mgr)
	}

	dev, err := open(mgr, serial)
	if err != nil {
		return err
	}
	defer dev.Close()

	switch args[0] {
	case "info":
		return info(dev)
	case "reset":
		return dev.Reset()
	case "brightness":
		if len(args) != 2 {
			return errors.New("usage: deckctl brightness <0-100>")
		}
		percent, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil {
			return fmt.Errorf("bad percentage %q: %w", args[1], err)
		}
		return dev.SetBrightness(uint8(percent))
	case "image":
		if len(args) != 3 {
			return errors.New("usage: deckctl image <key> <file>")
		}
		key, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil {
			return fmt.Errorf("bad key index %q: %w", args[1], err)
		}
		return setImage(dev, uint8(key), args[2])
	case "clear":
		if len(args) == 2 && args[1] != "all" {
			key, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return fmt.Errorf("bad key index %q: %w", args[1], err)
			}
			return dev.ClearButtonImage(uint8(key))
		}
		return dev.ClearAllButtonImages()
	case "monitor":
		return monitor(ctx, dev)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func open(mgr hid.Manager, serial string) (*streamdeck.Device, error) {
	if serial != "" {
		return streamdeck.OpenBySerial(mgr, serial)
	}
	return streamdeck.OpenFirst(mgr)
}

func list(mgr hid.Manager) error {
	infos, err := streamdeck.Enumerate(mgr)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no stream decks connected")
		return nil
	}
	for _, info := range infos {
		rows, cols := info.Kind.KeyLayout()
		fmt.Printf("%s  serial=%s  keys=%d (%dx%d)  encoders=%d  path=%s\n",
			info.Kind, info.SerialNumber, info.Kind.KeyCount(), rows, cols,
			info.Kind.EncoderCount(), info.Path)
	}
	return nil
}

func info(dev *streamdeck.Device) error {
	manufacturer, err := dev.Manufacturer()
	if err != nil {
		return err
	}
	product, err := dev.Product()
	if err != nil {
		return err
	}
	serial, err := dev.SerialNumber()
	if err != nil {
		return err
	}
	firmware, err := dev.FirmwareVersion()
	if err != nil {
		return err
	}

	k := dev.Kind()
	rows, cols := k.KeyLayout()
	fmt.Printf("model:        %s\n", k)
	fmt.Printf("usb id:       %04x:%04x\n", streamdeck.ElgatoVID, k.ProductID())
	fmt.Printf("manufacturer: %s\n", manufacturer)
	fmt.Printf("product:      %s\n", product)
	fmt.Printf("serial:       %s\n", serial)
	fmt.Printf("firmware:     %s\n", firmware)
	fmt.Printf("keys:         %d (%d rows x %d columns)\n", k.KeyCount(), rows, cols)
	if n := k.EncoderCount(); n > 0 {
		fmt.Printf("encoders:     %d\n", n)
	}
	if k.HasSecondaryDisplay() {
		w, h := k.LCDStripSize()
		fmt.Printf("lcd strip:    %dx%d\n", w, h)
	}
	return nil
}

func setImage(dev *streamdeck.Device, key uint8, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return dev.SetButtonImage(key, img)
}

func monitor(ctx context.Context, dev *streamdeck.Device) error {
	slog.Info("monitoring input, interrupt to stop", slog.String("device", dev.Kind().String()))
	for ctx.Err() == nil {
		ev, err := dev.ReadInput(500 * time.Millisecond)
		if err != nil {
			if errors.Is(err, streamdeck.ErrBadInputReport) {
				slog.Warn("skipping report", slog.Any("error", err))
				continue
			}
			return err
		}
		if ev == nil {
			continue
		}
		printEvent(ev)
	}
	return nil
}

func printEvent(ev streamdeck.InputEvent) {
	switch ev := ev.(type) {
	case streamdeck.ButtonStateChange:
		fmt.Printf("buttons: %s\n", formatStates([]bool(ev)))
	case streamdeck.EncoderStateChange:
		fmt.Printf("encoders: %s\n", formatStates([]bool(ev)))
	case streamdeck.EncoderTwist:
		for i, delta := range ev {
			if delta != 0 {
				fmt.Printf("encoder %d twist %+d\n", i, delta)
			}
		}
	case streamdeck.TouchPress:
		fmt.Printf("touch press at (%d, %d)\n", ev.X, ev.Y)
	case streamdeck.TouchLongPress:
		fmt.Printf("touch long press at (%d, %d)\n", ev.X, ev.Y)
	case streamdeck.TouchSwipe:
		fmt.Printf("touch swipe (%d, %d) -> (%d, %d)\n", ev.StartX, ev.StartY, ev.EndX, ev.EndY)
	}
}

func formatStates(states []bool) string {
	out := make([]byte, len(states))
	for i, pressed := range states {
		if pressed {
			out[i] = 'X'
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
